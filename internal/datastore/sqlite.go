package datastore

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/plantwatch/plantwatch-go/internal/conf"
)

// SQLiteStore implements DataStore for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return fmt.Errorf("sqlite database path is not set")
	}
	return nil
}

// Open sets up the SQLite database connection and runs migrations.
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	db, err := gorm.Open(sqlite.Open(store.Settings.Output.SQLite.Path), &gorm.Config{
		Logger:         createGormLogger(store.Settings.Debug),
		TranslateError: true, // unique violations surface as gorm.ErrDuplicatedKey
	})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// A single writer connection sidesteps SQLITE_BUSY under the loader's
	// batch transaction.
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", store.Settings.Output.SQLite.Path)
}

// Close closes the SQLite database connection.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve generic DB object: %w", err)
	}
	return sqlDB.Close()
}
