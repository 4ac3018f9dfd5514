package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/plantwatch/plantwatch-go/internal/logging"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. Archive extraction scans the whole fact table, so the
// threshold is generous.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	return gormlogger.New(&slogWriter{logger: logging.ForComponent("datastore")}, gormlogger.Config{
		SlowThreshold:             DefaultSlowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true, // not-found is the loader's resolve-or-create steady state
	})
}

// slogWriter adapts the structured logger to GORM's printf-style interface.
type slogWriter struct {
	logger *slog.Logger
}

func (w *slogWriter) Printf(format string, args ...any) {
	w.logger.Debug("gorm", "message", fmt.Sprintf(format, args...))
}

// performAutoMigration runs GORM auto-migration for the full schema in
// dependency order.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Origin{}, &Plant{}, &Image{}, &Botanist{}, &Recording{}); err != nil {
		return &MigrationError{DBType: dbType, Err: err}
	}
	if debug {
		logging.ForComponent("datastore").Debug("database initialized",
			"type", dbType, "connection", connectionInfo)
	}
	return nil
}

// MigrationError reports a failed schema migration.
type MigrationError struct {
	DBType string
	Err    error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("failed to auto-migrate %s database: %v", e.DBType, e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }
