// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/plantwatch/plantwatch-go/internal/conf"
)

// Interface abstracts the underlying database implementation and defines
// the operations the loader, detector and archiver need. Lookup methods
// return (nil, nil) when no row matches the natural key.
type Interface interface {
	Open() error
	Close() error

	// Transaction runs fn against a transactional view of the store and
	// commits only when fn returns nil.
	Transaction(fn func(tx Interface) error) error

	GetOrigin(longitude, latitude float64) (*Origin, error)
	CreateOrigin(origin *Origin) error
	GetPlant(id int) (*Plant, error)
	CreatePlant(plant *Plant) error
	GetImage(originalURL string) (*Image, error)
	CreateImage(image *Image) error
	GetBotanist(email, phone, firstName, lastName string) (*Botanist, error)
	CreateBotanist(botanist *Botanist) error
	CreateRecording(recording *Recording) error

	GetAllRecordings() ([]Recording, error)
	GetArchiveRows() ([]ArchiveRow, error)
	TruncateRecordings() error
}

// ErrDuplicateKey is returned by Create methods when the row violates a
// unique constraint. Callers resolve it by looking the row up again.
var ErrDuplicateKey = gorm.ErrDuplicatedKey

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided settings.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}, nil
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, fmt.Errorf("no database output enabled")
	}
}

// Open and Close are provided by the concrete store types; on the bare
// transactional view they are no-ops, as on MemStore.
func (ds *DataStore) Open() error  { return nil }
func (ds *DataStore) Close() error { return nil }

// Transaction runs fn within a database transaction. The transactional view
// shares the DataStore method set, so fn can use the same Interface it was
// handed outside the transaction.
func (ds *DataStore) Transaction(fn func(tx Interface) error) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&DataStore{DB: tx})
	})
}

// GetOrigin retrieves an origin by its natural key.
func (ds *DataStore) GetOrigin(longitude, latitude float64) (*Origin, error) {
	var origin Origin
	err := ds.DB.Where("longitude = ? AND latitude = ?", longitude, latitude).First(&origin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting origin (%f, %f): %w", longitude, latitude, err)
	}
	return &origin, nil
}

// CreateOrigin inserts a new origin row.
func (ds *DataStore) CreateOrigin(origin *Origin) error {
	if err := ds.DB.Create(origin).Error; err != nil {
		return fmt.Errorf("creating origin: %w", err)
	}
	return nil
}

// GetPlant retrieves a plant by its source-assigned identifier.
func (ds *DataStore) GetPlant(id int) (*Plant, error) {
	var plant Plant
	err := ds.DB.Where("plant_id = ?", id).First(&plant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting plant %d: %w", id, err)
	}
	return &plant, nil
}

// CreatePlant inserts a new plant row.
func (ds *DataStore) CreatePlant(plant *Plant) error {
	if err := ds.DB.Create(plant).Error; err != nil {
		return fmt.Errorf("creating plant %d: %w", plant.ID, err)
	}
	return nil
}

// GetImage retrieves an image by its original URL.
func (ds *DataStore) GetImage(originalURL string) (*Image, error) {
	var image Image
	err := ds.DB.Where("original_url = ?", originalURL).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting image: %w", err)
	}
	return &image, nil
}

// CreateImage inserts a new image row.
func (ds *DataStore) CreateImage(image *Image) error {
	if err := ds.DB.Create(image).Error; err != nil {
		return fmt.Errorf("creating image: %w", err)
	}
	return nil
}

// GetBotanist retrieves a botanist by the four-field natural key.
func (ds *DataStore) GetBotanist(email, phone, firstName, lastName string) (*Botanist, error) {
	var botanist Botanist
	err := ds.DB.Where(
		"email = ? AND phone = ? AND first_name = ? AND last_name = ?",
		email, phone, firstName, lastName,
	).First(&botanist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting botanist: %w", err)
	}
	return &botanist, nil
}

// CreateBotanist inserts a new botanist row.
func (ds *DataStore) CreateBotanist(botanist *Botanist) error {
	if err := ds.DB.Create(botanist).Error; err != nil {
		return fmt.Errorf("creating botanist: %w", err)
	}
	return nil
}

// CreateRecording inserts a new recording fact row.
func (ds *DataStore) CreateRecording(recording *Recording) error {
	if err := ds.DB.Create(recording).Error; err != nil {
		return fmt.Errorf("creating recording for plant %d: %w", recording.PlantID, err)
	}
	return nil
}

// GetAllRecordings returns the full retained fact history.
func (ds *DataStore) GetAllRecordings() ([]Recording, error) {
	var recordings []Recording
	if err := ds.DB.Find(&recordings).Error; err != nil {
		return nil, fmt.Errorf("getting recordings: %w", err)
	}
	return recordings, nil
}

// GetArchiveRows returns every recording joined with its plant's names,
// ordered by plant then time for a stable archive layout.
func (ds *DataStore) GetArchiveRows() ([]ArchiveRow, error) {
	var rows []ArchiveRow
	err := ds.DB.Model(&Recording{}).
		Select("recordings.plant_id, plants.plant_name, plants.scientific_name, recordings.recording_taken AS taken, recordings.soil_moisture, recordings.temperature").
		Joins("JOIN plants ON plants.plant_id = recordings.plant_id").
		Order("recordings.plant_id, recordings.recording_taken").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("getting archive rows: %w", err)
	}
	return rows, nil
}

// TruncateRecordings removes every fact row. Reference entities survive the
// reset; only the append-only history is bounded this way.
func (ds *DataStore) TruncateRecordings() error {
	if err := ds.DB.Where("1 = 1").Delete(&Recording{}).Error; err != nil {
		return fmt.Errorf("truncating recordings: %w", err)
	}
	return nil
}
