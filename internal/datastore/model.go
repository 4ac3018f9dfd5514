// model.go this code defines the relational data model for the pipeline
package datastore

import "time"

// Origin represents the geographic provenance of a plant. The longitude and
// latitude pair is the natural key; the unique index is what lets the loader
// treat an insert conflict as "already exists".
type Origin struct {
	ID          uint    `gorm:"column:origin_id;primaryKey"`
	Longitude   float64 `gorm:"uniqueIndex:idx_origins_lon_lat;not null"`
	Latitude    float64 `gorm:"uniqueIndex:idx_origins_lon_lat;not null"`
	PlaceName   string
	CountryCode string `gorm:"type:varchar(8)"`
	Timezone    string
}

// Plant represents a monitored plant. The primary key is assigned by the
// upstream source, never generated here.
type Plant struct {
	ID             int `gorm:"column:plant_id;primaryKey;autoIncrement:false"`
	PlantName      string
	ScientificName *string // nil when upstream data failed the cleaning rule
	OriginID       uint    `gorm:"index;not null"`
	Origin         Origin  `gorm:"foreignKey:OriginID;references:ID;constraint:OnDelete:CASCADE"`
}

// Botanist represents the person responsible for readings. All four fields
// together form the natural key.
type Botanist struct {
	ID        uint   `gorm:"column:botanist_id;primaryKey"`
	Email     string `gorm:"uniqueIndex:idx_botanists_identity;type:varchar(255)"`
	Phone     string `gorm:"uniqueIndex:idx_botanists_identity;type:varchar(64)"`
	FirstName string `gorm:"uniqueIndex:idx_botanists_identity;type:varchar(128)"`
	LastName  string `gorm:"uniqueIndex:idx_botanists_identity;type:varchar(128)"`
}

// Image represents a reference photo for a plant, keyed by its original URL.
type Image struct {
	ID          uint   `gorm:"column:image_id;primaryKey"`
	OriginalURL string `gorm:"uniqueIndex;type:varchar(512);not null"`
	License     int
	LicenseName string
	LicenseURL  string
}

// Recording represents a single sensor reading, the append-only fact row.
// Rows are only ever inserted, and bulk-deleted by the archival reset.
type Recording struct {
	ID           uint      `gorm:"column:recording_id;primaryKey"`
	PlantID      int       `gorm:"index;not null"`
	Plant        Plant     `gorm:"foreignKey:PlantID;references:ID;constraint:OnDelete:CASCADE"`
	Taken        time.Time `gorm:"column:recording_taken;index;not null"`
	LastWatered  *time.Time
	SoilMoisture float64 `gorm:"not null"`
	Temperature  float64 `gorm:"not null"`
	ImageID      *uint
	Image        *Image   `gorm:"foreignKey:ImageID;references:ID;constraint:OnDelete:CASCADE"`
	BotanistID   uint     `gorm:"index;not null"`
	Botanist     Botanist `gorm:"foreignKey:BotanistID;references:ID;constraint:OnDelete:CASCADE"`
}

// ArchiveRow is the recording joined with its plant's names, the shape the
// archiver serializes.
type ArchiveRow struct {
	PlantID        int
	PlantName      string
	ScientificName *string
	Taken          time.Time
	SoilMoisture   float64
	Temperature    float64
}
