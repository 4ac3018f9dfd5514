// Package entity defines the shared typed records exchanged between the
// transformer, loader and detector. These are plain immutable values with
// no persistence concerns; the datastore package owns the relational rows.
package entity

import "time"

// Origin is the geographic provenance of a plant. The (Longitude, Latitude)
// pair is the natural key.
type Origin struct {
	Longitude   float64
	Latitude    float64
	PlaceName   string
	CountryCode string
	Timezone    string
}

// Plant is a monitored plant. The identifier is assigned by the upstream
// source and is the natural key; it is never generated locally.
type Plant struct {
	ID             int
	Name           string
	ScientificName string // empty when upstream data failed the cleaning rule
	Origin         Origin
}

// Botanist is the person responsible for a reading. All four fields
// together form the natural key.
type Botanist struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// Image is an optional reference photo for a plant. OriginalURL is the
// natural key.
type Image struct {
	OriginalURL string
	License     int
	LicenseName string
	LicenseURL  string
}

// Recording is one sensor reading for one plant at one point in time.
// Recordings are append-only facts; they are inserted once and only ever
// removed by the archival reset.
type Recording struct {
	Plant        Plant
	Taken        time.Time  // normalized to UTC
	LastWatered  *time.Time // nil when absent or unparseable upstream
	SoilMoisture float64
	Temperature  float64
	Botanist     Botanist
	Image        *Image // nil when absent or placeholder-licensed
}
