package feed

// RawBotanist is the botanist sub-record as the upstream API ships it: a
// single free-text name plus contact details. Any field may be absent.
type RawBotanist struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// RawImage is the image sub-record. License URLs pointing at the
// upgrade_access placeholder mark images the upstream will not serve.
type RawImage struct {
	OriginalURL *string `json:"original_url"`
	License     *int    `json:"license"`
	LicenseName *string `json:"license_name"`
	LicenseURL  *string `json:"license_url"`
}

// PlantRecord is one raw per-plant payload from the source feed. Every
// field is optional at this layer; the transformer decides what a usable
// record needs. OriginLocation carries five string elements in upstream
// order: longitude, latitude, place name, country code, timezone.
type PlantRecord struct {
	PlantID        *int         `json:"plant_id"`
	Name           *string      `json:"name"`
	ScientificName []string     `json:"scientific_name"`
	OriginLocation []string     `json:"origin_location"`
	Botanist       *RawBotanist `json:"botanist"`
	Images         *RawImage    `json:"images"`
	LastWatered    *string      `json:"last_watered"`
	RecordingTaken *string      `json:"recording_taken"`
	SoilMoisture   *float64     `json:"soil_moisture"`
	Temperature    *float64     `json:"temperature"`
}
