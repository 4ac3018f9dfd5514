// Package transform converts raw feed payloads into validated entities.
// Transformation is a pure function over its input: no shared mutable
// state, identical output for identical batches. Records that fail
// validation are dropped and counted, never surfaced as errors — partial
// batches are expected every cycle.
package transform

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/plantwatch/plantwatch-go/internal/entity"
	"github.com/plantwatch/plantwatch-go/internal/feed"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability/metrics"
)

const (
	// takenLayout is the format of the recording_taken field.
	takenLayout = "2006-01-02 15:04:05"
	// lastWateredLayout is the RFC-1123 style format of the last_watered field.
	lastWateredLayout = time.RFC1123

	// placeholderImage marks license URLs of images the upstream will not serve.
	placeholderImage = "upgrade_access.jpg"
)

// Drop reasons used for observability counts.
const (
	DropAbsent       = "absent"
	DropMissingField = "missing_field"
	DropBadOrigin    = "bad_origin"
	DropBadTimestamp = "bad_timestamp"
)

// cultivarPattern matches single-quoted cultivar annotations in free-text
// scientific names, e.g. the quoted part of "Begonia 'Art Hodes'".
var cultivarPattern = regexp.MustCompile(`'[^']*'`)

// titleCase title-cases free-text fields from the feed. A cases.Caser
// carries internal state and is not safe for shared use, so each call
// constructs its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Transformer converts raw plant records into recording entities.
type Transformer struct {
	metrics *metrics.PipelineMetrics
	logger  *slog.Logger
}

// New creates a transformer. Metrics may be nil.
func New(m *metrics.PipelineMetrics) *Transformer {
	return &Transformer{
		metrics: m,
		logger:  logging.ForComponent("transform"),
	}
}

// Transform converts a batch of raw records into recordings. Absent and
// invalid records are skipped; the survivors keep their input order though
// nothing downstream depends on it.
func (t *Transformer) Transform(raw []*feed.PlantRecord) []entity.Recording {
	recordings := make([]entity.Recording, 0, len(raw))

	for _, record := range raw {
		if record == nil {
			t.drop(DropAbsent)
			continue
		}
		recording, reason := t.transformRecord(record)
		if reason != "" {
			t.drop(reason)
			continue
		}
		recordings = append(recordings, recording)
	}

	return recordings
}

// transformRecord converts one raw record, returning a drop reason instead
// of a recording when the record is unusable.
func (t *Transformer) transformRecord(raw *feed.PlantRecord) (entity.Recording, string) {
	if raw.PlantID == nil || raw.Name == nil || raw.Botanist == nil ||
		len(raw.OriginLocation) != 5 || raw.RecordingTaken == nil {
		return entity.Recording{}, DropMissingField
	}
	if raw.SoilMoisture == nil || raw.Temperature == nil {
		// A reading without sensor values cannot become a fact row.
		return entity.Recording{}, DropMissingField
	}
	if raw.Botanist.Name == nil || raw.Botanist.Email == nil || raw.Botanist.Phone == nil {
		return entity.Recording{}, DropMissingField
	}

	origin, ok := transformOrigin(raw.OriginLocation)
	if !ok {
		return entity.Recording{}, DropBadOrigin
	}

	taken, err := time.Parse(takenLayout, *raw.RecordingTaken)
	if err != nil {
		return entity.Recording{}, DropBadTimestamp
	}

	recording := entity.Recording{
		Plant:        transformPlant(raw, origin),
		Taken:        taken.UTC(),
		LastWatered:  t.transformLastWatered(raw.LastWatered),
		SoilMoisture: *raw.SoilMoisture,
		Temperature:  *raw.Temperature,
		Botanist:     transformBotanist(raw.Botanist),
		Image:        transformImage(raw.Images),
	}
	return recording, ""
}

// transformOrigin parses the five-element origin location array.
func transformOrigin(location []string) (entity.Origin, bool) {
	longitude, err := strconv.ParseFloat(strings.TrimSpace(location[0]), 64)
	if err != nil {
		return entity.Origin{}, false
	}
	latitude, err := strconv.ParseFloat(strings.TrimSpace(location[1]), 64)
	if err != nil {
		return entity.Origin{}, false
	}
	return entity.Origin{
		Longitude:   longitude,
		Latitude:    latitude,
		PlaceName:   location[2],
		CountryCode: location[3],
		Timezone:    location[4],
	}, true
}

// transformPlant extracts the plant entity, applying the display-name and
// scientific-name cleaning rules.
func transformPlant(raw *feed.PlantRecord, origin entity.Origin) entity.Plant {
	name := titleCase(strings.Trim(*raw.Name, " ,"))

	scientific := ""
	if len(raw.ScientificName) > 0 {
		scientific = CleanScientificName(raw.ScientificName[0])
	}

	return entity.Plant{
		ID:             *raw.PlantID,
		Name:           name,
		ScientificName: scientific,
		Origin:         origin,
	}
}

// transformBotanist splits the free-text full name into first and last names.
func transformBotanist(raw *feed.RawBotanist) entity.Botanist {
	first, last := SplitFullName(*raw.Name)
	return entity.Botanist{
		FirstName: first,
		LastName:  last,
		Email:     *raw.Email,
		Phone:     *raw.Phone,
	}
}

// transformImage keeps the image only when it is complete and not the
// restricted placeholder.
func transformImage(raw *feed.RawImage) *entity.Image {
	if raw == nil || raw.OriginalURL == nil || raw.LicenseURL == nil {
		return nil
	}
	if strings.Contains(*raw.LicenseURL, placeholderImage) {
		return nil
	}
	image := entity.Image{
		OriginalURL: *raw.OriginalURL,
		LicenseURL:  *raw.LicenseURL,
	}
	if raw.License != nil {
		image.License = *raw.License
	}
	if raw.LicenseName != nil {
		image.LicenseName = *raw.LicenseName
	}
	return &image
}

// transformLastWatered parses the last-watered timestamp, recording the
// field absent on parse failure. The rest of the record stays usable.
func (t *Transformer) transformLastWatered(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	parsed, err := time.Parse(lastWateredLayout, *raw)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordParseFailure("last_watered")
		}
		t.logger.Debug("unparseable last_watered, recorded absent", "value", *raw)
		return nil
	}
	utc := parsed.UTC()
	return &utc
}

// CleanScientificName cleans a free-text species name: cultivar annotations
// in single quotes are stripped, the remainder trimmed and title-cased.
// Only exact binomial names (genus + species) are accepted; anything else
// returns the empty string.
func CleanScientificName(text string) string {
	if text == "" {
		return ""
	}

	cleaned := titleCase(strings.TrimSpace(cultivarPattern.ReplaceAllString(text, "")))

	if len(strings.Split(cleaned, " ")) != 2 {
		return ""
	}
	return cleaned
}

// SplitFullName splits a full name into forename and surname. A single
// token yields an empty surname; the record is still accepted.
func SplitFullName(name string) (first, last string) {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return "", ""
	}
	first = titleCase(tokens[0])
	last = titleCase(strings.Join(tokens[1:], " "))
	return first, last
}

// drop counts a dropped record.
func (t *Transformer) drop(reason string) {
	if t.metrics != nil {
		t.metrics.RecordDropped(reason)
	}
	t.logger.Debug("dropped raw record", "reason", reason)
}
