package transform

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch-go/internal/entity"
	"github.com/plantwatch/plantwatch-go/internal/feed"
)

func ptr[T any](v T) *T { return &v }

func validRecord() *feed.PlantRecord {
	return &feed.PlantRecord{
		PlantID:        ptr(8),
		Name:           ptr("bird of paradise"),
		ScientificName: []string{"Heliconia schiedeana 'Fire and Ice'"},
		OriginLocation: []string{"5.27247", "-3.59625", "Bonoua", "CI", "Africa/Abidjan"},
		Botanist: &feed.RawBotanist{
			Name:  ptr("jane doe"),
			Email: ptr("jane.doe@example.com"),
			Phone: ptr("001-481-273-3691"),
		},
		Images: &feed.RawImage{
			OriginalURL: ptr("https://perenual.com/storage/species_image/original/1.jpg"),
			License:     ptr(45),
			LicenseName: ptr("Attribution-ShareAlike 3.0 Unported"),
			LicenseURL:  ptr("https://creativecommons.org/licenses/by-sa/3.0/deed.en"),
		},
		LastWatered:    ptr("Wed, 14 Jun 2023 14:10:54 GMT"),
		RecordingTaken: ptr("2023-06-14 14:22:04"),
		SoilMoisture:   ptr(31.69),
		Temperature:    ptr(9.11),
	}
}

func TestTransform_ValidRecord(t *testing.T) {
	out := New(nil).Transform([]*feed.PlantRecord{validRecord()})
	require.Len(t, out, 1)

	rec := out[0]
	assert.Equal(t, 8, rec.Plant.ID)
	assert.Equal(t, "Bird Of Paradise", rec.Plant.Name)
	assert.Equal(t, "Heliconia Schiedeana", rec.Plant.ScientificName)
	assert.InDelta(t, 5.27247, rec.Plant.Origin.Longitude, 1e-9)
	assert.InDelta(t, -3.59625, rec.Plant.Origin.Latitude, 1e-9)
	assert.Equal(t, "Bonoua", rec.Plant.Origin.PlaceName)
	assert.Equal(t, "CI", rec.Plant.Origin.CountryCode)
	assert.Equal(t, "Africa/Abidjan", rec.Plant.Origin.Timezone)
	assert.Equal(t, "Jane", rec.Botanist.FirstName)
	assert.Equal(t, "Doe", rec.Botanist.LastName)
	assert.Equal(t, time.Date(2023, 6, 14, 14, 22, 4, 0, time.UTC), rec.Taken)
	require.NotNil(t, rec.LastWatered)
	assert.Equal(t, time.Date(2023, 6, 14, 14, 10, 54, 0, time.UTC), *rec.LastWatered)
	require.NotNil(t, rec.Image)
	assert.Equal(t, 45, rec.Image.License)
	assert.InDelta(t, 31.69, rec.SoilMoisture, 1e-9)
	assert.InDelta(t, 9.11, rec.Temperature, 1e-9)
}

func TestTransform_Idempotent(t *testing.T) {
	tr := New(nil)
	batch := []*feed.PlantRecord{validRecord(), nil, validRecord()}

	first := tr.Transform(batch)
	second := tr.Transform(batch)
	assert.Equal(t, first, second)
}

func TestTransform_ConcurrentBatches(t *testing.T) {
	tr := New(nil)
	batch := []*feed.PlantRecord{validRecord(), nil, validRecord()}
	want := tr.Transform(batch)

	const workers = 8
	results := make([][]entity.Recording, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				results[w] = tr.Transform(batch)
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < workers; w++ {
		assert.Equal(t, want, results[w], "worker %d saw a divergent transformation", w)
	}
}

func TestTransform_SkipsAbsentAndInvalid(t *testing.T) {
	missingBotanist := validRecord()
	missingBotanist.Botanist = nil

	shortOrigin := validRecord()
	shortOrigin.OriginLocation = []string{"5.27247", "-3.59625"}

	badTaken := validRecord()
	badTaken.RecordingTaken = ptr("14/06/2023 14:22")

	badCoords := validRecord()
	badCoords.OriginLocation = []string{"not-a-float", "-3.59625", "Bonoua", "CI", "Africa/Abidjan"}

	out := New(nil).Transform([]*feed.PlantRecord{
		nil, missingBotanist, shortOrigin, badTaken, badCoords, validRecord(),
	})
	assert.Len(t, out, 1)
}

func TestTransform_UnparseableLastWateredIsAbsent(t *testing.T) {
	record := validRecord()
	record.LastWatered = ptr("yesterday, probably")

	out := New(nil).Transform([]*feed.PlantRecord{record})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].LastWatered)
}

func TestTransform_PlaceholderImageIsDropped(t *testing.T) {
	record := validRecord()
	record.Images.LicenseURL = ptr("https://perenual.com/upgrade_access.jpg")

	out := New(nil).Transform([]*feed.PlantRecord{record})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Image)
}

func TestCleanScientificName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cultivar stripped", "Chlorophytum comosum 'Vittatum'", "Chlorophytum Comosum"},
		{"collapses to one token", "Begonia 'Art Hodes'", ""},
		{"plain binomial", "epipremnum aureum", "Epipremnum Aureum"},
		{"empty", "", ""},
		{"single token", "Monstera", ""},
		{"three tokens", "Ficus benjamina variegata", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanScientificName(tt.in))
		})
	}
}

func TestSplitFullName(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		first string
		last  string
	}{
		{"two tokens", "jane doe", "Jane", "Doe"},
		{"three tokens", "carl von linne", "Carl", "Von Linne"},
		{"single token keeps empty surname", "plato", "Plato", ""},
		{"empty", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := SplitFullName(tt.in)
			assert.Equal(t, tt.first, first)
			assert.Equal(t, tt.last, last)
		})
	}
}
