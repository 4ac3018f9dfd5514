package loader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/entity"
	"github.com/plantwatch/plantwatch-go/internal/errors"
)

func testRecording(plantID int) entity.Recording {
	watered := time.Date(2023, 6, 14, 13, 0, 0, 0, time.UTC)
	return entity.Recording{
		Plant: entity.Plant{
			ID:             plantID,
			Name:           "Epipremnum Aureum",
			ScientificName: "Epipremnum Aureum",
			Origin: entity.Origin{
				Longitude:   -19.32556,
				Latitude:    -41.25528,
				PlaceName:   "Resplendor",
				CountryCode: "BR",
				Timezone:    "America/Sao_Paulo",
			},
		},
		Taken:        time.Date(2023, 6, 14, 14, 22, 4, 0, time.UTC),
		LastWatered:  &watered,
		SoilMoisture: 31.69,
		Temperature:  9.11,
		Botanist: entity.Botanist{
			FirstName: "Jane",
			LastName:  "Doe",
			Email:     "jane.doe@example.com",
			Phone:     "001-481-273-3691",
		},
		Image: &entity.Image{
			OriginalURL: "https://perenual.com/storage/species_image/original/1.jpg",
			License:     45,
			LicenseName: "Attribution-ShareAlike 3.0 Unported",
			LicenseURL:  "https://creativecommons.org/licenses/by-sa/3.0/deed.en",
		},
	}
}

func TestLoad_PersistsBatchWithReferences(t *testing.T) {
	store := datastore.NewMemStore()
	l := New(store, nil)

	count, err := l.Load(context.Background(), []entity.Recording{
		testRecording(3),
		testRecording(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	origins, plants, images, botanists, recordings := store.Counts()
	assert.Equal(t, 1, origins, "shared origin resolved once")
	assert.Equal(t, 2, plants)
	assert.Equal(t, 1, images, "shared image resolved once")
	assert.Equal(t, 1, botanists, "shared botanist resolved once")
	assert.Equal(t, 2, recordings)

	plant, err := store.GetPlant(3)
	require.NoError(t, err)
	require.NotNil(t, plant)
	assert.Equal(t, "Epipremnum Aureum", plant.PlantName)
	require.NotNil(t, plant.ScientificName)
	assert.Equal(t, "Epipremnum Aureum", *plant.ScientificName)
}

func TestLoad_SecondRunDedupsReferencesButAppendsFacts(t *testing.T) {
	store := datastore.NewMemStore()
	l := New(store, nil)
	batch := []entity.Recording{testRecording(3), testRecording(7)}

	_, err := l.Load(context.Background(), batch)
	require.NoError(t, err)
	count, err := l.Load(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	origins, plants, images, botanists, recordings := store.Counts()
	assert.Equal(t, 1, origins)
	assert.Equal(t, 2, plants)
	assert.Equal(t, 1, images)
	assert.Equal(t, 1, botanists)
	assert.Equal(t, 4, recordings, "fact rows are append-only")
}

func TestLoad_MissingScientificNameAndImage(t *testing.T) {
	store := datastore.NewMemStore()
	rec := testRecording(5)
	rec.Plant.ScientificName = ""
	rec.Image = nil

	_, err := New(store, nil).Load(context.Background(), []entity.Recording{rec})
	require.NoError(t, err)

	plant, err := store.GetPlant(5)
	require.NoError(t, err)
	require.NotNil(t, plant)
	assert.Nil(t, plant.ScientificName)

	_, _, images, _, _ := store.Counts()
	assert.Zero(t, images)
}

func TestLoad_FailureRollsBackWholeBatch(t *testing.T) {
	store := datastore.NewMemStore()
	store.FailCreateRecording = errors.NewStd("disk full")
	l := New(store, nil)

	count, err := l.Load(context.Background(), []entity.Recording{testRecording(3)})
	require.Error(t, err)
	assert.Zero(t, count)
	assert.True(t, errors.HasCategory(err, errors.CategoryDatabase))

	origins, plants, images, botanists, recordings := store.Counts()
	assert.Zero(t, origins, "no orphaned reference entities after rollback")
	assert.Zero(t, plants)
	assert.Zero(t, images)
	assert.Zero(t, botanists)
	assert.Zero(t, recordings)
}

// raceStore simulates a concurrent writer winning the origin insert: the
// first lookup misses even though the row exists, so the loader's create
// hits the unique index and must re-resolve.
type raceStore struct {
	*datastore.MemStore
	missedOnce bool
}

func (r *raceStore) Transaction(fn func(tx datastore.Interface) error) error {
	return r.MemStore.Transaction(func(datastore.Interface) error {
		return fn(r)
	})
}

func (r *raceStore) GetOrigin(longitude, latitude float64) (*datastore.Origin, error) {
	if !r.missedOnce {
		r.missedOnce = true
		return nil, nil
	}
	return r.MemStore.GetOrigin(longitude, latitude)
}

func TestLoad_OriginInsertConflictResolvedByRefetch(t *testing.T) {
	store := &raceStore{MemStore: datastore.NewMemStore()}
	require.NoError(t, store.CreateOrigin(&datastore.Origin{
		Longitude: -19.32556,
		Latitude:  -41.25528,
	}))

	count, err := New(store, nil).Load(context.Background(), []entity.Recording{testRecording(3)})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	origins, _, _, _, _ := store.Counts()
	assert.Equal(t, 1, origins, "conflicting insert must not duplicate the origin")
}

func TestLoad_ContextCancelledAbortsBatch(t *testing.T) {
	store := datastore.NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(store, nil).Load(ctx, []entity.Recording{testRecording(3)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	_, _, _, _, recordings := store.Counts()
	assert.Zero(t, recordings)
}
