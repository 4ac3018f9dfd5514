// Package loader persists transformed recordings. Each batch runs as a
// single transaction: reference entities are resolved or created in
// dependency order (origin, plant, image, botanist) before the fact row is
// written, and any failure rolls the whole batch back, so a recording can
// never reference an unresolved entity.
//
// Two mechanisms close the resolve-then-insert race on new natural keys: a
// loader-level mutex serializes invocations within the process, and the
// store's unique indexes catch concurrent writers from elsewhere — an
// insert conflict is resolved by looking the row up again.
package loader

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/entity"
	"github.com/plantwatch/plantwatch-go/internal/errors"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability/metrics"
)

// Loader writes batches of recordings to the relational store.
type Loader struct {
	store   datastore.Interface
	metrics *metrics.PipelineMetrics
	logger  *slog.Logger
	mu      sync.Mutex
}

// New creates a loader over the given store. Metrics may be nil.
func New(store datastore.Interface, m *metrics.PipelineMetrics) *Loader {
	return &Loader{
		store:   store,
		metrics: m,
		logger:  logging.ForComponent("loader"),
	}
}

// Load persists one batch of recordings and returns the number of fact rows
// inserted. The batch is atomic: on error nothing is persisted.
func (l *Loader) Load(ctx context.Context, recordings []entity.Recording) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	count := 0

	err := l.store.Transaction(func(tx datastore.Interface) error {
		for i := range recordings {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := l.loadRecording(tx, &recordings[i]); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, errors.New(err).
			Component("loader").
			Category(errors.CategoryDatabase).
			Context("batch_size", len(recordings)).
			Build()
	}

	if l.metrics != nil {
		l.metrics.RecordRecordingsPersisted(count)
		l.metrics.ObserveLoadDuration(time.Since(start).Seconds())
	}
	l.logger.Info("batch loaded", "recordings", count, "duration", time.Since(start))
	return count, nil
}

// loadRecording resolves the reference entities for one recording and
// inserts the fact row.
func (l *Loader) loadRecording(tx datastore.Interface, rec *entity.Recording) error {
	originID, err := l.resolveOrigin(tx, rec.Plant.Origin)
	if err != nil {
		return err
	}

	if err := l.resolvePlant(tx, rec.Plant, originID); err != nil {
		return err
	}

	var imageID *uint
	if rec.Image != nil {
		id, err := l.resolveImage(tx, *rec.Image)
		if err != nil {
			return err
		}
		imageID = &id
	}

	botanistID, err := l.resolveBotanist(tx, rec.Botanist)
	if err != nil {
		return err
	}

	return tx.CreateRecording(&datastore.Recording{
		PlantID:      rec.Plant.ID,
		Taken:        rec.Taken,
		LastWatered:  rec.LastWatered,
		SoilMoisture: rec.SoilMoisture,
		Temperature:  rec.Temperature,
		ImageID:      imageID,
		BotanistID:   botanistID,
	})
}

// resolveOrigin returns the identifier of the origin row for the natural
// key, creating it when absent.
func (l *Loader) resolveOrigin(tx datastore.Interface, origin entity.Origin) (uint, error) {
	existing, err := tx.GetOrigin(origin.Longitude, origin.Latitude)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	row := &datastore.Origin{
		Longitude:   origin.Longitude,
		Latitude:    origin.Latitude,
		PlaceName:   origin.PlaceName,
		CountryCode: origin.CountryCode,
		Timezone:    origin.Timezone,
	}
	if err := tx.CreateOrigin(row); err != nil {
		if errors.Is(err, datastore.ErrDuplicateKey) {
			return l.refetchOrigin(tx, origin)
		}
		return 0, err
	}
	l.entityCreated("origin")
	return row.ID, nil
}

// refetchOrigin re-resolves after a concurrent writer won the insert.
func (l *Loader) refetchOrigin(tx datastore.Interface, origin entity.Origin) (uint, error) {
	l.conflictResolved("origin")
	existing, err := tx.GetOrigin(origin.Longitude, origin.Latitude)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		return 0, errors.Newf("origin (%f, %f) conflicted but cannot be resolved",
			origin.Longitude, origin.Latitude).
			Component("loader").
			Category(errors.CategoryConflict).
			Build()
	}
	return existing.ID, nil
}

// resolvePlant ensures the plant row exists. Plant identifiers come from
// the upstream source, so resolution is by identifier, not by insert-and-
// read-back.
func (l *Loader) resolvePlant(tx datastore.Interface, plant entity.Plant, originID uint) error {
	existing, err := tx.GetPlant(plant.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	row := &datastore.Plant{
		ID:        plant.ID,
		PlantName: plant.Name,
		OriginID:  originID,
	}
	if plant.ScientificName != "" {
		row.ScientificName = &plant.ScientificName
	}
	if err := tx.CreatePlant(row); err != nil {
		if errors.Is(err, datastore.ErrDuplicateKey) {
			l.conflictResolved("plant")
			return nil
		}
		return err
	}
	l.entityCreated("plant")
	return nil
}

// resolveImage returns the identifier of the image row, creating it when absent.
func (l *Loader) resolveImage(tx datastore.Interface, image entity.Image) (uint, error) {
	existing, err := tx.GetImage(image.OriginalURL)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	row := &datastore.Image{
		OriginalURL: image.OriginalURL,
		License:     image.License,
		LicenseName: image.LicenseName,
		LicenseURL:  image.LicenseURL,
	}
	if err := tx.CreateImage(row); err != nil {
		if errors.Is(err, datastore.ErrDuplicateKey) {
			l.conflictResolved("image")
			refetched, err := tx.GetImage(image.OriginalURL)
			if err != nil {
				return 0, err
			}
			if refetched == nil {
				return 0, unresolvableConflict("image", image.OriginalURL)
			}
			return refetched.ID, nil
		}
		return 0, err
	}
	l.entityCreated("image")
	return row.ID, nil
}

// resolveBotanist returns the identifier of the botanist row, creating it
// when absent.
func (l *Loader) resolveBotanist(tx datastore.Interface, botanist entity.Botanist) (uint, error) {
	existing, err := tx.GetBotanist(botanist.Email, botanist.Phone, botanist.FirstName, botanist.LastName)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	row := &datastore.Botanist{
		Email:     botanist.Email,
		Phone:     botanist.Phone,
		FirstName: botanist.FirstName,
		LastName:  botanist.LastName,
	}
	if err := tx.CreateBotanist(row); err != nil {
		if errors.Is(err, datastore.ErrDuplicateKey) {
			l.conflictResolved("botanist")
			refetched, err := tx.GetBotanist(botanist.Email, botanist.Phone, botanist.FirstName, botanist.LastName)
			if err != nil {
				return 0, err
			}
			if refetched == nil {
				return 0, unresolvableConflict("botanist", botanist.Email)
			}
			return refetched.ID, nil
		}
		return 0, err
	}
	l.entityCreated("botanist")
	return row.ID, nil
}

func (l *Loader) entityCreated(kind string) {
	if l.metrics != nil {
		l.metrics.RecordEntityCreated(kind)
	}
}

func (l *Loader) conflictResolved(kind string) {
	if l.metrics != nil {
		l.metrics.RecordLoadConflict()
	}
	l.logger.Debug("natural-key conflict resolved by re-lookup", "entity", kind)
}

func unresolvableConflict(kind, key string) error {
	return errors.Newf("%s %q conflicted but cannot be resolved", kind, key).
		Component("loader").
		Category(errors.CategoryConflict).
		Build()
}
