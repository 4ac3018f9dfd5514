// Package pipeline wires the fetch, transform, and load stages into one
// ingestion cycle. A cycle is independent of its predecessors; the external
// scheduler (or the watch loop) decides the cadence.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/feed"
	"github.com/plantwatch/plantwatch-go/internal/loader"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability"
	"github.com/plantwatch/plantwatch-go/internal/observability/metrics"
	"github.com/plantwatch/plantwatch-go/internal/transform"
)

// Pipeline runs one complete ingestion cycle per call.
type Pipeline struct {
	client      *feed.Client
	transformer *transform.Transformer
	loader      *loader.Loader
	logger      *slog.Logger
}

// New wires a pipeline against the given store. Metrics may be nil.
func New(settings *conf.Settings, store datastore.Interface, m *observability.Metrics) *Pipeline {
	var pipelineMetrics *metrics.PipelineMetrics
	if m != nil {
		pipelineMetrics = m.Pipeline
	}
	return &Pipeline{
		client:      feed.NewClient(settings.Feed, settings.Plants, pipelineMetrics),
		transformer: transform.New(pipelineMetrics),
		loader:      loader.New(store, pipelineMetrics),
		logger:      logging.ForComponent("pipeline"),
	}
}

// RunOnce executes fetch, transform, load and returns the number of fact
// rows persisted.
func (p *Pipeline) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()

	raw, err := p.client.FetchAll(ctx)
	if err != nil {
		return 0, err
	}

	recordings := p.transformer.Transform(raw)
	if len(recordings) == 0 {
		p.logger.Warn("no valid readings this cycle", "fetched", len(raw))
		return 0, nil
	}

	loaded, err := p.loader.Load(ctx, recordings)
	if err != nil {
		return 0, err
	}

	p.logger.Info("ingestion cycle complete",
		"valid", len(recordings),
		"loaded", loaded,
		"elapsed", time.Since(start))
	return loaded, nil
}

// Watch runs cycles on a fixed interval until the context is cancelled.
// A failed cycle is logged and the loop keeps going; transient upstream
// trouble should not take the watcher down.
func (p *Pipeline) Watch(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := p.RunOnce(ctx); err != nil {
		p.logger.Error("ingestion cycle failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := p.RunOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				p.logger.Error("ingestion cycle failed", "error", err)
			}
		}
	}
}
