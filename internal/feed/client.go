// Package feed fetches raw per-plant records from the upstream plant API.
// Fetches run concurrently with per-plant failure isolation: a failed fetch
// yields a nil entry and never cancels the rest of the batch.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability/metrics"
)

const userAgent = "plantwatch-go"

// Client fetches plant records from the source feed.
type Client struct {
	settings conf.FeedSettings
	plants   conf.PlantsSettings
	http     *http.Client
	metrics  *metrics.PipelineMetrics
	logger   *slog.Logger
}

// NewClient creates a feed client from settings. Metrics may be nil.
func NewClient(settings conf.FeedSettings, plants conf.PlantsSettings, m *metrics.PipelineMetrics) *Client {
	return &Client{
		settings: settings,
		plants:   plants,
		http:     &http.Client{Timeout: settings.Timeout},
		metrics:  m,
		logger:   logging.ForComponent("feed"),
	}
}

// HTTPClient exposes the underlying transport so tests can intercept it.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// FetchAll fetches one record per expected plant identifier. The returned
// slice is indexed by plant identifier; entries are nil where the fetch
// failed. The error return is reserved for context cancellation — upstream
// failures are expected steady state and are counted, not propagated.
func (c *Client) FetchAll(ctx context.Context) ([]*PlantRecord, error) {
	records := make([]*PlantRecord, c.plants.Count)

	g, ctx := errgroup.WithContext(ctx)
	if c.settings.MaxConcurrent > 0 {
		g.SetLimit(c.settings.MaxConcurrent)
	}

	for id := 0; id < c.plants.Count; id++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, err := c.Fetch(ctx, id)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Debug("fetch failed, entry left absent", "plant_id", id, "error", err)
				if c.metrics != nil {
					c.metrics.RecordFetch("error")
					c.metrics.RecordFetchError()
				}
				return nil
			}
			if c.metrics != nil {
				c.metrics.RecordFetch("success")
			}
			records[id] = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

// Fetch retrieves the raw record for a single plant identifier.
func (c *Client) Fetch(ctx context.Context, plantID int) (*PlantRecord, error) {
	url := fmt.Sprintf("%s/plants/%d", c.settings.BaseURL, plantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching plant %d: %w", plantID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plant %d: received non-200 response: %d", plantID, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var record PlantRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("unmarshaling plant %d: %w", plantID, err)
	}

	c.logger.Debug("fetched plant record", "plant_id", plantID, "duration", time.Since(start))
	return &record, nil
}
