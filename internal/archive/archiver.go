// Package archive offloads the warm fact table to cold object storage.
// Each run serializes a per-plant statistical summary and the full-history
// anomaly extract as CSV, uploads both, and only then truncates the fact
// table. A failed upload leaves the warm data untouched so the next run
// can retry with nothing lost.
package archive

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/plantwatch/plantwatch-go/internal/anomaly"
	"github.com/plantwatch/plantwatch-go/internal/coldstore"
	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/errors"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability/metrics"
)

const (
	summaryObject   = "summary.csv"
	anomaliesObject = "anomalies.csv"
	keyDateLayout   = "2006/01/02/"
	takenLayout     = "2006-01-02 15:04:05"
	csvContentType  = "text/csv"
)

// Archiver runs the warm-to-cold offload cycle.
type Archiver struct {
	store    datastore.Interface
	blobs    coldstore.Store
	settings conf.HealthCheckSettings
	metrics  *metrics.DetectorMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an archiver. Metrics may be nil.
func New(store datastore.Interface, blobs coldstore.Store, settings conf.HealthCheckSettings, m *metrics.DetectorMetrics) *Archiver {
	return &Archiver{
		store:    store,
		blobs:    blobs,
		settings: settings,
		metrics:  m,
		logger:   logging.ForComponent("archive"),
		now:      time.Now,
	}
}

// Run executes one archival cycle and returns the number of fact rows
// offloaded. The fact table is truncated only after both objects are
// safely in cold storage.
func (a *Archiver) Run(ctx context.Context) (int, error) {
	rows, err := a.store.GetArchiveRows()
	if err != nil {
		a.recordRun("error")
		return 0, errors.New(err).
			Component("archive").
			Category(errors.CategoryDatabase).
			Build()
	}
	if len(rows) == 0 {
		a.logger.Info("no fact rows to archive")
		a.recordRun("success")
		return 0, nil
	}

	prefix := a.now().UTC().Format(keyDateLayout)

	summary := Summarize(rows)
	if err := a.upload(ctx, prefix+summaryObject, summaryCSV(summary)); err != nil {
		a.recordRun("error")
		return 0, err
	}

	anomalies := FindAnomalies(rows, a.settings.Sigma)
	if err := a.upload(ctx, prefix+anomaliesObject, anomaliesCSV(anomalies)); err != nil {
		a.recordRun("error")
		return 0, err
	}

	if err := a.store.TruncateRecordings(); err != nil {
		a.recordRun("error")
		return 0, errors.New(err).
			Component("archive").
			Category(errors.CategoryDatabase).
			Context("rows", len(rows)).
			Build()
	}

	a.recordRun("success")
	if a.metrics != nil {
		a.metrics.RecordArchivedRows(len(rows))
	}
	a.logger.Info("archive cycle complete",
		"rows", len(rows),
		"plants", len(summary),
		"anomalies", len(anomalies),
		"prefix", prefix)
	return len(rows), nil
}

func (a *Archiver) upload(ctx context.Context, key string, data []byte) error {
	if err := a.blobs.Put(ctx, key, csvContentType, bytes.NewReader(data)); err != nil {
		return errors.New(err).
			Component("archive").
			Category(errors.CategoryColdStore).
			Context("key", key).
			Build()
	}
	return nil
}

func (a *Archiver) recordRun(status string) {
	if a.metrics != nil {
		a.metrics.RecordArchiveRun(status)
	}
}

// MetricSummary holds the descriptive statistics for one metric of one
// plant.
type MetricSummary struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// PlantSummary is one plant's row in the summary extract.
type PlantSummary struct {
	PlantID        int
	PlantName      string
	ScientificName *string
	Readings       int
	SoilMoisture   MetricSummary
	Temperature    MetricSummary
}

// Anomaly is one out-of-band reading in the anomaly extract. Unlike the
// live health check it is judged against the full history being archived,
// with no trailing window.
type Anomaly struct {
	PlantID        int
	PlantName      string
	ScientificName *string
	Taken          time.Time
	Metric         string
	Value          float64
	Mean           float64
	StdDev         float64
}

// Summarize computes per-plant descriptive statistics over the rows,
// ordered by plant identifier.
func Summarize(rows []datastore.ArchiveRow) []PlantSummary {
	byPlant := groupByPlant(rows)

	ids := make([]int, 0, len(byPlant))
	for id := range byPlant {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	summaries := make([]PlantSummary, 0, len(ids))
	for _, id := range ids {
		plantRows := byPlant[id]
		summaries = append(summaries, PlantSummary{
			PlantID:        id,
			PlantName:      plantRows[0].PlantName,
			ScientificName: plantRows[0].ScientificName,
			Readings:       len(plantRows),
			SoilMoisture:   summarizeMetric(plantRows, func(r *datastore.ArchiveRow) float64 { return r.SoilMoisture }),
			Temperature:    summarizeMetric(plantRows, func(r *datastore.ArchiveRow) float64 { return r.Temperature }),
		})
	}
	return summaries
}

// FindAnomalies flags rows whose metric value lies beyond sigma standard
// deviations from the plant's mean over the full set of rows. Plants with
// fewer than two rows are excluded.
func FindAnomalies(rows []datastore.ArchiveRow, sigma float64) []Anomaly {
	byPlant := groupByPlant(rows)

	var anomalies []Anomaly
	for _, plantRows := range byPlant {
		for metric, value := range map[string]func(*datastore.ArchiveRow) float64{
			string(anomaly.MetricSoilMoisture): func(r *datastore.ArchiveRow) float64 { return r.SoilMoisture },
			string(anomaly.MetricTemperature):  func(r *datastore.ArchiveRow) float64 { return r.Temperature },
		} {
			values := make([]float64, len(plantRows))
			for i, row := range plantRows {
				values[i] = value(row)
			}
			mean, stdDev, ok := anomaly.MeanStdDev(values)
			if !ok || stdDev == 0 {
				continue
			}
			for _, row := range plantRows {
				if math.Abs(value(row)-mean) > sigma*stdDev {
					anomalies = append(anomalies, Anomaly{
						PlantID:        row.PlantID,
						PlantName:      row.PlantName,
						ScientificName: row.ScientificName,
						Taken:          row.Taken,
						Metric:         metric,
						Value:          value(row),
						Mean:           mean,
						StdDev:         stdDev,
					})
				}
			}
		}
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if anomalies[i].PlantID != anomalies[j].PlantID {
			return anomalies[i].PlantID < anomalies[j].PlantID
		}
		if anomalies[i].Metric != anomalies[j].Metric {
			return anomalies[i].Metric < anomalies[j].Metric
		}
		return anomalies[i].Taken.Before(anomalies[j].Taken)
	})
	return anomalies
}

func groupByPlant(rows []datastore.ArchiveRow) map[int][]*datastore.ArchiveRow {
	byPlant := make(map[int][]*datastore.ArchiveRow)
	for i := range rows {
		row := &rows[i]
		byPlant[row.PlantID] = append(byPlant[row.PlantID], row)
	}
	return byPlant
}

func summarizeMetric(rows []*datastore.ArchiveRow, value func(*datastore.ArchiveRow) float64) MetricSummary {
	values := make([]float64, len(rows))
	minV, maxV := value(rows[0]), value(rows[0])
	for i, row := range rows {
		v := value(row)
		values[i] = v
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	mean, stdDev, _ := anomaly.MeanStdDev(values)
	if len(values) == 1 {
		mean = values[0]
	}
	return MetricSummary{Mean: mean, StdDev: stdDev, Min: minV, Max: maxV}
}

func summaryCSV(summaries []PlantSummary) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{
		"plant_id", "plant_name", "scientific_name", "readings",
		"soil_moisture_mean", "soil_moisture_stddev", "soil_moisture_min", "soil_moisture_max",
		"temperature_mean", "temperature_stddev", "temperature_min", "temperature_max",
	})
	for _, s := range summaries {
		_ = w.Write([]string{
			strconv.Itoa(s.PlantID),
			s.PlantName,
			stringOrEmpty(s.ScientificName),
			strconv.Itoa(s.Readings),
			formatFloat(s.SoilMoisture.Mean),
			formatFloat(s.SoilMoisture.StdDev),
			formatFloat(s.SoilMoisture.Min),
			formatFloat(s.SoilMoisture.Max),
			formatFloat(s.Temperature.Mean),
			formatFloat(s.Temperature.StdDev),
			formatFloat(s.Temperature.Min),
			formatFloat(s.Temperature.Max),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func anomaliesCSV(anomalies []Anomaly) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{
		"plant_id", "plant_name", "scientific_name", "recording_taken",
		"metric", "value", "mean", "stddev",
	})
	for _, a := range anomalies {
		_ = w.Write([]string{
			strconv.Itoa(a.PlantID),
			a.PlantName,
			stringOrEmpty(a.ScientificName),
			a.Taken.UTC().Format(takenLayout),
			a.Metric,
			formatFloat(a.Value),
			formatFloat(a.Mean),
			formatFloat(a.StdDev),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
