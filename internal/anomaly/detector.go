// Package anomaly evaluates the retained fact history for out-of-band
// readings and missing reporters. Both checks are pure computations over an
// in-memory snapshot; deciding whether and how to alert belongs to the
// caller.
package anomaly

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/datastore"
	"github.com/plantwatch/plantwatch-go/internal/logging"
	"github.com/plantwatch/plantwatch-go/internal/observability/metrics"
)

// Metric names a sensor metric carried on each recording.
type Metric string

const (
	MetricSoilMoisture Metric = "soil_moisture"
	MetricTemperature  Metric = "temperature"
)

// Value extracts the metric's value from a recording.
func (m Metric) Value(rec *datastore.Recording) float64 {
	if m == MetricTemperature {
		return rec.Temperature
	}
	return rec.SoilMoisture
}

// Outlier is one out-of-band reading.
type Outlier struct {
	PlantID int
	Value   float64
	Mean    float64 // the plant's baseline mean for the metric
	StdDev  float64 // the plant's baseline standard deviation
	Taken   time.Time
}

// Result is the outcome of one health check over a snapshot.
type Result struct {
	SoilMoisture []Outlier
	Temperature  []Outlier
	Missing      []int // expected identifiers with no reading in the window
}

// Empty reports whether the check found nothing worth alerting on.
func (r Result) Empty() bool {
	return len(r.SoilMoisture) == 0 && len(r.Temperature) == 0 && len(r.Missing) == 0
}

// Detector runs the statistical outlier and missing-reporter checks.
type Detector struct {
	settings conf.HealthCheckSettings
	plants   conf.PlantsSettings
	metrics  *metrics.DetectorMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a detector. Metrics may be nil.
func New(settings conf.HealthCheckSettings, plants conf.PlantsSettings, m *metrics.DetectorMetrics) *Detector {
	return &Detector{
		settings: settings,
		plants:   plants,
		metrics:  m,
		logger:   logging.ForComponent("anomaly"),
		now:      time.Now,
	}
}

// Check runs both checks over the snapshot.
func (d *Detector) Check(recordings []datastore.Recording) Result {
	result := Result{
		SoilMoisture: d.DetectOutliers(recordings, MetricSoilMoisture),
		Temperature:  d.DetectOutliers(recordings, MetricTemperature),
		Missing:      d.MissingReporters(recordings),
	}

	if d.metrics != nil {
		d.metrics.RecordOutliers(string(MetricSoilMoisture), len(result.SoilMoisture))
		d.metrics.RecordOutliers(string(MetricTemperature), len(result.Temperature))
		d.metrics.SetMissingReporters(len(result.Missing))
	}
	d.logger.Info("health check complete",
		"soil_moisture_outliers", len(result.SoilMoisture),
		"temperature_outliers", len(result.Temperature),
		"missing_reporters", len(result.Missing))
	return result
}

// DetectOutliers computes each plant's mean and standard deviation for the
// metric over the full snapshot and flags readings inside the detection
// window that lie more than sigma standard deviations from the plant mean.
// Plants with fewer than two readings have no defined deviation and are
// excluded rather than spuriously flagged.
func (d *Detector) DetectOutliers(recordings []datastore.Recording, metric Metric) []Outlier {
	byPlant := make(map[int][]*datastore.Recording)
	for i := range recordings {
		rec := &recordings[i]
		byPlant[rec.PlantID] = append(byPlant[rec.PlantID], rec)
	}

	cutoff := d.now().Add(-d.settings.Window)
	var outliers []Outlier

	for _, recs := range byPlant {
		values := make([]float64, len(recs))
		for i, rec := range recs {
			values[i] = metric.Value(rec)
		}
		mean, stdDev, ok := MeanStdDev(values)
		if !ok || stdDev == 0 {
			if d.metrics != nil {
				d.metrics.RecordPlantExcluded()
			}
			continue
		}

		for _, rec := range recs {
			if rec.Taken.Before(cutoff) {
				continue
			}
			value := metric.Value(rec)
			if math.Abs(value-mean) > d.settings.Sigma*stdDev {
				outliers = append(outliers, Outlier{
					PlantID: rec.PlantID,
					Value:   value,
					Mean:    mean,
					StdDev:  stdDev,
					Taken:   rec.Taken,
				})
			}
		}
	}

	sort.Slice(outliers, func(i, j int) bool {
		if outliers[i].PlantID != outliers[j].PlantID {
			return outliers[i].PlantID < outliers[j].PlantID
		}
		return outliers[i].Taken.Before(outliers[j].Taken)
	})
	return outliers
}

// MissingReporters returns the expected plant identifiers that produced no
// reading within the monitoring window, in ascending order. Identifiers
// outside the expected population are ignored here; the loader accepts
// them, but they cannot be "missing".
func (d *Detector) MissingReporters(recordings []datastore.Recording) []int {
	cutoff := d.now().Add(-d.settings.Window)

	seen := make(map[int]bool)
	for i := range recordings {
		if !recordings[i].Taken.Before(cutoff) {
			seen[recordings[i].PlantID] = true
		}
	}

	var missing []int
	for id := 0; id < d.plants.Count; id++ {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// MeanStdDev returns the mean and sample standard deviation of values.
// ok is false when fewer than two values exist and the deviation is
// undefined.
func MeanStdDev(values []float64) (mean, stdDev float64, ok bool) {
	if len(values) < 2 {
		return 0, 0, false
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var sumSquares float64
	for _, v := range values {
		sumSquares += (v - mean) * (v - mean)
	}
	stdDev = math.Sqrt(sumSquares / float64(len(values)-1))
	return mean, stdDev, true
}
