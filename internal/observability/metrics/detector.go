package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DetectorMetrics contains Prometheus metrics for the anomaly detector and
// the archival cycle.
type DetectorMetrics struct {
	registry *prometheus.Registry

	outliersFlaggedTotal  *prometheus.CounterVec
	plantsExcludedTotal   prometheus.Counter
	missingReportersGauge prometheus.Gauge
	archiveRunsTotal      *prometheus.CounterVec
	archivedRowsTotal     prometheus.Counter
}

// NewDetectorMetrics creates and registers new detector metrics
func NewDetectorMetrics(registry *prometheus.Registry) (*DetectorMetrics, error) {
	m := &DetectorMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DetectorMetrics) initMetrics() {
	m.outliersFlaggedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detector_outliers_flagged_total",
			Help: "Total number of out-of-band readings flagged",
		},
		[]string{"metric"}, // metric: soil_moisture, temperature
	)

	m.plantsExcludedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "detector_plants_excluded_total",
			Help: "Total number of plants skipped for lacking enough history",
		},
	)

	m.missingReportersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "detector_missing_reporters",
			Help: "Number of expected plants with no reading in the last window",
		},
	)

	m.archiveRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_runs_total",
			Help: "Total number of archival cycles",
		},
		[]string{"status"}, // status: success, error
	)

	m.archivedRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_rows_total",
			Help: "Total number of fact rows offloaded to cold storage",
		},
	)
}

// Describe implements the prometheus.Collector interface
func (m *DetectorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.outliersFlaggedTotal.Describe(ch)
	m.plantsExcludedTotal.Describe(ch)
	m.missingReportersGauge.Describe(ch)
	m.archiveRunsTotal.Describe(ch)
	m.archivedRowsTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (m *DetectorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.outliersFlaggedTotal.Collect(ch)
	m.plantsExcludedTotal.Collect(ch)
	m.missingReportersGauge.Collect(ch)
	m.archiveRunsTotal.Collect(ch)
	m.archivedRowsTotal.Collect(ch)
}

// RecordOutliers counts flagged readings for a metric.
func (m *DetectorMetrics) RecordOutliers(metric string, n int) {
	m.outliersFlaggedTotal.WithLabelValues(metric).Add(float64(n))
}

// RecordPlantExcluded counts a plant skipped for lacking history.
func (m *DetectorMetrics) RecordPlantExcluded() {
	m.plantsExcludedTotal.Inc()
}

// SetMissingReporters records the size of the missing-reporter set.
func (m *DetectorMetrics) SetMissingReporters(n int) {
	m.missingReportersGauge.Set(float64(n))
}

// RecordArchiveRun counts an archival cycle with the given status.
func (m *DetectorMetrics) RecordArchiveRun(status string) {
	m.archiveRunsTotal.WithLabelValues(status).Inc()
}

// RecordArchivedRows counts fact rows offloaded to cold storage.
func (m *DetectorMetrics) RecordArchivedRows(n int) {
	m.archivedRowsTotal.Add(float64(n))
}
