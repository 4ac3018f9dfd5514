// Package metrics provides prometheus collectors for pipeline observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the fetch/transform/load path.
// Expected absences (failed fetches, dropped records, unparseable fields) are
// not errors, but they must stay countable; these collectors are that count.
type PipelineMetrics struct {
	registry *prometheus.Registry

	fetchesTotal         *prometheus.CounterVec
	fetchErrorsTotal     prometheus.Counter
	recordsDroppedTotal  *prometheus.CounterVec
	parseFailuresTotal   *prometheus.CounterVec
	entitiesCreatedTotal *prometheus.CounterVec
	recordingsPersisted  prometheus.Counter
	loadConflictsTotal   prometheus.Counter
	loadDuration         prometheus.Histogram
}

// NewPipelineMetrics creates and registers new pipeline metrics
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *PipelineMetrics) initMetrics() {
	m.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_fetches_total",
			Help: "Total number of source feed fetch attempts",
		},
		[]string{"status"}, // status: success, error
	)

	m.fetchErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_fetch_errors_total",
			Help: "Total number of per-plant fetches that produced no record",
		},
	)

	m.recordsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_records_dropped_total",
			Help: "Total number of raw records dropped during transformation",
		},
		[]string{"reason"}, // reason: absent, missing_field, bad_timestamp
	)

	m.parseFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transform_parse_failures_total",
			Help: "Total number of optional fields that failed to parse and were recorded absent",
		},
		[]string{"field"},
	)

	m.entitiesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_entities_created_total",
			Help: "Total number of reference entities created by the loader",
		},
		[]string{"entity"}, // entity: origin, plant, image, botanist
	)

	m.recordingsPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_recordings_persisted_total",
			Help: "Total number of recording fact rows inserted",
		},
	)

	m.loadConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_natural_key_conflicts_total",
			Help: "Total number of natural-key insert conflicts resolved by re-lookup",
		},
	)

	m.loadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loader_batch_duration_seconds",
			Help:    "Time taken to load one batch of recordings",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
}

// Describe implements the prometheus.Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.fetchesTotal.Describe(ch)
	m.fetchErrorsTotal.Describe(ch)
	m.recordsDroppedTotal.Describe(ch)
	m.parseFailuresTotal.Describe(ch)
	m.entitiesCreatedTotal.Describe(ch)
	m.recordingsPersisted.Describe(ch)
	m.loadConflictsTotal.Describe(ch)
	m.loadDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.fetchesTotal.Collect(ch)
	m.fetchErrorsTotal.Collect(ch)
	m.recordsDroppedTotal.Collect(ch)
	m.parseFailuresTotal.Collect(ch)
	m.entitiesCreatedTotal.Collect(ch)
	m.recordingsPersisted.Collect(ch)
	m.loadConflictsTotal.Collect(ch)
	m.loadDuration.Collect(ch)
}

// RecordFetch increments the fetch counter with the given status.
func (m *PipelineMetrics) RecordFetch(status string) {
	m.fetchesTotal.WithLabelValues(status).Inc()
}

// RecordFetchError counts a per-plant fetch that yielded no record.
func (m *PipelineMetrics) RecordFetchError() {
	m.fetchErrorsTotal.Inc()
}

// RecordDropped counts a raw record dropped during transformation.
func (m *PipelineMetrics) RecordDropped(reason string) {
	m.recordsDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordParseFailure counts an optional field recorded absent after a parse failure.
func (m *PipelineMetrics) RecordParseFailure(field string) {
	m.parseFailuresTotal.WithLabelValues(field).Inc()
}

// RecordEntityCreated counts a reference entity created by the loader.
func (m *PipelineMetrics) RecordEntityCreated(entity string) {
	m.entitiesCreatedTotal.WithLabelValues(entity).Inc()
}

// RecordRecordingsPersisted counts fact rows inserted in a batch.
func (m *PipelineMetrics) RecordRecordingsPersisted(n int) {
	m.recordingsPersisted.Add(float64(n))
}

// RecordLoadConflict counts a natural-key conflict resolved by re-lookup.
func (m *PipelineMetrics) RecordLoadConflict() {
	m.loadConflictsTotal.Inc()
}

// ObserveLoadDuration records the duration of one batch load in seconds.
func (m *PipelineMetrics) ObserveLoadDuration(seconds float64) {
	m.loadDuration.Observe(seconds)
}
