package anomaly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/datastore"
)

func newTestDetector(t *testing.T, sigma float64, count int, now time.Time) *Detector {
	t.Helper()
	d := New(
		conf.HealthCheckSettings{Sigma: sigma, Window: time.Hour},
		conf.PlantsSettings{Count: count},
		nil,
	)
	d.now = func() time.Time { return now }
	return d
}

// history returns a baseline of alternating readings well outside the
// detection window, plus one recent reading with the given value. The
// baseline alone has mean 20 and a sample deviation close to 2.
func history(recent float64, now time.Time) []datastore.Recording {
	var recs []datastore.Recording
	for i := 0; i < 20; i++ {
		recs = append(recs,
			datastore.Recording{PlantID: 1, SoilMoisture: 18, Temperature: 18, Taken: now.Add(-48 * time.Hour)},
			datastore.Recording{PlantID: 1, SoilMoisture: 22, Temperature: 22, Taken: now.Add(-48 * time.Hour)},
		)
	}
	recs = append(recs, datastore.Recording{
		PlantID: 1, SoilMoisture: recent, Temperature: recent, Taken: now.Add(-time.Minute),
	})
	return recs
}

func TestDetectOutliers_FlagsReadingBeyondSigma(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 51, now)

	outliers := d.DetectOutliers(history(26, now), MetricSoilMoisture)

	require.Len(t, outliers, 1)
	assert.Equal(t, 1, outliers[0].PlantID)
	assert.InDelta(t, 26, outliers[0].Value, 0.001)
	assert.InDelta(t, 20.15, outliers[0].Mean, 0.01)
}

func TestDetectOutliers_IgnoresReadingWithinSigma(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 51, now)

	outliers := d.DetectOutliers(history(24, now), MetricSoilMoisture)

	assert.Empty(t, outliers)
}

func TestDetectOutliers_SigmaIsConfigurable(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	// The same reading that passes at 2.5 deviations trips a tighter
	// threshold.
	d := newTestDetector(t, 1.5, 51, now)
	outliers := d.DetectOutliers(history(24, now), MetricTemperature)

	require.Len(t, outliers, 1)
	assert.InDelta(t, 24, outliers[0].Value, 0.001)
}

func TestDetectOutliers_IgnoresOldReadings(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 51, now)

	recs := history(26, now)
	// Push the extreme reading outside the window. It still shapes the
	// baseline but is no longer a candidate for flagging.
	recs[len(recs)-1].Taken = now.Add(-2 * time.Hour)

	assert.Empty(t, d.DetectOutliers(recs, MetricSoilMoisture))
}

func TestDetectOutliers_ExcludesPlantsWithoutEnoughHistory(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 51, now)

	recs := []datastore.Recording{
		{PlantID: 7, SoilMoisture: 9999, Temperature: 9999, Taken: now.Add(-time.Minute)},
	}

	assert.Empty(t, d.DetectOutliers(recs, MetricSoilMoisture))
}

func TestDetectOutliers_ZeroDeviationNeverFlags(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 51, now)

	recs := []datastore.Recording{
		{PlantID: 3, SoilMoisture: 20, Temperature: 20, Taken: now.Add(-time.Minute)},
		{PlantID: 3, SoilMoisture: 20, Temperature: 20, Taken: now.Add(-2 * time.Minute)},
	}

	assert.Empty(t, d.DetectOutliers(recs, MetricSoilMoisture))
}

func TestMissingReporters(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 5, now)

	recs := []datastore.Recording{
		{PlantID: 0, Taken: now.Add(-time.Minute)},
		{PlantID: 1, Taken: now.Add(-30 * time.Minute)},
		{PlantID: 3, Taken: now.Add(-59 * time.Minute)},
		// Reported, but too long ago to count.
		{PlantID: 4, Taken: now.Add(-3 * time.Hour)},
	}

	assert.Equal(t, []int{2, 4}, d.MissingReporters(recs))
}

func TestMissingReporters_AllPresent(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 3, now)

	recs := []datastore.Recording{
		{PlantID: 0, Taken: now.Add(-time.Minute)},
		{PlantID: 1, Taken: now.Add(-time.Minute)},
		{PlantID: 2, Taken: now.Add(-time.Minute)},
	}

	assert.Empty(t, d.MissingReporters(recs))
}

func TestCheck_CombinesBothChecks(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	d := newTestDetector(t, 2.5, 2, now)

	result := d.Check(history(26, now))

	assert.Len(t, result.SoilMoisture, 1)
	assert.Len(t, result.Temperature, 1)
	assert.Equal(t, []int{0}, result.Missing)
	assert.False(t, result.Empty())
}

func TestResult_Empty(t *testing.T) {
	assert.True(t, Result{}.Empty())
	assert.False(t, Result{Missing: []int{4}}.Empty())
}

func TestMeanStdDev(t *testing.T) {
	mean, stdDev, ok := MeanStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.True(t, ok)
	assert.InDelta(t, 5.0, mean, 0.001)
	assert.InDelta(t, 2.138, stdDev, 0.001)

	_, _, ok = MeanStdDev([]float64{42})
	assert.False(t, ok)
}
