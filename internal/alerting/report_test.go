package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantwatch/plantwatch-go/internal/anomaly"
	"github.com/plantwatch/plantwatch-go/internal/conf"
)

func sampleResult() anomaly.Result {
	return anomaly.Result{
		SoilMoisture: []anomaly.Outlier{
			{PlantID: 7, Value: 26, Mean: 20.15, StdDev: 2.21, Taken: time.Date(2026, 8, 28, 11, 55, 0, 0, time.UTC)},
		},
		Missing: []int{2, 4},
	}
}

func TestRenderReport(t *testing.T) {
	html, err := RenderReport(sampleResult(), []string{"oncall@plantwatch.example"}, time.Hour, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, html, "oncall@plantwatch.example")
	assert.Contains(t, html, "2, 4")
	assert.Contains(t, html, "26.00")
	assert.Contains(t, html, "20.15")
	assert.Contains(t, html, "No temperature anomalies found.")
	assert.NotContains(t, html, "No soil moisture anomalies found.")
}

func TestRenderReport_CleanResult(t *testing.T) {
	html, err := RenderReport(anomaly.Result{}, nil, time.Hour, time.Now())
	require.NoError(t, err)

	assert.Contains(t, html, "All expected plants reported")
	assert.Contains(t, html, "No soil moisture anomalies found.")
	assert.Contains(t, html, "No temperature anomalies found.")
}

func TestNewService_Disabled(t *testing.T) {
	svc, err := NewService(conf.AlertSettings{Enabled: false})
	require.NoError(t, err)

	// A disabled service swallows everything without a sender.
	assert.NoError(t, svc.Send(context.Background(), sampleResult(), time.Hour))
}

func TestNewService_RejectsBadURL(t *testing.T) {
	_, err := NewService(conf.AlertSettings{
		Enabled: true,
		URLs:    []string{"not-a-service-url"},
	})
	assert.Error(t, err)
}

func TestSend_SkipsCleanResult(t *testing.T) {
	svc, err := NewService(conf.AlertSettings{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, svc.Send(context.Background(), anomaly.Result{}, time.Hour))
}
