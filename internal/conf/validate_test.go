package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Feed: FeedSettings{
			BaseURL: "https://plants.example.com",
			Timeout: 10 * time.Second,
		},
		Plants: PlantsSettings{Count: 51},
		Output: OutputSettings{
			SQLite: SQLiteSettings{Enabled: true, Path: "plantwatch.db"},
		},
		HealthCheck: HealthCheckSettings{Sigma: 2.5, Window: time.Hour},
	}
}

func TestValidateSettings_Valid(t *testing.T) {
	require.NoError(t, ValidateSettings(validSettings()))
}

func TestValidateSettings_CollectsAllProblems(t *testing.T) {
	s := validSettings()
	s.Feed.BaseURL = ""
	s.Plants.Count = 0
	s.HealthCheck.Sigma = 0

	err := ValidateSettings(s)
	require.Error(t, err)
	require.True(t, IsValidationError(err))

	assert.Contains(t, err.Error(), "feed.baseurl")
	assert.Contains(t, err.Error(), "plants.count")
	assert.Contains(t, err.Error(), "healthcheck.sigma")
}

func TestValidateSettings_DatabaseSelection(t *testing.T) {
	t.Run("both enabled", func(t *testing.T) {
		s := validSettings()
		s.Output.MySQL.Enabled = true
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "only one of")
	})

	t.Run("neither enabled", func(t *testing.T) {
		s := validSettings()
		s.Output.SQLite.Enabled = false
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be enabled")
	})

	t.Run("mysql missing host", func(t *testing.T) {
		s := validSettings()
		s.Output.SQLite.Enabled = false
		s.Output.MySQL.Enabled = true
		s.Output.MySQL.Database = "plantwatch"
		err := ValidateSettings(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "output.mysql.host")
	})
}

func TestValidateSettings_AlertURLsRequiredWhenEnabled(t *testing.T) {
	s := validSettings()
	s.Alert.Enabled = true
	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alert.urls")
}
