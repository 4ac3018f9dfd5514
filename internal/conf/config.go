// config.go: settings for the plantwatch pipeline, loaded through viper and
// passed explicitly into each component. There is no process-wide connection
// or configuration singleton; commands construct their collaborators from a
// Settings value.
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FeedSettings configures the upstream plant API client.
type FeedSettings struct {
	BaseURL       string        // endpoint base, record fetched from <base>/plants/<id>
	Timeout       time.Duration // per-fetch request timeout
	MaxConcurrent int           // upper bound on concurrent fetches, 0 = one per plant
}

// PlantsSettings describes the fixed monitored population.
type PlantsSettings struct {
	Count int // expected identifiers are 0..Count-1
}

// SQLiteSettings contains SQLite database settings.
type SQLiteSettings struct {
	Enabled bool
	Path    string // path to the database file
}

// MySQLSettings contains MySQL database settings.
type MySQLSettings struct {
	Enabled  bool
	Username string
	Password string
	Host     string
	Port     string
	Database string
}

// OutputSettings selects and configures the relational store.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// HealthCheckSettings tunes the anomaly detector.
type HealthCheckSettings struct {
	Sigma  float64       // standard deviations from the plant mean before a reading is flagged
	Window time.Duration // trailing window inspected for outliers and missing reporters
}

// ColdStoreSettings configures the archival blob store.
type ColdStoreSettings struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, for S3-compatible stores such as MinIO
	PathStyle bool
}

// AlertSettings configures anomaly report delivery.
type AlertSettings struct {
	Enabled    bool
	URLs       []string // shoutrrr service URLs
	Recipients []string // shown in the report header for the on-call reader
	Timeout    time.Duration
}

// Settings is the full configuration tree handed to commands.
type Settings struct {
	Debug bool

	Feed        FeedSettings
	Plants      PlantsSettings
	Output      OutputSettings
	HealthCheck HealthCheckSettings
	ColdStore   ColdStoreSettings
	Alert       AlertSettings
}

// Load reads configuration from the config file and environment, applying
// defaults for anything unset. A missing config file is not an error; the
// defaults describe a working local setup.
func Load() (*Settings, error) {
	setDefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, p := range configPaths() {
		viper.AddConfigPath(p)
	}
	viper.SetEnvPrefix("PLANTWATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes the effective settings to the given path as YAML. The support
// command uses it to capture the configuration the process actually ran with.
func (s *Settings) Save(path string) error {
	out, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// configPaths returns the search path for the config file: working directory
// first, then the user config directory.
func configPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "plantwatch"))
	}
	return paths
}
