package conf

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError holds all the problems found in a settings tree so they
// can be reported in one pass instead of one failed start per mistake.
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings checks the settings tree for values that can never work.
func ValidateSettings(settings *Settings) error {
	var problems []string

	if settings.Feed.BaseURL == "" {
		problems = append(problems, "feed.baseurl must be set")
	}
	if settings.Feed.Timeout <= 0 {
		problems = append(problems, "feed.timeout must be positive")
	}
	if settings.Feed.MaxConcurrent < 0 {
		problems = append(problems, "feed.maxconcurrent cannot be negative")
	}

	if settings.Plants.Count <= 0 {
		problems = append(problems, "plants.count must be positive")
	}

	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		problems = append(problems, "only one of output.sqlite and output.mysql may be enabled")
	}
	if !settings.Output.SQLite.Enabled && !settings.Output.MySQL.Enabled {
		problems = append(problems, "one of output.sqlite and output.mysql must be enabled")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		problems = append(problems, "output.sqlite.path must be set")
	}
	if settings.Output.MySQL.Enabled {
		if settings.Output.MySQL.Host == "" {
			problems = append(problems, "output.mysql.host must be set")
		}
		if settings.Output.MySQL.Database == "" {
			problems = append(problems, "output.mysql.database must be set")
		}
	}

	if settings.HealthCheck.Sigma <= 0 {
		problems = append(problems, "healthcheck.sigma must be positive")
	}
	if settings.HealthCheck.Window <= 0 {
		problems = append(problems, "healthcheck.window must be positive")
	}

	if settings.Alert.Enabled && len(settings.Alert.URLs) == 0 {
		problems = append(problems, "alert.urls must be set when alerting is enabled")
	}

	if len(problems) > 0 {
		return ValidationError{Errors: problems}
	}
	return nil
}

// IsValidationError reports whether err is a configuration validation error.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
