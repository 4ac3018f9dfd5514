// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("feed.baseurl", "https://data-eng-plants-api.herokuapp.com")
	viper.SetDefault("feed.timeout", 10*time.Second)
	viper.SetDefault("feed.maxconcurrent", 0)

	viper.SetDefault("plants.count", 51)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "plantwatch.db")

	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "plantwatch")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")
	viper.SetDefault("output.mysql.database", "plantwatch")

	viper.SetDefault("healthcheck.sigma", 2.5)
	viper.SetDefault("healthcheck.window", time.Hour)

	viper.SetDefault("coldstore.bucket", "")
	viper.SetDefault("coldstore.region", "eu-west-2")
	viper.SetDefault("coldstore.endpoint", "")
	viper.SetDefault("coldstore.pathstyle", false)

	viper.SetDefault("metrics.listen", "")

	viper.SetDefault("alert.enabled", false)
	viper.SetDefault("alert.urls", []string{})
	viper.SetDefault("alert.recipients", []string{})
	viper.SetDefault("alert.timeout", 30*time.Second)
}
