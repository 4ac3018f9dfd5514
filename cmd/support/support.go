// Package supportcmd captures the effective runtime configuration for
// support requests.
package supportcmd

import (
	"github.com/spf13/cobra"

	"github.com/plantwatch/plantwatch-go/internal/conf"
	"github.com/plantwatch/plantwatch-go/internal/logging"
)

// Command creates the support command: dump the fully resolved settings
// (defaults, config file, environment, flags) as YAML, so a report can
// carry the configuration the process actually ran with.
func Command(settings *conf.Settings) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "support",
		Short: "Write the effective configuration for a support request",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Credentials and service URLs (which embed tokens) never
			// leave the process.
			redacted := *settings
			redacted.Output.MySQL.Password = ""
			redacted.Alert.URLs = nil

			if err := redacted.Save(output); err != nil {
				return err
			}
			logging.ForComponent("cmd.support").Info("effective configuration written", "path", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "plantwatch-config.yaml", "Destination file for the effective configuration")
	return cmd
}
