// Package serve implements the "harkveil serve" command.
package serve

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harkveil/harkveil/internal/analysis"
	"github.com/harkveil/harkveil/internal/buildinfo"
	"github.com/harkveil/harkveil/internal/conf"
)

// Command creates the serve command running the HTTP API.
func Command(settings func() *conf.Settings, info buildinfo.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the triage HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := analysis.NewApp(cmd.Context(), settings())
			if err != nil {
				return err
			}
			defer app.Close()

			return analysis.Serve(app, info)
		},
	}

	cmd.Flags().String("listen", "", "Listen address, e.g. :8080")
	cmd.Flags().Bool("alerts", false, "Publish emergencies to the configured MQTT broker")
	_ = viper.BindPFlag("webserver.listen", cmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("alert.enabled", cmd.Flags().Lookup("alerts"))

	return cmd
}
