// Package triage implements the "harkveil triage" command.
package triage

import (
	"github.com/spf13/cobra"

	"github.com/harkveil/harkveil/internal/analysis"
	"github.com/harkveil/harkveil/internal/conf"
)

// Command creates the triage command for a batch of local audio files.
func Command(settings func() *conf.Settings) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "triage [files...]",
		Short: "Triage audio files for emergencies",
		Long: `Transcribe each file, flag distress phrases, classify the voice as human or
synthetic and attach a simulated caller location. Results keep input order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := analysis.NewApp(cmd.Context(), settings())
			if err != nil {
				return err
			}
			defer app.Close()

			return analysis.FileTriage(cmd.Context(), app, args, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", analysis.FormatTable, "Output format: table, json")

	return cmd
}
