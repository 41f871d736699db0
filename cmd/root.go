// Package cmd assembles the harkveil command line.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/harkveil/harkveil/cmd/serve"
	"github.com/harkveil/harkveil/cmd/triage"
	"github.com/harkveil/harkveil/internal/buildinfo"
	"github.com/harkveil/harkveil/internal/conf"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/logger"
)

// Runtime is filled by PersistentPreRunE and shared with subcommands.
type Runtime struct {
	Settings  *conf.Settings
	BuildInfo buildinfo.Context
	Logger    *logger.CentralLogger
}

// RootCommand creates and returns the root command
func RootCommand(info buildinfo.Context) *cobra.Command {
	rt := &Runtime{BuildInfo: info}
	var configFile string

	rootCmd := &cobra.Command{
		Use:           "harkveil",
		Short:         "Emergency call audio triage",
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config.yaml")
	if err := setupFlags(rootCmd); err != nil {
		panic(err) // flag names are static
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		}
		return initialize(rt, quietConsole(cmd))
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		shutdown(rt)
	}

	rootCmd.AddCommand(
		triage.Command(func() *conf.Settings { return rt.Settings }),
		serve.Command(func() *conf.Settings { return rt.Settings }, info),
	)

	return rootCmd
}

// initialize loads settings and sets up logging and telemetry before any
// subcommand runs.
func initialize(rt *Runtime, quiet bool) error {
	settings, err := conf.Load()
	if err != nil {
		return err
	}
	if quiet && !settings.Debug && settings.Logging.Console != nil {
		settings.Logging.Console.Enabled = false
	}
	if settings.Debug && settings.Logging.Console != nil {
		settings.Logging.Console.Level = "debug"
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(central)
	rt.Logger = central
	rt.Settings = settings

	if settings.Sentry.Enabled {
		if err := errors.InitSentry(settings.Sentry.DSN, settings.Sentry.Environment, rt.BuildInfo.Version); err != nil {
			logger.Global().Module("main").Warn("telemetry disabled", logger.Error(err))
		}
	}

	return nil
}

func shutdown(rt *Runtime) {
	errors.FlushTelemetry(2 * time.Second)
	if rt.Logger != nil {
		_ = rt.Logger.Close()
	}
}

// quietConsole keeps stdout clean for machine-readable output.
func quietConsole(cmd *cobra.Command) bool {
	f := cmd.Flags().Lookup("format")
	return f != nil && f.Value.String() == "json"
}

// setupFlags defines flags that are global to the command line interface and
// binds them to their viper keys.
func setupFlags(rootCmd *cobra.Command) error {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.Int("concurrency", 0, "Clips processed in parallel, 0 for one per CPU (max 8)")
	flags.Duration("clip-timeout", 0, "Per-stage deadline for a single clip")
	flags.String("transcriber", "", "Transcription backend: google, http or static")
	flags.String("language", "", "Transcription language (BCP-47)")
	flags.String("model", "", "Voice classifier artifact (.yaml, .json or .tflite)")
	flags.String("lexicon", "", "Emergency phrase list (YAML)")
	flags.Uint64("seed", 0, "Seed for simulated caller locations, 0 for random")

	bindings := map[string]string{
		"debug":        "debug",
		"concurrency":  "triage.concurrency",
		"clip-timeout": "triage.cliptimeout",
		"transcriber":  "transcriber.backend",
		"language":     "transcriber.language",
		"model":        "classifier.modelpath",
		"lexicon":      "lexicon.path",
		"seed":         "geo.seed",
	}
	for flag, key := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
