package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/volume-knob/internal/config"
	"github.com/oshokin/volume-knob/internal/service/knob"
	"github.com/oshokin/volume-knob/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string
	// logLevel overrides the log level from the configuration file.
	logLevel string

	// rootCmd represents the base command for running the volume knob daemon.
	rootCmd = &cobra.Command{
		Use:   "volume-knob",
		Short: "Run the rotary volume knob daemon.",
		Long: `Starts the daemon that turns a GPIO rotary encoder into system volume control.

Encoder rotation steps the volume up or down within the configured bounds,
and the encoder push button toggles mute. Pin numbers, volume bounds, and
the mixer backend are read from the configuration file.

The daemon runs until interrupted and applies every change through the
configured mixer backend (amixer or CamillaDSP).`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &knob.Options{
				ConfigPath: configPath,
				LogLevel:   logLevel,
			}

			return knob.Run(ctx, options)
		},
	}
)

// Execute runs the volume-knob CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level override (debug, info, warn, error)")
}
