package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/volume-knob/internal/config"
	"github.com/oshokin/volume-knob/internal/service/ctl"
	"github.com/oshokin/volume-knob/internal/version"
)

var (
	// configPath stores the path to the configuration YAML file.
	configPath string

	// rootCmd represents the base command for one-shot mixer operations.
	rootCmd = &cobra.Command{
		Use:   "volume-ctl",
		Short: "Query and adjust the mixer from the command line.",
		Long: `Command-line companion to the volume knob daemon.

Talks to the same mixer backend the daemon uses (amixer or CamillaDSP)
so the knob and scripted adjustments stay in agreement. Reads backend
settings from the shared configuration file.`,
	}

	// getCmd prints the current volume and mute state.
	getCmd = &cobra.Command{
		Use:   "get",
		Short: "Print the current volume and mute state.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := newSignalContext()
			defer stop()

			return ctl.Get(ctx, ctlOptions(), func(format string, args ...any) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), format, args...)
			})
		},
	}

	// setCmd sets the volume to an absolute percentage.
	setCmd = &cobra.Command{
		Use:   "set <percent>",
		Short: "Set the volume to an absolute percentage and disengage mute.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("parse volume percentage: %w", err)
			}

			ctx, stop := newSignalContext()
			defer stop()

			return ctl.Set(ctx, ctlOptions(), percent)
		},
	}

	// muteCmd engages mute without touching the volume.
	muteCmd = &cobra.Command{
		Use:   "mute",
		Short: "Mute the mixer.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := newSignalContext()
			defer stop()

			return ctl.Mute(ctx, ctlOptions(), true)
		},
	}

	// unmuteCmd disengages mute.
	unmuteCmd = &cobra.Command{
		Use:   "unmute",
		Short: "Unmute the mixer.",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := newSignalContext()
			defer stop()

			return ctl.Mute(ctx, ctlOptions(), false)
		},
	}
)

// Execute runs the volume-ctl CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
}

func ctlOptions() *ctl.Options {
	return &ctl.Options{ConfigPath: configPath}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")

	rootCmd.AddCommand(getCmd, setCmd, muteCmd, unmuteCmd)
}
