package knob

import (
	"context"
	"fmt"

	"github.com/oshokin/volume-knob/internal/config"
	"github.com/oshokin/volume-knob/internal/gpio"
	"github.com/oshokin/volume-knob/internal/logger"
	"github.com/oshokin/volume-knob/internal/mixer"
)

// Options controls the volume-knob daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when non-empty.
	LogLevel string
}

// Run starts the knob daemon and blocks until the context is canceled.
// Configuration problems are fatal here, before any pin is touched.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "volume-knob")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	applyLogLevel(ctx, cfg.LogLevel, opts.LogLevel)

	if err := ensureSingleInstance(); err != nil {
		return err
	}

	mix, err := mixer.New(&cfg.Mixer)
	if err != nil {
		return err
	}

	defer func() {
		_ = mix.Close()
	}()

	source, err := openWatcher(ctx, cfg)
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	logPinAssignment(ctx, cfg)

	return newService(ctx, cfg, mix, source).run(ctx)
}

// applyLogLevel applies the configured level, letting the CLI override it.
func applyLogLevel(ctx context.Context, configured, override string) {
	name := configured
	if override != "" {
		name = override
	}

	if name == "" {
		return
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		logger.WarnKV(ctx, "Unknown log level, keeping current", "log_level", name)

		return
	}

	logger.SetLevel(level)
}

// openWatcher exports and monitors the configured pins.
func openWatcher(ctx context.Context, cfg *config.Config) (*gpio.Watcher, error) {
	pins := map[gpio.Line]int{
		gpio.LinePhaseA: cfg.Encoder.PhaseAPin,
		gpio.LinePhaseB: cfg.Encoder.PhaseBPin,
	}

	if cfg.Encoder.ButtonPin != nil {
		pins[gpio.LineButton] = *cfg.Encoder.ButtonPin
	}

	watcher, err := gpio.NewWatcher(ctx, pins, gpio.Edge(cfg.Encoder.EdgeMode))
	if err != nil {
		return nil, fmt.Errorf("watch pins: %w", err)
	}

	return watcher, nil
}

// logPinAssignment records the wiring once at startup.
func logPinAssignment(ctx context.Context, cfg *config.Config) {
	logger.InfoKV(ctx, "Volume knob pins",
		"phase_a", cfg.Encoder.PhaseAPin,
		"phase_b", cfg.Encoder.PhaseBPin)

	if cfg.Encoder.ButtonPin != nil {
		logger.InfoKV(ctx, "Mute button pin", "button", *cfg.Encoder.ButtonPin)
	} else {
		logger.Info(ctx, "No button pin configured, mute toggle disabled")
	}
}
