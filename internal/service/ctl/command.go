package ctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/volume-knob/internal/config"
	"github.com/oshokin/volume-knob/internal/logger"
	"github.com/oshokin/volume-knob/internal/mixer"
)

// Options controls the one-shot mixer operations.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
}

// Get prints the current volume percentage and mute state to the writer
// behind printf, typically the command's stdout.
func Get(ctx context.Context, opts *Options, printf func(format string, args ...any)) error {
	return withMixer(ctx, opts, func(ctx context.Context, mix mixer.Mixer) error {
		percent, err := mix.Volume(ctx)
		if err != nil {
			return fmt.Errorf("read volume: %w", err)
		}

		muted, err := mix.Muted(ctx)
		if err != nil {
			return fmt.Errorf("read mute state: %w", err)
		}

		state := "on"
		if muted {
			state = "muted"
		}

		printf("%d%% [%s]\n", percent, state)

		return nil
	})
}

// errPercentOutOfRange is returned for set values outside the percent scale.
var errPercentOutOfRange = errors.New("volume must be between 0 and 100")

// Set applies a volume percentage.
func Set(ctx context.Context, opts *Options, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("%d: %w", percent, errPercentOutOfRange)
	}

	return withMixer(ctx, opts, func(ctx context.Context, mix mixer.Mixer) error {
		if err := mix.SetVolume(ctx, percent); err != nil {
			return fmt.Errorf("set volume: %w", err)
		}

		return nil
	})
}

// Mute engages or disengages mute.
func Mute(ctx context.Context, opts *Options, muted bool) error {
	return withMixer(ctx, opts, func(ctx context.Context, mix mixer.Mixer) error {
		if err := mix.SetMute(ctx, muted); err != nil {
			return fmt.Errorf("set mute: %w", err)
		}

		return nil
	})
}

// withMixer loads the settings, opens the configured backend and runs fn
// against it under the configured timeout.
func withMixer(ctx context.Context, opts *Options, fn func(context.Context, mixer.Mixer) error) error {
	ctx = logger.WithName(ctx, "volume-ctl")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	mix, err := mixer.New(&cfg.Mixer)
	if err != nil {
		return err
	}

	defer func() {
		_ = mix.Close()
	}()

	callCtx, cancel := context.WithTimeout(ctx, cfg.Mixer.Timeout)
	defer cancel()

	return fn(callCtx, mix)
}
