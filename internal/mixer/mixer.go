package mixer

import (
	"context"
	"fmt"

	"github.com/oshokin/volume-knob/internal/config"
)

// Mixer applies volume changes to the host audio subsystem. Calls are
// synchronous and best-effort: a failure leaves the device state unknown and
// the caller's in-memory state untouched.
//
// SetVolume disengages mute as part of applying the percentage, matching how
// rotation and unmute are surfaced to the user.
type Mixer interface {
	// Volume reports the current volume percentage.
	Volume(ctx context.Context) (int, error)
	// Muted reports whether mute is currently engaged.
	Muted(ctx context.Context) (bool, error)
	// SetVolume sets the volume percentage and disengages mute.
	SetVolume(ctx context.Context, percent int) error
	// SetMute engages or disengages mute without touching the volume.
	SetMute(ctx context.Context, muted bool) error
	// Close releases backend resources.
	Close() error
}

// New constructs the mixer backend selected by the configuration.
// The configuration is expected to have passed config.Validate.
func New(cfg *config.MixerConfig) (Mixer, error) {
	switch cfg.Backend {
	case config.BackendAmixer:
		return NewAmixer(cfg.Control), nil
	case config.BackendCamillaDSP:
		return NewCamillaDSP(cfg.WebsocketURL, cfg.MinDB, cfg.MaxDB), nil
	default:
		return nil, fmt.Errorf("unknown mixer backend %q", cfg.Backend)
	}
}
