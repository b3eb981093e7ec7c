package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EdgeMode selects which pin level transitions the edge source reports.
type EdgeMode string

// Supported edge trigger modes. Quadrature decoding needs both edges;
// the other modes exist for wiring variants and debugging.
const (
	EdgeRising  EdgeMode = "rising"
	EdgeFalling EdgeMode = "falling"
	EdgeBoth    EdgeMode = "both"
)

// EncoderConfig describes the GPIO wiring of the rotary encoder.
type EncoderConfig struct {
	// PhaseAPin is the GPIO number of encoder phase A.
	PhaseAPin int `yaml:"phase_a_pin"`
	// PhaseBPin is the GPIO number of encoder phase B.
	PhaseBPin int `yaml:"phase_b_pin"`
	// ButtonPin is the GPIO number of the knob push button.
	// When absent, button handling is disabled entirely.
	ButtonPin *int `yaml:"button_pin,omitempty"`
	// EdgeMode is the edge trigger used for pin change notifications.
	EdgeMode EdgeMode `yaml:"edge_mode"`
	// DebounceInterval is how long the button level must hold before
	// a press or release is accepted.
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// VolumeConfig bounds the volume state machine.
type VolumeConfig struct {
	// Min is the lowest volume percentage the knob will set.
	Min int `yaml:"min"`
	// Max is the highest volume percentage the knob will set.
	Max int `yaml:"max"`
	// Step is the percentage change per detent.
	Step int `yaml:"step"`
	// Default seeds the volume when the mixer cannot report one at startup.
	Default int `yaml:"default"`
}

// MixerConfig selects and configures the mixer backend.
type MixerConfig struct {
	// Backend is the mixer implementation: "amixer" or "camilladsp".
	Backend string `yaml:"backend"`
	// Control is the amixer simple control name.
	Control string `yaml:"control"`
	// WebsocketURL is the CamillaDSP control socket address.
	WebsocketURL string `yaml:"websocket_url"`
	// MinDB and MaxDB bound the CamillaDSP gain range mapped onto percent.
	MinDB float64 `yaml:"min_db"`
	MaxDB float64 `yaml:"max_db"`
	// Timeout bounds each mixer call.
	Timeout time.Duration `yaml:"timeout"`
}

// Config holds the full daemon configuration.
type Config struct {
	// Encoder is the GPIO wiring of the knob.
	Encoder EncoderConfig `yaml:"encoder"`
	// Volume bounds the volume state machine.
	Volume VolumeConfig `yaml:"volume"`
	// Mixer selects the audio mixer backend.
	Mixer MixerConfig `yaml:"mixer"`
	// LogLevel is the minimum level written to the log.
	LogLevel string `yaml:"log_level"`
}

// Recognized mixer backends.
const (
	// BackendAmixer shells out to the ALSA amixer tool.
	BackendAmixer = "amixer"
	// BackendCamillaDSP drives a CamillaDSP instance over its websocket protocol.
	BackendCamillaDSP = "camilladsp"
)

const (
	// DefaultConfigFilename is the default filename for knob settings.
	DefaultConfigFilename = "volume-knob-settings.yaml"

	// DefaultDebounceInterval is the default button stabilization window.
	DefaultDebounceInterval = 30 * time.Millisecond

	// DefaultMixerTimeout is the default duration for mixer operations.
	DefaultMixerTimeout = 2 * time.Second

	// DefaultControl is the default amixer simple control.
	DefaultControl = "Master"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// minPercent and maxPercent bound every volume percentage option.
	minPercent = 1
	maxPercent = 100
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errPinNegative is returned when a GPIO number is below zero.
	errPinNegative = errors.New("GPIO pin numbers must not be negative")
	// errPinsNotDistinct is returned when two monitored lines share a pin.
	errPinsNotDistinct = errors.New("encoder and button pins must be distinct")
	// errUnknownEdgeMode is returned for an unrecognized edge trigger mode.
	errUnknownEdgeMode = errors.New("unknown edge mode")
	// errVolumeBounds is returned when min/max are outside 1-100 or inverted.
	errVolumeBounds = errors.New("volume bounds must satisfy 1 <= min <= max <= 100")
	// errStepNotPositive is returned when the per-detent step is not positive.
	errStepNotPositive = errors.New("volume step must be positive")
	// errWebsocketURLRequired is returned when the camilladsp backend has no URL.
	errWebsocketURLRequired = errors.New("camilladsp websocket URL must be provided")
	// errGainRangeInvalid is returned when the dB range is empty or inverted.
	errGainRangeInvalid = errors.New("camilladsp gain range must satisfy min_db < max_db")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and consistent
// bounds, filling defaults for optional fields. These checks are the startup
// gate: the daemon refuses to run on an inconsistent configuration.
//
//nolint:cyclop // Validation is a flat list of checks; splitting would reduce clarity.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := validateEncoder(&cfg.Encoder); err != nil {
		return err
	}

	if err := validateVolume(&cfg.Volume); err != nil {
		return err
	}

	return validateMixer(&cfg.Mixer)
}

// validateEncoder checks pin assignment and debounce settings.
func validateEncoder(enc *EncoderConfig) error {
	if enc.PhaseAPin < 0 || enc.PhaseBPin < 0 {
		return errPinNegative
	}

	pins := map[int]struct{}{
		enc.PhaseAPin: {},
		enc.PhaseBPin: {},
	}

	if enc.ButtonPin != nil {
		if *enc.ButtonPin < 0 {
			return errPinNegative
		}

		pins[*enc.ButtonPin] = struct{}{}
	}

	monitored := 2
	if enc.ButtonPin != nil {
		monitored = 3
	}

	if len(pins) != monitored {
		return errPinsNotDistinct
	}

	switch enc.EdgeMode {
	case EdgeRising, EdgeFalling, EdgeBoth:
	case "":
		enc.EdgeMode = EdgeBoth
	default:
		return fmt.Errorf("%q: %w", enc.EdgeMode, errUnknownEdgeMode)
	}

	if enc.DebounceInterval <= 0 {
		enc.DebounceInterval = DefaultDebounceInterval
	}

	return nil
}

// validateVolume checks the volume bounds and clamps the default into them.
func validateVolume(vol *VolumeConfig) error {
	if vol.Min < minPercent || vol.Max > maxPercent || vol.Min > vol.Max {
		return errVolumeBounds
	}

	if vol.Step <= 0 {
		return errStepNotPositive
	}

	if vol.Default < vol.Min {
		vol.Default = vol.Min
	}

	if vol.Default > vol.Max {
		vol.Default = vol.Max
	}

	return nil
}

// validateMixer checks backend-specific settings and fills defaults.
func validateMixer(mix *MixerConfig) error {
	if mix.Timeout <= 0 {
		mix.Timeout = DefaultMixerTimeout
	}

	switch mix.Backend {
	case "", BackendAmixer:
		mix.Backend = BackendAmixer
		if mix.Control == "" {
			mix.Control = DefaultControl
		}

		return nil
	case BackendCamillaDSP:
		if mix.WebsocketURL == "" {
			return errWebsocketURLRequired
		}

		if _, err := url.Parse(mix.WebsocketURL); err != nil {
			return fmt.Errorf("invalid websocket URL: %w", err)
		}

		if mix.MinDB >= mix.MaxDB {
			return errGainRangeInvalid
		}

		return nil
	default:
		return fmt.Errorf("unknown mixer backend %q", mix.Backend)
	}
}
