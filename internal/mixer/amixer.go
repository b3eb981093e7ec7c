package mixer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// amixerBinary is the ALSA command line mixer tool.
const amixerBinary = "amixer"

var (
	// errNoOutput is returned when amixer produces nothing to parse.
	errNoOutput = errors.New("amixer produced no output")
	// errMalformedOutput is returned when the expected bracket fields are missing.
	errMalformedOutput = errors.New("malformed amixer output")
)

// Amixer drives an ALSA simple control through the amixer command line tool.
// Each operation is one short-lived subprocess bounded by the caller's context.
type Amixer struct {
	// control is the simple control name, e.g. "Master".
	control string
	// binary is the executable to run; tests substitute a stub.
	binary string
}

// NewAmixer returns a mixer driving the named ALSA simple control.
func NewAmixer(control string) *Amixer {
	return &Amixer{
		control: control,
		binary:  amixerBinary,
	}
}

// Volume reports the current volume percentage of the control.
func (m *Amixer) Volume(ctx context.Context) (int, error) {
	out, err := m.run(ctx, "get", m.control)
	if err != nil {
		return 0, err
	}

	percent, _, err := parseControlState(out)

	return percent, err
}

// Muted reports whether the control is currently muted.
func (m *Amixer) Muted(ctx context.Context) (bool, error) {
	out, err := m.run(ctx, "get", m.control)
	if err != nil {
		return false, err
	}

	_, muted, err := parseControlState(out)

	return muted, err
}

// SetVolume sets the volume percentage. The same amixer invocation disengages
// mute, so turning the knob always produces audible output.
func (m *Amixer) SetVolume(ctx context.Context, percent int) error {
	_, err := m.run(ctx, "set", m.control, "unmute", strconv.Itoa(percent)+"%")

	return err
}

// SetMute engages or disengages mute on the control.
func (m *Amixer) SetMute(ctx context.Context, muted bool) error {
	arg := "unmute"
	if muted {
		arg = "mute"
	}

	_, err := m.run(ctx, "set", m.control, arg)

	return err
}

// Close is a no-op; each call runs its own subprocess.
func (m *Amixer) Close() error {
	return nil
}

// run executes one amixer invocation and returns its standard output.
func (m *Amixer) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, m.binary, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", m.binary, strings.Join(args, " "), err)
	}

	return out, nil
}

// parseControlState extracts the volume percentage and mute flag from amixer
// output. The last line carries bracketed fields: the first is the volume
// ("[42%]") and the last is the playback switch ("[on]" or "[off]", where
// "off" means muted).
func parseControlState(out []byte) (percent int, muted bool, err error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return 0, false, errNoOutput
	}

	lines := strings.Split(trimmed, "\n")
	last := lines[len(lines)-1]

	open := strings.Index(last, "[")
	pct := strings.Index(last, "%")

	if open < 0 || pct < open {
		return 0, false, fmt.Errorf("%w: %q", errMalformedOutput, last)
	}

	percent, err = strconv.Atoi(last[open+1 : pct])
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q", errMalformedOutput, last)
	}

	lastOpen := strings.LastIndex(last, "[")
	lastClose := strings.LastIndex(last, "]")

	if lastOpen < 0 || lastClose < lastOpen {
		return 0, false, fmt.Errorf("%w: %q", errMalformedOutput, last)
	}

	muted = last[lastOpen+1:lastClose] == "off"

	return percent, muted, nil
}
