package volume

import (
	"github.com/oshokin/volume-knob/internal/domain/encoder"
)

// State holds the bounded volume position and mute flag owned by the controller.
type State struct {
	// Current is the volume percentage, always within [Min, Max].
	Current int
	// Min is the lowest volume the controller will set.
	Min int
	// Max is the highest volume the controller will set.
	Max int
	// Step is the percentage change per detent.
	Step int
	// Muted reports whether mute is engaged.
	Muted bool
	// PreMute is the volume to restore on unmute; meaningful only while Muted.
	PreMute int
}

// clamp bounds v to [Min, Max]: an overshooting step lands on the boundary.
func (s *State) clamp(v int) int {
	if v < s.Min {
		return s.Min
	}

	if v > s.Max {
		return s.Max
	}

	return v
}

// CommandKind discriminates mixer instructions.
type CommandKind uint8

const (
	// CommandSetVolume applies Command.Volume and disengages mixer mute.
	CommandSetVolume CommandKind = iota
	// CommandMute engages mixer mute.
	CommandMute
)

// Command is one instruction for the mixer adapter. Commands carry absolute
// state, so a dropped or failed command is caught up by the next one.
type Command struct {
	// Kind selects the mixer operation.
	Kind CommandKind
	// Volume is the percentage for CommandSetVolume.
	Volume int
}

// Controller applies detent steps and button presses to the volume state
// machine. It owns its State exclusively; callers interact only through the
// event methods and never observe current outside [Min, Max].
type Controller struct {
	state State
}

// NewController seeds the controller with the configured bounds and the
// starting volume, clamped into bounds.
func NewController(minVolume, maxVolume, step, current int) *Controller {
	c := &Controller{
		state: State{
			Min:  minVolume,
			Max:  maxVolume,
			Step: step,
		},
	}
	c.state.Current = c.state.clamp(current)

	return c
}

// State returns a copy of the current volume state.
func (c *Controller) State() State {
	return c.state
}

// OnStep applies one detent of rotation. The volume moves by Step, clamped to
// the bounds; at a boundary the clamped value is still emitted so the mixer
// converges with local state. Turning the knob while muted clears the mute
// and steps from the pre-step volume.
func (c *Controller) OnStep(direction encoder.Direction) Command {
	c.state.Muted = false
	c.state.Current = c.state.clamp(c.state.Current + c.state.Step*int(direction))

	return Command{
		Kind:   CommandSetVolume,
		Volume: c.state.Current,
	}
}

// OnButtonPress toggles mute. Entering mute snapshots the current volume;
// leaving it restores the snapshot. Button releases never reach the
// controller.
func (c *Controller) OnButtonPress() Command {
	if c.state.Muted {
		c.state.Muted = false
		c.state.Current = c.state.clamp(c.state.PreMute)

		return Command{
			Kind:   CommandSetVolume,
			Volume: c.state.Current,
		}
	}

	c.state.PreMute = c.state.Current
	c.state.Muted = true

	return Command{
		Kind: CommandMute,
	}
}
