// Package volume contains the volume state machine driven by knob events.
//
// The Controller maps detent steps and button presses onto a clamped volume
// percentage and a mute flag, emitting absolute mixer commands. The
// min <= current <= max invariant holds across every event, including mixer
// failures, because the controller never depends on the mixer's answer.
package volume
