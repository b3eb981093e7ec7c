// Package encoder decodes the two-phase quadrature signal of a mechanical
// rotary encoder into directional detent steps.
//
// The Decoder tracks the 2-bit Gray-code phase state and emits exactly one
// Clockwise or CounterClockwise event per mechanically completed detent.
// Contact bounce and invalid transitions are absorbed as noise rather than
// surfaced as errors; a half-step policy would double-count or reverse steps,
// which is the dominant correctness bug this package exists to prevent.
package encoder
