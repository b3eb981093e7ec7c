package encoder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// feed replays a sequence of phase states through the decoder and tallies
// the emitted directions.
func feed(d *Decoder, states []PhaseState) (cw, ccw int) {
	for _, s := range states {
		switch d.Observe(s&0b10 != 0, s&0b01 != 0) {
		case Clockwise:
			cw++
		case CounterClockwise:
			ccw++
		case None:
		}
	}

	return cw, ccw
}

// detent returns the four transitions completing one detent in the given direction.
func detent(dir Direction) []PhaseState {
	if dir == Clockwise {
		return []PhaseState{0b01, 0b11, 0b10, 0b00}
	}

	return []PhaseState{0b10, 0b11, 0b01, 0b00}
}

// TestNewPhaseState verifies the phase bit packing.
func TestNewPhaseState(t *testing.T) {
	t.Parallel()

	require.Equal(t, PhaseState(0b00), NewPhaseState(false, false))
	require.Equal(t, PhaseState(0b01), NewPhaseState(false, true))
	require.Equal(t, PhaseState(0b10), NewPhaseState(true, false))
	require.Equal(t, PhaseState(0b11), NewPhaseState(true, true))
}

// TestDecoderCleanDetents asserts exactly N events for N clean detents in each direction.
func TestDecoderCleanDetents(t *testing.T) {
	t.Parallel()

	const n = 5

	d := NewDecoder(false, false)

	var states []PhaseState
	for i := 0; i < n; i++ {
		states = append(states, detent(Clockwise)...)
	}

	cw, ccw := feed(d, states)
	require.Equal(t, n, cw)
	require.Zero(t, ccw)

	states = states[:0]
	for i := 0; i < n; i++ {
		states = append(states, detent(CounterClockwise)...)
	}

	cw, ccw = feed(d, states)
	require.Zero(t, cw)
	require.Equal(t, n, ccw)
}

// TestDecoderRepeatedState ensures a repeated sample does not move the state machine.
func TestDecoderRepeatedState(t *testing.T) {
	t.Parallel()

	d := NewDecoder(false, false)

	cw, ccw := feed(d, []PhaseState{0b01, 0b01, 0b01, 0b11, 0b11, 0b10, 0b00})
	require.Equal(t, 1, cw)
	require.Zero(t, ccw)
}

// TestDecoderBounceMidDetent checks that a single backwards bounce inside a
// detent emits no spurious event while the completed detent still counts once.
func TestDecoderBounceMidDetent(t *testing.T) {
	t.Parallel()

	// Bounce between 01 and 11 on the way clockwise.
	d := NewDecoder(false, false)

	cw, ccw := feed(d, []PhaseState{0b01, 0b11, 0b01, 0b11, 0b10, 0b00})
	require.Equal(t, 1, cw)
	require.Zero(t, ccw)

	// Bounce all the way back to rest before the detent completes.
	d = NewDecoder(false, false)

	cw, ccw = feed(d, []PhaseState{0b01, 0b00, 0b01, 0b11, 0b10, 0b00})
	require.Equal(t, 1, cw)
	require.Zero(t, ccw)
}

// TestDecoderInvalidTransition ensures a double bit flip resynchronizes
// without emitting and without breaking subsequent detents.
func TestDecoderInvalidTransition(t *testing.T) {
	t.Parallel()

	d := NewDecoder(false, false)

	// 00 -> 11 changes both bits: the partial detent is swallowed.
	cw, ccw := feed(d, []PhaseState{0b11, 0b10, 0b00})
	require.Zero(t, cw)
	require.Zero(t, ccw)

	// The decoder is resynchronized: the next full detent counts normally.
	cw, ccw = feed(d, detent(Clockwise))
	require.Equal(t, 1, cw)
	require.Zero(t, ccw)
}

// TestDecoderDirectionReversal verifies back-to-back detents in opposite directions.
func TestDecoderDirectionReversal(t *testing.T) {
	t.Parallel()

	d := NewDecoder(false, false)

	states := append(detent(Clockwise), detent(CounterClockwise)...)

	cw, ccw := feed(d, states)
	require.Equal(t, 1, cw)
	require.Equal(t, 1, ccw)
}

// TestDirectionString covers the log representation.
func TestDirectionString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "clockwise", Clockwise.String())
	require.Equal(t, "counter-clockwise", CounterClockwise.String())
	require.Equal(t, "none", None.String())
}
