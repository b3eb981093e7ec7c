package encoder

// PhaseState is the combined 2-bit Gray-code state of the encoder phase
// lines: bit 1 carries phase A, bit 0 carries phase B.
type PhaseState uint8

// StateRest is the phase state at a detent rest position.
const StateRest PhaseState = 0b00

// NewPhaseState packs the two phase levels into a PhaseState.
func NewPhaseState(phaseA, phaseB bool) PhaseState {
	var s PhaseState
	if phaseA {
		s |= 0b10
	}

	if phaseB {
		s |= 0b01
	}

	return s
}

// Direction is the outcome of one observed phase transition.
type Direction int8

// The values double as step signs so a direction can be multiplied
// straight into a volume delta.
const (
	None             Direction = 0
	Clockwise        Direction = 1
	CounterClockwise Direction = -1
)

// String returns a readable direction name for logs.
func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter-clockwise"
	case None:
		return "none"
	default:
		return "unknown"
	}
}

// stepsPerDetent is the number of valid Gray-code transitions in one detent.
const stepsPerDetent = 4

// cwNext maps each phase state to its clockwise successor
// (00 -> 01 -> 11 -> 10 -> 00).
//
//nolint:gochecknoglobals // Fixed transition table.
var cwNext = [4]PhaseState{
	0b00: 0b01,
	0b01: 0b11,
	0b11: 0b10,
	0b10: 0b00,
}

// ccwNext maps each phase state to its counter-clockwise successor
// (00 -> 10 -> 11 -> 01 -> 00).
//
//nolint:gochecknoglobals // Fixed transition table.
var ccwNext = [4]PhaseState{
	0b00: 0b10,
	0b10: 0b11,
	0b11: 0b01,
	0b01: 0b00,
}

// Decoder turns raw quadrature phase transitions into completed detent steps.
//
// A mechanical encoder passes through all four Gray-code states per detent and
// bounces freely between neighbouring states while doing so. The decoder
// counts signed progress along the cycle and reports a direction only once a
// full four-transition cycle has closed back at the rest state, so a bounce
// that retreats one state and advances again still yields exactly one step.
// A transition that changes both bits at once cannot come from a healthy
// sequence (extreme bounce or a missed sample); tracking resynchronizes to
// the newly observed state and the partial detent is absorbed as noise.
type Decoder struct {
	// prev is the last observed phase state.
	prev PhaseState
	// progress is the signed count of valid transitions since the last
	// rest state: positive clockwise, negative counter-clockwise.
	progress int8
}

// NewDecoder returns a decoder synchronized to the given initial phase levels.
func NewDecoder(phaseA, phaseB bool) *Decoder {
	return &Decoder{
		prev: NewPhaseState(phaseA, phaseB),
	}
}

// Observe consumes the current phase levels and reports a direction once a
// detent completes. Repeated, partial and invalid transitions yield None;
// the decoder never fails.
func (d *Decoder) Observe(phaseA, phaseB bool) Direction {
	next := NewPhaseState(phaseA, phaseB)

	switch {
	case next == d.prev:
		return None
	case next == cwNext[d.prev]:
		d.progress++
	case next == ccwNext[d.prev]:
		d.progress--
	default:
		// Both bits flipped at once: resynchronize and swallow the detent.
		d.prev = next
		d.progress = 0

		return None
	}

	d.prev = next
	if next != StateRest {
		return None
	}

	progress := d.progress
	d.progress = 0

	switch progress {
	case stepsPerDetent:
		return Clockwise
	case -stepsPerDetent:
		return CounterClockwise
	default:
		return None
	}
}
