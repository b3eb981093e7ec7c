package button

import "time"

// State of the knob push button after debouncing.
type State uint8

// The two stable button states.
const (
	Released State = iota
	Pressed
)

// String returns a readable state name for logs.
func (s State) String() string {
	if s == Pressed {
		return "pressed"
	}

	return "released"
}

// StateForLevel maps a raw pin level onto a button state. The button line is
// pulled up, so a low level means the contact is closed.
func StateForLevel(level bool) State {
	if level {
		return Released
	}

	return Pressed
}

// Debouncer suppresses mechanical contact bounce on the button line.
//
// Raw transitions are recorded as a pending state; a transition is confirmed
// only once the level has held unchanged for the configured interval.
// Repeated toggles inside the window collapse into at most one confirmed
// transition after the signal settles, and two consecutive confirmations
// never report the same state.
type Debouncer struct {
	// interval is the minimum time a level must hold before it is accepted.
	interval time.Duration
	// stable is the last confirmed state.
	stable State
	// pending is the most recently observed raw state.
	pending State
	// changedAt is when the pending state last changed.
	changedAt time.Time
	// lastSeen is the newest timestamp observed on the line, used to
	// discard out-of-order input.
	lastSeen time.Time
	// dirty reports whether an unconfirmed raw change is outstanding.
	dirty bool
}

// NewDebouncer returns a debouncer whose last confirmed state is the level
// of the line at startup.
func NewDebouncer(interval time.Duration, initial State) *Debouncer {
	return &Debouncer{
		interval: interval,
		stable:   initial,
		pending:  initial,
	}
}

// Interval returns the configured stabilization window.
func (d *Debouncer) Interval() time.Duration {
	return d.interval
}

// Dirty reports whether a raw change is still awaiting confirmation.
func (d *Debouncer) Dirty() bool {
	return d.dirty
}

// Observe records a raw level change on the line. Timestamps must not go
// backwards; an out-of-order timestamp is dropped as noise. Observing does
// not confirm anything on its own: call Settle once the line has had the
// stabilization interval to quiet down.
func (d *Debouncer) Observe(s State, at time.Time) {
	if at.Before(d.lastSeen) {
		return
	}

	d.lastSeen = at

	if s == d.pending {
		return
	}

	d.pending = s
	d.changedAt = at
	d.dirty = true
}

// Settle confirms the pending state once it has held for the stabilization
// interval. The boolean reports whether a confirmed transition occurred;
// settling the same state the line already held reports nothing.
func (d *Debouncer) Settle(now time.Time) (State, bool) {
	if !d.dirty || now.Sub(d.changedAt) < d.interval {
		return d.stable, false
	}

	d.dirty = false

	if d.pending == d.stable {
		return d.stable, false
	}

	d.stable = d.pending

	return d.stable, true
}
