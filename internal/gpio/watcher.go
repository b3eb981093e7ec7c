package gpio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/volume-knob/internal/logger"
)

// Line identifies one monitored input of the knob wiring.
type Line uint8

// The monitored lines.
const (
	LinePhaseA Line = iota
	LinePhaseB
	LineButton
)

// String returns a readable line name for logs.
func (l Line) String() string {
	switch l {
	case LinePhaseA:
		return "phase-a"
	case LinePhaseB:
		return "phase-b"
	case LineButton:
		return "button"
	default:
		return "unknown"
	}
}

// Event is one observed level change on a monitored line.
type Event struct {
	// Time is when the edge was observed.
	Time time.Time
	// Line is the input the edge occurred on.
	Line Line
	// Level is the logical pin level after the edge, true for high.
	Level bool
}

const (
	// eventBufferSize absorbs edge bursts while the consumer is busy.
	eventBufferSize = 64

	// pollTimeout is how long a watch goroutine blocks in poll before
	// checking for shutdown.
	pollTimeout = 250 * time.Millisecond

	// errorBackoff throttles retries after a failed edge wait.
	errorBackoff = 100 * time.Millisecond
)

// Watcher owns the exported pins and funnels their edges into a single
// channel. Each line has its own poll goroutine, but all events arrive on one
// buffered channel in observation order for the single consumer.
type Watcher struct {
	// pins maps each monitored line to its exported pin.
	pins map[Line]*Pin
	// initial holds the level of each line at startup.
	initial map[Line]bool
	// events carries observed edges to the consumer.
	events chan Event
	// stop signals watch goroutines to exit.
	stop chan struct{}
	// wg tracks running watch goroutines.
	wg sync.WaitGroup
	// closeOnce guards shutdown.
	closeOnce sync.Once
}

// NewWatcher opens the given pins, seeds their current levels, arms the edge
// trigger and starts one watch goroutine per line.
func NewWatcher(ctx context.Context, pins map[Line]int, edge Edge) (*Watcher, error) {
	w := &Watcher{
		pins:    make(map[Line]*Pin, len(pins)),
		initial: make(map[Line]bool, len(pins)),
		events:  make(chan Event, eventBufferSize),
		stop:    make(chan struct{}),
	}

	for line, number := range pins {
		pin, err := Open(number)
		if err != nil {
			w.closePins()

			return nil, fmt.Errorf("open %s: %w", line, err)
		}

		w.pins[line] = pin

		if err := pin.SetEdge(edge); err != nil {
			w.closePins()

			return nil, err
		}

		level, err := pin.Read()
		if err != nil {
			w.closePins()

			return nil, err
		}

		w.initial[line] = level
	}

	for line, pin := range w.pins {
		w.wg.Add(1)

		go w.watch(ctx, line, pin)
	}

	return w, nil
}

// Events returns the channel edges are delivered on. The channel is closed
// when the watcher shuts down.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// InitialLevel returns the level the line held when the watcher started.
func (w *Watcher) InitialLevel(line Line) bool {
	return w.initial[line]
}

// Close stops the watch goroutines, unexports the pins and closes the event
// channel. Safe to call more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.stop)
		w.wg.Wait()
		w.closePins()
		close(w.events)
	})

	return nil
}

// closePins releases every opened pin.
func (w *Watcher) closePins() {
	for _, pin := range w.pins {
		_ = pin.Close()
	}
}

// watch blocks on the pin's edge trigger and forwards every observed level
// change, stamped with the observation time.
func (w *Watcher) watch(ctx context.Context, line Line, pin *Pin) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		level, fired, err := pin.Wait(pollTimeout)
		if err != nil {
			logger.WarnKV(ctx, "Edge wait failed", "line", line.String(), "error", err)
			time.Sleep(errorBackoff)

			continue
		}

		if !fired {
			continue
		}

		ev := Event{
			Time:  time.Now(),
			Line:  line,
			Level: level,
		}

		select {
		case w.events <- ev:
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
