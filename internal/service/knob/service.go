package knob

import (
	"context"
	"errors"
	"time"

	"github.com/oshokin/volume-knob/internal/config"
	"github.com/oshokin/volume-knob/internal/domain/button"
	"github.com/oshokin/volume-knob/internal/domain/encoder"
	"github.com/oshokin/volume-knob/internal/domain/volume"
	"github.com/oshokin/volume-knob/internal/gpio"
	"github.com/oshokin/volume-knob/internal/logger"
	"github.com/oshokin/volume-knob/internal/mixer"
)

// EdgeSource delivers raw pin level changes in arrival order.
// Watcher is the production implementation; tests inject a fake.
type EdgeSource interface {
	// Events returns the channel edges are delivered on.
	Events() <-chan gpio.Event
	// InitialLevel returns the level the line held when monitoring started.
	InitialLevel(line gpio.Line) bool
	// Close releases the source.
	Close() error
}

// commandQueueSize bounds the mixer dispatch queue. Commands carry absolute
// state, so the queue can stay small and shed stale entries under pressure.
const commandQueueSize = 16

// errSourceClosed is returned when the edge source stops delivering.
var errSourceClosed = errors.New("edge source closed")

// service owns the decode pipeline: one consumer goroutine drains the edge
// source and applies events to the decoder, the debouncer and the volume
// controller strictly in arrival order, while a dispatch goroutine applies
// the resulting mixer commands so a slow mixer never stalls edge handling.
type service struct {
	// cfg is the validated daemon configuration.
	cfg *config.Config
	// mixer applies volume commands to the audio subsystem.
	mixer mixer.Mixer
	// source delivers raw pin edges.
	source EdgeSource
	// decoder tracks the quadrature phase state.
	decoder *encoder.Decoder
	// debouncer filters the button line; nil when no button is configured.
	debouncer *button.Debouncer
	// controller owns the volume state machine.
	controller *volume.Controller
	// levelA and levelB mirror the last seen phase levels.
	levelA bool
	levelB bool
	// commands feeds the dispatch goroutine.
	commands chan volume.Command
}

// newService seeds the pipeline from the source's initial pin levels and the
// mixer's reported volume, falling back to the configured default when the
// mixer cannot answer.
func newService(ctx context.Context, cfg *config.Config, mix mixer.Mixer, source EdgeSource) *service {
	s := &service{
		cfg:      cfg,
		mixer:    mix,
		source:   source,
		levelA:   source.InitialLevel(gpio.LinePhaseA),
		levelB:   source.InitialLevel(gpio.LinePhaseB),
		commands: make(chan volume.Command, commandQueueSize),
	}

	s.decoder = encoder.NewDecoder(s.levelA, s.levelB)

	if cfg.Encoder.ButtonPin != nil {
		initial := button.StateForLevel(source.InitialLevel(gpio.LineButton))
		s.debouncer = button.NewDebouncer(cfg.Encoder.DebounceInterval, initial)
	}

	current := s.seedVolume(ctx)
	s.controller = volume.NewController(cfg.Volume.Min, cfg.Volume.Max, cfg.Volume.Step, current)

	return s
}

// seedVolume queries the mixer for the starting volume.
func (s *service) seedVolume(ctx context.Context) int {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Mixer.Timeout)
	defer cancel()

	current, err := s.mixer.Volume(callCtx)
	if err != nil {
		logger.WarnKV(ctx, "Could not read initial volume, using default",
			"default", s.cfg.Volume.Default, "error", err)

		return s.cfg.Volume.Default
	}

	return current
}

// run processes events until the context is canceled or the source closes.
func (s *service) run(ctx context.Context) error {
	go s.dispatch(ctx)

	logger.InfoKV(ctx, "Volume knob running",
		"volume", s.controller.State().Current,
		"button", s.debouncer != nil)

	// settle drives debounce confirmation; it stays disarmed until the
	// button line actually changes.
	settle := time.NewTimer(time.Hour)
	defer settle.Stop()

	stopTimer(settle)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-s.source.Events():
			if !ok {
				return errSourceClosed
			}

			s.handleEdge(ctx, ev, settle)
		case <-settle.C:
			s.settleButton(ctx, settle)
		}
	}
}

// handleEdge routes one raw edge to the decoder or the debouncer.
func (s *service) handleEdge(ctx context.Context, ev gpio.Event, settle *time.Timer) {
	switch ev.Line {
	case gpio.LinePhaseA:
		s.levelA = ev.Level
		s.step(ctx)
	case gpio.LinePhaseB:
		s.levelB = ev.Level
		s.step(ctx)
	case gpio.LineButton:
		if s.debouncer == nil {
			return
		}

		s.debouncer.Observe(button.StateForLevel(ev.Level), ev.Time)

		// Every raw toggle restarts the stabilization window.
		stopTimer(settle)
		settle.Reset(s.debouncer.Interval())
	}
}

// step feeds the current phase levels to the decoder and applies a completed
// detent to the controller.
func (s *service) step(ctx context.Context) {
	direction := s.decoder.Observe(s.levelA, s.levelB)
	if direction == encoder.None {
		return
	}

	cmd := s.controller.OnStep(direction)

	logger.DebugKV(ctx, "Detent",
		"direction", direction.String(),
		"volume", s.controller.State().Current)

	s.enqueue(cmd)
}

// settleButton confirms a debounced button transition once the line is quiet.
// Only a confirmed press acts; releases are deliberately ignored.
func (s *service) settleButton(ctx context.Context, settle *time.Timer) {
	state, changed := s.debouncer.Settle(time.Now())
	if !changed {
		// Fired early relative to the pending change; try again shortly.
		if s.debouncer.Dirty() {
			settle.Reset(s.debouncer.Interval())
		}

		return
	}

	logger.DebugKV(ctx, "Button settled", "state", state.String())

	if state != button.Pressed {
		return
	}

	cmd := s.controller.OnButtonPress()

	logger.InfoKV(ctx, "Mute toggled",
		"muted", s.controller.State().Muted,
		"volume", s.controller.State().Current)

	s.enqueue(cmd)
}

// enqueue hands a command to the dispatch goroutine without ever blocking the
// event loop. When the queue is full the oldest entry is shed: commands carry
// absolute state, so only the newest one matters.
func (s *service) enqueue(cmd volume.Command) {
	for {
		select {
		case s.commands <- cmd:
			return
		default:
			select {
			case <-s.commands:
			default:
			}
		}
	}
}

// dispatch applies queued commands to the mixer one at a time, preserving
// order. A failure is logged and the in-memory state kept; the next
// successful command catches the mixer up.
func (s *service) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-s.commands:
			s.apply(ctx, cmd)
		}
	}
}

// apply performs one mixer call bounded by the configured timeout.
func (s *service) apply(ctx context.Context, cmd volume.Command) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Mixer.Timeout)
	defer cancel()

	var err error

	switch cmd.Kind {
	case volume.CommandSetVolume:
		err = s.mixer.SetVolume(callCtx, cmd.Volume)
	case volume.CommandMute:
		err = s.mixer.SetMute(callCtx, true)
	}

	if err != nil {
		logger.ErrorKV(ctx, "Mixer command failed", "error", err)
	}
}

// stopTimer stops a timer and drains its channel if it already fired.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
