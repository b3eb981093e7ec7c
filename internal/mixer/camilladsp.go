package mixer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// handshakeTimeout bounds the websocket dial.
	handshakeTimeout = 2 * time.Second

	// defaultReadTimeout bounds a response read when the caller's context
	// carries no deadline.
	defaultReadTimeout = 500 * time.Millisecond
)

var (
	// errCommandRejected is returned when CamillaDSP answers anything but Ok.
	errCommandRejected = errors.New("camilladsp rejected command")
	// errUnexpectedResponse is returned when the reply does not echo the command.
	errUnexpectedResponse = errors.New("unexpected camilladsp response")
)

// CamillaDSP drives a CamillaDSP instance over its websocket control
// protocol. CamillaDSP expresses volume as a gain in dB; the configured dB
// range is mapped linearly onto the 0-100 percent scale.
//
// The connection is lazy and self-healing: it is dialed on first use and
// dropped on any transport error so the next call reconnects.
type CamillaDSP struct {
	// mu serializes access to the connection.
	mu sync.Mutex
	// conn is the current websocket connection, nil when disconnected.
	conn *websocket.Conn
	// url is the CamillaDSP control socket address.
	url string
	// minDB and maxDB bound the gain range mapped onto percent.
	minDB float64
	maxDB float64
}

// NewCamillaDSP returns a mixer driving the CamillaDSP control socket at url.
func NewCamillaDSP(url string, minDB, maxDB float64) *CamillaDSP {
	return &CamillaDSP{
		url:   url,
		minDB: minDB,
		maxDB: maxDB,
	}
}

// Volume reports the current volume percentage.
func (m *CamillaDSP) Volume(ctx context.Context) (int, error) {
	value, err := m.roundTrip(ctx, "GetVolume", "GetVolume")
	if err != nil {
		return 0, err
	}

	var db float64
	if err := json.Unmarshal(value, &db); err != nil {
		return 0, fmt.Errorf("decode volume: %w", err)
	}

	return m.percentFromDB(db), nil
}

// Muted reports whether mute is currently engaged.
func (m *CamillaDSP) Muted(ctx context.Context) (bool, error) {
	value, err := m.roundTrip(ctx, "GetMute", "GetMute")
	if err != nil {
		return false, err
	}

	var muted bool
	if err := json.Unmarshal(value, &muted); err != nil {
		return false, fmt.Errorf("decode mute: %w", err)
	}

	return muted, nil
}

// SetVolume applies the percentage as a gain and disengages mute.
func (m *CamillaDSP) SetVolume(ctx context.Context, percent int) error {
	cmd := map[string]any{"SetVolume": m.dbFromPercent(percent)}
	if _, err := m.roundTrip(ctx, cmd, "SetVolume"); err != nil {
		return err
	}

	return m.SetMute(ctx, false)
}

// SetMute engages or disengages mute without touching the gain.
func (m *CamillaDSP) SetMute(ctx context.Context, muted bool) error {
	cmd := map[string]any{"SetMute": muted}

	_, err := m.roundTrip(ctx, cmd, "SetMute")

	return err
}

// Close drops the websocket connection.
func (m *CamillaDSP) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dropLocked()

	return nil
}

// roundTrip sends one command and reads its reply, reconnecting on demand.
// The command name keys both the request echo check and the reply payload.
func (m *CamillaDSP) roundTrip(ctx context.Context, cmd any, name string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		if err := m.connectLocked(ctx); err != nil {
			return nil, fmt.Errorf("connect %s: %w", m.url, err)
		}
	}

	// CamillaDSP wants JSON text messages.
	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}

	if err := m.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		m.dropLocked()

		return nil, fmt.Errorf("send %s: %w", name, err)
	}

	_ = m.conn.SetReadDeadline(readDeadline(ctx))

	_, message, err := m.conn.ReadMessage()
	if err != nil {
		m.dropLocked()

		return nil, fmt.Errorf("read %s reply: %w", name, err)
	}

	// Replies echo the command name: {"GetVolume": {"result": "Ok", "value": -20.0}}.
	var reply map[string]struct {
		Result string          `json:"result"`
		Value  json.RawMessage `json:"value"`
	}

	if err := json.Unmarshal(message, &reply); err != nil {
		return nil, fmt.Errorf("decode %s reply: %w", name, err)
	}

	body, ok := reply[name]
	if !ok {
		return nil, fmt.Errorf("%w to %s", errUnexpectedResponse, name)
	}

	if body.Result != "Ok" {
		return nil, fmt.Errorf("%s: %w: %s", name, errCommandRejected, body.Result)
	}

	return body.Value, nil
}

// connectLocked dials the control socket. Callers hold mu.
func (m *CamillaDSP) connectLocked(_ context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.Dial(m.url, nil)
	if err != nil {
		return err
	}

	m.conn = conn

	return nil
}

// dropLocked closes the connection so the next call reconnects. Callers hold mu.
func (m *CamillaDSP) dropLocked() {
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}

// readDeadline derives a read deadline from the context, falling back to the
// package default.
func readDeadline(ctx context.Context) time.Time {
	if deadline, ok := ctx.Deadline(); ok {
		return deadline
	}

	return time.Now().Add(defaultReadTimeout)
}

// percentFromDB maps a gain onto the 0-100 percent scale, rounded to the
// nearest step and clamped at the scale boundaries.
func (m *CamillaDSP) percentFromDB(db float64) int {
	percent := int(math.Round(100 * (db - m.minDB) / (m.maxDB - m.minDB)))
	if percent < 0 {
		return 0
	}

	if percent > 100 {
		return 100
	}

	return percent
}

// dbFromPercent maps a percentage onto the configured gain range.
func (m *CamillaDSP) dbFromPercent(percent int) float64 {
	return m.minDB + (m.maxDB-m.minDB)*float64(percent)/100
}
