package mixer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/volume-knob/internal/config"
)

// fakeCamillaDSP runs a websocket server speaking just enough of the
// CamillaDSP control protocol for the client under test.
type fakeCamillaDSP struct {
	// mu guards the state shared between the handler and test assertions.
	mu sync.Mutex
	// gainDB is the current volume gain.
	gainDB float64
	// muted is the current mute flag.
	muted bool
}

// state returns a snapshot of the fake's gain and mute flag.
func (f *fakeCamillaDSP) state() (float64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.gainDB, f.muted
}

// setState replaces the fake's gain and mute flag.
func (f *fakeCamillaDSP) setState(gainDB float64, muted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.gainDB = gainDB
	f.muted = muted
}

// handle upgrades the connection and answers commands until the client leaves.
func (f *fakeCamillaDSP) handle(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		reply := f.dispatch(message)
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			return
		}
	}
}

// dispatch interprets one command message and builds the echo-keyed reply.
func (f *fakeCamillaDSP) dispatch(message []byte) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Plain commands arrive as JSON strings, parametrized ones as objects.
	var name string
	if err := json.Unmarshal(message, &name); err == nil {
		switch name {
		case "GetVolume":
			return mustReply(name, "Ok", f.gainDB)
		case "GetMute":
			return mustReply(name, "Ok", f.muted)
		default:
			return mustReply(name, "Error", nil)
		}
	}

	var cmd map[string]json.RawMessage
	if err := json.Unmarshal(message, &cmd); err != nil {
		return mustReply("Invalid", "Error", nil)
	}

	for name, arg := range cmd {
		switch name {
		case "SetVolume":
			_ = json.Unmarshal(arg, &f.gainDB)

			return mustReply(name, "Ok", nil)
		case "SetMute":
			_ = json.Unmarshal(arg, &f.muted)

			return mustReply(name, "Ok", nil)
		default:
			return mustReply(name, "Error", nil)
		}
	}

	return mustReply("Invalid", "Error", nil)
}

// mustReply encodes {"Name": {"result": ..., "value": ...}}.
func mustReply(name, result string, value any) []byte {
	body := map[string]any{"result": result}
	if value != nil {
		body["value"] = value
	}

	reply, err := json.Marshal(map[string]any{name: body})
	if err != nil {
		panic(err)
	}

	return reply
}

// startFake serves the fake over httptest and returns a ws:// URL.
func startFake(t *testing.T, fake *fakeCamillaDSP) string {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// TestCamillaDSPRoundTrip exercises volume and mute operations end to end.
func TestCamillaDSPRoundTrip(t *testing.T) {
	t.Parallel()

	fake := &fakeCamillaDSP{gainDB: -30, muted: false}

	m := NewCamillaDSP(startFake(t, fake), -60, 0)
	defer m.Close()

	ctx := context.Background()

	// -30 dB in a -60..0 range is halfway up the scale.
	percent, err := m.Volume(ctx)
	require.NoError(t, err)
	require.Equal(t, 50, percent)

	// SetVolume applies the gain and clears mute in the same call.
	fake.setState(-30, true)
	require.NoError(t, m.SetVolume(ctx, 75))

	gainDB, muted := fake.state()
	require.InDelta(t, -15.0, gainDB, 0.01)
	require.False(t, muted)

	require.NoError(t, m.SetMute(ctx, true))

	muted, err = m.Muted(ctx)
	require.NoError(t, err)
	require.True(t, muted)
}

// TestCamillaDSPRejectedCommand surfaces protocol-level errors to the caller.
func TestCamillaDSPRejectedCommand(t *testing.T) {
	t.Parallel()

	fake := &fakeCamillaDSP{}

	m := NewCamillaDSP(startFake(t, fake), -60, 0)
	defer m.Close()

	_, err := m.roundTrip(context.Background(), "Reload", "Reload")
	require.ErrorIs(t, err, errCommandRejected)
}

// TestCamillaDSPUnreachable reports a connect failure instead of hanging.
func TestCamillaDSPUnreachable(t *testing.T) {
	t.Parallel()

	m := NewCamillaDSP("ws://127.0.0.1:1", -60, 0)
	defer m.Close()

	_, err := m.Volume(context.Background())
	require.Error(t, err)
}

// TestGainPercentMapping checks the linear dB mapping and its clamping.
func TestGainPercentMapping(t *testing.T) {
	t.Parallel()

	m := NewCamillaDSP("ws://unused", -60, 0)

	require.Equal(t, 0, m.percentFromDB(-60))
	require.Equal(t, 100, m.percentFromDB(0))
	require.Equal(t, 50, m.percentFromDB(-30))

	// Out-of-range gains clamp to the scale.
	require.Equal(t, 0, m.percentFromDB(-90))
	require.Equal(t, 100, m.percentFromDB(6))

	require.InDelta(t, -60.0, m.dbFromPercent(0), 0.01)
	require.InDelta(t, 0.0, m.dbFromPercent(100), 0.01)
	require.InDelta(t, -45.0, m.dbFromPercent(25), 0.01)
}

// TestNewSelectsBackend verifies backend construction from configuration.
func TestNewSelectsBackend(t *testing.T) {
	t.Parallel()

	m, err := New(&config.MixerConfig{Backend: config.BackendAmixer, Control: "Master"})
	require.NoError(t, err)
	require.IsType(t, &Amixer{}, m)

	m, err = New(&config.MixerConfig{
		Backend:      config.BackendCamillaDSP,
		WebsocketURL: "ws://127.0.0.1:1234",
		MinDB:        -60,
	})
	require.NoError(t, err)
	require.IsType(t, &CamillaDSP{}, m)

	_, err = New(&config.MixerConfig{Backend: "pulse"})
	require.Error(t, err)
}
