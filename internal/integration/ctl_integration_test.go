package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/volume-knob/internal/config"
	"github.com/oshokin/volume-knob/internal/service/ctl"
)

// dspServer is a minimal CamillaDSP control socket with in-memory gain state.
type dspServer struct {
	mu    sync.Mutex
	gain  float64
	muted bool

	server *httptest.Server
}

// startDSP launches a fake CamillaDSP websocket endpoint and returns its ws:// URL.
func startDSP(t *testing.T, gain float64) *dspServer {
	t.Helper()

	dsp := &dspServer{gain: gain}
	upgrader := websocket.Upgrader{}

	dsp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		defer func() {
			_ = conn.Close()
		}()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}

			reply := dsp.dispatch(message)
			if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
				return
			}
		}
	}))

	t.Cleanup(dsp.server.Close)

	return dsp
}

// url rewrites the test server address into a websocket URL.
func (d *dspServer) url() string {
	return "ws" + strings.TrimPrefix(d.server.URL, "http")
}

// state returns the current gain and mute flag.
func (d *dspServer) state() (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.gain, d.muted
}

// dispatch handles one command and builds the echo-keyed reply.
func (d *dspServer) dispatch(message []byte) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	var name string
	if err := json.Unmarshal(message, &name); err == nil {
		switch name {
		case "GetVolume":
			return reply(name, d.gain)
		case "GetMute":
			return reply(name, d.muted)
		}
	}

	var cmd map[string]json.RawMessage
	if err := json.Unmarshal(message, &cmd); err == nil {
		if raw, ok := cmd["SetVolume"]; ok {
			_ = json.Unmarshal(raw, &d.gain)

			return reply("SetVolume", nil)
		}

		if raw, ok := cmd["SetMute"]; ok {
			_ = json.Unmarshal(raw, &d.muted)

			return reply("SetMute", nil)
		}
	}

	return []byte(`{"Invalid":{"result":"Error"}}`)
}

// reply renders {"<name>":{"result":"Ok","value":<value>}}.
func reply(name string, value any) []byte {
	body := map[string]any{"result": "Ok"}
	if value != nil {
		body["value"] = value
	}

	encoded, _ := json.Marshal(map[string]any{name: body}) //nolint:errcheck // Test values always marshal.

	return encoded
}

// writeConfig saves a CamillaDSP-backed configuration file and returns its path.
func writeConfig(t *testing.T, wsURL string) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	cfg := &config.Config{
		Encoder: config.EncoderConfig{
			PhaseAPin: 17,
			PhaseBPin: 27,
		},
		Volume: config.VolumeConfig{
			Min:     1,
			Max:     100,
			Step:    5,
			Default: 50,
		},
		Mixer: config.MixerConfig{
			Backend:      config.BackendCamillaDSP,
			WebsocketURL: wsURL,
			MinDB:        -60,
			MaxDB:        0,
			Timeout:      2 * time.Second,
		},
	}

	require.NoError(t, config.Save(cfgPath, cfg))

	return cfgPath
}

// TestCtl_GetReportsMixerState runs get against a live fake mixer through an on-disk config.
func TestCtl_GetReportsMixerState(t *testing.T) {
	t.Parallel()

	// -15 dB in a -60..0 range is 75 percent.
	dsp := startDSP(t, -15)
	opts := &ctl.Options{ConfigPath: writeConfig(t, dsp.url())}

	var out strings.Builder

	err := ctl.Get(context.Background(), opts, func(format string, args ...any) {
		fmt.Fprintf(&out, format, args...)
	})
	require.NoError(t, err)
	require.Equal(t, "75% [on]\n", out.String())
}

// TestCtl_SetAppliesGainAndUnmutes verifies set maps percent onto the gain range and clears mute.
func TestCtl_SetAppliesGainAndUnmutes(t *testing.T) {
	t.Parallel()

	dsp := startDSP(t, -60)
	dsp.muted = true
	opts := &ctl.Options{ConfigPath: writeConfig(t, dsp.url())}

	require.NoError(t, ctl.Set(context.Background(), opts, 25))

	gain, muted := dsp.state()
	require.InDelta(t, -45, gain, 0.01)
	require.False(t, muted)
}

// TestCtl_MuteRoundTrip engages and disengages mute without touching the gain.
func TestCtl_MuteRoundTrip(t *testing.T) {
	t.Parallel()

	dsp := startDSP(t, -20)
	opts := &ctl.Options{ConfigPath: writeConfig(t, dsp.url())}

	require.NoError(t, ctl.Mute(context.Background(), opts, true))

	gain, muted := dsp.state()
	require.True(t, muted)
	require.InDelta(t, -20, gain, 0.01)

	require.NoError(t, ctl.Mute(context.Background(), opts, false))

	_, muted = dsp.state()
	require.False(t, muted)
}
