package web_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guslan/schip"
	"github.com/guslan/schip/web"
	"github.com/retroenv/retrogolib/assert"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newServer(t *testing.T, program []byte) (*web.Server, *httptest.Server) {
	t.Helper()

	server := web.NewServer(schip.NewMemory(), func(config *web.ServerConfig) {
		config.Speed = 500
		config.CpuOptions = []schip.Option{schip.WithLogger(quietLogger)}
	})
	assert.NoError(t, server.LoadProgram(program))

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		server.Cpu().Stop()
		ts.Close()
	})

	return server, ts
}

func post(t *testing.T, ts *httptest.Server, path string) (int, web.Status) {
	t.Helper()

	res, err := http.Post(ts.URL+path, "application/json", nil)
	assert.NoError(t, err)
	defer res.Body.Close()

	var st web.Status
	assert.NoError(t, json.NewDecoder(res.Body).Decode(&st))

	return res.StatusCode, st
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
	})

	return conn
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var spin = []byte{0x12, 0x00}

func TestStepEndpoint(t *testing.T) {
	_, ts := newServer(t, []byte{
		0x60, 0x01,
		0x80, 0x18,
	})

	code, st := post(t, ts, "/step")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(1), st.Cycles)
	assert.Equal(t, "", st.Error)

	code, st = post(t, ts, "/step")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "unknown opcode=8018 at PC=202", st.Error)

	code, st = post(t, ts, "/reset")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(0), st.Cycles)
	assert.Equal(t, "", st.Error)
}

func TestStartStopEndpoints(t *testing.T) {
	server, ts := newServer(t, spin)

	code, st := post(t, ts, "/start")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, st.Running)
	assert.Equal(t, 500, st.Speed)

	code, _ = post(t, ts, "/start")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = post(t, ts, "/step")
	assert.Equal(t, http.StatusConflict, code)

	eventually(t, func() bool { return server.Cpu().Cycles() > 0 })

	code, st = post(t, ts, "/stop")
	assert.Equal(t, http.StatusOK, code)
	assert.False(t, st.Running)
	assert.True(t, st.Cycles > 0)
}

func TestRoutesCheckTheMethod(t *testing.T) {
	_, ts := newServer(t, spin)

	res, err := http.Post(ts.URL+"/display", "application/json", nil)
	assert.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)

	res, err = http.Get(ts.URL + "/status")
	assert.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestIndexIsServed(t *testing.T) {
	_, ts := newServer(t, spin)

	res, err := http.Get(ts.URL + "/")
	assert.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, strings.Contains(string(body), "<canvas"))
}

func TestDisplaySocket(t *testing.T) {
	server, ts := newServer(t, []byte{
		0xA0, 0x00,
		0xD0, 0x05,
	})
	assert.NoError(t, server.Cpu().Step())
	assert.NoError(t, server.Cpu().Step())

	conn := dial(t, ts, "/display")
	eventually(t, func() bool { return server.Viewers() == 1 })

	screen, settings := server.Cpu().Snapshot()
	assert.NoError(t, server.Render(screen, settings))

	kind, frame, err := conn.ReadMessage()
	assert.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, 2+64*32, len(frame))
	assert.Equal(t, []byte{64, 32, 1, 1, 1, 1, 0}, frame[:7])

	conn.Close()
	eventually(t, func() bool { return server.Viewers() == 0 })
}

func TestKeysSocket(t *testing.T) {
	server, ts := newServer(t, spin)
	keypad := server.Cpu().Keypad

	conn := dial(t, ts, "/keys")

	assert.NoError(t, conn.WriteJSON(map[string]any{"key": 5, "down": true}))
	eventually(t, func() bool { return keypad.IsPressed(5) })

	// out of range keys are ignored
	assert.NoError(t, conn.WriteJSON(map[string]any{"key": 99, "down": true}))
	assert.NoError(t, conn.WriteJSON(map[string]any{"key": 5, "down": false}))
	eventually(t, func() bool { return !keypad.IsPressed(5) })

	_, pressed := keypad.GetPressed()
	assert.False(t, pressed)
}
