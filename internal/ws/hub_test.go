package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	diag "github.com/coreman2200/funtimes-stoneboard/internal/diagnostics"
	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

func serve(t *testing.T, h *Hub) *httptest.Server {
	mux := http.NewServeMux()
	h.Routes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func readJSON(t *testing.T, c *websocket.Conn) map[string]any {
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := c.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestBoardStream(t *testing.T) {
	h := NewHub()
	srv := serve(t, h)
	c := dial(t, srv, "/ws")

	first := readJSON(t, c)
	assert.Equal(t, "full_board", first["type"])
	require.Len(t, first["board"], model.Size)

	var g model.StoneGrid
	g.Set(3, 7, model.Black)
	require.NoError(t, h.Report(context.Background(), report.Frame{
		Seq:     2,
		Stones:  g,
		Changes: model.Diff(nil, &g),
	}))

	full := readJSON(t, c)
	assert.Equal(t, "full_board", full["type"])
	assert.Equal(t, float64(2), full["cycle"])
	row := full["board"].([]any)[3].([]any)
	assert.Equal(t, "B", row[7])

	upd := readJSON(t, c)
	assert.Equal(t, map[string]any{"type": "stoneUpdate", "row": float64(3), "col": float64(7), "stone": "B"}, upd)
}

func TestDiagStream(t *testing.T) {
	h := NewHub()
	srv := serve(t, h)
	c := dial(t, srv, "/diag")

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.diagClients) == 1
	}, time.Second, 5*time.Millisecond)

	h.Push(diag.Diagnostic{Severity: diag.Info, Code: "CALIB.DONE", Summary: "Baseline captured"})
	m := readJSON(t, c)
	assert.Equal(t, "CALIB.DONE", m["code"])
	assert.Equal(t, "info", m["severity"])
}

func TestHealth(t *testing.T) {
	h := NewHub()
	var g model.StoneGrid
	g.Set(0, 0, model.White)
	require.NoError(t, h.Report(context.Background(), report.Frame{Seq: 9, Stones: g, ScanDuration: 25 * time.Millisecond}))

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, float64(9), m["cycle"])
	assert.Equal(t, float64(1), m["white"])
	assert.Equal(t, float64(25), m["scan_ms"])
}

func TestDiagReplayOnConnect(t *testing.T) {
	h := NewHub()
	for i := 0; i < keepDiags+4; i++ {
		h.Push(diag.Diagnostic{Severity: diag.Warn, Code: "SINK.UNAVAILABLE", Summary: "serial output is not running"})
	}
	h.Push(diag.Diagnostic{Severity: diag.Info, Code: "CALIB.DONE"})

	srv := serve(t, h)
	c := dial(t, srv, "/diag")
	var last map[string]any
	for i := 0; i < keepDiags; i++ {
		last = readJSON(t, c)
	}
	assert.Equal(t, "CALIB.DONE", last["code"])
}

func TestSlowClientIsDropped(t *testing.T) {
	h := NewHub()
	srv := serve(t, h)
	dial(t, srv, "/ws") // never reads

	clients := func() int {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients)
	}
	require.Eventually(t, func() bool { return clients() == 1 }, time.Second, 5*time.Millisecond)

	var g model.StoneGrid
	g.Set(7, 7, model.White)
	f := report.Frame{Stones: g, Changes: model.Diff(nil, &g)}
	for i := 0; i < 100000 && clients() > 0; i++ {
		f.Seq = uint64(i)
		start := time.Now()
		require.NoError(t, h.Report(context.Background(), f))
		require.Less(t, time.Since(start), writeWait, "Report waited on the network")
	}
	require.Eventually(t, func() bool { return clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}
