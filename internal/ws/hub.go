// Package ws publishes the board to browsers over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-stoneboard/internal/diagnostics"
	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

const writeWait = 200 * time.Millisecond

// keepDiags is how many diagnostics a new /diag client is sent on connect.
const keepDiags = 16

// sendBuffer is how many messages may queue for one client before it is
// dropped as too slow.
const sendBuffer = 64

type fullBoard struct {
	Type  string          `json:"type"`
	Seq   uint64          `json:"cycle"`
	Board model.StoneGrid `json:"board"`
}

type stoneUpdate struct {
	Type  string      `json:"type"`
	Row   int         `json:"row"`
	Col   int         `json:"col"`
	Stone model.Stone `json:"stone"`
}

// Hub is a report.Reporter that keeps the latest board and streams it to
// websocket clients.
type Hub struct {
	mu          sync.RWMutex
	board       model.StoneGrid
	frameID     uint64
	scanMS      float64
	startTime   time.Time
	clients     map[*client]bool
	diagClients map[*client]bool
	diags       [][]byte
	upgrader    websocket.Upgrader
}

var _ report.Reporter = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Routes registers the hub's handlers on mux.
func (h *Hub) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleBoardWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/health", h.HandleHealth)
}

// Report stores the frame and broadcasts the full board followed by one
// stoneUpdate per changed cell.
func (h *Hub) Report(_ context.Context, f report.Frame) error {
	h.mu.Lock()
	h.board = f.Stones
	h.frameID = f.Seq
	h.scanMS = float64(f.ScanDuration.Microseconds()) / 1000.0
	h.mu.Unlock()

	msgs := make([][]byte, 0, len(f.Changes)+1)
	b, err := json.Marshal(fullBoard{Type: "full_board", Seq: f.Seq, Board: f.Stones})
	if err != nil {
		return err
	}
	msgs = append(msgs, b)
	for _, c := range f.Changes {
		b, err := json.Marshal(stoneUpdate{Type: "stoneUpdate", Row: c.Row, Col: c.Col, Stone: c.To})
		if err != nil {
			return err
		}
		msgs = append(msgs, b)
	}
	h.broadcast(h.clients, msgs...)
	return nil
}

// Push sends d to every /diag client and keeps it for clients that connect
// later.
func (h *Hub) Push(d diag.Diagnostic) {
	b, err := json.Marshal(d)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.diags = append(h.diags, b)
	if len(h.diags) > keepDiags {
		h.diags = h.diags[len(h.diags)-keepDiags:]
	}
	h.mu.Unlock()
	h.broadcast(h.diagClients, b)
}

func (h *Hub) HandleBoardWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	b, _ := json.Marshal(fullBoard{Type: "full_board", Seq: h.frameID, Board: h.board})
	c := h.register(conn, h.clients, b)
	h.mu.Unlock()
	go c.writePump()
	go h.drain(c, h.clients)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	c := h.register(conn, h.diagClients, h.diags...)
	h.mu.Unlock()
	go c.writePump()
	go h.drain(c, h.diagClients)
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	black, white := model.Count(&h.board)
	resp := map[string]any{
		"cycle":    h.frameID,
		"uptime_s": time.Since(h.startTime).Seconds(),
		"scan_ms":  h.scanMS,
		"black":    black,
		"white":    white,
		"clients":  len(h.clients),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
	for c := range h.diagClients {
		c.conn.Close()
	}
	return nil
}

// client is one websocket connection. Only writePump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// register queues initial ahead of any broadcast and adds the client to set.
// The caller holds h.mu.
func (h *Hub) register(conn *websocket.Conn, set map[*client]bool, initial ...[]byte) *client {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	for _, b := range initial {
		c.send <- b
	}
	set[c] = true
	return c
}

func (c *client) writePump() {
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write board")
			c.conn.Close()
			return
		}
	}
}

// drain reads until the client goes away, then forgets it.
func (h *Hub) drain(c *client, set map[*client]bool) {
	defer func() {
		h.mu.Lock()
		delete(set, c)
		close(c.send)
		h.mu.Unlock()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcast queues msgs for every client in set without waiting on the
// network. A client whose queue is full is disconnected; it gets the full
// board again when it reconnects.
func (h *Hub) broadcast(set map[*client]bool, msgs ...[]byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range set {
		for _, b := range msgs {
			select {
			case c.send <- b:
				continue
			default:
			}
			log.Debug().Msg("client too slow; dropping")
			c.conn.Close()
			break
		}
	}
}
