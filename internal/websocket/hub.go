// Package websocket fans live tally updates out to connected feed clients.
// The hub is a single-goroutine actor: registrations, disconnects, and
// broadcasts are all serialized through one command channel, so the client
// set needs no locks.
package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/DirtyReal/cfh-new/internal/domain"
	"github.com/DirtyReal/cfh-new/internal/metrics"
	"github.com/gorilla/websocket"
)

const (
	writeDeadline = 5 * time.Second

	// sendBufferSize bounds the per-client queue. A client that cannot
	// drain this many messages is evicted instead of stalling everyone.
	sendBufferSize = 16
)

// voteEvent is the wire shape of a tally update. It carries no voter
// identity; clients resolve their own vote through the HTTP API.
type voteEvent struct {
	Type      string             `json:"type"`
	Kind      domain.SubjectKind `json:"kind"`
	SubjectID int64              `json:"subject_id"`
	Score     domain.Score       `json:"score"`
}

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	conn  *websocket.Conn
	errCh chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	conn *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	data []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdClientCount struct {
	replyCh chan int
}

func (cmdClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

// Hub broadcasts every tally update to every connected client. There is a
// single topic: the site feed.
type Hub struct {
	cmdCh   chan hubCmd
	clients map[*websocket.Conn]*clientWriter
	stopped chan struct{}
}

func NewHub() *Hub {
	hub := &Hub{
		cmdCh:   make(chan hubCmd, 256),
		clients: make(map[*websocket.Conn]*clientWriter),
		stopped: make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			cw := newClientWriter(c.conn)
			h.clients[c.conn] = cw
			metrics.WSConnectedClients.Set(float64(len(h.clients)))
			slog.Debug("WebSocket client registered", "total_clients", len(h.clients))
			c.errCh <- nil
		case cmdUnregister:
			h.handleUnregister(c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c.data)
		case cmdClientCount:
			c.replyCh <- len(h.clients)
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleUnregister(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)
	metrics.WSConnectedClients.Set(float64(len(h.clients)))
	slog.Debug("WebSocket client unregistered", "remaining_clients", len(h.clients))
}

func (h *Hub) handleBroadcast(data []byte) {
	var slow []*websocket.Conn
	for conn, cw := range h.clients {
		select {
		case cw.sendCh <- data:
			// sent successfully
		default:
			// client is slow, mark for removal
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow WebSocket client")
		metrics.WSSlowClientsEvicted.Inc()
		h.handleUnregister(conn)
	}

	metrics.WSMessagesBroadcast.Inc()
}

func (h *Hub) handleStop() {
	for conn, cw := range h.clients {
		cw.stop()
		delete(h.clients, conn)
	}
	metrics.WSConnectedClients.Set(0)
	close(h.stopped)
}

// --- Public API ---

func (h *Hub) Register(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{conn: conn, errCh: errCh}
	return <-errCh
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{conn: conn}
}

// BroadcastVote implements the vote engine's broadcaster: every applied
// vote is pushed to all connected clients. Marshal failures are logged and
// dropped; the vote itself has already been applied.
func (h *Hub) BroadcastVote(result domain.VoteResult) {
	data, err := json.Marshal(voteEvent{
		Type:      "vote",
		Kind:      result.Kind,
		SubjectID: result.SubjectID,
		Score:     result.Score,
	})
	if err != nil {
		slog.Error("Failed to marshal vote broadcast", "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{data: data}
}

func (h *Hub) ClientCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdClientCount{replyCh: replyCh}
	return <-replyCh
}

// Stop closes every client connection and shuts the hub down. Safe to
// call more than once.
func (h *Hub) Stop() {
	select {
	case h.cmdCh <- cmdStop{}:
	case <-h.stopped:
		return
	}
	<-h.stopped
}
