package notifications

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fleetops/incident-portal/incident-portal-backend/internal/ledger"
)

// TransitionEvent is the wire message pushed to dashboard clients when
// a case changes state. The dashboard uses it to refresh the affected
// row instead of polling.
type TransitionEvent struct {
	Type       string    `json:"type"`
	CaseID     string    `json:"case_id"`
	SequenceNo int       `json:"sequence_no"`
	NewState   string    `json:"new_state"`
	Actor      string    `json:"actor"`
	EnteredAt  time.Time `json:"entered_at"`
}

// Hub broadcasts transition events to connected websocket clients.
// Implements ledger.EventSink; a slow or dead client is dropped rather
// than ever blocking the ledger.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type client struct {
	conn *websocket.Conn
	send chan TransitionEvent
}

// NewHub creates a hub ready to accept connections.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The dashboard fronts this behind the same origin.
				return true
			},
		},
		logger: logger,
	}
}

// HandleConnection upgrades an HTTP request and serves the client
// until it disconnects.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		conn: conn,
		send: make(chan TransitionEvent, 64),
	}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
	return nil
}

// TransitionRecorded implements ledger.EventSink.
func (h *Hub) TransitionRecorded(entry *ledger.TransitionEntry) {
	event := TransitionEvent{
		Type:       "transition",
		CaseID:     entry.CaseID.String(),
		SequenceNo: entry.SequenceNo,
		NewState:   string(entry.NewState),
		Actor:      entry.Actor,
		EnteredAt:  entry.EnteredAt,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			// Client cannot keep up; readPump will reap it.
			h.logger.Warn("Dropping transition event for slow websocket client")
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
