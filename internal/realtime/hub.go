package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wonny/papertrade/internal/engine"
	"github.com/wonny/papertrade/pkg/logger"
)

const (
	// Ping/Pong settings
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	sendBuffer = 16
)

// Event types
const (
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// Event is one message pushed to subscribers
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans run events out to websocket subscribers.
// Subscribers that cannot keep up are dropped.
// ⭐ SSOT: run event broadcasting lives here only
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu   sync.RWMutex
	subs map[*subscriber]struct{}
}

// NewHub creates a new Hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The feed is read-only and carries no credentials
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log,
		subs:   make(map[*subscriber]struct{}),
	}
}

// ServeHTTP upgrades the request and keeps the subscriber until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.WithFields(map[string]interface{}{
		"remote":      r.RemoteAddr,
		"subscribers": count,
	}).Info("Run feed subscriber connected")

	go h.writeLoop(sub)
	h.readLoop(sub)
}

// readLoop discards inbound messages and detects disconnects
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(512)
	sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.WithError(err).Debug("Run feed subscriber read error")
			}
			return
		}
	}
}

// writeLoop forwards queued messages and keeps the connection alive
func (h *Hub) writeLoop(sub *subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.send)
	}
}

// Publish sends an event to every subscriber without blocking
func (h *Hub) Publish(eventType string, data interface{}) {
	msg, err := json.Marshal(Event{Type: eventType, Timestamp: time.Now(), Data: data})
	if err != nil {
		h.logger.WithError(err).WithField("type", eventType).Error("Failed to encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.send <- msg:
		default:
			h.logger.Warn("Dropping slow run feed subscriber")
			delete(h.subs, sub)
			close(sub.send)
		}
	}
}

// NotifyRun implements engine.Notifier
func (h *Hub) NotifyRun(result *engine.RunResult) {
	eventType := EventRunCompleted
	if !result.Success {
		eventType = EventRunFailed
	}
	h.Publish(eventType, result)
}

// Subscribers returns the number of connected subscribers
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.send)
	}
}
