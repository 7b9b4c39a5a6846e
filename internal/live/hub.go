// Package live pushes plant snapshots to connected clients over websockets
// so the UI can react to decay and actions without polling.
package live

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second

	// Slow clients get dropped instead of backing up the publisher.
	sendBuffer = 16
)

type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans out events to subscribers keyed by user ID.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	logger *log.Logger

	upgrader websocket.Upgrader
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin policy is a deployment concern; the API carries
			// no credentials, so cross-origin reads leak nothing private.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Publish sends an event to every subscriber of userID. Marshal failures
// are logged and dropped; a push feed must never fail a request.
func (h *Hub) Publish(userID, event string, payload any) {
	b, err := json.Marshal(envelope{Type: event, Payload: payload})
	if err != nil {
		h.logger.Printf("live: marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[userID] {
		select {
		case sub.send <- b:
		default:
			// Buffer full; the write pump will notice the closed conn.
			go sub.conn.Close()
		}
	}
}

// ServeWS upgrades the request and streams events for userID until the
// client goes away.
func (h *Hub) ServeWS(userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("live: upgrade: %v", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(userID, sub)

	go h.writePump(sub)
	h.readPump(userID, sub)
}

func (h *Hub) register(userID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
}

func (h *Hub) unregister(userID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[userID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, userID)
		}
	}
}

// readPump discards inbound frames; the feed is one-way. It exists to
// process control frames and detect disconnects.
func (h *Hub) readPump(userID string, sub *subscriber) {
	defer func() {
		h.unregister(userID, sub)
		sub.conn.Close()
		close(sub.send)
	}()

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			if !ok {
				return
			}
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
