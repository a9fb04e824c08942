// Package gateway fans simulation frames out to WebSocket display
// clients. The engine pushes a frame after every tick and every executed
// trade; presentation is entirely client-side.
package gateway

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stocksim/internal/metrics"
)

const (
	clientBuffer = 256
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// Hub tracks connected WebSocket clients and broadcasts frames to them.
// Slow clients drop frames rather than stalling the tick loop.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]chan []byte
	metrics *metrics.Metrics // optional
}

// NewHub creates an empty hub. m may be nil.
func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan []byte),
		metrics: m,
	}
}

func (h *Hub) register(conn *websocket.Conn) chan []byte {
	ch := make(chan []byte, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	n := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(n))
	}
	return ch
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(n))
	}
}

// Broadcast sends msg to every connected client. Non-blocking: a client
// whose buffer is full misses this frame.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.clients {
		select {
		case ch <- msg:
		default: // slow client — drop frame
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler upgrades the request and streams frames until the client
// disconnects.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] upgrade error: %v", err)
			return
		}
		log.Printf("[gateway] client connected: %s", r.RemoteAddr)

		ch := h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
			log.Printf("[gateway] client disconnected: %s", r.RemoteAddr)
		}()

		// Discard inbound messages; the stream is one-way.
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for msg := range ch {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
