package debugserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsClient struct {
	conn    *websocket.Conn
	limiter *rate.Limiter
}

// Hub fans synchronization events out to websocket clients. Each client
// receives at most rate events per second; the rest are dropped.
type Hub struct {
	clients   map[*websocket.Conn]*wsClient
	broadcast chan []byte
	mu        sync.RWMutex
	rate      rate.Limit
	logger    *slog.Logger
}

// NewHub returns a hub limiting every client to eventRate events per
// second.
func NewHub(eventRate float64, logger *slog.Logger) *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]*wsClient),
		broadcast: make(chan []byte, 256),
		rate:      rate.Limit(eventRate),
		logger:    logger,
	}
}

// Run delivers published events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for conn := range h.clients {
				conn.Close()
			}
			clear(h.clients)
			h.mu.Unlock()
			return
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) deliver(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, client := range h.clients {
		if !client.limiter.Allow() {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Debug("dropping websocket client", slog.Any("error", err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Publish queues ev for delivery. It never blocks; events are dropped when
// the queue is full.
func (h *Hub) Publish(ev SyncEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- msg:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and registers the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}
	h.mu.Lock()
	h.clients[conn] = &wsClient{conn: conn, limiter: rate.NewLimiter(h.rate, 1)}
	h.mu.Unlock()

	// drain reads so close frames are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.mu.Lock()
				if _, ok := h.clients[conn]; ok {
					delete(h.clients, conn)
					conn.Close()
				}
				h.mu.Unlock()
				return
			}
		}
	}()
}
