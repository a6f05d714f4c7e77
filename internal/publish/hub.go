package publish

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/risesports/auction-engine/internal/metrics"
	"github.com/risesports/auction-engine/internal/model"
)

// Hub manages WebSocket connections and broadcasts auction events to all
// connected clients. A single hub loop drains the broadcast channel and sends
// keepalive pings, so it is the only writer to a registered connection and
// all clients observe events in the order they were queued (= commit order).
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mu         sync.RWMutex

	// snapshot, when set, supplies the current auction state pushed to each
	// client immediately on connect.
	snapshot func() model.AuctionState
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
	}
}

// SetSnapshot installs the state provider used for the on-connect push.
func (h *Hub) SetSnapshot(fn func() model.AuctionState) {
	h.snapshot = fn
}

// Run starts the hub's main event loop. Must be called in a goroutine.
func (h *Hub) Run() {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.clients[conn] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))
			slog.Info("ws client connected", "total", total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketClients.Set(float64(total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()

		case <-ping.C:
			// Keepalive through proxies, written by the hub loop so no
			// connection ever has two concurrent writers.
			h.mu.Lock()
			for conn := range h.clients {
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			metrics.WebSocketClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
		}
	}
}

// Clients returns the number of registered connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishAuctionUpdate implements Publisher.
func (h *Hub) PublishAuctionUpdate(state model.AuctionState) {
	h.send(Event{Type: TypeAuctionUpdate, Data: state})
}

// PublishNewBid implements Publisher.
func (h *Hub) PublishNewBid(bid model.Bid) {
	h.send(Event{Type: TypeNewBid, Data: bid})
}

func (h *Hub) send(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// Drop if buffer full to avoid blocking the coordinator.
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true // Allow all origins during development.
	},
}

// HandleWS handles WebSocket upgrade requests at GET /ws.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	// Push the current state before the client joins the broadcast set, so
	// every subscriber starts from a consistent snapshot.
	if h.snapshot != nil {
		if data, err := json.Marshal(Event{Type: TypeAuctionUpdate, Data: h.snapshot()}); err == nil {
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}

	h.register <- conn

	// Read pump: keep connection alive and detect disconnects. Pings come
	// from the hub loop.
	go func() {
		defer func() { h.unregister <- conn }()
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
