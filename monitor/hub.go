package monitor

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/rustyeddy/quantcore/ledger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans alerts and ledger snapshots out to websocket dashboard clients.
// The feed is outbound only; nothing a client sends reaches the core.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
	}
}

// Run pumps broadcast messages to every connected client, dropping clients
// whose writes fail. Call it in its own goroutine.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mu.Lock()
		for client := range h.clients {
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				client.Close()
				delete(h.clients, client)
			}
		}
		h.mu.Unlock()
	}
}

// envelope tags each feed message with its payload type.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PublishAlert queues an alert for all clients. Full buffers drop the
// message rather than stall the trading cycle.
func (h *Hub) PublishAlert(a Alert) {
	h.publish(envelope{Type: "alert", Payload: a})
}

// PublishSnapshot queues a ledger snapshot for all clients.
func (h *Hub) PublishSnapshot(s ledger.Snapshot) {
	h.publish(envelope{Type: "snapshot", Payload: s})
}

func (h *Hub) publish(e envelope) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("monitor: marshal %s: %v", e.Type, err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
	}
}

// Handler upgrades dashboard connections and registers them with the hub.
// Each connection gets a read pump that discards inbound messages; the
// websocket protocol needs reads running for close and ping frames to be
// processed, and a read error is how we learn the client went away.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("monitor: ws upgrade: %v", err)
			return
		}
		h.mu.Lock()
		h.clients[conn] = true
		h.mu.Unlock()

		go h.readPump(conn)
	}
}

func (h *Hub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
			return
		}
	}
}

// ClientCount reports the number of registered dashboard connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve exposes the feed at /ws on addr. It blocks; run it in a goroutine
// alongside Run.
func (h *Hub) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.Handler())
	log.Printf("monitor: dashboard feed listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
