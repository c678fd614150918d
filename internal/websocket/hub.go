package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub fans device lifecycle events out to connected monitor sessions.
// The back-office dashboard subscribes here to watch pairings, logins and
// sync results as they happen.
type Hub struct {
	// Registered monitor clients
	clients map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound events for every connected monitor
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[*Client]bool),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("🖥️ Monitor connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("📴 Monitor disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop the event rather than block the feed
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast serializes an event and queues it for every monitor.
// Never blocks the caller; the feed is best effort.
func (h *Hub) Broadcast(event interface{}) {
	jsonMsg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling monitor event: %v", err)
		return
	}
	select {
	case h.broadcast <- jsonMsg:
	default:
	}
}

// ClientCount returns the number of connected monitors
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
