// Package feed pushes circulation events to connected worker clients over websocket.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"libraryhub/pkg/models"
)

const sendBuffer = 256

type client struct {
	hub      *Hub
	conn     *websocket.Conn
	username string
	send     chan []byte
}

// Hub fans events out to every registered client. Run owns the client set.
type Hub struct {
	log        *slog.Logger
	mu         sync.RWMutex
	clients    map[*client]struct{}
	broadcast  chan models.CirculationEvent
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:        log.With("component", "feed"),
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan models.CirculationEvent, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.log.Info("client connected", "username", c.username)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.Info("client disconnected", "username", c.username)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("marshal event", "err", err)
				continue
			}
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					h.log.Warn("send buffer full, removing client", "username", c.username)
					h.drop(c)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop must be called with mu held.
func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
}

// Publish queues ev for broadcast. It never blocks: when the hub is stopped or
// its queue is full the event is discarded.
func (h *Hub) Publish(ev models.CirculationEvent) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("broadcast queue full, event dropped", "type", ev.Type, "borrow_id", ev.BorrowID)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
