package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"dispatch/internal/domain"
	"dispatch/internal/observability"
)

// Hub maintains the set of connected feed clients and broadcasts events to them.
type Hub struct {
	// Registered clients, optionally scoped to one company.
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new Hub instance.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			observability.FeedClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
			h.logger.Debug("feed client connected", zap.String("company_id", c.companyID))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			observability.FeedClients.Set(float64(len(h.clients)))
			h.mu.Unlock()
			h.logger.Debug("feed client disconnected", zap.String("company_id", c.companyID))
		}
	}
}

// join registers c, reporting false once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify broadcasts the event to every client subscribed to its company.
// Slow clients whose buffer is full miss the event.
func (h *Hub) Notify(_ context.Context, e domain.Event) error {
	msg, err := json.Marshal(NewMessage(e))
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.companyID != "" && c.companyID != e.CompanyID {
			continue
		}
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}
