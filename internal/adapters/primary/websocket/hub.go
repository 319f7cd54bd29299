package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/service-desk-insights/internal/core/domain"
	"github.com/lorrc/service-desk-insights/internal/core/ports"
)

// Hub maintains the set of active Clients and fans snapshot events out to
// every one of them.
type Hub struct {
	// clients holds every live connection
	clients map[*Client]struct{}

	// Broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done is closed once Run returns
	done chan struct{}

	// mu protects the clients map
	mu sync.RWMutex

	pingPeriod time.Duration
	pongWait   time.Duration

	logger *slog.Logger
}

// HubConfig tunes connection keep-alives. Zero values use the defaults.
type HubConfig struct {
	PingInterval time.Duration
	PongWait     time.Duration
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}
	// Pings must go out before the peer's read deadline passes.
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongWait {
		cfg.PingInterval = (cfg.PongWait * 9) / 10
	}
	return &Hub{
		pingPeriod: cfg.PingInterval,
		pongWait:   cfg.PongWait,
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for every connected client. A full queue drops
// the event; snapshot events are advisory and the next one supersedes it.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "event_type", event.Type)
	}
	return nil
}

// Run starts the hub's event loop and blocks until ctx is done, at which
// point every client is disconnected.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client registered",
		"client_id", client.ID,
		"subject", client.Subject,
		"total_connections", total,
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if !ok {
		return
	}
	client.CloseSend()
	h.logger.Info("client unregistered", "client_id", client.ID)
}

func (h *Hub) broadcastEvent(event domain.Event) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- event:
		default:
			// Slow consumer; drop it here rather than via Unregister, which
			// this goroutine also serves.
			h.logger.Warn("client send buffer full, disconnecting", "client_id", client.ID)
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for client := range clients {
		client.CloseSend()
	}
	h.logger.Info("websocket hub stopped", "disconnected", len(clients))
}

// register hands a client to Run, giving up once the hub has stopped.
func (h *Hub) register(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
