package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/KevinKickass/PlantDeck/internal/auth"
	"github.com/KevinKickass/PlantDeck/internal/config"
	"github.com/KevinKickass/PlantDeck/internal/types"
)

var ErrHubBusy = errors.New("websocket broadcast queue full")

// TokenValidator checks the token a client sends in its auth message.
type TokenValidator interface {
	ValidateToken(token string) (auth.User, error)
}

// SnapshotSource supplies the batch a client receives once it is admitted.
type SnapshotSource interface {
	Snapshots() map[string]types.Snapshot
}

// Hub fans telemetry out to connected dashboards.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex

	logger      *zap.Logger
	validator   TokenValidator
	requireAuth bool
	source      SnapshotSource
	origins     []string
}

// NewHub creates a hub. When requireAuth is set, clients must send
// {"type":"auth","token":...} before they receive anything.
func NewHub(logger *zap.Logger, validator TokenValidator, requireAuth bool) *Hub {
	return &Hub{
		broadcast:   make(chan Message, 256),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		done:        make(chan struct{}),
		clients:     make(map[*Client]bool),
		logger:      logger,
		validator:   validator,
		requireAuth: requireAuth,
	}
}

func (h *Hub) SetSnapshotSource(source SnapshotSource) {
	h.source = source
}

// SetAllowedOrigins lists the browser origins allowed to connect besides
// the server's own host. Uses the same patterns as server.cors_origins.
func (h *Hub) SetAllowedOrigins(origins []string) {
	h.origins = origins
}

// checkOrigin accepts clients without an Origin header, same-host pages
// and the configured origins.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if ok, _ := config.MatchOrigin(h.origins, origin); ok {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

// Run is the hub's event loop; it returns after Stop.
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("WebSocket client registered",
				zap.String("remote_addr", client.remoteAddr()),
				zap.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				h.logger.Info("WebSocket client unregistered",
					zap.String("remote_addr", client.remoteAddr()),
					zap.Int("total_clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				if !client.queue(data) {
					client.close()
					delete(h.clients, client)
					h.logger.Warn("Client send buffer full, unregistering",
						zap.String("remote_addr", client.remoteAddr()))
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast queues msg for every registered client. It never blocks.
func (h *Hub) Broadcast(msg Message) error {
	select {
	case h.broadcast <- msg:
		return nil
	default:
		h.logger.Warn("Hub broadcast channel full, message dropped",
			zap.String("message_type", string(msg.Type)))
		return ErrHubBusy
	}
}

func (h *Hub) Name() string { return "websocket" }

// Publish forwards a regenerated snapshot to all dashboards.
func (h *Hub) Publish(_ context.Context, snap types.Snapshot) error {
	return h.Broadcast(NewSnapshotMessage(snap))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) batch() Message {
	if h.source == nil {
		return NewBatchMessage(map[string]types.Snapshot{})
	}
	return NewBatchMessage(h.source.Snapshots())
}

func (h *Hub) admit(c *Client) bool {
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
