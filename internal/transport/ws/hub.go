package ws

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const presenceKey = "agora:online"

// Hub owns the live clients and delivers raw frames to the connection sets
// the Registry resolves. Delivery is best-effort: a slow client loses the
// frame, never blocks the sender.
type Hub struct {
	registry *Registry
	sugar    *zap.SugaredLogger

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client // connection id -> client

	// rdb mirrors the set of online users to Redis for presence queries.
	// Optional; nil disables the mirror. Never used for routing.
	rdb *redis.Client
}

func NewHub(sugar *zap.SugaredLogger, rdb *redis.Client) *Hub {
	return &Hub{
		registry: NewRegistry(),
		sugar:    sugar,
		clients:  make(map[uuid.UUID]*Client),
		rdb:      rdb,
	}
}

// Registry exposes the connection registry for the pipeline's group
// revocation and for dispatch resolution.
func (h *Hub) Registry() *Registry {
	return h.registry
}

func (h *Hub) add(c *Client) error {
	if err := h.registry.Register(c.connID, c.userID); err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[c.connID] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.sugar.Debugf("ws hub: user %s connected as %s (%d total)", c.userID, c.connID, total)
	h.setPresence(c.userID, true)
	return nil
}

func (h *Hub) remove(c *Client) {
	h.registry.Unregister(c.connID)

	h.mu.Lock()
	if _, ok := h.clients[c.connID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.connID)
	total := len(h.clients)
	h.mu.Unlock()

	close(c.send)
	h.sugar.Debugf("ws hub: user %s disconnected %s (%d total)", c.userID, c.connID, total)

	if len(h.registry.ConnectionsForUser(c.userID)) == 0 {
		h.setPresence(c.userID, false)
	}
}

// SendToGroup delivers a frame to every connection in a group.
func (h *Hub) SendToGroup(group string, data []byte) {
	h.deliver(h.registry.ConnectionsForGroup(group), data)
}

// SendToUser delivers a frame to every one of a user's connections.
func (h *Hub) SendToUser(userID uuid.UUID, data []byte) {
	h.deliver(h.registry.ConnectionsForUser(userID), data)
}

func (h *Hub) deliver(connIDs []uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, connID := range connIDs {
		client, ok := h.clients[connID]
		if !ok {
			// The connection left between snapshot and delivery; at-most-once
			// semantics make that fine.
			continue
		}
		select {
		case client.send <- data:
		default:
			h.sugar.Warnf("ws hub: dropping frame for %s, send buffer full", connID)
		}
	}
}

func (h *Hub) setPresence(userID uuid.UUID, online bool) {
	if h.rdb == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var err error
	if online {
		err = h.rdb.SAdd(ctx, presenceKey, userID.String()).Err()
	} else {
		err = h.rdb.SRem(ctx, presenceKey, userID.String()).Err()
	}
	if err != nil {
		h.sugar.Warnf("ws hub: presence update for %s: %v", userID, err)
	}
}
