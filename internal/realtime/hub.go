package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// EventInvalidate is the websocket event carrying cache keys to refetch.
const EventInvalidate = "invalidate"

// Hub maintains organization_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling: every instance subscribes to the
// channel of each organization it has clients for.
type Hub struct {
	// orgID -> map[clientID]*Client
	orgs     map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per organization
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishOrgEvent(ctx context.Context, orgID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to organization channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeOrg(orgID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. redisPub and redisSub may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		orgs:     make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its organization room. Starts the Redis subscription if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.orgs[c.OrgID] == nil {
		h.orgs[c.OrgID] = make(map[string]*Client)
		if h.redisSub != nil {
			orgID := c.OrgID
			cancel, err := h.redisSub.SubscribeOrg(orgID, func(event string, payload []byte) {
				h.Broadcast(orgID, event, json.RawMessage(payload))
			})
			if err != nil {
				h.logger.Warn("redis subscribe failed", zap.String("organization_id", orgID.String()), zap.Error(err))
			} else {
				h.subs[orgID] = cancel
			}
		}
	}
	h.orgs[c.OrgID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.String("organization_id", c.OrgID.String()))
}

// Unregister removes a client. Cancels the Redis subscription when the last client of an organization leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.orgs[c.OrgID]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.orgs, c.OrgID)
			if cancel, ok := h.subs[c.OrgID]; ok {
				cancel()
				delete(h.subs, c.OrgID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("organization_id", c.OrgID.String()))
}

// Broadcast sends a message to all local clients of an organization.
func (h *Hub) Broadcast(orgID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.orgs[orgID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every instance. With Redis configured it only publishes,
// and the subscriber callback performs the local broadcast once; otherwise it broadcasts locally.
func (h *Hub) Publish(ctx context.Context, orgID uuid.UUID, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if h.redis != nil {
		return h.redis.PublishOrgEvent(ctx, orgID, event, data)
	}
	h.Broadcast(orgID, event, json.RawMessage(data))
	return nil
}

// Invalidate publishes the cache keys affected by m to the organization's clients.
// Failures are logged and never returned: the mutation already succeeded.
func (h *Hub) Invalidate(ctx context.Context, orgID uuid.UUID, m Mutation) {
	keys := KeysFor(m)
	if len(keys) == 0 {
		return
	}
	if err := h.Publish(ctx, orgID, EventInvalidate, InvalidatePayload{Keys: keys}); err != nil {
		h.logger.Warn("invalidation publish failed",
			zap.String("organization_id", orgID.String()),
			zap.Strings("keys", keys),
			zap.Error(err))
	}
}

// ClientCount returns the number of local connections for an organization.
func (h *Hub) ClientCount(orgID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orgs[orgID])
}
