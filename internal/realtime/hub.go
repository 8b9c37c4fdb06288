package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains classID -> set of connections and broadcasts attendance
// events. Redis pub/sub bridges instances: local broadcast + publish.
type Hub struct {
	// class code -> map[clientID]*Client
	rooms    map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per class
	mu       sync.RWMutex
	logger   *zap.Logger
	redisPub Publisher
	redisSub Subscriber
}

// Publisher publishes class events for cross-instance broadcast.
type Publisher interface {
	PublishClassEvent(classID, event string, payload []byte) error
}

// Subscriber subscribes to class channels and invokes handler for incoming events.
type Subscriber interface {
	SubscribeClass(classID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redisPub: pub,
		redisSub: sub,
	}
}

// Register adds a client to a class room. Starts the Redis subscription for
// this class when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.ClassID] == nil {
		h.rooms[c.ClassID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeClass(c.ClassID, func(event string, payload []byte) {
				h.broadcastLocal(c.ClassID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.ClassID] = cancel
			}
		}
	}
	h.rooms[c.ClassID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined class room", zap.String("client_id", c.ID), zap.String("class_id", c.ClassID))
}

// Unregister removes a client from its class room. Cancels the Redis
// subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.ClassID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.ClassID)
			if cancel, ok := h.subs[c.ClassID]; ok {
				cancel()
				delete(h.subs, c.ClassID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left class room", zap.String("client_id", c.ID), zap.String("class_id", c.ClassID))
}

// BroadcastToClass sends an event to local clients in the class room and
// publishes it to Redis for other instances.
func (h *Hub) BroadcastToClass(classID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	h.broadcastLocal(classID, event, json.RawMessage(data))
	if h.redisPub != nil {
		_ = h.redisPub.PublishClassEvent(classID, event, data)
	}
}

// RoomSize returns the number of connected clients watching a class.
func (h *Hub) RoomSize(classID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[classID])
}

func (h *Hub) broadcastLocal(classID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[classID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
