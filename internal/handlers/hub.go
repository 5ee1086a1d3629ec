// internal/handlers/hub.go
package handlers

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/faaizHadaina/jobi-socket/internal/protocol"
	"github.com/faaizHadaina/jobi-socket/internal/session"
	"github.com/sirupsen/logrus"
)

// OutboundBuffer is the number of encoded frames queued per connection before the
// connection is considered too slow and is closed.
const OutboundBuffer = 32

// KickFunc closes a connection from outside its own goroutines. It must not block.
type KickFunc func(code websocket.StatusCode, reason string)

type client struct {
	id     string
	out    chan []byte
	kick   KickFunc
	kicked sync.Once
}

// Hub tracks live websocket connections and the room groups they are subscribed to.
// Sends never block: each connection drains its own queue in a write pump.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]struct{}
	logger  *logrus.Logger
}

var _ session.Transport = (*Hub)(nil)

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]struct{}),
		logger:  logger,
	}
}

// Register adds a connection and returns the queue its write pump should drain.
// The queue is closed by Unregister.
func (h *Hub) Register(connID string, kick KickFunc) <-chan []byte {
	c := &client{id: connID, out: make(chan []byte, OutboundBuffer), kick: kick}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connID] = c
	return c.out
}

// Unregister forgets a connection and drops it from every room group.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	delete(h.clients, connID)
	for roomID, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	close(c.out)
}

func (h *Hub) Send(connID string, ev protocol.Outbound) {
	frame, ok := h.encode(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		h.enqueue(c, ev.Name(), frame)
	}
}

func (h *Hub) Broadcast(roomID, exceptConnID string, ev protocol.Outbound) {
	frame, ok := h.encode(ev)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.rooms[roomID] {
		if connID == exceptConnID {
			continue
		}
		if c, ok := h.clients[connID]; ok {
			h.enqueue(c, ev.Name(), frame)
		}
	}
}

// Subscribe is a no-op for connections that already went away.
func (h *Hub) Subscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[connID]; !ok {
		return
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Release(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, roomID)
}

// CloseAll asks every connection to close, used on shutdown.
func (h *Hub) CloseAll(reason string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.close(websocket.StatusGoingAway, reason)
	}
}

// Members lists the connections subscribed to roomID.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[roomID]))
	for connID := range h.rooms[roomID] {
		out = append(out, connID)
	}
	return out
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) encode(ev protocol.Outbound) ([]byte, bool) {
	frame, err := protocol.Encode(ev)
	if err != nil {
		h.logger.Errorf("Hub: failed to encode %s: %v", ev.Name(), err)
		return nil, false
	}
	return frame, true
}

// enqueue must be called with h.mu held. A full queue closes the connection; the client
// rejoins to get a fresh INITIALIZE_DECK.
func (h *Hub) enqueue(c *client, event string, frame []byte) {
	select {
	case c.out <- frame:
	default:
		h.logger.Warnf("Hub: outbound queue full for connection %s, dropped '%s' and closing", c.id, event)
		c.close(SlowConsumerError, "outbound queue overflow")
	}
}

func (c *client) close(code websocket.StatusCode, reason string) {
	c.kicked.Do(func() {
		if c.kick != nil {
			c.kick(code, reason)
		}
	})
}
