package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/wordduel/internal/model"
	"github.com/mcoot/wordduel/internal/protocol"
)

// Hub tracks connected clients and the room each one is subscribed to. It
// implements the engine's Notifier: sends never block, a client whose buffer
// is full loses the message.
type Hub struct {
	mu      sync.RWMutex
	clients map[model.ConnID]*Client
	rooms   map[model.RoomCode]map[model.ConnID]struct{}
	roomOf  map[model.ConnID]model.RoomCode
	logger  *slog.Logger
}

// NewHub creates an empty Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[model.ConnID]*Client),
		rooms:   make(map[model.RoomCode]map[model.ConnID]struct{}),
		roomOf:  make(map[model.ConnID]model.RoomCode),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client registered",
		slog.String("conn_id", string(c.id)),
		slog.Int("total_clients", total))
}

// Unregister removes a client and closes its send channel
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if existing, ok := h.clients[c.id]; !ok || existing != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	h.leaveLocked(c.id)
	close(c.send)
	total := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("ws client unregistered",
		slog.String("conn_id", string(c.id)),
		slog.Duration("connection_duration", time.Since(c.connectedAt)),
		slog.Int("total_clients", total))
}

// Subscribe moves conn into the broadcast group of a room
func (h *Hub) Subscribe(conn model.ConnID, code model.RoomCode) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(conn)
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[model.ConnID]struct{})
		h.rooms[code] = members
	}
	members[conn] = struct{}{}
	h.roomOf[conn] = code
}

// Unsubscribe drops the whole broadcast group of a room
func (h *Hub) Unsubscribe(code model.RoomCode) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.rooms[code] {
		delete(h.roomOf, conn)
	}
	delete(h.rooms, code)
}

func (h *Hub) leaveLocked(conn model.ConnID) {
	code, ok := h.roomOf[conn]
	if !ok {
		return
	}
	delete(h.roomOf, conn)
	if members := h.rooms[code]; members != nil {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
}

// RoomOf returns the room conn is subscribed to
func (h *Hub) RoomOf(conn model.ConnID) (model.RoomCode, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	code, ok := h.roomOf[conn]
	return code, ok
}

// Notify sends an event to every client in a room
func (h *Hub) Notify(code model.RoomCode, event model.EventType, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	sent, dropped := 0, 0
	for conn := range h.rooms[code] {
		if h.deliverLocked(conn, event, frame) {
			sent++
		} else {
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("ws broadcast partial failure",
			slog.String("room_code", string(code)),
			slog.String("event", string(event)),
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
}

// NotifyOne sends an event to a single client
func (h *Hub) NotifyOne(conn model.ConnID, event model.EventType, payload any) {
	frame, ok := h.encode(event, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliverLocked(conn, event, frame)
}

func (h *Hub) encode(event model.EventType, payload any) ([]byte, bool) {
	frame, err := protocol.Encode(event, payload)
	if err != nil {
		h.logger.Error("ws failed to encode event",
			slog.String("event", string(event)),
			slog.Any("error", err))
		return nil, false
	}
	return frame, true
}

func (h *Hub) deliverLocked(conn model.ConnID, event model.EventType, frame []byte) bool {
	c, ok := h.clients[conn]
	if !ok {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("conn_id", string(conn)),
			slog.String("event", string(event)))
		return false
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. Their read pumps then run the normal
// disconnect path.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
	h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", len(clients)))
}
