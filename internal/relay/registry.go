package relay

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/HIMANSHU6001/whiteboard/internal/metrics"
)

type room struct {
	clients map[string]Connection
}

type member struct {
	roomID string
	name   string
}

// Registry maps room ids to the set of connected participant channels.
// Rooms are created implicitly on first join and removed when the last
// member leaves. A connection belongs to at most one room; joining a
// new room moves it.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*room
	members map[string]member // conn id -> current room and display name
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		rooms:   make(map[string]*room),
		members: make(map[string]member),
		logger:  logger,
	}
}

// Join adds conn to roomID, creating the room if needed. If the
// connection was already in another room it is removed from it first.
func (r *Registry) Join(conn Connection, roomID, name string) {
	r.mu.Lock()
	r.removeLocked(conn)

	rm, exists := r.rooms[roomID]
	if !exists {
		rm = &room{clients: make(map[string]Connection)}
		r.rooms[roomID] = rm
		metrics.RoomsActive.Inc()
	}
	rm.clients[conn.ID()] = conn
	r.members[conn.ID()] = member{roomID: roomID, name: name}
	count := len(rm.clients)
	r.mu.Unlock()

	r.logger.Info().
		Str("room", roomID).
		Str("client_id", conn.ID()).
		Str("name", name).
		Int("clients", count).
		Msg("client joined room")
}

// Leave removes conn from whatever room it is in. Unconditional and
// idempotent; safe to call for connections that never joined.
func (r *Registry) Leave(conn Connection) {
	r.mu.Lock()
	roomID, removed := r.removeLocked(conn)
	r.mu.Unlock()

	if removed {
		r.logger.Info().
			Str("room", roomID).
			Str("client_id", conn.ID()).
			Msg("client left room")
	}
}

// removeLocked detaches conn from its current room, deleting the room
// entry when it becomes empty. Caller holds r.mu.
func (r *Registry) removeLocked(conn Connection) (string, bool) {
	m, ok := r.members[conn.ID()]
	if !ok {
		return "", false
	}
	delete(r.members, conn.ID())

	rm, exists := r.rooms[m.roomID]
	if !exists {
		return m.roomID, true
	}
	delete(rm.clients, conn.ID())
	if len(rm.clients) == 0 {
		delete(r.rooms, m.roomID)
		metrics.RoomsActive.Dec()
		r.logger.Info().Str("room", m.roomID).Msg("room removed")
	}
	return m.roomID, true
}

// RoomOf returns the room the connection currently belongs to.
func (r *Registry) RoomOf(conn Connection) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[conn.ID()]
	return m.roomID, ok
}

// NameOf returns the display name the connection joined with.
func (r *Registry) NameOf(conn Connection) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[conn.ID()]
	return m.name, ok
}

// Broadcast delivers data to every member of roomID except the sender.
// Delivery is at-most-once: a connection whose send buffer is full is
// dropped from the registry rather than retried.
func (r *Registry) Broadcast(roomID string, sender Connection, data []byte) {
	r.mu.RLock()
	rm, exists := r.rooms[roomID]
	if !exists {
		r.mu.RUnlock()
		return
	}

	stale := make([]Connection, 0)
	for id, conn := range rm.clients {
		if sender != nil && id == sender.ID() {
			continue
		}
		if err := conn.Send(data); err != nil {
			stale = append(stale, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range stale {
		r.Leave(conn)
		conn.Close()
	}
}

// Stats returns the current number of rooms and connected members.
func (r *Registry) Stats() (rooms, clients int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms), len(r.members)
}
