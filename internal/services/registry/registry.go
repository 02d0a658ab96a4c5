package registry

import (
	"sync"

	"github.com/mcoot/wordduel/internal/dependencies/random"
	"github.com/mcoot/wordduel/internal/model"
)

const (
	// CodeLength is the length of generated room codes
	CodeLength = 6
	// CodeAlphabet is the characters used in room codes (avoid confusing chars)
	CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// MaxCodeAttempts bounds regeneration on collision
	MaxCodeAttempts = 10
)

// Registry maps room codes to rooms and connections to the room they are in.
// Both maps change together under one lock.
type Registry[T any] struct {
	random random.Random

	mu    sync.RWMutex
	rooms map[model.RoomCode]T
	conns map[model.ConnID]model.RoomCode
}

// New creates an empty Registry
func New[T any](random random.Random) *Registry[T] {
	return &Registry[T]{
		random: random,
		rooms:  make(map[model.RoomCode]T),
		conns:  make(map[model.ConnID]model.RoomCode),
	}
}

// Create allocates a fresh code, builds the room with it and binds conn to it.
// build runs under the registry lock and must not call back into the registry.
func (r *Registry[T]) Create(conn model.ConnID, build func(code model.RoomCode) T) (model.RoomCode, T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if _, bound := r.conns[conn]; bound {
		return "", zero, model.ErrAlreadyInRoom
	}

	for i := 0; i < MaxCodeAttempts; i++ {
		code := model.RoomCode(r.random.String(CodeLength, CodeAlphabet))
		if _, exists := r.rooms[code]; exists {
			continue
		}
		room := build(code)
		r.rooms[code] = room
		r.conns[conn] = code
		return code, room, nil
	}
	return "", zero, model.ErrNoRoomCode
}

// Join binds conn to an existing room once admit accepts it. admit runs under
// the registry lock and may lock the room itself.
func (r *Registry[T]) Join(code model.RoomCode, conn model.ConnID, admit func(room T) error) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if _, bound := r.conns[conn]; bound {
		return zero, model.ErrAlreadyInRoom
	}
	room, ok := r.rooms[code]
	if !ok {
		return zero, model.ErrRoomNotFound
	}
	if err := admit(room); err != nil {
		return zero, err
	}
	r.conns[conn] = code
	return room, nil
}

// Get returns the room with the given code
func (r *Registry[T]) Get(code model.RoomCode) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

// Lookup returns the room a connection is in
func (r *Registry[T]) Lookup(conn model.ConnID) (model.RoomCode, T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	code, ok := r.conns[conn]
	if !ok {
		return "", zero, false
	}
	room, ok := r.rooms[code]
	if !ok {
		return "", zero, false
	}
	return code, room, true
}

// Remove deletes a room and unbinds every connection in it
func (r *Registry[T]) Remove(code model.RoomCode) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok {
		var zero T
		return zero, false
	}
	delete(r.rooms, code)
	for conn, c := range r.conns {
		if c == code {
			delete(r.conns, conn)
		}
	}
	return room, true
}

// Len returns the number of open rooms
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Codes returns the codes of all open rooms
func (r *Registry[T]) Codes() []model.RoomCode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]model.RoomCode, 0, len(r.rooms))
	for code := range r.rooms {
		codes = append(codes, code)
	}
	return codes
}
