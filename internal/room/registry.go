package room

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spinroom/spinroom/internal/wheel"
)

// Registry owns the roomId -> wheel map. It is the single source of truth
// for which rooms exist and is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*wheel.Wheel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*wheel.Wheel),
	}
}

// CreateRoom mints a new room with a random UUID and an empty wheel.
func (r *Registry) CreateRoom() *wheel.Wheel {
	id := uuid.New().String()
	w := wheel.New(id)

	r.mu.Lock()
	r.rooms[id] = w
	r.mu.Unlock()

	log.Info().Str("room_id", id).Msg("room created")
	return w
}

// RemoveRoom deletes the room if present and reports whether it existed.
func (r *Registry) RemoveRoom(roomID string) bool {
	r.mu.Lock()
	_, ok := r.rooms[roomID]
	if ok {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()

	if ok {
		log.Info().Str("room_id", roomID).Msg("room removed")
	}
	return ok
}

// GetRoom looks up a room's wheel.
func (r *Registry) GetRoom(roomID string) (*wheel.Wheel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.rooms[roomID]
	return w, ok
}

// GetAllRooms returns a snapshot of every wheel. Order is unspecified.
func (r *Registry) GetAllRooms() []*wheel.Wheel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*wheel.Wheel, 0, len(r.rooms))
	for _, w := range r.rooms {
		out = append(out, w)
	}
	return out
}

// Len reports the number of live rooms.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
