// internal/lobby/registry.go
package lobby

import (
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/game"
)

// Registry holds every live room in memory, in creation order.
// Lock order is always registry first, then room.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*game.Room
	order []uuid.UUID
}

// NewRegistry initializes and returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[uuid.UUID]*game.Room),
	}
}

// Add inserts a room. Adding an id that already exists is ignored.
func (s *Registry) Add(room *game.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rooms[room.ID]; exists {
		return false
	}
	s.rooms[room.ID] = room
	s.order = append(s.order, room.ID)
	return true
}

// Get retrieves a room by id.
func (s *Registry) Get(id uuid.UUID) (*game.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Remove deletes a room unconditionally.
func (s *Registry) Remove(id uuid.UUID) bool {
	return s.RemoveIf(id, func(*game.Room) bool { return true })
}

// RemoveIf deletes the room only if pred returns true. pred runs with the
// registry write lock held, so no lookup can observe the room in between.
func (s *Registry) RemoveIf(id uuid.UUID, pred func(*game.Room) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok || !pred(r) {
		return false
	}
	delete(s.rooms, id)
	for i, rid := range s.order {
		if rid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// FindByPlayer returns the first room, in creation order, seating the player.
func (s *Registry) FindByPlayer(playerID uuid.UUID) (*game.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		r := s.rooms[id]
		r.Mu.Lock()
		seated := r.HasPlayer(playerID)
		r.Mu.Unlock()
		if seated {
			return r, true
		}
	}
	return nil, false
}

// List returns the rooms in creation order.
func (s *Registry) List() []*game.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*game.Room, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rooms[id])
	}
	return out
}

// OpenRooms summarizes every room whose game has not started.
func (s *Registry) OpenRooms() []game.RoomSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]game.RoomSummary, 0, len(s.order))
	for _, id := range s.order {
		r := s.rooms[id]
		r.Mu.Lock()
		if !r.GameStarted {
			out = append(out, r.Summary())
		}
		r.Mu.Unlock()
	}
	return out
}

func (s *Registry) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
