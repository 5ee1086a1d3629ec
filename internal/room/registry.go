package room

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/faaizHadaina/jobi-socket/internal/models"
)

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
	ErrInvalidSlot  = errors.New("invalid player slot")
)

// InitialStateFunc deals a fresh game oriented to slot one.
type InitialStateFunc func() models.GameState

// Registry is the single owner of every live room and its canonical state.
//
// Rooms are stored as values. A mutation builds a new Room and swaps it into the map, so a
// snapshot returned by Find is never modified afterwards. Registry methods are safe for
// concurrent use, but a read-modify-write across several calls (resolve a join, then bind
// a slot) must run under Lock for that room.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]models.Room
	locks    *keyedMutex
	newState InitialStateFunc
	clock    Clock
}

func NewRegistry(newState InitialStateFunc, clock Clock) *Registry {
	if clock == nil {
		clock = NewClock()
	}
	return &Registry{
		rooms:    make(map[string]models.Room),
		locks:    newKeyedMutex(),
		newState: newState,
		clock:    clock,
	}
}

// Lock serializes work on one room. Different rooms never wait on each other.
func (r *Registry) Lock(roomID string) (unlock func()) {
	return r.locks.Lock(roomID)
}

// Create deals a new game and seats storedID in slot one.
func (r *Registry) Create(roomID, storedID, connID string) (models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[roomID]; exists {
		return models.Room{}, fmt.Errorf("create room %s: %w", roomID, ErrRoomExists)
	}

	now := r.clock.Now()
	room := models.Room{
		ID: roomID,
		Players: []models.PlayerSlot{
			{StoredID: storedID, ConnectionID: connID, Slot: models.SlotOne},
		},
		CanonicalState: r.newState(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.rooms[roomID] = room
	return room, nil
}

func (r *Registry) Find(roomID string) (models.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[roomID]
	return room, ok
}

// RoomIDsForConnection lists every room where connID holds a slot, sorted.
func (r *Registry) RoomIDsForConnection(connID string) []string {
	if connID == "" {
		return nil
	}
	r.mu.RLock()
	var ids []string
	for id, room := range r.rooms {
		if _, ok := room.PlayerByConnection(connID); ok {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// ReplacePlayer binds slot to storedID and connID, adding the slot if it is new. An empty
// connID marks the slot offline. The canonical state is left alone.
func (r *Registry) ReplacePlayer(roomID string, slot models.Slot, storedID, connID string) (models.Room, error) {
	if !slot.Valid() {
		return models.Room{}, fmt.Errorf("replace player %q in room %s: %w", slot, roomID, ErrInvalidSlot)
	}
	return r.update(roomID, func(room models.Room) models.Room {
		return room.WithPlayer(models.PlayerSlot{StoredID: storedID, ConnectionID: connID, Slot: slot})
	})
}

// SetCanonicalState overwrites the stored game. The caller has already oriented state to
// slot one.
func (r *Registry) SetCanonicalState(roomID string, state models.GameState) (models.Room, error) {
	return r.update(roomID, func(room models.Room) models.Room {
		room.CanonicalState = state
		return room
	})
}

// Remove drops the room. Removing an unknown room is a no-op.
func (r *Registry) Remove(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rooms[roomID]
	delete(r.rooms, roomID)
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// IDs lists the live room ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// RemoveIdle removes every room with no activity since cutoff and returns their ids. Each
// room is checked under its own lock so a room in the middle of an event is not torn down.
// onRemoved, when set, runs for each removed room before that room's lock is released.
func (r *Registry) RemoveIdle(cutoff time.Time, onRemoved func(roomID string)) []string {
	var removed []string
	for _, id := range r.IDs() {
		if r.removeIfIdle(id, cutoff, onRemoved) {
			removed = append(removed, id)
		}
	}
	return removed
}

func (r *Registry) removeIfIdle(roomID string, cutoff time.Time, onRemoved func(string)) bool {
	unlock := r.Lock(roomID)
	defer unlock()

	r.mu.Lock()
	room, ok := r.rooms[roomID]
	idle := ok && room.UpdatedAt.Before(cutoff)
	if idle {
		delete(r.rooms, roomID)
	}
	r.mu.Unlock()

	if idle && onRemoved != nil {
		onRemoved(roomID)
	}
	return idle
}

func (r *Registry) update(roomID string, fn func(models.Room) models.Room) (models.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return models.Room{}, fmt.Errorf("update room %s: %w", roomID, ErrRoomNotFound)
	}
	room = fn(room)
	room.UpdatedAt = r.clock.Now()
	r.rooms[roomID] = room
	return room, nil
}
