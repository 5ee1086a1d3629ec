package models

import (
	"time"
	"unicode/utf8"
)

// RoomIDLength is the exact length of a room id. Anything else is a malformed request.
const RoomIDLength = 4

// ValidRoomID reports whether id can name a room.
func ValidRoomID(id string) bool {
	return utf8.RuneCountInString(id) == RoomIDLength
}

// Room is an immutable snapshot of one game session. The registry never edits a Room in
// place; every change produces a new value with its own Players slice.
type Room struct {
	ID             string       `json:"room_id"`
	Players        []PlayerSlot `json:"players"`
	CanonicalState GameState    `json:"canonicalState"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Full reports whether both slots are taken.
func (r Room) Full() bool {
	return len(r.Players) >= 2
}

func (r Room) PlayerBySlot(slot Slot) (PlayerSlot, bool) {
	for _, p := range r.Players {
		if p.Slot == slot {
			return p, true
		}
	}
	return PlayerSlot{}, false
}

func (r Room) PlayerByStoredID(storedID string) (PlayerSlot, bool) {
	for _, p := range r.Players {
		if p.StoredID == storedID {
			return p, true
		}
	}
	return PlayerSlot{}, false
}

// PlayerByConnection finds the slot currently bound to connID. An empty connID never
// matches, since disconnected slots carry no connection.
func (r Room) PlayerByConnection(connID string) (PlayerSlot, bool) {
	if connID == "" {
		return PlayerSlot{}, false
	}
	for _, p := range r.Players {
		if p.ConnectionID == connID {
			return p, true
		}
	}
	return PlayerSlot{}, false
}

// Opponent returns whoever holds the slot facing slot.
func (r Room) Opponent(slot Slot) (PlayerSlot, bool) {
	return r.PlayerBySlot(slot.Other())
}

// WithPlayer returns a copy of the room with p upserted by slot tag.
func (r Room) WithPlayer(p PlayerSlot) Room {
	players := make([]PlayerSlot, 0, len(r.Players)+1)
	replaced := false
	for _, existing := range r.Players {
		if existing.Slot == p.Slot {
			players = append(players, p)
			replaced = true
			continue
		}
		players = append(players, existing)
	}
	if !replaced {
		players = append(players, p)
	}
	r.Players = players
	return r
}
