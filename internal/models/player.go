package models

// Slot is a fixed seat at the table.
type Slot string

const (
	SlotOne Slot = "one"
	SlotTwo Slot = "two"
)

func (s Slot) Valid() bool {
	return s == SlotOne || s == SlotTwo
}

// Other returns the opposing seat.
func (s Slot) Other() Slot {
	if s == SlotOne {
		return SlotTwo
	}
	return SlotOne
}

// PlayerSlot binds a persistent client identity to a seat and, while online, to a
// live connection.
type PlayerSlot struct {
	StoredID     string `json:"storedId"`
	ConnectionID string `json:"connectionId,omitempty"`
	Slot         Slot   `json:"player"`
}

// Connected is the slot's presence.
func (p PlayerSlot) Connected() bool {
	return p.ConnectionID != ""
}
