package room

import "github.com/faaizHadaina/jobi-socket/internal/models"

// Outcome is what a join_room request turns into.
type Outcome int

const (
	// OutcomeCreate means nobody has joined the room yet.
	OutcomeCreate Outcome = iota
	// OutcomeRejoin means storedID already holds a slot and is reconnecting.
	OutcomeRejoin
	// OutcomeSecondPlayer means a new identity takes slot two.
	OutcomeSecondPlayer
	// OutcomeRejected means the room is full and storedID is a stranger.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreate:
		return "create"
	case OutcomeRejoin:
		return "rejoin"
	case OutcomeSecondPlayer:
		return "second_player"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Resolution carries the slot the joiner ends up in, if any, and the slot's binding
// before this join.
type Resolution struct {
	Outcome  Outcome
	Slot     models.Slot
	Previous models.PlayerSlot
}

// Resolve decides how storedID joins room. A zero Room stands for a room that does not
// exist. Slots are assigned once per identity and never reassigned for the room's life.
func Resolve(room models.Room, storedID string) Resolution {
	if len(room.Players) == 0 {
		return Resolution{Outcome: OutcomeCreate, Slot: models.SlotOne}
	}

	if p, ok := room.PlayerByStoredID(storedID); ok {
		return Resolution{Outcome: OutcomeRejoin, Slot: p.Slot, Previous: p}
	}

	if !room.Full() {
		return Resolution{Outcome: OutcomeSecondPlayer, Slot: freeSlot(room)}
	}

	return Resolution{Outcome: OutcomeRejected}
}

func freeSlot(room models.Room) models.Slot {
	if _, taken := room.PlayerBySlot(models.SlotOne); !taken {
		return models.SlotOne
	}
	return models.SlotTwo
}
