package game

import (
	"errors"
	"fmt"

	"github.com/faaizHadaina/jobi-socket/internal/models"
)

// ErrUnknownOrientation is returned for a submitted state that names no seat.
var ErrUnknownOrientation = errors.New("state is not tagged with a player slot")

// ViewFor derives the state a seat should see. Only slot one's view is ever stored.
func ViewFor(room models.Room, slot models.Slot) models.GameState {
	if slot == models.SlotOne {
		return room.CanonicalState
	}
	return Mirror(room.CanonicalState)
}

// AbsorbUpdate turns a state submitted by a client, in that client's own orientation,
// into the canonical slot-one orientation.
func AbsorbUpdate(submitted models.GameState) (models.GameState, error) {
	switch submitted.Player {
	case models.SlotOne:
		return submitted, nil
	case models.SlotTwo:
		return Mirror(submitted), nil
	default:
		return models.GameState{}, fmt.Errorf("absorb update tagged %q: %w", submitted.Player, ErrUnknownOrientation)
	}
}

// PlayerViews pairs the canonical state with its mirror for an UPDATE_STATE broadcast.
func PlayerViews(canonical models.GameState) models.PlayerStates {
	return models.PlayerStates{
		PlayerOneState: canonical,
		PlayerTwoState: Mirror(canonical),
	}
}
