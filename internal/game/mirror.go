package game

import (
	"maps"
	"slices"

	"github.com/faaizHadaina/jobi-socket/internal/models"
)

// Mirror returns the same board from the opposing seat; Mirror(Mirror(s)) equals s.
// The whoIsToPlay sentinel is relabelled, so the same person still moves next.
func Mirror(s models.GameState) models.GameState {
	out := models.GameState{
		Deck:                    slices.Clone(s.Deck),
		UserCards:               slices.Clone(s.OpponentCards),
		UsedCards:               slices.Clone(s.UsedCards),
		OpponentCards:           slices.Clone(s.UserCards),
		WhoIsToPlay:             s.WhoIsToPlay.Other(),
		InfoText:                mirrorInfoText(s.InfoText),
		InfoShown:               s.InfoShown,
		StateHasBeenInitialized: s.StateHasBeenInitialized,
		Player:                  mirrorSlot(s.Player),
		Extra:                   maps.Clone(s.Extra),
	}
	if s.ActiveCard != nil {
		active := *s.ActiveCard
		out.ActiveCard = &active
	}
	return out
}

func mirrorSlot(slot models.Slot) models.Slot {
	if !slot.Valid() {
		return slot
	}
	return slot.Other()
}

// mirrorInfoText only rewrites the two turn prompts; anything else a client put there is
// shown to both players as is.
func mirrorInfoText(text string) string {
	switch text {
	case PromptYourTurn:
		return PromptOpponentTurn
	case PromptOpponentTurn:
		return PromptYourTurn
	default:
		return text
	}
}
