package game

import (
	"github.com/faaizHadaina/jobi-socket/internal/models"
)

// HandSize is the number of cards dealt to each player.
const HandSize = 5

const (
	PromptYourTurn     = "It's your turn to make a move now"
	PromptOpponentTurn = "Your opponent is making a move, hold on"
)

// WhotNumber is the face value printed on every wildcard.
const WhotNumber = 20

var shapeNumbers = []struct {
	shape   models.Shape
	numbers []int
}{
	{models.ShapeCircle, []int{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
	{models.ShapeTriangle, []int{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
	{models.ShapeCross, []int{1, 2, 3, 5, 7, 10, 11, 13, 14}},
	{models.ShapeSquare, []int{1, 2, 3, 5, 7, 10, 11, 13, 14}},
	{models.ShapeStar, []int{1, 2, 3, 4, 5, 7, 8}},
}

const whotCount = 5

// DeckSize is the number of cards in a full Whot deck.
const DeckSize = 54

// NewDeck returns a full, shuffled Whot deck.
func NewDeck(rnd Random) []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, sn := range shapeNumbers {
		for _, n := range sn.numbers {
			deck = append(deck, models.NewCard(sn.shape, n))
		}
	}
	for i := 0; i < whotCount; i++ {
		deck = append(deck, models.NewCard(models.ShapeWhot, WhotNumber))
	}

	// Fisher-Yates
	for i := len(deck) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// InitialState deals a fresh game as seen by slot one, who always moves first.
func InitialState(rnd Random) models.GameState {
	deck := NewDeck(rnd)

	userCards := append([]models.Card(nil), deck[:HandSize]...)
	opponentCards := append([]models.Card(nil), deck[HandSize:2*HandSize]...)
	rest := deck[2*HandSize:]

	// The opening card is never a Whot.
	activeIdx := 0
	for i, c := range rest {
		if !c.IsWhot() {
			activeIdx = i
			break
		}
	}
	active := rest[activeIdx]
	remaining := make([]models.Card, 0, len(rest)-1)
	remaining = append(remaining, rest[:activeIdx]...)
	remaining = append(remaining, rest[activeIdx+1:]...)

	return models.GameState{
		Deck:                    remaining,
		UserCards:               userCards,
		UsedCards:               []models.Card{},
		OpponentCards:           opponentCards,
		ActiveCard:              &active,
		WhoIsToPlay:             models.TurnUser,
		InfoText:                PromptYourTurn,
		InfoShown:               true,
		StateHasBeenInitialized: true,
		Player:                  models.SlotOne,
	}
}
