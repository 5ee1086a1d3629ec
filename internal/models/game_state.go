package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
)

// Turn is the whoIsToPlay sentinel. It is always relative to the viewer of the state.
type Turn string

const (
	TurnUser     Turn = "user"
	TurnOpponent Turn = "opponent"
)

// Other returns the sentinel as seen from the other side of the table.
func (t Turn) Other() Turn {
	switch t {
	case TurnUser:
		return TurnOpponent
	case TurnOpponent:
		return TurnUser
	default:
		return t
	}
}

// GameState is the full board as one player sees it. The field names match what the
// browser client reads and writes. Top-level keys the server does not know are kept in
// Extra and written back out unchanged.
type GameState struct {
	Deck                    []Card `json:"deck"`
	UserCards               []Card `json:"userCards"`
	UsedCards               []Card `json:"usedCards"`
	OpponentCards           []Card `json:"opponentCards"`
	ActiveCard              *Card  `json:"activeCard"`
	WhoIsToPlay             Turn   `json:"whoIsToPlay"`
	InfoText                string `json:"infoText"`
	InfoShown               bool   `json:"infoShown"`
	StateHasBeenInitialized bool   `json:"stateHasBeenInitialized"`
	Player                  Slot   `json:"player"`

	Extra map[string]json.RawMessage `json:"-"`
}

type gameStateFields GameState

var knownStateKeys = []string{
	"deck", "userCards", "usedCards", "opponentCards", "activeCard",
	"whoIsToPlay", "infoText", "infoShown", "stateHasBeenInitialized", "player",
}

func (s *GameState) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		return nil
	}
	var fields gameStateFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownStateKeys {
		delete(all, k)
	}
	fields.Extra = nil
	if len(all) > 0 {
		fields.Extra = all
	}
	*s = GameState(fields)
	return nil
}

func (s GameState) MarshalJSON() ([]byte, error) {
	out, err := json.Marshal(gameStateFields(s))
	if err != nil || len(s.Extra) == 0 {
		return out, err
	}
	var buf bytes.Buffer
	buf.Write(out[:len(out)-1])
	for _, k := range slices.Sorted(maps.Keys(s.Extra)) {
		if slices.Contains(knownStateKeys, k) {
			continue
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val := s.Extra[k]
		if len(val) == 0 {
			val = json.RawMessage("null")
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CardCount counts every card on the table: all piles plus the active card.
func (s GameState) CardCount() int {
	n := len(s.Deck) + len(s.UserCards) + len(s.UsedCards) + len(s.OpponentCards)
	if s.ActiveCard != nil {
		n++
	}
	return n
}

// PlayerStates is the UPDATE_STATE payload: both orientations of the same board.
type PlayerStates struct {
	PlayerOneState GameState `json:"playerOneState"`
	PlayerTwoState GameState `json:"playerTwoState"`
}
