package session

import (
	"github.com/faaizHadaina/jobi-socket/internal/models"
	"github.com/faaizHadaina/jobi-socket/internal/protocol"
)

// Presence tells a player when the seat across the table comes online or drops off.
type Presence struct {
	transport Transport
}

func NewPresence(transport Transport) *Presence {
	return &Presence{transport: transport}
}

// Announce reports slot's presence to its opponent. It returns false, and sends nothing,
// when there is no opponent or the opponent is offline.
func (p *Presence) Announce(room models.Room, slot models.Slot, online bool) bool {
	opponent, ok := room.Opponent(slot)
	if !ok || !opponent.Connected() {
		return false
	}
	p.transport.Send(opponent.ConnectionID, protocol.OpponentOnlineStateChanged{Online: online})
	return true
}
