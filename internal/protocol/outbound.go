package protocol

import (
	"encoding/json"
	"fmt"
)

// Outbound is implemented only by the event types in this file.
type Outbound interface {
	Name() string
	data() any
}

// Dispatch feeds a client reducer action.
type Dispatch struct {
	Type    DispatchType `json:"type"`
	Payload any          `json:"payload"`
}

// OpponentOnlineStateChanged tells a player whether the other seat has a live connection.
type OpponentOnlineStateChanged struct {
	Online bool
}

// ConfirmOnlineRequest asks the receiving client to reply with confirmOnlineState so that
// the newly arrived player learns its opponent is online.
type ConfirmOnlineRequest struct{}

type Error struct {
	Message string
}

// Notice is a plain text message to the client.
type Notice struct {
	Text string
}

func (Dispatch) Name() string                   { return EventDispatch }
func (OpponentOnlineStateChanged) Name() string { return EventOpponentOnlineStateChanged }
func (ConfirmOnlineRequest) Name() string       { return EventConfirmOnlineState }
func (Error) Name() string                      { return EventError }
func (Notice) Name() string                     { return EventMessage }

func (d Dispatch) data() any                   { return d }
func (o OpponentOnlineStateChanged) data() any { return o.Online }
func (ConfirmOnlineRequest) data() any         { return nil }
func (e Error) data() any                      { return e.Message }
func (n Notice) data() any                     { return n.Text }

type outEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type signalEnvelope struct {
	Event string `json:"event"`
}

// Encode renders an outbound event as a wire frame.
func Encode(ev Outbound) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if d := ev.data(); d == nil {
		b, err = json.Marshal(signalEnvelope{Event: ev.Name()})
	} else {
		b, err = json.Marshal(outEnvelope{Event: ev.Name(), Data: d})
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Name(), err)
	}
	return b, nil
}
