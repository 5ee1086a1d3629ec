package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/faaizHadaina/jobi-socket/internal/models"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrMalformed    = errors.New("malformed event")
)

// Inbound is implemented only by the event types in this file.
type Inbound interface {
	Name() string
	inbound()
}

type JoinRoom struct {
	RoomID   string `json:"room_id"`
	StoredID string `json:"storedId"`
}

// SendUpdatedState carries the sender's board in the sender's own orientation.
type SendUpdatedState struct {
	State  models.GameState `json:"state"`
	RoomID string           `json:"room_id"`
}

type GameOver struct {
	RoomID string `json:"room_id"`
}

type Message struct {
	Text string `json:"text"`
}

type ConfirmOnlineState struct {
	StoredID string `json:"storedId"`
	RoomID   string `json:"room_id"`
}

// Disconnect is raised by the transport when a connection closes. Clients never send it.
type Disconnect struct{}

func (JoinRoom) Name() string           { return EventJoinRoom }
func (SendUpdatedState) Name() string   { return EventSendUpdatedState }
func (GameOver) Name() string           { return EventGameOver }
func (Message) Name() string            { return EventMessage }
func (ConfirmOnlineState) Name() string { return EventConfirmOnlineState }
func (Disconnect) Name() string         { return EventDisconnect }

func (JoinRoom) inbound()           {}
func (SendUpdatedState) inbound()   {}
func (GameOver) inbound()           {}
func (Message) inbound()            {}
func (ConfirmOnlineState) inbound() {}
func (Disconnect) inbound()         {}

// Envelope is the frame every event travels in.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// DecodeInbound parses a client frame into its event type.
func DecodeInbound(frame []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w: %v", ErrMalformed, err)
	}

	switch env.Event {
	case EventJoinRoom:
		return decodeJoinRoom(env.Data), nil
	case EventSendUpdatedState:
		return decodeAs[SendUpdatedState](env)
	case EventConfirmOnlineState:
		return decodeAs[ConfirmOnlineState](env)
	case EventGameOver:
		// Browser clients emit the bare room id.
		var ev GameOver
		if decodeString(env.Data, &ev.RoomID) {
			return ev, nil
		}
		return decodeAs[GameOver](env)
	case EventMessage:
		var ev Message
		if decodeString(env.Data, &ev.Text) {
			return ev, nil
		}
		return decodeAs[Message](env)
	case EventDisconnect:
		return nil, fmt.Errorf("%q is reserved for the transport: %w", env.Event, ErrUnknownEvent)
	default:
		return nil, fmt.Errorf("%q: %w", env.Event, ErrUnknownEvent)
	}
}

// decodeJoinRoom never fails: a missing or non-string room id decodes as the empty id, which
// the router answers with an invalid-room error instead of dropping the frame.
func decodeJoinRoom(data json.RawMessage) JoinRoom {
	var fields struct {
		RoomID   json.RawMessage `json:"room_id"`
		StoredID json.RawMessage `json:"storedId"`
	}
	if len(data) == 0 || json.Unmarshal(data, &fields) != nil {
		return JoinRoom{}
	}
	var ev JoinRoom
	decodeString(fields.RoomID, &ev.RoomID)
	if !decodeString(fields.StoredID, &ev.StoredID) && len(fields.StoredID) > 0 && string(fields.StoredID) != "null" {
		ev.StoredID = string(fields.StoredID)
	}
	return ev
}

func decodeAs[T Inbound](env Envelope) (Inbound, error) {
	var ev T
	if err := decodeData(env, &ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodeData(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("decode %s: %w: missing data", env.Event, ErrMalformed)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w: %v", env.Event, ErrMalformed, err)
	}
	return nil
}

func decodeString(data json.RawMessage, dst *string) bool {
	if len(data) == 0 || data[0] != '"' {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}
