// Package protocol defines the closed set of events exchanged with browser clients.
//
// Every frame on the wire is a JSON envelope:
//
//	{"event": "join_room", "data": {"room_id": "AB12", "storedId": "..."}}
package protocol

// Inbound event names.
const (
	EventJoinRoom           = "join_room"
	EventSendUpdatedState   = "sendUpdatedState"
	EventGameOver           = "game_over"
	EventMessage            = "message"
	EventConfirmOnlineState = "confirmOnlineState"
	EventDisconnect         = "disconnect"
)

// Outbound event names. message and confirmOnlineState travel in both directions.
const (
	EventDispatch                   = "dispatch"
	EventOpponentOnlineStateChanged = "opponentOnlineStateChanged"
	EventError                      = "error"
)

// DispatchType selects the client reducer action carried by a dispatch event.
type DispatchType string

const (
	DispatchInitializeDeck DispatchType = "INITIALIZE_DECK"
	DispatchUpdateState    DispatchType = "UPDATE_STATE"
)

// Error texts shown to players. These are the only failures a client ever sees.
const (
	ErrTextInvalidRoom = "Sorry! Seems like this game link is invalid. Just go back and start your own game 🙏🏾."
	ErrTextRoomFull    = "Sorry! There are already two players on this game, just go back and start your own game 🙏🏾."
)

// GreetingText is sent to every connection right after it is accepted.
const GreetingText = "Connected to the WebSocket server"
