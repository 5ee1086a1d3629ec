// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Subprotocol is the optional websocket subprotocol spoken on /ws. Clients that offer no
// subprotocol at all are accepted as well.
const Subprotocol = "whot"

// Custom WebSocket close codes used by the game handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client offered subprotocols but none of them is ours.
	SlowConsumerError   websocket.StatusCode = 3001 // Outbound queue overflowed; the client should reconnect and rejoin.
)
