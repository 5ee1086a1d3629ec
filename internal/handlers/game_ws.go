// internal/handlers/game_ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/faaizHadaina/jobi-socket/internal/middleware"
	"github.com/faaizHadaina/jobi-socket/internal/protocol"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

// EventHandler consumes decoded client events. *session.Router is the production handler.
type EventHandler interface {
	Handle(connID string, ev protocol.Inbound)
}

// GameWSHandler upgrades the HTTP connection to WebSocket, registers it with the hub under
// a fresh connection id, and feeds every decoded event to the handler. When the read loop
// ends the handler sees a Disconnect for the connection before it is unregistered.
func GameWSHandler(logger *logrus.Logger, hub *Hub, events EventHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: []string{"*"}, // The browser client is served from other origins.
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if r.Header.Get("Sec-WebSocket-Protocol") != "" && c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the "+Subprotocol+" subprotocol")
			return
		}

		connID := uuid.NewString()
		log := logger.WithField("conn_id", connID)
		middleware.LogWebSocketConnect(logger, connID, r.RemoteAddr)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := hub.Register(connID, func(code websocket.StatusCode, reason string) {
			// Close waits for the peer's close frame, so it must not run on the caller.
			go c.Close(code, reason)
		})
		go writePump(ctx, c, out, log)

		hub.Send(connID, protocol.Notice{Text: protocol.GreetingText})

		readErr := readPump(ctx, c, events, connID, log)

		events.Handle(connID, protocol.Disconnect{})
		hub.Unregister(connID)
		middleware.LogWebSocketDisconnect(logger, connID, r.RemoteAddr, readErr)
	}
}

// readPump blocks until the connection fails or closes. A normal closure returns nil.
func readPump(ctx context.Context, c *websocket.Conn, events EventHandler, connID string, log *logrus.Entry) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if typ != websocket.MessageText {
			log.Warnf("Received non-text message type %d. Ignoring.", typ)
			continue
		}

		ev, err := protocol.DecodeInbound(data)
		if err != nil {
			log.Warnf("Ignoring frame: %v", err)
			continue
		}
		log.Debugf("Received '%s'", ev.Name())
		events.Handle(connID, ev)
	}
}

// writePump drains the connection's queue until it is closed or ctx ends, pinging
// periodically so half-open connections are noticed.
func writePump(ctx context.Context, c *websocket.Conn, out <-chan []byte, log *logrus.Entry) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-out:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				log.Warnf("Failed to write to websocket: %v", err)
				// The read loop notices the broken connection and cleans up.
				_ = c.Close(websocket.StatusGoingAway, "write failed")
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("Failed to send ping: %v. Assuming disconnect.", err)
				_ = c.Close(websocket.StatusGoingAway, "ping failed")
				return
			}
		}
	}
}
