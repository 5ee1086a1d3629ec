package session

import (
	"context"
	"time"

	"github.com/faaizHadaina/jobi-socket/internal/cache"
	"github.com/faaizHadaina/jobi-socket/internal/game"
	"github.com/faaizHadaina/jobi-socket/internal/models"
	"github.com/faaizHadaina/jobi-socket/internal/protocol"
	"github.com/faaizHadaina/jobi-socket/internal/room"
	"github.com/sirupsen/logrus"
)

// Session event types written to the event log.
const (
	RecordRoomCreated        = "room_created"
	RecordPlayerJoined       = "player_joined"
	RecordPlayerRejoined     = "player_rejoined"
	RecordJoinRejected       = "join_rejected"
	RecordStateUpdated       = "state_updated"
	RecordGameOver           = "game_over"
	RecordPlayerDisconnected = "player_disconnected"
)

const recordTimeout = 2 * time.Second

// Router is the entry point for every inbound event. It is the only writer of the room
// registry, and it handles each event for a room under that room's lock, so events for
// one room are applied one at a time in arrival order while other rooms proceed freely.
type Router struct {
	rooms     *room.Registry
	transport Transport
	presence  *Presence
	recorder  Recorder
	logger    *logrus.Logger
}

// NewRouter wires a router. recorder may be nil.
func NewRouter(rooms *room.Registry, transport Transport, recorder Recorder, logger *logrus.Logger) *Router {
	return &Router{
		rooms:     rooms,
		transport: transport,
		presence:  NewPresence(transport),
		recorder:  recorder,
		logger:    logger,
	}
}

// Handle processes one event from connID to completion.
func (r *Router) Handle(connID string, ev protocol.Inbound) {
	switch ev := ev.(type) {
	case protocol.JoinRoom:
		r.joinRoom(connID, ev)
	case protocol.SendUpdatedState:
		r.updateState(connID, ev)
	case protocol.GameOver:
		r.gameOver(connID, ev)
	case protocol.Message:
		r.transport.Send(connID, protocol.Notice{Text: ev.Text})
	case protocol.ConfirmOnlineState:
		r.confirmOnline(connID, ev)
	case protocol.Disconnect:
		r.disconnect(connID)
	default:
		r.logger.Warnf("Router: unhandled event %T from %s", ev, connID)
	}
}

func (r *Router) joinRoom(connID string, ev protocol.JoinRoom) {
	log := r.logger.WithFields(logrus.Fields{"room_id": ev.RoomID, "conn_id": connID})

	if !models.ValidRoomID(ev.RoomID) {
		log.Info("Rejected join with invalid room id")
		r.transport.Send(connID, protocol.Error{Message: protocol.ErrTextInvalidRoom})
		return
	}

	unlock := r.rooms.Lock(ev.RoomID)
	defer unlock()

	existing, _ := r.rooms.Find(ev.RoomID)
	res := room.Resolve(existing, ev.StoredID)
	log = log.WithFields(logrus.Fields{"outcome": res.Outcome.String(), "slot": res.Slot})
	if res.Previous.Connected() {
		log = log.WithField("replaced_conn", res.Previous.ConnectionID)
	}

	var (
		rm  models.Room
		err error
	)
	switch res.Outcome {
	case room.OutcomeCreate:
		rm, err = r.rooms.Create(ev.RoomID, ev.StoredID, connID)
	case room.OutcomeRejoin, room.OutcomeSecondPlayer:
		rm, err = r.rooms.ReplacePlayer(ev.RoomID, res.Slot, ev.StoredID, connID)
	case room.OutcomeRejected:
		log.Info("Rejected join: room is full")
		r.transport.Send(connID, protocol.Error{Message: protocol.ErrTextRoomFull})
		r.record(cache.SessionEventRecord{RoomID: ev.RoomID, EventType: RecordJoinRejected, ConnectionID: connID, StoredID: ev.StoredID})
		return
	}
	if err != nil {
		// Unreachable while the room lock is held; treated like any missing room.
		log.Warnf("Join could not be applied: %v", err)
		return
	}

	r.transport.Subscribe(connID, ev.RoomID)
	r.transport.Send(connID, protocol.Dispatch{
		Type:    protocol.DispatchInitializeDeck,
		Payload: game.ViewFor(rm, res.Slot),
	})

	rec := cache.SessionEventRecord{RoomID: ev.RoomID, ConnectionID: connID, StoredID: ev.StoredID, Slot: string(res.Slot)}
	switch res.Outcome {
	case room.OutcomeCreate:
		rec.EventType = RecordRoomCreated
	case room.OutcomeSecondPlayer:
		rec.EventType = RecordPlayerJoined
		r.transport.Broadcast(ev.RoomID, connID, protocol.ConfirmOnlineRequest{})
		r.presence.Announce(rm, res.Slot, true)
	case room.OutcomeRejoin:
		rec.EventType = RecordPlayerRejoined
		if rm.Full() {
			r.presence.Announce(rm, res.Slot, true)
			r.transport.Broadcast(ev.RoomID, connID, protocol.ConfirmOnlineRequest{})
		}
	}
	log.Info("Player joined room")
	r.record(rec)
}

func (r *Router) updateState(connID string, ev protocol.SendUpdatedState) {
	log := r.logger.WithFields(logrus.Fields{"room_id": ev.RoomID, "conn_id": connID})

	unlock := r.rooms.Lock(ev.RoomID)
	defer unlock()

	if _, ok := r.rooms.Find(ev.RoomID); !ok {
		log.Warn("Dropped state update for unknown room")
		return
	}

	canonical, err := game.AbsorbUpdate(ev.State)
	if err != nil {
		log.Warnf("Dropped state update: %v", err)
		return
	}

	rm, err := r.rooms.SetCanonicalState(ev.RoomID, canonical)
	if err != nil {
		log.Warnf("Dropped state update: %v", err)
		return
	}

	r.transport.Broadcast(ev.RoomID, connID, protocol.Dispatch{
		Type:    protocol.DispatchUpdateState,
		Payload: game.PlayerViews(rm.CanonicalState),
	})
	log.Debug("Canonical state updated")

	r.record(cache.SessionEventRecord{
		RoomID:       ev.RoomID,
		EventType:    RecordStateUpdated,
		ConnectionID: connID,
		Slot:         string(ev.State.Player),
		Payload: map[string]interface{}{
			"whoIsToPlay": string(rm.CanonicalState.WhoIsToPlay),
			"cards":       rm.CanonicalState.CardCount(),
		},
	})
}

func (r *Router) gameOver(connID string, ev protocol.GameOver) {
	unlock := r.rooms.Lock(ev.RoomID)
	defer unlock()

	if !r.rooms.Remove(ev.RoomID) {
		return
	}
	r.transport.Release(ev.RoomID)
	r.logger.WithFields(logrus.Fields{"room_id": ev.RoomID, "conn_id": connID}).Info("Game over, room removed")
	r.record(cache.SessionEventRecord{RoomID: ev.RoomID, EventType: RecordGameOver, ConnectionID: connID})
}

func (r *Router) confirmOnline(connID string, ev protocol.ConfirmOnlineState) {
	unlock := r.rooms.Lock(ev.RoomID)
	defer unlock()

	rm, ok := r.rooms.Find(ev.RoomID)
	if !ok {
		return
	}
	p, ok := rm.PlayerByStoredID(ev.StoredID)
	if !ok {
		return
	}
	r.presence.Announce(rm, p.Slot, true)
}

func (r *Router) disconnect(connID string) {
	for _, roomID := range r.rooms.RoomIDsForConnection(connID) {
		r.detach(roomID, connID)
	}
}

func (r *Router) detach(roomID, connID string) {
	unlock := r.rooms.Lock(roomID)
	defer unlock()

	// Re-read under the lock: the slot may have been taken over by a newer connection.
	rm, ok := r.rooms.Find(roomID)
	if !ok {
		return
	}

	// A single connection can hold both slots of a room; every one of them goes offline.
	var dropped []models.PlayerSlot
	for _, p := range rm.Players {
		if p.ConnectionID != connID {
			continue
		}
		next, err := r.rooms.ReplacePlayer(roomID, p.Slot, p.StoredID, "")
		if err != nil {
			continue
		}
		rm = next
		dropped = append(dropped, p)
	}

	for _, p := range dropped {
		notified := r.presence.Announce(rm, p.Slot, false)

		r.logger.WithFields(logrus.Fields{
			"room_id":  roomID,
			"conn_id":  connID,
			"slot":     p.Slot,
			"notified": notified,
		}).Info("Player disconnected")
		r.record(cache.SessionEventRecord{RoomID: roomID, EventType: RecordPlayerDisconnected, ConnectionID: connID, StoredID: p.StoredID, Slot: string(p.Slot)})
	}
}

// record publishes rec without holding up the event; failures are only logged.
func (r *Router) record(rec cache.SessionEventRecord) {
	if r.recorder == nil {
		return
	}
	stamped := cache.NewSessionEventRecord(rec.RoomID, rec.EventType)
	rec.ID, rec.Timestamp = stamped.ID, stamped.Timestamp

	go func(rec cache.SessionEventRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := r.recorder.Record(ctx, rec); err != nil {
			r.logger.Warnf("Error publishing session event %s for room %s: %v", rec.EventType, rec.RoomID, err)
		}
	}(rec)
}
