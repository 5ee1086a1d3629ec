package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/faaizHadaina/jobi-socket/internal/cache"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Room session statuses stored in room_sessions.status.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusAbandoned  = "abandoned"
)

// Schema creates the archive tables. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS room_sessions (
	id         BIGSERIAL PRIMARY KEY,
	room_id    TEXT NOT NULL,
	status     TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	end_time   TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS room_sessions_open_idx
	ON room_sessions (room_id) WHERE status = 'in_progress';

CREATE TABLE IF NOT EXISTS session_events (
	id            UUID PRIMARY KEY,
	room_id       TEXT NOT NULL,
	event_type    TEXT NOT NULL,
	connection_id TEXT,
	stored_id     TEXT,
	slot          TEXT,
	payload       JSONB,
	occurred_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS session_events_room_idx ON session_events (room_id, occurred_at);
`

const (
	openSessionQ = `
		INSERT INTO room_sessions (room_id, status, start_time)
		VALUES ($1, 'in_progress', $2)
		ON CONFLICT (room_id) WHERE status = 'in_progress' DO NOTHING
	`
	insertEventQ = `
		INSERT INTO session_events (
			id, room_id, event_type, connection_id, stored_id, slot, payload, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	closeSessionQ = `
		UPDATE room_sessions
		SET status = $2, end_time = NOW()
		WHERE room_id = $1 AND status = 'in_progress'
	`
)

// SessionEventStore archives session events and keeps one room_sessions row per game
// played in a room.
type SessionEventStore struct {
	pool *pgxpool.Pool
}

func NewSessionEventStore(pool *pgxpool.Pool) *SessionEventStore {
	return &SessionEventStore{pool: pool}
}

func (s *SessionEventStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveSessionEvents writes recs in one transaction. A game_over event completes the
// room's open session; re-delivered records are ignored.
func (s *SessionEventStore) SaveSessionEvents(ctx context.Context, recs []cache.SessionEventRecord) error {
	if len(recs) == 0 {
		return nil
	}
	batch, err := buildEventBatch(recs)
	if err != nil {
		return err
	}
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert session events: %w", err)
		}
		return nil
	})
}

// MarkAbandoned closes the room's open session, if any.
func (s *SessionEventStore) MarkAbandoned(ctx context.Context, roomID string) error {
	if _, err := s.pool.Exec(ctx, closeSessionQ, roomID, StatusAbandoned); err != nil {
		return fmt.Errorf("mark room %s abandoned: %w", roomID, err)
	}
	return nil
}

// buildEventBatch queues, per record, the session upsert, the event insert and, for
// game_over, the session close. Order within the batch follows recs.
func buildEventBatch(recs []cache.SessionEventRecord) (*pgx.Batch, error) {
	batch := &pgx.Batch{}
	for _, rec := range recs {
		at := time.UnixMilli(rec.Timestamp)

		var payload []byte
		if rec.Payload != nil {
			b, err := json.Marshal(rec.Payload)
			if err != nil {
				return nil, fmt.Errorf("marshal payload of event %s: %w", rec.ID, err)
			}
			payload = b
		}

		if rec.EventType != eventGameOver {
			batch.Queue(openSessionQ, rec.RoomID, at)
		}
		batch.Queue(insertEventQ, rec.ID, rec.RoomID, rec.EventType,
			nullable(rec.ConnectionID), nullable(rec.StoredID), nullable(rec.Slot), payload, at)
		if rec.EventType == eventGameOver {
			batch.Queue(closeSessionQ, rec.RoomID, StatusCompleted)
		}
	}
	return batch, nil
}

// eventGameOver matches the router's game over record type.
const eventGameOver = "game_over"

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
