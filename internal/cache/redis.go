package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list (queue) name for session event records.
const DefaultQueueName = "jobi_session_events"

// SessionEventRecord is one accepted session event, as consumed by the historian.
type SessionEventRecord struct {
	ID           uuid.UUID              `json:"id"`
	RoomID       string                 `json:"room_id"`
	EventType    string                 `json:"event_type"`
	ConnectionID string                 `json:"connection_id,omitempty"`
	StoredID     string                 `json:"stored_id,omitempty"`
	Slot         string                 `json:"slot,omitempty"`
	Payload      map[string]interface{} `json:"payload,omitempty"`
	Timestamp    int64                  `json:"timestamp"`
}

// NewSessionEventRecord stamps a record with a fresh id and the current time.
func NewSessionEventRecord(roomID, eventType string) SessionEventRecord {
	return SessionEventRecord{
		ID:        uuid.New(),
		RoomID:    roomID,
		EventType: eventType,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Publisher pushes session event records onto a Redis list.
type Publisher struct {
	client *redis.Client
	queue  string
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func NewPublisher(client *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{client: client, queue: queue}
}

// Record serializes rec to JSON and pushes it to the queue.
func (p *Publisher) Record(ctx context.Context, rec SessionEventRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal SessionEventRecord: %w", err)
	}
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

func (p *Publisher) Queue() string {
	return p.queue
}
