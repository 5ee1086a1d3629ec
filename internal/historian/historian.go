// Package historian drains the session event queue that the game server fills and
// archives the records in batches.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/faaizHadaina/jobi-socket/internal/cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Record types with a lifecycle meaning for the historian.
const (
	eventRoomCreated = "room_created"
	eventGameOver    = "game_over"
)

// Sink persists archived records. *database.SessionEventStore is the production sink.
type Sink interface {
	SaveSessionEvents(ctx context.Context, recs []cache.SessionEventRecord) error
	MarkAbandoned(ctx context.Context, roomID string) error
}

type Options struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity of zero never marks rooms abandoned.
	Inactivity time.Duration
	// PopTimeout bounds each BLPop so shutdown is noticed. Redis works in whole seconds.
	PopTimeout time.Duration
}

// Service pops records with BLPop, buffers them and flushes a batch when it is full or
// when FlushDelay passes. All state is owned by the Run goroutine.
type Service struct {
	client *redis.Client
	sink   Sink
	opts   Options
	logger *logrus.Logger
	now    func() time.Time

	batch        []cache.SessionEventRecord
	lastActivity map[string]time.Time
}

func NewService(client *redis.Client, sink Sink, opts Options, logger *logrus.Logger) *Service {
	if opts.Queue == "" {
		opts.Queue = cache.DefaultQueueName
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.PopTimeout < time.Second {
		opts.PopTimeout = time.Second
	}
	return &Service{
		client:       client,
		sink:         sink,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
		batch:        make([]cache.SessionEventRecord, 0, opts.BatchSize),
		lastActivity: make(map[string]time.Time),
	}
}

// Run blocks until ctx is cancelled, then flushes what it still holds.
func (s *Service) Run(ctx context.Context) {
	s.logger.Infof("Historian started on queue %s", s.opts.Queue)

	flush := time.NewTicker(s.opts.FlushDelay)
	defer flush.Stop()

	var sweep <-chan time.Time
	if s.opts.Inactivity > 0 {
		t := time.NewTicker(s.opts.Inactivity / 2)
		defer t.Stop()
		sweep = t.C
	}

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := s.Flush(shutdownCtx); err != nil {
				s.logger.Errorf("Historian: final flush failed: %v", err)
			}
			cancel()
			s.logger.Info("Historian shutting down")
			return
		case <-flush.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Errorf("Historian: flush failed: %v", err)
			}
		case <-sweep:
			s.SweepInactive(ctx)
		default:
			if _, err := s.PollOnce(ctx); err != nil && ctx.Err() == nil {
				s.logger.Errorf("Historian: %v", err)
			}
		}
	}
}

// PollOnce waits up to PopTimeout for one record and buffers it, flushing when the
// batch is full. It reports whether a record was read. Undecodable records are dropped.
func (s *Service) PollOnce(ctx context.Context) (bool, error) {
	res, err := s.client.BLPop(ctx, s.opts.PopTimeout, s.opts.Queue).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("BLPop: %w", err)
	}
	if len(res) < 2 {
		return false, nil
	}

	// res[0] is the queue name and res[1] the payload.
	var rec cache.SessionEventRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		s.logger.Warnf("Historian: invalid session event record: %v", err)
		return true, nil
	}
	s.track(rec)

	s.batch = append(s.batch, rec)
	if len(s.batch) >= s.opts.BatchSize {
		return true, s.Flush(ctx)
	}
	return true, nil
}

// Flush writes the buffered batch. On failure the batch is kept for the next attempt.
func (s *Service) Flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	if err := s.sink.SaveSessionEvents(ctx, s.batch); err != nil {
		return fmt.Errorf("save %d session events: %w", len(s.batch), err)
	}
	s.logger.Debugf("Historian: flushed %d session events", len(s.batch))
	s.batch = make([]cache.SessionEventRecord, 0, s.opts.BatchSize)
	return nil
}

// Pending is the number of buffered, unflushed records.
func (s *Service) Pending() int {
	return len(s.batch)
}

// SweepInactive marks rooms that have been silent longer than Inactivity as abandoned.
func (s *Service) SweepInactive(ctx context.Context) []string {
	if s.opts.Inactivity <= 0 {
		return nil
	}
	// Buffered events must land before their session is closed.
	if err := s.Flush(ctx); err != nil {
		s.logger.Errorf("Historian: flush before sweep failed: %v", err)
		return nil
	}

	cutoff := s.now().Add(-s.opts.Inactivity)
	var abandoned []string
	for roomID, last := range s.lastActivity {
		if !last.Before(cutoff) {
			continue
		}
		if err := s.sink.MarkAbandoned(ctx, roomID); err != nil {
			s.logger.Errorf("Historian: failed to mark room %s abandoned: %v", roomID, err)
			continue
		}
		delete(s.lastActivity, roomID)
		abandoned = append(abandoned, roomID)
		s.logger.Infof("Historian: marked room %s abandoned after inactivity", roomID)
	}
	return abandoned
}

func (s *Service) track(rec cache.SessionEventRecord) {
	switch rec.EventType {
	case eventGameOver:
		delete(s.lastActivity, rec.RoomID)
	default:
		s.lastActivity[rec.RoomID] = s.now()
	}
}
