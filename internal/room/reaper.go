package room

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Reaper removes rooms that nobody has touched for a while. Without it a room whose
// players just close their browsers lives until the process exits.
type Reaper struct {
	registry  *Registry
	idle      time.Duration
	interval  time.Duration
	clock     Clock
	logger    *logrus.Logger
	onRemoved func(roomID string)
}

// NewReaper returns a reaper for registry. An idle timeout of zero disables reaping.
// onRemoved, when set, is called for every room removed while that room is still locked.
func NewReaper(registry *Registry, idle, interval time.Duration, clock Clock, logger *logrus.Logger, onRemoved func(roomID string)) *Reaper {
	if clock == nil {
		clock = NewClock()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{
		registry:  registry,
		idle:      idle,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		onRemoved: onRemoved,
	}
}

// Enabled reports whether rooms are ever expired.
func (rp *Reaper) Enabled() bool {
	return rp.idle > 0
}

// Run sweeps on every tick until ctx is done.
func (rp *Reaper) Run(ctx context.Context) {
	if !rp.Enabled() {
		rp.logger.Info("Idle room reaper disabled; rooms live until game_over.")
		return
	}
	ticker := time.NewTicker(rp.interval)
	defer ticker.Stop()

	rp.logger.WithFields(logrus.Fields{
		"idle_timeout": rp.idle,
		"interval":     rp.interval,
	}).Info("Idle room reaper started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rp.Sweep()
		}
	}
}

// Sweep removes idle rooms once and returns their ids.
func (rp *Reaper) Sweep() []string {
	if !rp.Enabled() {
		return nil
	}
	return rp.registry.RemoveIdle(rp.clock.Now().Add(-rp.idle), func(id string) {
		rp.logger.WithField("room_id", id).Info("Removed idle room")
		if rp.onRemoved != nil {
			rp.onRemoved(id)
		}
	})
}
