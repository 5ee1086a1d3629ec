package room

import (
	"sync"
	"time"

	"github.com/faaizHadaina/jobi-socket/internal/models"
)

type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ Clock = (*mockClock)(nil)

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// countingState deals distinguishable games so tests can tell a fresh deal from an old one.
type countingState struct {
	mu    sync.Mutex
	deals int
}

func (c *countingState) deal() models.GameState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deals++
	active := models.NewCard(models.ShapeCircle, c.deals)
	return models.GameState{
		Deck:        []models.Card{},
		UserCards:   []models.Card{models.NewCard(models.ShapeStar, 1)},
		ActiveCard:  &active,
		WhoIsToPlay: models.TurnUser,
		Player:      models.SlotOne,
	}
}

func newTestRegistry() (*Registry, *mockClock, *countingState) {
	clock := newMockClock()
	states := &countingState{}
	return NewRegistry(states.deal, clock), clock, states
}
