package session

import (
	"context"
	"sync"

	"github.com/faaizHadaina/jobi-socket/internal/cache"
	"github.com/faaizHadaina/jobi-socket/internal/protocol"
)

// mockTransport delivers events into per-connection inboxes instead of sockets.
type mockTransport struct {
	mu       sync.Mutex
	inbox    map[string][]protocol.Outbound
	groups   map[string]map[string]bool
	released []string
}

var _ Transport = (*mockTransport)(nil)

func newMockTransport() *mockTransport {
	return &mockTransport{
		inbox:  make(map[string][]protocol.Outbound),
		groups: make(map[string]map[string]bool),
	}
}

func (mt *mockTransport) Send(connID string, ev protocol.Outbound) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.inbox[connID] = append(mt.inbox[connID], ev)
}

func (mt *mockTransport) Broadcast(roomID, exceptConnID string, ev protocol.Outbound) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	for connID := range mt.groups[roomID] {
		if connID == exceptConnID {
			continue
		}
		mt.inbox[connID] = append(mt.inbox[connID], ev)
	}
}

func (mt *mockTransport) Subscribe(connID, roomID string) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.groups[roomID] == nil {
		mt.groups[roomID] = make(map[string]bool)
	}
	mt.groups[roomID][connID] = true
}

func (mt *mockTransport) Release(roomID string) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	delete(mt.groups, roomID)
	mt.released = append(mt.released, roomID)
}

// drain returns and clears everything delivered to connID.
func (mt *mockTransport) drain(connID string) []protocol.Outbound {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	evs := mt.inbox[connID]
	delete(mt.inbox, connID)
	return evs
}

func (mt *mockTransport) clear() {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.inbox = make(map[string][]protocol.Outbound)
}

func (mt *mockTransport) members(roomID string) []string {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	var out []string
	for connID := range mt.groups[roomID] {
		out = append(out, connID)
	}
	return out
}

type mockRecorder struct {
	mu      sync.Mutex
	records []cache.SessionEventRecord
}

func (mr *mockRecorder) Record(_ context.Context, rec cache.SessionEventRecord) error {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.records = append(mr.records, rec)
	return nil
}

func (mr *mockRecorder) types() []string {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	out := make([]string, 0, len(mr.records))
	for _, rec := range mr.records {
		out = append(out, rec.EventType)
	}
	return out
}
