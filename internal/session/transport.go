package session

import (
	"context"

	"github.com/faaizHadaina/jobi-socket/internal/cache"
	"github.com/faaizHadaina/jobi-socket/internal/protocol"
)

// Transport delivers events to live connections. Implementations must not block: the
// router calls it while holding a room lock.
type Transport interface {
	// Send delivers ev to one connection. Unknown connections are ignored.
	Send(connID string, ev protocol.Outbound)
	// Broadcast delivers ev to every connection subscribed to roomID except exceptConnID.
	Broadcast(roomID, exceptConnID string, ev protocol.Outbound)
	// Subscribe adds connID to roomID's broadcast group.
	Subscribe(connID, roomID string)
	// Release drops roomID's broadcast group.
	Release(roomID string)
}

// Recorder receives a record of every accepted session event.
type Recorder interface {
	Record(ctx context.Context, rec cache.SessionEventRecord) error
}
