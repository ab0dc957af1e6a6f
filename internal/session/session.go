package session

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Transport is the send-capable handle for one connected peer.
// Send may fail if the peer is gone; Close is idempotent.
type Transport interface {
	Send(data []byte) error
	Close() error
	Open() bool
}

// Session represents one connected client.
//
// ID, UserID, ConnectedAt and Transport are immutable for the session's
// lifetime. The subscription set is guarded by the owning Registry's
// lock and must only be touched through Registry methods. The liveness
// timestamp is atomic so the reaper can read it without the lock.
type Session struct {
	ID          string
	UserID      string
	ConnectedAt time.Time
	Transport   Transport

	// Guarded by Registry.mu.
	subscriptions map[string]struct{}

	// Unix nanoseconds of the most recent liveness signal.
	lastBeat atomic.Int64
}

// NewID derives a session id from the owning user id.
// The uuid term keeps ids collision-free across reconnects and the
// eviction boundary; timestamps alone are not unique enough.
func NewID(userID string) string {
	return userID + "-" + uuid.NewString()
}

// LastLiveness returns the timestamp of the most recent liveness signal.
func (s *Session) LastLiveness() time.Time {
	return time.Unix(0, s.lastBeat.Load())
}

// touch records a liveness signal at time now.
func (s *Session) touch(now time.Time) {
	s.lastBeat.Store(now.UnixNano())
}
