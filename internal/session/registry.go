package session

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// ErrDuplicateSession indicates a Create with an id already live in the
// Registry. With uuid-derived ids this is an internal invariant
// violation, not an expected runtime condition.
var ErrDuplicateSession = errors.New("session id already registered")

// Registry is the thread-safe table of live sessions. It is the only
// shared mutable state in the relay: the dispatcher, scheduler, reaper
// and gateway all operate against it concurrently.
//
// Lock hold time is O(1) per operation; nothing network-facing runs
// under the lock.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session

	created int64
	removed int64
}

// RegistryStats contains lifetime counters and the current size.
type RegistryStats struct {
	Live    int
	Created int64
	Removed int64
}

// NewRegistry creates an empty Registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session. The initial subscription set may be
// empty. Fails with ErrDuplicateSession if id is already live.
func (r *Registry) Create(id, userID string, transport Transport, initialSymbols []string) (*Session, error) {
	now := time.Now()

	sess := &Session{
		ID:            id,
		UserID:        userID,
		ConnectedAt:   now,
		Transport:     transport,
		subscriptions: make(map[string]struct{}, len(initialSymbols)),
	}
	for _, sym := range initialSymbols {
		sess.subscriptions[sym] = struct{}{}
	}
	sess.touch(now)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, ErrDuplicateSession
	}
	r.sessions[id] = sess
	r.created++

	return sess, nil
}

// Remove deletes a session and returns it so the caller can finish
// cleanup (cancel its scheduler task, close its transport) exactly
// once. Removing an absent id is a no-op returning false, which is what
// makes the competing destruction paths mutually exclusive.
func (r *Registry) Remove(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	r.removed++

	return sess, true
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	return sess, ok
}

// Touch records a liveness signal for id. Unknown ids are ignored.
func (r *Registry) Touch(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return false
	}
	sess.touch(time.Now())
	return true
}

// AddSymbols adds symbols to a session's subscription set and returns
// the full resulting set, sorted. Adding a present symbol is a no-op.
// An unknown id returns ok=false; the session may have just
// disconnected and that is not the caller's error.
func (r *Registry) AddSymbols(id string, symbols []string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	for _, sym := range symbols {
		sess.subscriptions[sym] = struct{}{}
	}
	return symbolsLocked(sess), true
}

// RemoveSymbols removes symbols from a session's subscription set and
// returns the full resulting set, sorted. Removing an absent symbol is
// a no-op.
func (r *Registry) RemoveSymbols(id string, symbols []string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	for _, sym := range symbols {
		delete(sess.subscriptions, sym)
	}
	return symbolsLocked(sess), true
}

// Symbols returns a session's current subscription set, sorted.
func (r *Registry) Symbols(id string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	return symbolsLocked(sess), true
}

// Snapshot returns a point-in-time copy of the live session set.
// Mutations after Snapshot returns are not reflected in the slice, so
// callers can iterate (and remove entries) without corruption.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	return out
}

// ForEach runs fn for every snapshotted session matching filter. A nil
// filter matches all sessions. fn runs outside the registry lock.
func (r *Registry) ForEach(filter func(*Session) bool, fn func(*Session)) {
	for _, sess := range r.Snapshot() {
		if filter != nil && !filter(sess) {
			continue
		}
		fn(sess)
	}
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stats returns lifetime counters.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RegistryStats{
		Live:    len(r.sessions),
		Created: r.created,
		Removed: r.removed,
	}
}

// symbolsLocked copies a session's subscription set sorted (caller must
// hold the registry lock).
func symbolsLocked(sess *Session) []string {
	out := make([]string, 0, len(sess.subscriptions))
	for sym := range sess.subscriptions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
