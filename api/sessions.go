/*
sessions.go - Registry of open editing sessions

PURPOSE:
  Each browser tab editing a plan gets its own projection.Session (its own
  undo history). The registry maps session IDs to them and expires the
  ones nobody has touched for TTL.

LIFECYCLE:
  Open  -> new uuid, ActiveSessions gauge +1
  Get   -> refreshes last-used time
  Close -> removed immediately
  Sweep -> removes every session idle for longer than TTL (run by
           ReminderScheduler on each tick)

All sessions share one projection.Cache: ledgers are keyed by content, so
two tabs looking at the same plan reuse each other's work.

SEE ALSO:
  - projection/session.go: The per-session state owner
  - session_handlers.go: HTTP handlers over the registry
*/
package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wheelplan/projection-engine/metrics"
	"github.com/wheelplan/projection-engine/projection"
)

// OpenSession is a projection.Session plus the plan it was opened from.
type OpenSession struct {
	*projection.Session
	ID string

	mu       sync.Mutex
	planID   string
	name     string
	lastUsed time.Time
}

// Plan returns the saved plan this session maps to ("" if never saved).
func (s *OpenSession) Plan() (id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planID, s.name
}

// SetPlan records the plan the session was saved as.
func (s *OpenSession) SetPlan(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planID = id
	s.name = name
}

func (s *OpenSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *OpenSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionRegistry holds open sessions keyed by ID.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*OpenSession

	ttl     time.Duration
	history int
	cache   *projection.Cache

	// Now is the clock, replaceable in tests.
	Now func() time.Time
}

// NewSessionRegistry creates a registry whose sessions share cache and keep
// historyCapacity undo steps each.
func NewSessionRegistry(ttl time.Duration, historyCapacity int, cache *projection.Cache) *SessionRegistry {
	if cache == nil {
		cache = projection.NewCache(0)
	}
	return &SessionRegistry{
		sessions: make(map[string]*OpenSession),
		ttl:      ttl,
		history:  historyCapacity,
		cache:    cache,
		Now:      time.Now,
	}
}

// Open starts a session at snap.
func (r *SessionRegistry) Open(planID, name string, snap projection.Snapshot) *OpenSession {
	s := &OpenSession{
		Session: projection.NewSession(snap, projection.SessionOptions{
			HistoryCapacity: r.history,
			Cache:           r.cache,
		}),
		ID:       uuid.NewString(),
		planID:   planID,
		name:     name,
		lastUsed: r.Now(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	metrics.ActiveSessions.Set(float64(n))
	return s
}

// Get returns the session and refreshes its idle timer.
func (r *SessionRegistry) Get(id string) (*OpenSession, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if !ok {
		return nil, projection.ErrSessionNotFound
	}
	s.touch(r.Now())
	return s, nil
}

// Close removes the session.
func (r *SessionRegistry) Close(id string) (*OpenSession, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return nil, projection.ErrSessionNotFound
	}
	metrics.ActiveSessions.Set(float64(n))
	return s, nil
}

// Sweep removes sessions idle for longer than the TTL and returns them.
func (r *SessionRegistry) Sweep() []*OpenSession {
	if r.ttl <= 0 {
		return nil
	}
	cutoff := r.Now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*OpenSession
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if len(expired) > 0 {
		metrics.ActiveSessions.Set(float64(n))
	}
	return expired
}

// Len returns the number of open sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Cache is the ledger cache shared by every session.
func (r *SessionRegistry) Cache() *projection.Cache { return r.cache }
