/*
session.go - One editing session over a plan

PURPOSE:
  Session is the explicit owner of the mutable state around the pure
  engine: the current snapshot, its undo/redo History and the memoization
  Cache. One Session per editing session, never a package-level global.

CONTROL FLOW:
  edit -> History.Push(new snapshot)
  Project():
    Validate + CheckOverrides  (invalid: error, no key)
    key := CacheKey(current)
    hit  -> cached ledger
    miss -> run -> Cache.Put

SINGLE WRITER:
  All methods take the session lock, so concurrent panels sharing one
  Session see edits applied one at a time.

SEE ALSO:
  - api/sessions.go: Registry of sessions keyed by ID
*/
package projection

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Projection is the result of Session.Project.
type Projection struct {
	Ledger Ledger
	Key    string
	Cached bool
}

// SessionOptions configures a Session. Zero values pick defaults.
type SessionOptions struct {
	CacheCapacity   int
	HistoryCapacity int

	// Cache lets several sessions share one cache. Optional.
	Cache *Cache
}

// Session owns the editable state of one plan.
type Session struct {
	mu      sync.Mutex
	cache   *Cache
	history *History
}

// NewSession starts a session at the given snapshot with empty history.
func NewSession(initial Snapshot, opts SessionOptions) *Session {
	cache := opts.Cache
	if cache == nil {
		cache = NewCache(opts.CacheCapacity)
	}
	return &Session{
		cache:   cache,
		history: NewHistory(initial, opts.HistoryCapacity),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Current()
}

// Validate validates the current configuration.
func (s *Session) Validate() ValidationResult {
	return Validate(s.Snapshot().Configuration)
}

// Project returns the ledger for the current state, from cache if possible.
// An invalid configuration returns *ValidationError and no ledger.
func (s *Session) Project() (Projection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.history.Current()
	if res := Validate(cur.Configuration); !res.IsValid {
		return Projection{}, res.Err()
	}
	if err := CheckOverrides(cur.Overrides); err != nil {
		return Projection{}, err
	}

	key := CacheKey(cur.Configuration, cur.Overrides)
	if l, ok := s.cache.Get(key); ok {
		return Projection{Ledger: l, Key: key, Cached: true}, nil
	}
	l := run(cur.Configuration, cur.Overrides)
	s.cache.Put(key, l)
	return Projection{Ledger: l, Key: key}, nil
}

// =============================================================================
// EDITS - Each one pushes a new snapshot
// =============================================================================

// SetConfiguration replaces the configuration. It is recorded even when
// invalid so the user can undo back out of it; Project reports the errors.
func (s *Session) SetConfiguration(cfg Configuration) {
	s.edit(func(snap *Snapshot) error {
		snap.Configuration = cfg.Clone()
		return nil
	})
}

// SetCustomReturn overrides the daily return percent for day.
func (s *Session) SetCustomReturn(day int, percent decimal.Decimal) error {
	return s.edit(func(snap *Snapshot) error {
		if err := checkDay(day, snap.Configuration); err != nil {
			return err
		}
		if err := CheckPrecision(percent); err != nil {
			return err
		}
		snap.Overrides.Returns.Set(day, percent)
		return nil
	})
}

// ClearCustomReturn removes the return override for day. Removing an
// absent override records nothing.
func (s *Session) ClearCustomReturn(day int) {
	s.edit(func(snap *Snapshot) error {
		if !snap.Overrides.Returns.Delete(day) {
			return errNoChange
		}
		return nil
	})
}

// SetCustomContribution overrides the contribution for day. Zero means
// "skip this day's contribution".
func (s *Session) SetCustomContribution(day int, amount decimal.Decimal) error {
	return s.edit(func(snap *Snapshot) error {
		if err := checkDay(day, snap.Configuration); err != nil {
			return err
		}
		if err := CheckPrecision(amount); err != nil {
			return err
		}
		if amount.IsNegative() {
			return ErrNegativeContribution
		}
		snap.Overrides.Contributions.Set(day, amount)
		return nil
	})
}

// ClearCustomContribution removes the contribution override for day.
func (s *Session) ClearCustomContribution(day int) {
	s.edit(func(snap *Snapshot) error {
		if !snap.Overrides.Contributions.Delete(day) {
			return errNoChange
		}
		return nil
	})
}

// ClearOverrides removes every override of both kinds.
func (s *Session) ClearOverrides() {
	s.edit(func(snap *Snapshot) error {
		if snap.Overrides.Returns.Len() == 0 && snap.Overrides.Contributions.Len() == 0 {
			return errNoChange
		}
		snap.Overrides = Overrides{}
		return nil
	})
}

// =============================================================================
// HISTORY
// =============================================================================

// Undo restores the previous snapshot.
func (s *Session) Undo() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.history.Undo()
	if !ok {
		return Snapshot{}, ErrNothingToUndo
	}
	return snap, nil
}

// Redo re-applies the last undone snapshot.
func (s *Session) Redo() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.history.Redo()
	if !ok {
		return Snapshot{}, ErrNothingToRedo
	}
	return snap, nil
}

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// HistoryDepth returns the available undo and redo steps.
func (s *Session) HistoryDepth() (undo, redo int) { return s.history.Depth() }

// MarkSaved clears history after the current state is persisted.
func (s *Session) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Reset(s.history.Current())
}

// Load replaces the state with snap (e.g. a freshly loaded plan) and
// clears history. The cache is kept: it is keyed by content.
func (s *Session) Load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Reset(snap)
}

// =============================================================================
// HELPERS
// =============================================================================

type sentinel string

func (e sentinel) Error() string { return string(e) }

// errNoChange aborts an edit without recording it or reporting failure.
const errNoChange = sentinel("no change")

func (s *Session) edit(fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.history.Current()
	if err := fn(&next); err != nil {
		if err == errNoChange {
			return nil
		}
		return err
	}
	s.history.Push(next)
	return nil
}

func checkDay(day int, cfg Configuration) error {
	if day < 1 || day > cfg.TimeHorizonDays {
		return &DayOutOfRangeError{Day: day, Horizon: cfg.TimeHorizonDays}
	}
	return nil
}
