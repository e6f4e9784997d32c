package projection

import "sync"

// =============================================================================
// SNAPSHOT - Full copy of editable state
// =============================================================================

// Snapshot is a full copy of configuration + both override maps.
// History stores snapshots, not diffs.
type Snapshot struct {
	Configuration Configuration
	Overrides     Overrides
}

// Clone returns a snapshot sharing no maps or pointers with s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Configuration: s.Configuration.Clone(), Overrides: s.Overrides.Clone()}
}

// =============================================================================
// HISTORY - Linear undo/redo
// =============================================================================

// History is a linear undo/redo stack around a current snapshot.
//
//	Push(s): past += current; future = {}; current = s
//	Undo():  future += current; current = pop(past)
//	Redo():  past += current; current = pop(future)
//
// A Push after an Undo discards the redo branch. past is bounded by
// capacity (oldest evicted); future can never outgrow what past held.
type History struct {
	mu       sync.Mutex
	capacity int
	past     []Snapshot
	future   []Snapshot
	current  Snapshot
}

// NewHistory starts a history at initial. Non-positive capacity falls back
// to DefaultHistoryCapacity.
func NewHistory(initial Snapshot, capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity, current: initial.Clone()}
}

// Current returns a copy of the current snapshot.
func (h *History) Current() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Clone()
}

// Push records s as the new current snapshot.
func (h *History) Push(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.past = append(h.past, h.current)
	if len(h.past) > h.capacity {
		h.past = h.past[len(h.past)-h.capacity:]
	}
	h.future = nil
	h.current = s.Clone()
}

// Undo steps back one snapshot and returns it. No-op when nothing to undo.
func (h *History) Undo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.past) == 0 {
		return Snapshot{}, false
	}
	h.future = append(h.future, h.current)
	h.current = h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return h.current.Clone(), true
}

// Redo steps forward one snapshot and returns it. No-op when nothing to redo.
func (h *History) Redo() (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.future) == 0 {
		return Snapshot{}, false
	}
	h.past = append(h.past, h.current)
	h.current = h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	return h.current.Clone(), true
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past) > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.future) > 0
}

// Depth returns the number of undo and redo steps available.
func (h *History) Depth() (undo, redo int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.past), len(h.future)
}

// Reset drops both stacks and makes s current. Used on save and load.
func (h *History) Reset(s Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.past = nil
	h.future = nil
	h.current = s.Clone()
}
