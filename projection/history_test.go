package projection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelplan/projection-engine/projection"
)

func snapWithCapital(capital string) projection.Snapshot {
	cfg := baseConfig()
	cfg.InitialCapital = dec(capital)
	return projection.Snapshot{Configuration: cfg}
}

func capitalOf(s projection.Snapshot) string { return s.Configuration.InitialCapital.String() }

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	h := projection.NewHistory(snapWithCapital("1"), 10)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	h.Push(snapWithCapital("2"))
	require.True(t, h.CanUndo())

	prev, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "1", capitalOf(prev))
	assert.True(t, h.CanRedo())

	next, ok := h.Redo()
	require.True(t, ok)
	assert.Equal(t, "2", capitalOf(next))
	assert.Equal(t, "2", capitalOf(h.Current()))
	assert.False(t, h.CanRedo())
}

func TestHistory_PushAfterUndoDiscardsFuture(t *testing.T) {
	h := projection.NewHistory(snapWithCapital("1"), 10)
	h.Push(snapWithCapital("2"))
	h.Undo()

	h.Push(snapWithCapital("3"))
	assert.False(t, h.CanRedo())
	_, ok := h.Redo()
	assert.False(t, ok)

	prev, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "1", capitalOf(prev), "B was never reachable again")
}

func TestHistory_EmptyStacksAreNoOps(t *testing.T) {
	h := projection.NewHistory(snapWithCapital("1"), 10)

	_, ok := h.Undo()
	assert.False(t, ok)
	_, ok = h.Redo()
	assert.False(t, ok)
	assert.Equal(t, "1", capitalOf(h.Current()))
}

func TestHistory_CapacityEvictsOldest(t *testing.T) {
	h := projection.NewHistory(snapWithCapital("1"), 2)
	h.Push(snapWithCapital("2"))
	h.Push(snapWithCapital("3"))
	h.Push(snapWithCapital("4"))

	undo, redo := h.Depth()
	assert.Equal(t, 2, undo)
	assert.Equal(t, 0, redo)

	s, _ := h.Undo()
	assert.Equal(t, "3", capitalOf(s))
	s, _ = h.Undo()
	assert.Equal(t, "2", capitalOf(s))
	_, ok := h.Undo()
	assert.False(t, ok, "snapshot 1 was evicted")

	// Redo can still walk all the way forward.
	h.Redo()
	s, _ = h.Redo()
	assert.Equal(t, "4", capitalOf(s))
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	snap := snapWithCapital("1")
	snap.Overrides.Returns = projection.DayOverrides{1: dec("2")}

	h := projection.NewHistory(snap, 10)
	snap.Overrides.Returns[1] = dec("99")
	snap.Configuration.ContributionPlan.Amount = dec("99")

	cur := h.Current()
	assert.Equal(t, "2", cur.Overrides.Returns[1].String())
	assert.Equal(t, "100", cur.Configuration.ContributionPlan.Amount.String())

	cur.Overrides.Returns[1] = dec("7")
	assert.Equal(t, "2", h.Current().Overrides.Returns[1].String())
}

func TestHistory_Reset(t *testing.T) {
	h := projection.NewHistory(snapWithCapital("1"), 10)
	h.Push(snapWithCapital("2"))
	h.Push(snapWithCapital("3"))
	h.Undo()

	h.Reset(snapWithCapital("9"))
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.Equal(t, "9", capitalOf(h.Current()))
}
