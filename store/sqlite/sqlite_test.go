package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelplan/projection-engine/projection"
	"github.com/wheelplan/projection-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SavePlanVersioning(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN: A new plan
	// WHEN: Saved twice under the same ID
	// THEN: Version goes 1 -> 2, created_at is stable, payload is replaced

	first, err := s.SavePlan(ctx, projection.PlanRecord{
		ID: "p1", Name: "Wheel", Currency: projection.CurrencyUSDT, ConfigJSON: `{"a":1}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.False(t, first.CreatedAt.IsZero())

	second, err := s.SavePlan(ctx, projection.PlanRecord{
		ID: "p1", Name: "Wheel", Currency: projection.CurrencyEUR, ConfigJSON: `{"a":2}`,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	got, err := s.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, got.ConfigJSON)
	assert.Equal(t, projection.CurrencyEUR, got.Currency)
}

func TestStore_PlanNotFound(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.GetPlan(ctx, "nope")
	assert.ErrorIs(t, err, projection.ErrPlanNotFound)
	assert.ErrorIs(t, s.DeletePlan(ctx, "nope"), projection.ErrPlanNotFound)
}

func TestStore_ListPlansOrdered(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)

	for _, p := range []projection.PlanRecord{
		{ID: "2", Name: "Monthly", Currency: projection.CurrencyUSD, ConfigJSON: "{}"},
		{ID: "1", Name: "Daily", Currency: projection.CurrencyUSD, ConfigJSON: "{}"},
	} {
		_, err := s.SavePlan(ctx, p)
		require.NoError(t, err)
	}

	plans, err = s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Daily", plans[0].Name)

	require.NoError(t, s.DeletePlan(ctx, "1"))
	plans, _ = s.ListPlans(ctx)
	assert.Len(t, plans, 1)
}

func TestStore_EventLog(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.AppendEvent(ctx, projection.SessionEvent{SessionID: "s1", PlanID: "p1", Type: projection.EventSessionOpened}))
	require.NoError(t, s.AppendEvent(ctx, projection.SessionEvent{SessionID: "s1", PlanID: "p1", Type: projection.EventPlanSaved, Detail: "version 2"}))
	require.NoError(t, s.AppendEvent(ctx, projection.SessionEvent{SessionID: "s9", Type: projection.EventSessionClosed}))

	events, err := s.ListEvents(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, projection.EventSessionOpened, events[0].Type)
	assert.Equal(t, "version 2", events[1].Detail)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[1].At.IsZero())

	all, err := s.ListEvents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, s.Reset(ctx))
	all, _ = s.ListEvents(ctx, "")
	assert.Empty(t, all)
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plans.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	_, err = s.SavePlan(ctx, projection.PlanRecord{ID: "p1", Name: "Wheel", Currency: projection.CurrencyUSDT, ConfigJSON: "{}"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Wheel", got.Name)
	assert.Equal(t, 1, got.Version)
}
