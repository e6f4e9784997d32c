package api

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelplan/projection-engine/projection"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestRegistry(ttl time.Duration) (*SessionRegistry, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
	reg := NewSessionRegistry(ttl, 5, nil)
	reg.Now = clock.Now
	return reg, clock
}

func TestSessionRegistry_OpenGetClose(t *testing.T) {
	reg, _ := newTestRegistry(time.Hour)

	s := reg.Open("plan-1", "Plan one", projection.Snapshot{})
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, reg.Len())

	got, err := reg.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	id, name := got.Plan()
	assert.Equal(t, "plan-1", id)
	assert.Equal(t, "Plan one", name)

	closed, err := reg.Close(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, closed)
	assert.Equal(t, 0, reg.Len())

	_, err = reg.Get(s.ID)
	assert.ErrorIs(t, err, projection.ErrSessionNotFound)
	_, err = reg.Close(s.ID)
	assert.ErrorIs(t, err, projection.ErrSessionNotFound)
}

func TestSessionRegistry_SweepExpiresIdleSessions(t *testing.T) {
	// GIVEN: Two sessions, one of which is used after 40 minutes
	// WHEN: Sweeping at 70 minutes with a one-hour TTL
	// THEN: Only the untouched session is expired

	reg, clock := newTestRegistry(time.Hour)
	idle := reg.Open("", "", projection.Snapshot{})
	busy := reg.Open("", "", projection.Snapshot{})

	clock.Advance(40 * time.Minute)
	_, err := reg.Get(busy.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Minute)
	expired := reg.Sweep()
	require.Len(t, expired, 1)
	assert.Equal(t, idle.ID, expired[0].ID)
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Get(busy.ID)
	assert.NoError(t, err)
}

func TestSessionRegistry_ZeroTTLNeverExpires(t *testing.T) {
	reg, clock := newTestRegistry(0)
	reg.Open("", "", projection.Snapshot{})

	clock.Advance(24 * time.Hour)
	assert.Empty(t, reg.Sweep())
	assert.Equal(t, 1, reg.Len())
}

func TestSessionRegistry_SessionsShareCache(t *testing.T) {
	reg, _ := newTestRegistry(time.Hour)
	snap := projection.Snapshot{Configuration: projection.Configuration{
		InitialCapital:             decimal.NewFromInt(500),
		TimeHorizonDays:            2,
		BaselineDailyReturnPercent: decimal.RequireFromString("0.5"),
		Currency:                   projection.CurrencyUSD,
	}}

	a := reg.Open("", "", snap)
	b := reg.Open("", "", snap)

	first, err := a.Project()
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := b.Project()
	require.NoError(t, err)
	assert.True(t, second.Cached, "a second tab on the same plan reuses the ledger")
	assert.Equal(t, 1, reg.Cache().Len())
}
