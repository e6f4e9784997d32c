package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/projection"
	"github.com/wheelplan/projection-engine/projection/store"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Reminder
	fail bool
}

func (n *recordingNotifier) Notify(_ context.Context, r Reminder) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp down")
	}
	n.sent = append(n.sent, r)
	return nil
}

func (n *recordingNotifier) planIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	ids := make([]string, len(n.sent))
	for i, r := range n.sent {
		ids[i] = r.PlanID
	}
	return ids
}

func savePlanJSON(t *testing.T, mem *store.Memory, pj factory.PlanJSON) {
	t.Helper()
	doc, err := pj.Encode()
	require.NoError(t, err)
	_, err = mem.SavePlan(context.Background(), projection.PlanRecord{
		ID: pj.ID, Name: pj.Name, Currency: projection.Currency(pj.Currency), ConfigJSON: doc,
	})
	require.NoError(t, err)
}

func reminderFixture(t *testing.T) (*ReminderScheduler, *recordingNotifier, *projection.Date) {
	t.Helper()
	mem := store.NewMemory()

	daily := threeDayPlan()
	daily.ID, daily.Currency = "daily", "EUR"
	savePlanJSON(t, mem, daily)

	weekly := threeDayPlan()
	weekly.ID = "weekly"
	weekly.ContributionPlan.Frequency = "weekly"
	weekly.TimeHorizonDays = 30
	savePlanJSON(t, mem, weekly)

	today := projection.NewDate(2024, time.January, 2)
	n := &recordingNotifier{}
	rs := NewReminderScheduler(mem, nil, n)
	rs.Today = func() projection.Date { return today }
	return rs, n, &today
}

func TestReminders_NotifiesDuePlansOncePerDay(t *testing.T) {
	// GIVEN: A daily plan and a weekly plan, both starting 2024-01-01
	// WHEN: Checking on 2024-01-02 twice, then on 01-03 and 01-04
	// THEN: Only the daily plan is reminded, once per day, until its horizon ends

	rs, n, today := reminderFixture(t)
	ctx := context.Background()

	assert.Equal(t, 1, rs.RunNow(ctx))
	require.Len(t, n.sent, 1)
	got := n.sent[0]
	assert.Equal(t, "daily", got.PlanID)
	assert.Equal(t, 2, got.Day)
	assert.Equal(t, "2024-01-02", got.Date.String())
	assert.Equal(t, "100", got.Amount.String())
	assert.Equal(t, projection.CurrencyEUR, got.Currency)

	assert.Equal(t, 0, rs.RunNow(ctx), "already reminded today")

	*today = today.AddDays(1)
	assert.Equal(t, 1, rs.RunNow(ctx))

	*today = today.AddDays(1)
	assert.Equal(t, 0, rs.RunNow(ctx), "past the three-day horizon")

	assert.Equal(t, []string{"daily", "daily"}, n.planIDs())
}

func TestReminders_WeeklyDueDate(t *testing.T) {
	rs, n, today := reminderFixture(t)
	*today = projection.NewDate(2024, time.January, 8)

	assert.Equal(t, 1, rs.RunNow(context.Background()))
	assert.Equal(t, []string{"weekly"}, n.planIDs())
	assert.Equal(t, 8, n.sent[0].Day)
}

func TestReminders_AmountFollowsContributionOverrides(t *testing.T) {
	// GIVEN: A daily plan skipping day 2 and depositing 250 on day 3
	// WHEN: Checking on 2024-01-02 and 2024-01-03
	// THEN: Day 2 gets no reminder and day 3 is reminded for 250

	mem := store.NewMemory()
	pj := threeDayPlan()
	pj.ID = "skips"
	pj.CustomContributions = map[string]string{"2": "0", "3": "250"}
	savePlanJSON(t, mem, pj)

	today := projection.NewDate(2024, time.January, 2)
	n := &recordingNotifier{}
	rs := NewReminderScheduler(mem, nil, n)
	rs.Today = func() projection.Date { return today }
	ctx := context.Background()

	assert.Equal(t, 0, rs.RunNow(ctx))

	today = today.AddDays(1)
	assert.Equal(t, 1, rs.RunNow(ctx))
	require.Len(t, n.sent, 1)
	assert.Equal(t, 3, n.sent[0].Day)
	assert.Equal(t, "250", n.sent[0].Amount.String())
}

func TestReminders_FailedDeliveryIsRetried(t *testing.T) {
	rs, n, _ := reminderFixture(t)
	ctx := context.Background()

	n.fail = true
	assert.Equal(t, 0, rs.RunNow(ctx))

	n.fail = false
	assert.Equal(t, 1, rs.RunNow(ctx))
}

func TestReminders_SweepsIdleSessions(t *testing.T) {
	rs, _, _ := reminderFixture(t)

	reg, clock := newTestRegistry(time.Minute)
	reg.Open("", "", projection.Snapshot{})
	rs.Sessions = reg

	clock.Advance(2 * time.Minute)
	rs.RunNow(context.Background())
	assert.Equal(t, 0, reg.Len())
}

func TestReminders_StartStop(t *testing.T) {
	rs, n, _ := reminderFixture(t)
	rs.CheckInterval = time.Hour

	assert.True(t, rs.GetNextRunTime().IsZero())

	rs.Start()
	// Start runs one check immediately.
	assert.Eventually(t, func() bool { return len(n.planIDs()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !rs.GetNextRunTime().IsZero() }, time.Second, 10*time.Millisecond)
	assert.WithinDuration(t, time.Now().Add(time.Hour), rs.GetNextRunTime(), time.Minute)

	rs.Stop()
	rs.Stop()
	assert.True(t, rs.GetNextRunTime().IsZero())
}

func TestReminders_DisabledDoesNotStart(t *testing.T) {
	rs, n, _ := reminderFixture(t)
	rs.Enabled = false

	rs.Start()
	rs.Stop()
	assert.Empty(t, n.planIDs())
}
