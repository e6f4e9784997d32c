/*
reminders.go - Contribution reminder scheduler

PURPOSE:
  Periodically scans saved plans and, for each one whose contribution
  schedule has a payment due today, hands a Reminder to the Notifier.
  Each tick also expires idle editing sessions.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - A plan is reminded at most once per calendar day per scheduler
  - Delivery (mail, push, chat) is the Notifier's problem; the default
    LogNotifier only logs

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReminderScheduler(store, sessions, LogNotifier{})
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - projection/schedule.go: DueDates, IsDueOn
  - sessions.go: SessionRegistry.Sweep
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/metrics"
	"github.com/wheelplan/projection-engine/projection"
)

// Reminder is one contribution due on Date.
type Reminder struct {
	PlanID   string
	PlanName string
	Day      int
	Date     projection.Date
	Amount   decimal.Decimal
	Currency projection.Currency
}

// Notifier delivers reminders.
type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier writes reminders to the standard logger.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, r Reminder) error {
	log.Printf("[Reminders] %s (%s): contribute %s %s today (day %d, %s)",
		r.PlanName, r.PlanID, r.Amount.StringFixed(2), r.Currency, r.Day, r.Date)
	return nil
}

// ReminderScheduler handles contribution reminders and session expiry.
type ReminderScheduler struct {
	Plans         projection.PlanStore
	Sessions      *SessionRegistry
	Notifier      Notifier
	CheckInterval time.Duration
	Enabled       bool

	// Today is the clock, replaceable in tests.
	Today func() projection.Date

	factory  *factory.PlanFactory
	stateMu  sync.Mutex
	notified map[string]projection.Date
	lastRun  time.Time // zero unless the background loop is running

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScheduler creates a new scheduler. sessions may be nil.
func NewReminderScheduler(plans projection.PlanStore, sessions *SessionRegistry, notifier Notifier) *ReminderScheduler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &ReminderScheduler{
		Plans:         plans,
		Sessions:      sessions,
		Notifier:      notifier,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Today:         projection.Today,
		factory:       factory.NewPlanFactory(),
		notified:      make(map[string]projection.Date),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Reminders] Disabled, not starting")
		return
	}

	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan bool)
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	log.Printf("[Reminders] Started with check interval: %v", rs.CheckInterval)
}

// Stop stops the scheduler.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.setLastRun(time.Time{})
		log.Println("[Reminders] Stopped")
	}
}

func (rs *ReminderScheduler) run(ticker *time.Ticker, stop <-chan bool) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.tick()

	for {
		select {
		case <-ticker.C:
			rs.tick()
		case <-stop:
			return
		}
	}
}

func (rs *ReminderScheduler) tick() {
	rs.RunNow(context.Background())
	rs.setLastRun(time.Now())
	log.Printf("[Reminders] Next check at %s", rs.GetNextRunTime().Format(time.RFC3339))
}

// RunNow performs one check: session sweep, then reminders.
// It returns the number of reminders sent.
func (rs *ReminderScheduler) RunNow(ctx context.Context) int {
	if rs.Sessions != nil {
		if expired := rs.Sessions.Sweep(); len(expired) > 0 {
			log.Printf("[Sessions] Expired %d idle sessions", len(expired))
		}
	}
	return rs.checkReminders(ctx)
}

func (rs *ReminderScheduler) checkReminders(ctx context.Context) int {
	today := rs.Today()

	plans, err := rs.Plans.ListPlans(ctx)
	if err != nil {
		log.Printf("[Reminders] Error listing plans: %v", err)
		return 0
	}

	sent, skipped := 0, 0
	for _, rec := range plans {
		if last, ok := rs.lastNotified(rec.ID); ok && last.Equal(today) {
			skipped++
			continue
		}

		cfg, ov, err := rs.factory.ParsePlan(rec.ConfigJSON)
		if err != nil {
			log.Printf("[Reminders] Skipping unreadable plan %s: %v", rec.ID, err)
			continue
		}
		plan := cfg.ContributionPlan
		if !projection.IsDueOn(plan, cfg.TimeHorizonDays, today) {
			continue
		}

		// A contribution override on the day replaces the scheduled amount;
		// an override of 0 cancels the deposit, so there is nothing to remind.
		day := projection.DaysBetween(plan.StartDate, today) + 1
		amount := projection.EffectiveContribution(day, true, plan.Amount, ov.Contributions).Value
		if amount.IsZero() {
			continue
		}

		reminder := Reminder{
			PlanID:   rec.ID,
			PlanName: rec.Name,
			Day:      day,
			Date:     today,
			Amount:   amount,
			Currency: cfg.Currency,
		}
		if err := rs.Notifier.Notify(ctx, reminder); err != nil {
			log.Printf("[Reminders] Error notifying for %s: %v", rec.ID, err)
			continue
		}
		rs.markNotified(rec.ID, today)
		metrics.RemindersSent.Inc()
		sent++
	}

	if sent > 0 || skipped > 0 {
		log.Printf("[Reminders] Completed: %d sent, %d skipped (already sent today)", sent, skipped)
	}
	return sent
}

func (rs *ReminderScheduler) lastNotified(planID string) (projection.Date, bool) {
	rs.stateMu.Lock()
	defer rs.stateMu.Unlock()
	d, ok := rs.notified[planID]
	return d, ok
}

func (rs *ReminderScheduler) markNotified(planID string, day projection.Date) {
	rs.stateMu.Lock()
	defer rs.stateMu.Unlock()
	rs.notified[planID] = day
}

func (rs *ReminderScheduler) setLastRun(t time.Time) {
	rs.stateMu.Lock()
	defer rs.stateMu.Unlock()
	rs.lastRun = t
}

// GetNextRunTime returns when the next scheduled check will occur, or the
// zero time when the scheduler is not running.
func (rs *ReminderScheduler) GetNextRunTime() time.Time {
	rs.stateMu.Lock()
	defer rs.stateMu.Unlock()
	if rs.lastRun.IsZero() {
		return time.Time{}
	}
	return rs.lastRun.Add(rs.CheckInterval)
}
