/*
Package projection provides the deterministic investment projection engine.

PURPOSE:
  Given a starting capital, a recurring contribution plan (PAC), a baseline
  daily return and sparse per-day overrides, the engine produces a
  day-by-day ledger of capital evolution. The same inputs always produce
  the same ledger, so results can be memoized and edits can be undone.

KEY CONCEPTS IN THIS FILE (types.go):
  - Configuration: the immutable-per-version input of one simulation
  - ContributionPlan: amount + frequency rule anchored on day 1
  - DayOverrides / Overrides: sparse day -> value maps
  - LedgerEntry / Ledger: the ordered output, one row per simulated day

DESIGN PRINCIPLES:
  1. Purity: no I/O, no clocks, no globals. Same input, same ledger.
  2. Precision: decimal.Decimal everywhere, see WorkingScale in engine.go
  3. Immutability: a Ledger is never mutated once produced
  4. Single owner: Session serializes every mutation of cache and history

USAGE:
  cfg := projection.Configuration{
      InitialCapital:             decimal.NewFromInt(1000),
      TimeHorizonDays:            365,
      BaselineDailyReturnPercent: decimal.RequireFromString("0.1"),
      ContributionPlan: &projection.ContributionPlan{
          Amount:    decimal.NewFromInt(100),
          Frequency: projection.FrequencyWeekly,
          StartDate: projection.NewDate(2024, time.January, 1),
      },
      Currency: projection.CurrencyUSDT,
  }
  ledger, err := projection.Project(cfg, projection.Overrides{})

SEE ALSO:
  - validate.go: Configuration sanity checks
  - schedule.go: Due contribution days
  - overrides.go: Override resolution
  - engine.go: The day loop
  - session.go: Cache + history owner
*/
package projection

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LIMITS
// =============================================================================

const (
	MaxTimeHorizonDays = 36500

	// DefaultCacheCapacity bounds the memoization cache.
	DefaultCacheCapacity = 50

	// DefaultHistoryCapacity bounds the undo stack.
	DefaultHistoryCapacity = 100

	// Shape limits for every decimal input, checked before any comparison
	// or arithmetic touches the value.
	MaxFractionDigits  int32 = WorkingScale
	MaxExponent        int32 = 18
	MaxCoefficientBits       = 128 // about 38 significant digits
)

var (
	MaxInitialCapital     = decimal.NewFromInt(10_000_000)
	MaxContributionAmount = decimal.NewFromInt(1_000_000)
	MinDailyReturnPercent = decimal.NewFromInt(-50)
	MaxDailyReturnPercent = decimal.NewFromInt(50)
	hundred               = decimal.NewFromInt(100)
)

// =============================================================================
// ENUMS
// =============================================================================

type Currency string

const (
	CurrencyEUR  Currency = "EUR"
	CurrencyUSD  Currency = "USD"
	CurrencyUSDT Currency = "USDT"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEUR, CurrencyUSD, CurrencyUSDT:
		return true
	}
	return false
}

// Frequency is the contribution cadence. Due days are counted from day 1,
// never from calendar weekdays or month boundaries.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly" // fixed 30-day months
	FrequencyCustom  Frequency = "custom"  // every CustomIntervalDays
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyCustom:
		return true
	}
	return false
}

// IntervalDays returns the step between due days for the frequency.
// Returns 0 when the interval is undefined (unknown frequency, or custom
// without a positive interval).
func (f Frequency) IntervalDays(customInterval int) int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyWeekly:
		return 7
	case FrequencyMonthly:
		return 30
	case FrequencyCustom:
		if customInterval > 0 {
			return customInterval
		}
	}
	return 0
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ContributionPlan is the recurring deposit added before compounding.
type ContributionPlan struct {
	Amount             decimal.Decimal
	Frequency          Frequency
	CustomIntervalDays int // required iff Frequency == FrequencyCustom
	StartDate          Date
}

// Configuration is the value object one projection runs against.
// Treat it as immutable: edits produce a new Configuration.
type Configuration struct {
	InitialCapital             decimal.Decimal
	TimeHorizonDays            int
	BaselineDailyReturnPercent decimal.Decimal
	ContributionPlan           *ContributionPlan // optional
	Currency                   Currency
}

// StartDate is the calendar date of day 1 (zero when there is no plan).
func (c Configuration) StartDate() Date {
	if c.ContributionPlan == nil {
		return Date{}
	}
	return c.ContributionPlan.StartDate
}

// Clone returns a copy that shares no pointers with c.
func (c Configuration) Clone() Configuration {
	out := c
	if c.ContributionPlan != nil {
		plan := *c.ContributionPlan
		out.ContributionPlan = &plan
	}
	return out
}

// =============================================================================
// OVERRIDES - Sparse per-day values
// =============================================================================

// DayOverrides maps a 1-based day index to an override value.
// A zero value is a real override (e.g. "skip contribution"), absence is not.
type DayOverrides map[int]decimal.Decimal

// Get returns the override for day and whether one exists.
func (o DayOverrides) Get(day int) (decimal.Decimal, bool) {
	v, ok := o[day]
	return v, ok
}

// Set stores v for day, allocating the map on first use.
func (o *DayOverrides) Set(day int, v decimal.Decimal) {
	if *o == nil {
		*o = make(DayOverrides)
	}
	(*o)[day] = v
}

// Delete removes the override for day and reports whether one existed.
func (o DayOverrides) Delete(day int) bool {
	if _, ok := o[day]; !ok {
		return false
	}
	delete(o, day)
	return true
}

func (o DayOverrides) Len() int { return len(o) }

// Days returns the overridden days in ascending order.
func (o DayOverrides) Days() []int {
	days := make([]int, 0, len(o))
	for d := range o {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}

// Clone returns an independent copy. Nil stays nil.
func (o DayOverrides) Clone() DayOverrides {
	if o == nil {
		return nil
	}
	out := make(DayOverrides, len(o))
	for d, v := range o {
		out[d] = v
	}
	return out
}

// Equal reports whether both maps hold the same days with numerically
// equal values.
func (o DayOverrides) Equal(other DayOverrides) bool {
	if len(o) != len(other) {
		return false
	}
	for d, v := range o {
		w, ok := other[d]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}

// Overrides bundles the two independent override maps.
type Overrides struct {
	Returns       DayOverrides // day -> daily return percent
	Contributions DayOverrides // day -> contribution amount
}

func (o Overrides) Clone() Overrides {
	return Overrides{Returns: o.Returns.Clone(), Contributions: o.Contributions.Clone()}
}

// =============================================================================
// LEDGER
// =============================================================================

// LedgerEntry is one simulated day. Its amounts are fixed-point at
// WorkingScale fractional digits, never rounded to display precision.
type LedgerEntry struct {
	Day                       int
	Date                      Date
	CapitalBeforeContribution decimal.Decimal
	ContributionAmount        decimal.Decimal
	IsCustomContribution      bool
	CapitalAfterContribution  decimal.Decimal
	DailyReturnPercent        decimal.Decimal
	IsCustomReturn            bool
	InterestEarned            decimal.Decimal
	FinalCapital              decimal.Decimal

	// TotalContributedToDate sums contributions through this day.
	// InitialCapital is NOT included.
	TotalContributedToDate decimal.Decimal
}

// Ledger is the ordered output of one projection, one entry per day.
// It is immutable: accessors hand out copies.
type Ledger struct {
	entries []LedgerEntry
}

func newLedger(entries []LedgerEntry) Ledger { return Ledger{entries: entries} }

// Len is the number of simulated days.
func (l Ledger) Len() int { return len(l.entries) }

// At returns the entry for a 1-based day.
func (l Ledger) At(day int) (LedgerEntry, bool) {
	if day < 1 || day > len(l.entries) {
		return LedgerEntry{}, false
	}
	return l.entries[day-1], true
}

// Entries returns a copy of all entries in day order.
func (l Ledger) Entries() []LedgerEntry {
	out := make([]LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Final returns the last entry.
func (l Ledger) Final() (LedgerEntry, bool) {
	return l.At(len(l.entries))
}

// Equal reports whether two ledgers are entry-for-entry identical.
func (l Ledger) Equal(other Ledger) bool {
	if len(l.entries) != len(other.entries) {
		return false
	}
	for i := range l.entries {
		if !l.entries[i].equal(other.entries[i]) {
			return false
		}
	}
	return true
}

func (e LedgerEntry) equal(o LedgerEntry) bool {
	return e.Day == o.Day &&
		e.Date.Equal(o.Date) &&
		e.IsCustomContribution == o.IsCustomContribution &&
		e.IsCustomReturn == o.IsCustomReturn &&
		e.CapitalBeforeContribution.Equal(o.CapitalBeforeContribution) &&
		e.ContributionAmount.Equal(o.ContributionAmount) &&
		e.CapitalAfterContribution.Equal(o.CapitalAfterContribution) &&
		e.DailyReturnPercent.Equal(o.DailyReturnPercent) &&
		e.InterestEarned.Equal(o.InterestEarned) &&
		e.FinalCapital.Equal(o.FinalCapital) &&
		e.TotalContributedToDate.Equal(o.TotalContributedToDate)
}
