/*
engine.go - Day-by-day capital projection

PURPOSE:
  Iterates days 1..TimeHorizonDays applying contribution THEN compounding.
  Single pass, O(N), no early exit.

PER-DAY STEPS:
  1. before   = day 1 ? InitialCapital : previous final
  2. due      = day in the precomputed schedule
  3. contrib  = EffectiveContribution(day, due, plan amount, overrides)
  4. after    = before + contrib
  5. rate     = EffectiveReturn(day, baseline, overrides)
  6. interest = after * rate / 100
  7. final    = after + interest
  8. total    = previous total + contrib   (InitialCapital excluded)

NUMERICS:
  Additions and the product are exact. The division by 100 is rounded
  half away from zero at WorkingScale fractional digits, which bounds the
  size of every value over 36500 days while keeping well above 8 digits.
  No other rounding happens here; display rounding belongs to callers.

  Capital is NOT clamped. Custom returns below -100% drive it negative;
  Summary.RuinDay surfaces that.

EXAMPLE:
  1000 initial, 100/day, 1% for 3 days:
    day 1: 1000 + 100 = 1100, +11      = 1111
    day 2: 1111 + 100 = 1211, +12.11   = 1223.11
    day 3: 1223.11 + 100 = 1323.11, +13.2311 = 1336.3411
*/
package projection

import "github.com/shopspring/decimal"

// WorkingScale is the number of fractional digits interest is rounded to.
const WorkingScale int32 = 16

// Project runs the simulation. The configuration is re-validated; an
// invalid one fails fast with *InvalidConfigurationError and no ledger.
// Override values outside the precision limits fail with ErrPrecision.
//
// Ledger values are fixed-point at WorkingScale fractional digits: interest
// is rounded there each day, so they are exact to that scale and not beyond.
func Project(cfg Configuration, overrides Overrides) (Ledger, error) {
	if err := checkInputs(cfg, overrides); err != nil {
		return Ledger{}, err
	}
	return run(cfg, overrides), nil
}

// checkInputs runs before run and before any CacheKey is computed.
func checkInputs(cfg Configuration, overrides Overrides) error {
	if res := Validate(cfg); !res.IsValid {
		return &InvalidConfigurationError{Violations: res.Errors}
	}
	return CheckOverrides(overrides)
}

// MustProject panics on an invalid configuration. Test and preset helper.
func MustProject(cfg Configuration, overrides Overrides) Ledger {
	l, err := Project(cfg, overrides)
	if err != nil {
		panic(err)
	}
	return l
}

func run(cfg Configuration, overrides Overrides) Ledger {
	n := cfg.TimeHorizonDays
	due := DueContributionDays(cfg.ContributionPlan, n)

	planAmount := decimal.Zero
	if cfg.ContributionPlan != nil {
		planAmount = cfg.ContributionPlan.Amount
	}
	start := cfg.StartDate()

	entries := make([]LedgerEntry, n)
	capital := cfg.InitialCapital
	total := decimal.Zero

	for day := 1; day <= n; day++ {
		contrib := EffectiveContribution(day, due.Has(day), planAmount, overrides.Contributions)
		after := capital.Add(contrib.Value)

		rate := EffectiveReturn(day, cfg.BaselineDailyReturnPercent, overrides.Returns)
		interest := after.Mul(rate.Value).DivRound(hundred, WorkingScale)
		final := after.Add(interest)
		total = total.Add(contrib.Value)

		var date Date
		if !start.IsZero() {
			date = start.AddDays(day - 1)
		}

		entries[day-1] = LedgerEntry{
			Day:                       day,
			Date:                      date,
			CapitalBeforeContribution: capital,
			ContributionAmount:        contrib.Value,
			IsCustomContribution:      contrib.IsCustom,
			CapitalAfterContribution:  after,
			DailyReturnPercent:        rate.Value,
			IsCustomReturn:            rate.IsCustom,
			InterestEarned:            interest,
			FinalCapital:              final,
			TotalContributedToDate:    total,
		}
		capital = final
	}

	return newLedger(entries)
}
