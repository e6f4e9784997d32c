package projection

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// VALIDATOR - Gate in front of every (re)projection
// =============================================================================

// ValidationResult is the outcome of Validate.
// Errors holds one message per failing rule, in rule order.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// Err returns a *ValidationError when the result is invalid, nil otherwise.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return &ValidationError{Violations: append([]string(nil), r.Errors...)}
}

// Validate checks a Configuration for structural and numeric sanity.
// It never panics and reports every failing rule, not just the first.
func Validate(cfg Configuration) ValidationResult {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	// Shape before range: comparisons rescale both sides to one exponent.
	shapeOK := func(field string, d decimal.Decimal) bool {
		if err := CheckPrecision(d); err != nil {
			fail("%s: %v", field, err)
			return false
		}
		return true
	}

	if shapeOK("initial_capital", cfg.InitialCapital) {
		switch {
		case !cfg.InitialCapital.IsPositive():
			fail("initial_capital: must be greater than 0")
		case cfg.InitialCapital.GreaterThan(MaxInitialCapital):
			fail("initial_capital: must be at most %s", MaxInitialCapital)
		}
	}

	switch {
	case cfg.TimeHorizonDays <= 0:
		fail("time_horizon_days: must be greater than 0")
	case cfg.TimeHorizonDays > MaxTimeHorizonDays:
		fail("time_horizon_days: must be at most %d", MaxTimeHorizonDays)
	}

	if shapeOK("baseline_daily_return_percent", cfg.BaselineDailyReturnPercent) &&
		(cfg.BaselineDailyReturnPercent.LessThan(MinDailyReturnPercent) ||
			cfg.BaselineDailyReturnPercent.GreaterThan(MaxDailyReturnPercent)) {
		fail("baseline_daily_return_percent: must be within [%s, %s]",
			MinDailyReturnPercent, MaxDailyReturnPercent)
	}

	if plan := cfg.ContributionPlan; plan != nil {
		if shapeOK("contribution_plan.amount", plan.Amount) {
			switch {
			case plan.Amount.IsNegative():
				fail("contribution_plan.amount: must be at least 0")
			case plan.Amount.GreaterThan(MaxContributionAmount):
				fail("contribution_plan.amount: must be at most %s", MaxContributionAmount)
			}
		}
		if !plan.Frequency.IsValid() {
			fail("contribution_plan.frequency: unknown frequency %q", plan.Frequency)
		}
		if plan.StartDate.IsZero() {
			fail("contribution_plan.start_date: is required")
		}
		if plan.Frequency == FrequencyCustom && plan.CustomIntervalDays <= 0 {
			fail("contribution_plan.custom_interval_days: must be greater than 0 for custom frequency")
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// CheckPrecision rejects decimals with more than MaxFractionDigits
// fractional digits, an exponent above MaxExponent, or a coefficient wider
// than MaxCoefficientBits. It only inspects the representation, so it is
// safe on any input.
func CheckPrecision(d decimal.Decimal) error {
	switch exp := d.Exponent(); {
	case exp < -MaxFractionDigits:
		return fmt.Errorf("%w: more than %d fractional digits", ErrPrecision, MaxFractionDigits)
	case exp > MaxExponent:
		return fmt.Errorf("%w: exponent %d above %d", ErrPrecision, exp, MaxExponent)
	}
	if d.Coefficient().BitLen() > MaxCoefficientBits {
		return fmt.Errorf("%w: too many significant digits", ErrPrecision)
	}
	return nil
}

// CheckOverrides applies CheckPrecision to every override value and
// reports the first offender in day order, returns before contributions.
func CheckOverrides(ov Overrides) error {
	for _, set := range []struct {
		field string
		days  DayOverrides
	}{
		{"custom_returns", ov.Returns},
		{"custom_contributions", ov.Contributions},
	} {
		for _, day := range set.days.Days() {
			if err := CheckPrecision(set.days[day]); err != nil {
				return fmt.Errorf("%s[%d]: %w", set.field, day, err)
			}
		}
	}
	return nil
}
