package projection

import "github.com/shopspring/decimal"

// =============================================================================
// OVERRIDE RESOLVER - The only place override semantics live
// =============================================================================

// Resolved is an effective per-day value and whether it came from an override.
type Resolved struct {
	Value    decimal.Decimal
	IsCustom bool
}

// EffectiveReturn returns the custom return for day if one exists,
// otherwise the baseline.
func EffectiveReturn(day int, baseline decimal.Decimal, customReturns DayOverrides) Resolved {
	if v, ok := customReturns.Get(day); ok {
		return Resolved{Value: v, IsCustom: true}
	}
	return Resolved{Value: baseline}
}

// EffectiveContribution resolves the contribution for day. An override
// (including an explicit 0) replaces the schedule decision entirely: it can
// add a deposit on a non-due day or cancel one on a due day.
func EffectiveContribution(day int, isDueDay bool, amount decimal.Decimal, customContributions DayOverrides) Resolved {
	if v, ok := customContributions.Get(day); ok {
		return Resolved{Value: v, IsCustom: true}
	}
	if isDueDay {
		return Resolved{Value: amount}
	}
	return Resolved{Value: decimal.Zero}
}
