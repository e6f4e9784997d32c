package projection

import "github.com/shopspring/decimal"

// Summary aggregates a ledger for headline display.
type Summary struct {
	Days             int
	InitialCapital   decimal.Decimal
	FinalCapital     decimal.Decimal
	TotalContributed decimal.Decimal // contributions only
	TotalInvested    decimal.Decimal // InitialCapital + TotalContributed
	TotalInterest    decimal.Decimal
	NetGain          decimal.Decimal // FinalCapital - TotalInvested
	ROIPercent       decimal.Decimal // NetGain / TotalInvested * 100

	MinFinalCapital decimal.Decimal
	MaxFinalCapital decimal.Decimal

	CustomReturnDays       int
	CustomContributionDays int
	ContributionDays       int // days with a non-zero contribution

	// RuinDay is the first day whose final capital is <= 0, 0 if none.
	RuinDay int
}

// Summarize computes headline numbers for a ledger produced from cfg.
func Summarize(cfg Configuration, ledger Ledger) Summary {
	s := Summary{
		Days:             ledger.Len(),
		InitialCapital:   cfg.InitialCapital,
		FinalCapital:     cfg.InitialCapital,
		TotalContributed: decimal.Zero,
		TotalInterest:    decimal.Zero,
		MinFinalCapital:  cfg.InitialCapital,
		MaxFinalCapital:  cfg.InitialCapital,
	}

	for i, e := range ledger.entries {
		s.TotalInterest = s.TotalInterest.Add(e.InterestEarned)
		if e.IsCustomReturn {
			s.CustomReturnDays++
		}
		if e.IsCustomContribution {
			s.CustomContributionDays++
		}
		if !e.ContributionAmount.IsZero() {
			s.ContributionDays++
		}
		if i == 0 || e.FinalCapital.LessThan(s.MinFinalCapital) {
			s.MinFinalCapital = e.FinalCapital
		}
		if i == 0 || e.FinalCapital.GreaterThan(s.MaxFinalCapital) {
			s.MaxFinalCapital = e.FinalCapital
		}
		if s.RuinDay == 0 && !e.FinalCapital.IsPositive() {
			s.RuinDay = e.Day
		}
	}

	if last, ok := ledger.Final(); ok {
		s.FinalCapital = last.FinalCapital
		s.TotalContributed = last.TotalContributedToDate
	}
	s.TotalInvested = s.InitialCapital.Add(s.TotalContributed)
	s.NetGain = s.FinalCapital.Sub(s.TotalInvested)
	s.ROIPercent = decimal.Zero
	if s.TotalInvested.IsPositive() {
		s.ROIPercent = s.NetGain.Mul(hundred).DivRound(s.TotalInvested, WorkingScale)
	}
	return s
}
