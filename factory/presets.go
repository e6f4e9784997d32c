package factory

import (
	"encoding/json"
	"sort"
	"strconv"
)

// =============================================================================
// PRESET PLANS
// =============================================================================

// ConservativeWheelJSON returns JSON for a slow, steady monthly plan.
func ConservativeWheelJSON(id, name, startDate string) string {
	return mustEncode(PlanJSON{
		ID:                         id,
		Name:                       name,
		Currency:                   "USDT",
		InitialCapital:             "10000",
		TimeHorizonDays:            365,
		BaselineDailyReturnPercent: "0.05",
		ContributionPlan: &ContributionPlanJSON{
			Amount:    "250",
			Frequency: "monthly",
			StartDate: startDate,
		},
	})
}

// AggressiveWheelJSON returns JSON for a high-yield plan with weekly
// top-ups over two years.
func AggressiveWheelJSON(id, name, startDate string) string {
	return mustEncode(PlanJSON{
		ID:                         id,
		Name:                       name,
		Currency:                   "USDT",
		InitialCapital:             "5000",
		TimeHorizonDays:            730,
		BaselineDailyReturnPercent: "0.3",
		ContributionPlan: &ContributionPlanJSON{
			Amount:    "100",
			Frequency: "weekly",
			StartDate: startDate,
		},
	})
}

// DrawdownWheelJSON returns JSON for a plan that hits a five-day losing
// streak in its second month. Contributions pause for the streak.
func DrawdownWheelJSON(id, name, startDate string) string {
	returns := make(map[string]string)
	contributions := make(map[string]string)
	for day := 40; day < 45; day++ {
		returns[strconv.Itoa(day)] = "-3.5"
		contributions[strconv.Itoa(day)] = "0"
	}

	return mustEncode(PlanJSON{
		ID:                         id,
		Name:                       name,
		Currency:                   "EUR",
		InitialCapital:             "20000",
		TimeHorizonDays:            180,
		BaselineDailyReturnPercent: "0.1",
		ContributionPlan: &ContributionPlanJSON{
			Amount:    "20",
			Frequency: "daily",
			StartDate: startDate,
		},
		CustomReturns:       returns,
		CustomContributions: contributions,
	})
}

func mustEncode(pj PlanJSON) string {
	b, _ := json.MarshalIndent(pj, "", "  ")
	return string(b)
}

// =============================================================================
// PRESET REGISTRY
// =============================================================================

// Preset names a ready-made plan.
type Preset struct {
	Key         string
	Name        string
	Description string
	JSON        func(id, name, startDate string) string
}

var presets = map[string]Preset{
	"conservative": {
		Key:         "conservative",
		Name:        "Conservative wheel",
		Description: "10k start, 0.05%/day, 250 monthly for a year",
		JSON:        ConservativeWheelJSON,
	},
	"aggressive": {
		Key:         "aggressive",
		Name:        "Aggressive wheel",
		Description: "5k start, 0.3%/day, 100 weekly for two years",
		JSON:        AggressiveWheelJSON,
	},
	"drawdown": {
		Key:         "drawdown",
		Name:        "Drawdown wheel",
		Description: "20k start, 0.1%/day, 20 daily, -3.5% streak on days 40-44",
		JSON:        DrawdownWheelJSON,
	},
}

// Presets returns every preset ordered by key.
func Presets() []Preset {
	out := make([]Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LookupPreset finds a preset by key.
func LookupPreset(key string) (Preset, bool) {
	p, ok := presets[key]
	return p, ok
}
