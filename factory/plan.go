/*
Package factory provides JSON/YAML to Go plan conversion.

PURPOSE:
  Converts serialized plan documents into projection.Configuration and
  projection.Overrides, and back. The same document is what the API
  accepts, what the sqlite store keeps in config_json, and what wheelctl
  reads from disk.

WHY STRINGS FOR NUMBERS?
  Money and percentages travel as decimal strings ("1000.50", "-0.25") so
  no float ever touches a value. Override maps are keyed by the day index
  written as a string, because JSON object keys must be strings.

JSON SCHEMA:
  {
    "id": "wheel-conservative",
    "name": "Conservative wheel",
    "currency": "USDT",
    "initial_capital": "10000",
    "time_horizon_days": 365,
    "baseline_daily_return_percent": "0.05",
    "contribution_plan": {
      "amount": "250",
      "frequency": "monthly",
      "start_date": "2024-01-01"
    },
    "custom_returns": {"30": "-1.5"},
    "custom_contributions": {"31": "0"}
  }

  "custom_interval_days" is only read for frequency "custom".

KEY FEATURES:
  - Reports every malformed field at once as *projection.ValidationError
  - Defaults currency to USDT when omitted
  - Round-trips: FromJSON(ToJSON(cfg, ov)) == (cfg, ov)

USAGE:
  f := factory.NewPlanFactory()
  cfg, overrides, err := f.ParsePlan(factory.ConservativeWheelJSON("c1", "Conservative", "2024-01-01"))

SEE ALSO:
  - factory/presets.go: Ready-made plans
  - projection/validate.go: Semantic checks run after parsing
*/
package factory

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wheelplan/projection-engine/projection"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// PlanJSON is the serialized form of a plan.
type PlanJSON struct {
	ID                         string                `json:"id,omitempty" yaml:"id,omitempty"`
	Name                       string                `json:"name,omitempty" yaml:"name,omitempty"`
	Currency                   string                `json:"currency,omitempty" yaml:"currency,omitempty"`
	InitialCapital             string                `json:"initial_capital" yaml:"initial_capital"`
	TimeHorizonDays            int                   `json:"time_horizon_days" yaml:"time_horizon_days"`
	BaselineDailyReturnPercent string                `json:"baseline_daily_return_percent" yaml:"baseline_daily_return_percent"`
	ContributionPlan           *ContributionPlanJSON `json:"contribution_plan,omitempty" yaml:"contribution_plan,omitempty"`
	CustomReturns              map[string]string     `json:"custom_returns,omitempty" yaml:"custom_returns,omitempty"`
	CustomContributions        map[string]string     `json:"custom_contributions,omitempty" yaml:"custom_contributions,omitempty"`
}

// ContributionPlanJSON is the serialized recurring contribution.
type ContributionPlanJSON struct {
	Amount             string `json:"amount" yaml:"amount"`
	Frequency          string `json:"frequency" yaml:"frequency"` // daily, weekly, monthly, custom
	CustomIntervalDays int    `json:"custom_interval_days,omitempty" yaml:"custom_interval_days,omitempty"`
	StartDate          string `json:"start_date" yaml:"start_date"` // YYYY-MM-DD
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

// PlanFactory converts serialized plans to engine inputs.
type PlanFactory struct{}

// NewPlanFactory creates a new plan factory.
func NewPlanFactory() *PlanFactory {
	return &PlanFactory{}
}

// ParsePlan parses a JSON document.
func (f *PlanFactory) ParsePlan(jsonStr string) (projection.Configuration, projection.Overrides, error) {
	var pj PlanJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return projection.Configuration{}, projection.Overrides{}, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// ParsePlanYAML parses a YAML document with the same schema.
func (f *PlanFactory) ParsePlanYAML(data []byte) (projection.Configuration, projection.Overrides, error) {
	pj, err := DecodeYAML(data)
	if err != nil {
		return projection.Configuration{}, projection.Overrides{}, err
	}
	return f.FromJSON(pj)
}

// DecodeYAML reads a PlanJSON from YAML without converting it.
func DecodeYAML(data []byte) (PlanJSON, error) {
	var pj PlanJSON
	if err := yaml.Unmarshal(data, &pj); err != nil {
		return PlanJSON{}, fmt.Errorf("failed to parse plan YAML: %w", err)
	}
	return pj, nil
}

// FromJSON converts a PlanJSON into a Configuration and Overrides.
//
// Only shape is checked here: missing fields, malformed decimals, dates
// and day keys. Range rules belong to projection.Validate.
func (f *PlanFactory) FromJSON(pj PlanJSON) (projection.Configuration, projection.Overrides, error) {
	p := &parser{}

	cfg := projection.Configuration{
		InitialCapital:             p.decimal("initial_capital", pj.InitialCapital, true),
		TimeHorizonDays:            pj.TimeHorizonDays,
		BaselineDailyReturnPercent: p.decimal("baseline_daily_return_percent", pj.BaselineDailyReturnPercent, false),
		Currency:                   parseCurrency(p, pj.Currency),
	}

	if cj := pj.ContributionPlan; cj != nil {
		cfg.ContributionPlan = &projection.ContributionPlan{
			Amount:             p.decimal("contribution_plan.amount", cj.Amount, true),
			Frequency:          projection.Frequency(cj.Frequency),
			CustomIntervalDays: cj.CustomIntervalDays,
			StartDate:          p.date("contribution_plan.start_date", cj.StartDate),
		}
		if cj.Frequency == "" {
			p.fail("contribution_plan.frequency: is required")
		}
	}

	ov := projection.Overrides{
		Returns:       p.overrides("custom_returns", pj.CustomReturns, false),
		Contributions: p.overrides("custom_contributions", pj.CustomContributions, true),
	}

	if len(p.problems) > 0 {
		return projection.Configuration{}, projection.Overrides{}, &projection.ValidationError{Violations: p.problems}
	}
	return cfg, ov, nil
}

// ToJSON converts a Configuration and Overrides to PlanJSON.
// ID and Name are left for the caller.
func (f *PlanFactory) ToJSON(cfg projection.Configuration, ov projection.Overrides) PlanJSON {
	pj := PlanJSON{
		Currency:                   string(cfg.Currency),
		InitialCapital:             cfg.InitialCapital.String(),
		TimeHorizonDays:            cfg.TimeHorizonDays,
		BaselineDailyReturnPercent: cfg.BaselineDailyReturnPercent.String(),
		CustomReturns:              formatOverrides(ov.Returns),
		CustomContributions:        formatOverrides(ov.Contributions),
	}

	if plan := cfg.ContributionPlan; plan != nil {
		pj.ContributionPlan = &ContributionPlanJSON{
			Amount:    plan.Amount.String(),
			Frequency: string(plan.Frequency),
			StartDate: plan.StartDate.String(),
		}
		if plan.Frequency == projection.FrequencyCustom {
			pj.ContributionPlan.CustomIntervalDays = plan.CustomIntervalDays
		}
	}

	return pj
}

// Encode renders pj as indented JSON.
func (pj PlanJSON) Encode() (string, error) {
	b, err := json.MarshalIndent(pj, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeYAML renders pj as YAML.
func (pj PlanJSON) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(pj)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parser accumulates problems so a document reports all of them at once.
type parser struct {
	problems []string
}

func (p *parser) fail(format string, args ...any) {
	p.problems = append(p.problems, fmt.Sprintf(format, args...))
}

func (p *parser) decimal(field, s string, required bool) decimal.Decimal {
	if s == "" {
		if required {
			p.fail("%s: is required", field)
		}
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		p.fail("%s: %q is not a decimal number", field, s)
		return decimal.Zero
	}
	if err := projection.CheckPrecision(d); err != nil {
		p.fail("%s: %v", field, err)
		return decimal.Zero
	}
	return d
}

func (p *parser) date(field, s string) projection.Date {
	if s == "" {
		p.fail("%s: is required", field)
		return projection.Date{}
	}
	d, err := projection.ParseDate(s)
	if err != nil {
		p.fail("%s: %q is not a YYYY-MM-DD date", field, s)
		return projection.Date{}
	}
	return d
}

func (p *parser) overrides(field string, m map[string]string, nonNegative bool) projection.DayOverrides {
	if len(m) == 0 {
		return nil
	}

	// Sorted so problems come out in a stable order.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(projection.DayOverrides, len(m))
	for _, k := range keys {
		day, err := strconv.Atoi(k)
		if err != nil || day < 1 {
			p.fail("%s: key %q is not a day number >= 1", field, k)
			continue
		}
		v, err := decimal.NewFromString(m[k])
		if err != nil {
			p.fail("%s[%d]: %q is not a decimal number", field, day, m[k])
			continue
		}
		if err := projection.CheckPrecision(v); err != nil {
			p.fail("%s[%d]: %v", field, day, err)
			continue
		}
		if nonNegative && v.IsNegative() {
			p.fail("%s[%d]: must be at least 0", field, day)
			continue
		}
		out[day] = v
	}
	return out
}

func parseCurrency(p *parser, s string) projection.Currency {
	if s == "" {
		return projection.CurrencyUSDT
	}
	c := projection.Currency(s)
	if !c.IsValid() {
		p.fail("currency: unsupported currency %q", s)
	}
	return c
}

func formatOverrides(o projection.DayOverrides) map[string]string {
	if o.Len() == 0 {
		return nil
	}
	out := make(map[string]string, o.Len())
	for day, v := range o {
		out[strconv.Itoa(day)] = v.String()
	}
	return out
}
