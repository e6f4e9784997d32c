package factory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/projection"
)

func TestParsePlan_FullDocument(t *testing.T) {
	doc := `{
		"id": "w1",
		"name": "Wheel",
		"currency": "EUR",
		"initial_capital": "1000.50",
		"time_horizon_days": 30,
		"baseline_daily_return_percent": "-0.25",
		"contribution_plan": {
			"amount": "100",
			"frequency": "custom",
			"custom_interval_days": 10,
			"start_date": "2024-03-01"
		},
		"custom_returns": {"5": "2.5"},
		"custom_contributions": {"11": "0", "12": "50"}
	}`

	cfg, ov, err := factory.NewPlanFactory().ParsePlan(doc)
	require.NoError(t, err)

	assert.True(t, cfg.InitialCapital.Equal(decimal.RequireFromString("1000.5")))
	assert.Equal(t, 30, cfg.TimeHorizonDays)
	assert.Equal(t, "-0.25", cfg.BaselineDailyReturnPercent.String())
	assert.Equal(t, projection.CurrencyEUR, cfg.Currency)
	require.NotNil(t, cfg.ContributionPlan)
	assert.Equal(t, projection.FrequencyCustom, cfg.ContributionPlan.Frequency)
	assert.Equal(t, 10, cfg.ContributionPlan.CustomIntervalDays)
	assert.Equal(t, projection.NewDate(2024, time.March, 1), cfg.ContributionPlan.StartDate)

	assert.Equal(t, []int{5}, ov.Returns.Days())
	assert.Equal(t, []int{11, 12}, ov.Contributions.Days())
	v, _ := ov.Contributions.Get(11)
	assert.True(t, v.IsZero())

	assert.True(t, projection.Validate(cfg).IsValid)
}

func TestParsePlan_ReportsEveryProblem(t *testing.T) {
	// GIVEN: A document with five independent defects
	// WHEN: Parsed
	// THEN: One ValidationError lists all of them

	doc := `{
		"currency": "GBP",
		"time_horizon_days": 10,
		"baseline_daily_return_percent": "abc",
		"contribution_plan": {"amount": "10", "frequency": "weekly", "start_date": "01/02/2024"},
		"custom_returns": {"zero": "1"}
	}`

	_, _, err := factory.NewPlanFactory().ParsePlan(doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, projection.ErrInvalidConfiguration)

	var verr *projection.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Violations, 5)
	assert.Contains(t, verr.Violations[0], "initial_capital")
	assert.Contains(t, verr.Violations[1], "baseline_daily_return_percent")
	assert.Contains(t, verr.Violations[2], "currency")
	assert.Contains(t, verr.Violations[3], "contribution_plan.start_date")
	assert.Contains(t, verr.Violations[4], "custom_returns")
}

func TestParsePlan_NegativeContributionOverride(t *testing.T) {
	doc := `{"initial_capital": "1", "time_horizon_days": 3, "baseline_daily_return_percent": "0",
		"custom_contributions": {"2": "-5"}}`

	_, _, err := factory.NewPlanFactory().ParsePlan(doc)
	var verr *projection.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"custom_contributions[2]: must be at least 0"}, verr.Violations)
}

func TestParsePlan_RejectsExtremePrecision(t *testing.T) {
	doc := `{"initial_capital": "1e-50000000", "time_horizon_days": 3,
		"baseline_daily_return_percent": "1e50000000",
		"custom_returns": {"1": "0.00000000000000001"}}`

	_, _, err := factory.NewPlanFactory().ParsePlan(doc)
	var verr *projection.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Violations, 3)
	assert.Contains(t, verr.Violations[0], "initial_capital: unsupported precision")
	assert.Contains(t, verr.Violations[1], "baseline_daily_return_percent: unsupported precision")
	assert.Contains(t, verr.Violations[2], "custom_returns[1]: unsupported precision")
}

func TestParsePlan_MalformedJSON(t *testing.T) {
	_, _, err := factory.NewPlanFactory().ParsePlan(`{"initial_capital": `)
	require.Error(t, err)
	assert.NotErrorIs(t, err, projection.ErrInvalidConfiguration)
}

func TestParsePlan_DefaultsCurrency(t *testing.T) {
	cfg, _, err := factory.NewPlanFactory().ParsePlan(
		`{"initial_capital": "1", "time_horizon_days": 1, "baseline_daily_return_percent": "0"}`)
	require.NoError(t, err)
	assert.Equal(t, projection.CurrencyUSDT, cfg.Currency)
	assert.Nil(t, cfg.ContributionPlan)
}

func TestParsePlanYAML_UnquotedNumbers(t *testing.T) {
	doc := []byte(`
name: Yaml wheel
currency: USD
initial_capital: 2500.75
time_horizon_days: 14
baseline_daily_return_percent: 0.1
contribution_plan:
  amount: 50
  frequency: weekly
  start_date: "2024-01-01"
custom_returns:
  3: -1.25
`)

	cfg, ov, err := factory.NewPlanFactory().ParsePlanYAML(doc)
	require.NoError(t, err)
	assert.Equal(t, "2500.75", cfg.InitialCapital.String())
	assert.Equal(t, "0.1", cfg.BaselineDailyReturnPercent.String())
	assert.Equal(t, projection.FrequencyWeekly, cfg.ContributionPlan.Frequency)
	r, ok := ov.Returns.Get(3)
	require.True(t, ok)
	assert.Equal(t, "-1.25", r.String())
}

func TestToJSON_RoundTrip(t *testing.T) {
	f := factory.NewPlanFactory()
	cfg := projection.Configuration{
		InitialCapital:             decimal.RequireFromString("1234.5678"),
		TimeHorizonDays:            90,
		BaselineDailyReturnPercent: decimal.RequireFromString("0.07"),
		ContributionPlan: &projection.ContributionPlan{
			Amount:             decimal.NewFromInt(75),
			Frequency:          projection.FrequencyMonthly,
			CustomIntervalDays: 9, // dropped: only meaningful for custom
			StartDate:          projection.NewDate(2025, time.June, 30),
		},
		Currency: projection.CurrencyUSD,
	}
	ov := projection.Overrides{
		Returns:       projection.DayOverrides{1: decimal.RequireFromString("-2"), 60: decimal.RequireFromString("4.5")},
		Contributions: projection.DayOverrides{31: decimal.Zero},
	}

	pj := f.ToJSON(cfg, ov)
	assert.Equal(t, 0, pj.ContributionPlan.CustomIntervalDays)

	for name, encode := range map[string]func(t *testing.T) (projection.Configuration, projection.Overrides, error){
		"json": func(t *testing.T) (projection.Configuration, projection.Overrides, error) {
			s, err := pj.Encode()
			require.NoError(t, err)
			return f.ParsePlan(s)
		},
		"yaml": func(t *testing.T) (projection.Configuration, projection.Overrides, error) {
			b, err := pj.EncodeYAML()
			require.NoError(t, err)
			return f.ParsePlanYAML(b)
		},
	} {
		t.Run(name, func(t *testing.T) {
			gotCfg, gotOv, err := encode(t)
			require.NoError(t, err)

			want := projection.MustProject(cfg, ov)
			got := projection.MustProject(gotCfg, gotOv)
			assert.True(t, want.Equal(got))
			assert.True(t, ov.Returns.Equal(gotOv.Returns))
			assert.True(t, ov.Contributions.Equal(gotOv.Contributions))
			assert.Equal(t, projection.CacheKey(cfg, ov), projection.CacheKey(gotCfg, gotOv))
		})
	}
}
