package projection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wheelplan/projection-engine/projection"
)

func TestSummarize_ThreeDayExample(t *testing.T) {
	cfg := baseConfig()
	s := projection.Summarize(cfg, projection.MustProject(cfg, projection.Overrides{}))

	assert.Equal(t, 3, s.Days)
	assertDec(t, "1336.3411", s.FinalCapital)
	assertDec(t, "300", s.TotalContributed)
	assertDec(t, "1300", s.TotalInvested)
	assertDec(t, "36.3411", s.TotalInterest)
	assertDec(t, "36.3411", s.NetGain)
	// 36.3411 / 1300 * 100
	assertDec(t, "2.7954692307692308", s.ROIPercent)
	assertDec(t, "1111", s.MinFinalCapital)
	assertDec(t, "1336.3411", s.MaxFinalCapital)
	assert.Equal(t, 3, s.ContributionDays)
	assert.Equal(t, 0, s.RuinDay)
}

func TestSummarize_CountsOverridesAndRuin(t *testing.T) {
	cfg := baseConfig()
	cfg.TimeHorizonDays = 5
	ov := projection.Overrides{
		Returns:       projection.DayOverrides{3: dec("-100")},
		Contributions: projection.DayOverrides{1: dec("0"), 2: dec("0")},
	}

	s := projection.Summarize(cfg, projection.MustProject(cfg, ov))
	assert.Equal(t, 1, s.CustomReturnDays)
	assert.Equal(t, 2, s.CustomContributionDays)
	assert.Equal(t, 3, s.ContributionDays)
	assert.Equal(t, 3, s.RuinDay, "-100% wipes out day 3")
	assertDec(t, "0", s.MinFinalCapital)
}
