/*
schedule.go - Contribution due-day generation

PURPOSE:
  Expands a ContributionPlan's frequency rule into the set of 1-based days
  on which a contribution is due. Day 1 is always due. Later due days are
  counted from day 1:

    daily    every day
    weekly   (day-1) % 7  == 0
    monthly  (day-1) % 30 == 0   (fixed 30-day months, no calendar lookups)
    custom   (day-1) % N  == 0

  The start date never affects WHICH days are due, only the calendar date
  printed next to them. Reminder delivery uses DueDates.

SEE ALSO:
  - engine.go: Consumes DueDays once per projection
  - api/reminders.go: Consumes DueDates / NextDueDate
*/
package projection

// DaySet is a set of 1-based day indices.
type DaySet map[int]struct{}

// Has reports whether day is in the set.
func (s DaySet) Has(day int) bool {
	_, ok := s[day]
	return ok
}

func (s DaySet) Len() int { return len(s) }

// DueContributionDays returns the due days within 1..horizonDays.
// A nil plan or an undefined interval yields an empty set.
func DueContributionDays(plan *ContributionPlan, horizonDays int) DaySet {
	out := make(DaySet)
	for _, d := range dueDayList(plan, horizonDays) {
		out[d] = struct{}{}
	}
	return out
}

// DueDays is DueContributionDays as an ascending slice.
func DueDays(plan *ContributionPlan, horizonDays int) []int {
	return dueDayList(plan, horizonDays)
}

func dueDayList(plan *ContributionPlan, horizonDays int) []int {
	if plan == nil || horizonDays < 1 {
		return nil
	}
	step := plan.Frequency.IntervalDays(plan.CustomIntervalDays)
	if step <= 0 {
		return nil
	}
	days := make([]int, 0, (horizonDays-1)/step+1)
	for d := 1; d <= horizonDays; d += step {
		days = append(days, d)
	}
	return days
}

// =============================================================================
// CALENDAR VIEW - For reminders and display only
// =============================================================================

// DueDate pairs a due day with its calendar date.
type DueDate struct {
	Day  int
	Date Date
}

// DueDates returns the calendar dates of all due days.
func DueDates(plan *ContributionPlan, horizonDays int) []DueDate {
	days := dueDayList(plan, horizonDays)
	out := make([]DueDate, len(days))
	for i, d := range days {
		out[i] = DueDate{Day: d, Date: plan.StartDate.AddDays(d - 1)}
	}
	return out
}

// NextDueDate returns the first due date on or after asOf.
func NextDueDate(plan *ContributionPlan, horizonDays int, asOf Date) (DueDate, bool) {
	if plan == nil {
		return DueDate{}, false
	}
	step := plan.Frequency.IntervalDays(plan.CustomIntervalDays)
	if step <= 0 || horizonDays < 1 {
		return DueDate{}, false
	}

	day := 1
	if offset := DaysBetween(plan.StartDate, asOf); offset > 0 {
		// Round up to the next multiple of step.
		day = ((offset+step-1)/step)*step + 1
	}
	if day > horizonDays {
		return DueDate{}, false
	}
	return DueDate{Day: day, Date: plan.StartDate.AddDays(day - 1)}, true
}

// IsDueOn reports whether a contribution is due on the given calendar date.
func IsDueOn(plan *ContributionPlan, horizonDays int, date Date) bool {
	next, ok := NextDueDate(plan, horizonDays, date)
	return ok && next.Date.Equal(date)
}
