package schedule

import (
	"slices"
	"time"

	"github.com/nzoschke/cadence/internal/model"
)

// IsDue decides whether goal should produce a task on today. The goal must
// already be rolled over; whether it was completed today is the caller's
// concern.
func IsDue(goal *model.RecurringGoal, today time.Time, week Week) bool {
	weekday := Date(today).Weekday()

	switch goal.Frequency {
	case model.FrequencyDaily:
		return true
	case model.FrequencySpecificDays:
		return goal.SpecificDays.Contains(WeekdayName(weekday))
	case model.FrequencyXPerWeek:
		if goal.TimesPerWeek <= 0 {
			return false
		}
		remaining := goal.TimesPerWeek - goal.TimesCompletedThisWeek
		if remaining <= 0 {
			return false
		}
		if slices.Contains(DistributedDays(goal.TimesPerWeek), weekday) {
			return true
		}
		// catch-up: the quota can no longer be met without today
		return remaining >= week.DaysRemaining(today)
	default:
		return false
	}
}

// RemainingThisWeek is the open quota for x_per_week goals, never negative.
// Other frequencies have no quota and return nil.
func RemainingThisWeek(goal *model.RecurringGoal) *int {
	if goal.Frequency != model.FrequencyXPerWeek {
		return nil
	}
	remaining := max(goal.TimesPerWeek-goal.TimesCompletedThisWeek, 0)
	return &remaining
}
