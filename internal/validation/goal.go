package validation

import (
	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/schedule"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxCategoryLength    = 50
)

// ValidateGoal checks a goal as a whole, after defaults have been applied.
func ValidateGoal(goal *model.RecurringGoal) error {
	var c Collector

	c.Add(ValidateRequired("title", goal.Title))
	c.Add(ValidateMaxLength("title", goal.Title, MaxTitleLength))
	c.Add(ValidateMaxLength("description", goal.Description, MaxDescriptionLength))
	c.Add(ValidateMaxLength("category", goal.Category, MaxCategoryLength))
	c.Add(ValidateOneOf("frequency", goal.Frequency,
		model.FrequencyDaily, model.FrequencySpecificDays, model.FrequencyXPerWeek))
	c.Add(ValidateOneOf("preferredTime", goal.PreferredTime,
		model.PreferredTimeAny, model.PreferredTimeMorning, model.PreferredTimeAfternoon, model.PreferredTimeEvening))

	switch goal.Frequency {
	case model.FrequencyXPerWeek:
		c.Add(ValidateRange("timesPerWeek", goal.TimesPerWeek, 1, 7))
	case model.FrequencySpecificDays:
		c.Add(validateWeekdays("specificDays", goal.SpecificDays))
	}
	if goal.Frequency != model.FrequencySpecificDays && len(goal.SpecificDays) > 0 {
		c.Add(&ValidationError{Field: "specificDays", Message: "is only allowed when frequency is specific_days"})
	}

	if goal.DurationMinutes != nil {
		c.Add(ValidateRange("durationMinutes", *goal.DurationMinutes, 1, 24*60))
	}

	return c.Err()
}

func validateWeekdays(field string, days model.Weekdays) *ValidationError {
	if len(days) == 0 {
		return &ValidationError{Field: field, Message: "must list at least one weekday"}
	}
	seen := map[string]bool{}
	for _, d := range days {
		if _, ok := schedule.ParseWeekday(d); !ok {
			return &ValidationError{Field: field, Message: "contains an unknown weekday: " + d}
		}
		if seen[d] {
			return &ValidationError{Field: field, Message: "contains a duplicate weekday: " + d}
		}
		seen[d] = true
	}
	return nil
}
