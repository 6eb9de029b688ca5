// Package schedule holds the calendar rules behind recurring goals: week
// windows, weekday distribution, due-today evaluation and streaks. Nothing in
// here touches storage.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/nzoschke/cadence/internal/model"
)

// DateLayout is the storage and wire format for calendar days.
const DateLayout = "2006-01-02"

var weekdayNames = [...]string{
	"sunday",
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
}

// WeekdayName returns the lowercase name used in goal.specific_days.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

// ParseWeekday accepts a weekday name in any case.
func ParseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range weekdayNames {
		if n == name {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// Date drops the clock part of t, keeping the calendar day as seen in t's
// location, and returns it as midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return Date(t).Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// Week anchors the weekly quota window on a configurable first day.
type Week struct {
	Start time.Weekday
}

// DefaultWeek starts on Sunday.
var DefaultWeek = Week{Start: time.Sunday}

// NewWeek builds a Week from a weekday name such as "sunday" or "Monday".
func NewWeek(startDay string) (Week, error) {
	d, ok := ParseWeekday(startDay)
	if !ok {
		return Week{}, fmt.Errorf("invalid week start day %q", startDay)
	}
	return Week{Start: d}, nil
}

// offset is the 0-based position of day inside its week.
func (w Week) offset(day time.Time) int {
	return (int(Date(day).Weekday()) - int(w.Start) + 7) % 7
}

// StartOf returns the first calendar day of the week containing day.
func (w Week) StartOf(day time.Time) time.Time {
	return Date(day).AddDate(0, 0, -w.offset(day))
}

// DaysRemaining counts the days left in the week, today included.
func (w Week) DaysRemaining(day time.Time) int {
	return 7 - w.offset(day)
}

// NeedsRollover reports whether today falls past the seven days that begin at
// the goal's stored week_start_date. The stored anchor defines its own window,
// so changing the configured start day never resets a week early.
// A missing or unreadable week_start_date always needs a rollover.
func (w Week) NeedsRollover(goal *model.RecurringGoal, today time.Time) bool {
	start, err := ParseDate(goal.WeekStartDate)
	if err != nil {
		return true
	}
	return DaysBetween(start, today) >= 7
}

// Rollover resets the weekly counters in place when a new week has begun and
// reports whether anything changed.
func (w Week) Rollover(goal *model.RecurringGoal, today time.Time) bool {
	if !w.NeedsRollover(goal, today) {
		return false
	}
	goal.TimesCompletedThisWeek = 0
	goal.WeekStartDate = FormatDate(w.StartOf(today))
	goal.TasksGeneratedToday = false
	return true
}
