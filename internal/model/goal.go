package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	FrequencyDaily        = "daily"
	FrequencySpecificDays = "specific_days"
	FrequencyXPerWeek     = "x_per_week"
)

const (
	PreferredTimeAny       = "any"
	PreferredTimeMorning   = "morning"
	PreferredTimeAfternoon = "afternoon"
	PreferredTimeEvening   = "evening"
)

const DefaultGoalCategory = "General"

// RecurringGoal is a standing commitment that materializes into daily tasks.
// Calendar days are stored as YYYY-MM-DD text.
type RecurringGoal struct {
	ID                     string    `db:"id" json:"id"`
	UserID                 string    `db:"user_id" json:"user_id"`
	Title                  string    `db:"title" json:"title"`
	Description            string    `db:"description" json:"description"`
	Category               string    `db:"category" json:"category"`
	Frequency              string    `db:"frequency" json:"frequency"`
	TimesPerWeek           int       `db:"times_per_week" json:"times_per_week"`
	SpecificDays           Weekdays  `db:"specific_days" json:"specific_days"`
	PreferredTime          string    `db:"preferred_time" json:"preferred_time"`
	DurationMinutes        *int      `db:"duration_minutes" json:"duration_minutes"`
	IsActive               bool      `db:"is_active" json:"is_active"`
	WeekStartDate          string    `db:"week_start_date" json:"week_start_date"`
	TimesCompletedThisWeek int       `db:"times_completed_this_week" json:"times_completed_this_week"`
	Streak                 int       `db:"streak" json:"streak"`
	BestStreak             int       `db:"best_streak" json:"best_streak"`
	LastCompletedDate      *string   `db:"last_completed_date" json:"last_completed_date"`
	LastGeneratedDate      *string   `db:"last_generated_date" json:"last_generated_date"`
	TasksGeneratedToday    bool      `db:"tasks_generated_today" json:"tasks_generated_today"`
	CreatedAt              time.Time `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}

// RecurringGoalInput is the body of a create request.
type RecurringGoalInput struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Frequency       string   `json:"frequency"`
	TimesPerWeek    *int     `json:"timesPerWeek"`
	SpecificDays    Weekdays `json:"specificDays"`
	PreferredTime   string   `json:"preferredTime"`
	DurationMinutes *int     `json:"durationMinutes"`
}

// RecurringGoalUpdate lists the fields a user may change. Nil means untouched.
type RecurringGoalUpdate struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Category        *string   `json:"category"`
	Frequency       *string   `json:"frequency"`
	TimesPerWeek    *int      `json:"timesPerWeek"`
	SpecificDays    *Weekdays `json:"specificDays"`
	PreferredTime   *string   `json:"preferredTime"`
	DurationMinutes *int      `json:"durationMinutes"`
	IsActive        *bool     `json:"isActive"`
}

func (u RecurringGoalUpdate) IsEmpty() bool {
	return u == RecurringGoalUpdate{}
}

// Apply copies the set fields onto goal.
func (u RecurringGoalUpdate) Apply(goal *RecurringGoal) {
	if u.Title != nil {
		goal.Title = *u.Title
	}
	if u.Description != nil {
		goal.Description = *u.Description
	}
	if u.Category != nil {
		goal.Category = *u.Category
	}
	if u.Frequency != nil {
		goal.Frequency = *u.Frequency
	}
	if u.TimesPerWeek != nil {
		goal.TimesPerWeek = *u.TimesPerWeek
	}
	if u.SpecificDays != nil {
		goal.SpecificDays = *u.SpecificDays
	}
	if u.PreferredTime != nil {
		goal.PreferredTime = *u.PreferredTime
	}
	if u.DurationMinutes != nil {
		goal.DurationMinutes = u.DurationMinutes
	}
	if u.IsActive != nil {
		goal.IsActive = *u.IsActive
	}
}

// GoalStatus is a goal as seen on a given day.
type GoalStatus struct {
	*RecurringGoal
	CompletedToday    bool `json:"completed_today"`
	DueToday          bool `json:"due_today"`
	RemainingThisWeek *int `json:"remaining_this_week"`
	TotalCompletions  int  `json:"total_completions"`
}

type GoalStats struct {
	GoalID            string  `json:"goal_id"`
	CurrentStreak     int     `json:"current_streak"`
	BestStreak        int     `json:"best_streak"`
	TotalCompletions  int     `json:"total_completions"`
	LastCompletedDate *string `json:"last_completed_date"`
	CompletionRate30d int     `json:"completion_rate_30d"`
}

// Weekdays is an ordered list of lowercase weekday names. It is stored as a
// comma separated string and rendered as a JSON array.
type Weekdays []string

func (w Weekdays) Contains(name string) bool {
	return slices.Contains(w, strings.ToLower(name))
}

func (w Weekdays) Value() (driver.Value, error) {
	return strings.Join(w, ","), nil
}

func (w *Weekdays) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Weekdays", src)
	}

	if raw == "" {
		*w = nil
		return nil
	}
	*w = strings.Split(raw, ",")
	return nil
}

func (w Weekdays) MarshalJSON() ([]byte, error) {
	if w == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(w))
}
