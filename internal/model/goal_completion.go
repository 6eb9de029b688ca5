package model

import (
	"time"
)

// GoalCompletion is one day's check-in for a goal. (goal_id, completion_date)
// is unique.
type GoalCompletion struct {
	ID             string    `db:"id" json:"id"`
	GoalID         string    `db:"goal_id" json:"goal_id"`
	UserID         string    `db:"user_id" json:"user_id"`
	CompletionDate string    `db:"completion_date" json:"date"`
	Completed      bool      `db:"completed" json:"completed"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
