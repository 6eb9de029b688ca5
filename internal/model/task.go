package model

import (
	"time"
)

const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task provenance.
const (
	CreatedByUser = "user"
	CreatedByAI   = "ai"
	CreatedByGoal = "goal"
)

type Task struct {
	ID                string     `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"user_id"`
	GoalID            *string    `db:"goal_id" json:"goal_id"`
	ParentTaskID      *string    `db:"parent_task_id" json:"parent_task_id"`
	Title             string     `db:"title" json:"title"`
	Description       string     `db:"description" json:"description"`
	Category          string     `db:"category" json:"category"`
	Status            string     `db:"status" json:"status"`
	CreatedBy         string     `db:"created_by" json:"created_by"`
	Deadline          *time.Time `db:"deadline" json:"deadline"`
	EnergyRequired    *int       `db:"energy_required" json:"energy_required"`
	EstimatedDuration *int       `db:"estimated_duration" json:"estimated_duration"`
	PriorityScore     int        `db:"priority_score" json:"priority_score"`
	UserOrder         *int       `db:"user_order" json:"user_order"`
	AIReasoning       string     `db:"ai_reasoning" json:"ai_reasoning"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at"`
	CompletedDate     *string    `db:"completed_date" json:"completed_date"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`

	// Loaded on demand (not a column)
	Subtasks []*Task `db:"-" json:"subtasks,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// TaskInput is the body of a create request.
type TaskInput struct {
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Category          string     `json:"category"`
	ParentTaskID      *string    `json:"parentTaskId"`
	Deadline          *time.Time `json:"deadline"`
	EnergyRequired    *int       `json:"energyRequired"`
	EstimatedDuration *int       `json:"estimatedDuration"`
}

// TaskUpdate lists the fields a user may change. Nil means untouched.
type TaskUpdate struct {
	Title             *string    `json:"title"`
	Description       *string    `json:"description"`
	Category          *string    `json:"category"`
	Status            *string    `json:"status"`
	Deadline          *time.Time `json:"deadline"`
	EnergyRequired    *int       `json:"energyRequired"`
	EstimatedDuration *int       `json:"estimatedDuration"`
	UserOrder         *int       `json:"userOrder"`
}

func (u TaskUpdate) IsEmpty() bool {
	return u == TaskUpdate{}
}

// SubtaskSuggestion is one proposed piece of a task breakdown.
type SubtaskSuggestion struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	EstimatedDuration int    `json:"estimated_duration"`
}
