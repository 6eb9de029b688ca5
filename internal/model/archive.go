package model

import (
	"time"
)

// JournalEntry is the user's markdown note for one day. Mood and energy come
// from the entry's front matter.
type JournalEntry struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	EntryDate string    `db:"entry_date" json:"date"`
	Body      string    `db:"body" json:"body"`
	Mood      *int      `db:"mood" json:"mood"`
	Energy    *int      `db:"energy" json:"energy"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DailyArchive is the closed-out record of a day.
type DailyArchive struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	ArchiveDate    string    `db:"archive_date" json:"date"`
	TasksCompleted int       `db:"tasks_completed" json:"tasks_completed"`
	GoalsCompleted int       `db:"goals_completed" json:"goals_completed"`
	Summary        string    `db:"summary" json:"summary"`
	Praise         string    `db:"praise" json:"praise"`
	JournalHTML    string    `db:"journal_html" json:"journal_html"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ArchiveDay bundles an archive row with the items it counts.
type ArchiveDay struct {
	Archive     *DailyArchive     `json:"archive"`
	Tasks       []*Task           `json:"tasks"`
	Completions []*GoalCompletion `json:"completions"`
	Journal     *JournalEntry     `json:"journal"`
}
