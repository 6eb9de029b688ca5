package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/model"
)

// StreakWindow bounds how many completion dates are read to compute a streak.
const StreakWindow = 100

type GoalCompletionRepository interface {
	WithTx(tx *sqlx.Tx) GoalCompletionRepository
	Insert(ctx context.Context, completion *model.GoalCompletion) (bool, error)
	CompletedDates(ctx context.Context, goalID string, limit int) ([]string, error)
	CountByGoal(ctx context.Context, goalID string) (int, error)
	CountSince(ctx context.Context, goalID, since string) (int, error)
	History(ctx context.Context, userID, goalID string, limit int) ([]*model.GoalCompletion, error)
	CompletedOn(ctx context.Context, userID, date string) ([]*model.GoalCompletion, error)
	TotalsByGoal(ctx context.Context, userID string) (map[string]int, error)
}

type goalCompletionRepository struct {
	db db.DBTX
}

func NewGoalCompletionRepository(db *sqlx.DB) GoalCompletionRepository {
	return &goalCompletionRepository{db: db}
}

func (r *goalCompletionRepository) WithTx(tx *sqlx.Tx) GoalCompletionRepository {
	return &goalCompletionRepository{db: tx}
}

// Insert logs a completion. It returns false, without error, when the goal
// already has an entry for that date.
func (r *goalCompletionRepository) Insert(ctx context.Context, completion *model.GoalCompletion) (bool, error) {
	query := `INSERT INTO goal_completions (id, goal_id, user_id, completion_date, completed, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (goal_id, completion_date) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		completion.ID,
		completion.GoalID,
		completion.UserID,
		completion.CompletionDate,
		completion.Completed,
		completion.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

// CompletedDates returns completion dates, most recent first.
func (r *goalCompletionRepository) CompletedDates(ctx context.Context, goalID string, limit int) ([]string, error) {
	dates := []string{}
	query := `SELECT completion_date FROM goal_completions
	          WHERE goal_id = $1 AND completed = $2
	          ORDER BY completion_date DESC
	          LIMIT $3`

	err := r.db.SelectContext(ctx, &dates, query, goalID, true, limit)
	if err != nil {
		return nil, err
	}

	return dates, nil
}

func (r *goalCompletionRepository) CountByGoal(ctx context.Context, goalID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goal_completions WHERE goal_id = $1 AND completed = $2`
	err := r.db.GetContext(ctx, &count, query, goalID, true)
	return count, err
}

func (r *goalCompletionRepository) CountSince(ctx context.Context, goalID, since string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM goal_completions WHERE goal_id = $1 AND completed = $2 AND completion_date >= $3`
	err := r.db.GetContext(ctx, &count, query, goalID, true, since)
	return count, err
}

func (r *goalCompletionRepository) History(ctx context.Context, userID, goalID string, limit int) ([]*model.GoalCompletion, error) {
	entries := []*model.GoalCompletion{}
	query := `SELECT * FROM goal_completions
	          WHERE goal_id = $1 AND user_id = $2
	          ORDER BY completion_date DESC
	          LIMIT $3`

	err := r.db.SelectContext(ctx, &entries, query, goalID, userID, limit)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *goalCompletionRepository) CompletedOn(ctx context.Context, userID, date string) ([]*model.GoalCompletion, error) {
	entries := []*model.GoalCompletion{}
	query := `SELECT * FROM goal_completions
	          WHERE user_id = $1 AND completion_date = $2 AND completed = $3
	          ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &entries, query, userID, date, true)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// TotalsByGoal counts completions per goal for one user.
func (r *goalCompletionRepository) TotalsByGoal(ctx context.Context, userID string) (map[string]int, error) {
	var rows []struct {
		GoalID string `db:"goal_id"`
		Total  int    `db:"total"`
	}
	query := `SELECT goal_id, COUNT(*) AS total FROM goal_completions
	          WHERE user_id = $1 AND completed = $2
	          GROUP BY goal_id`

	err := r.db.SelectContext(ctx, &rows, query, userID, true)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int, len(rows))
	for _, row := range rows {
		totals[row.GoalID] = row.Total
	}
	return totals, nil
}
