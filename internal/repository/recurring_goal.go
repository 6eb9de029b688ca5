package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/model"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

type RecurringGoalRepository interface {
	WithTx(tx *sqlx.Tx) RecurringGoalRepository
	Create(ctx context.Context, goal *model.RecurringGoal) error
	ByID(ctx context.Context, userID, goalID string) (*model.RecurringGoal, error)
	ActiveGoals(ctx context.Context, userID string) ([]*model.RecurringGoal, error)
	PendingGeneration(ctx context.Context, userID, today string) ([]*model.RecurringGoal, error)
	ActiveUserIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, goal *model.RecurringGoal) error
	Rollover(ctx context.Context, goal *model.RecurringGoal) error
	MarkGenerated(ctx context.Context, userID, goalID, today string) (bool, error)
	IncrementCompletion(ctx context.Context, userID, goalID, today string) error
	UpdateStreak(ctx context.Context, userID, goalID string, streak int) error
	Delete(ctx context.Context, userID, goalID string) error
}

type recurringGoalRepository struct {
	db db.DBTX
}

func NewRecurringGoalRepository(db *sqlx.DB) RecurringGoalRepository {
	return &recurringGoalRepository{db: db}
}

func (r *recurringGoalRepository) WithTx(tx *sqlx.Tx) RecurringGoalRepository {
	return &recurringGoalRepository{db: tx}
}

func (r *recurringGoalRepository) Create(ctx context.Context, goal *model.RecurringGoal) error {
	query := `INSERT INTO recurring_goals (
	              id, user_id, title, description, category, frequency, times_per_week, specific_days,
	              preferred_time, duration_minutes, is_active, week_start_date, times_completed_this_week,
	              streak, best_streak, last_completed_date, last_generated_date, tasks_generated_today,
	              created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Frequency,
		goal.TimesPerWeek,
		goal.SpecificDays,
		goal.PreferredTime,
		goal.DurationMinutes,
		goal.IsActive,
		goal.WeekStartDate,
		goal.TimesCompletedThisWeek,
		goal.Streak,
		goal.BestStreak,
		goal.LastCompletedDate,
		goal.LastGeneratedDate,
		goal.TasksGeneratedToday,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *recurringGoalRepository) ByID(ctx context.Context, userID, goalID string) (*model.RecurringGoal, error) {
	goal := &model.RecurringGoal{}
	query := `SELECT * FROM recurring_goals WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, goal, query, goalID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *recurringGoalRepository) ActiveGoals(ctx context.Context, userID string) ([]*model.RecurringGoal, error) {
	goals := []*model.RecurringGoal{}
	query := `SELECT * FROM recurring_goals
	          WHERE user_id = $1 AND is_active = $2
	          ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &goals, query, userID, true)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// PendingGeneration returns active goals that have not produced a task on today yet.
func (r *recurringGoalRepository) PendingGeneration(ctx context.Context, userID, today string) ([]*model.RecurringGoal, error) {
	goals := []*model.RecurringGoal{}
	query := `SELECT * FROM recurring_goals
	          WHERE user_id = $1 AND is_active = $2
	            AND (last_generated_date IS NULL OR last_generated_date < $3)
	          ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &goals, query, userID, true, today)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *recurringGoalRepository) ActiveUserIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	query := `SELECT DISTINCT user_id FROM recurring_goals WHERE is_active = $1 ORDER BY user_id`

	err := r.db.SelectContext(ctx, &ids, query, true)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Update writes the user-editable fields.
func (r *recurringGoalRepository) Update(ctx context.Context, goal *model.RecurringGoal) error {
	query := `UPDATE recurring_goals
	          SET title = $1, description = $2, category = $3, frequency = $4, times_per_week = $5,
	              specific_days = $6, preferred_time = $7, duration_minutes = $8, is_active = $9, updated_at = $10
	          WHERE id = $11 AND user_id = $12`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Frequency,
		goal.TimesPerWeek,
		goal.SpecificDays,
		goal.PreferredTime,
		goal.DurationMinutes,
		goal.IsActive,
		time.Now(),
		goal.ID,
		goal.UserID,
	)

	return requireRow(result, err, ErrGoalNotFound)
}

// Rollover persists reset weekly counters. The week_start_date guard makes a
// repeated rollover for the same week a no-op.
func (r *recurringGoalRepository) Rollover(ctx context.Context, goal *model.RecurringGoal) error {
	query := `UPDATE recurring_goals
	          SET times_completed_this_week = 0, week_start_date = $1, tasks_generated_today = $2, updated_at = $3
	          WHERE id = $4 AND user_id = $5 AND week_start_date < $1`

	_, err := r.db.ExecContext(ctx, query,
		goal.WeekStartDate,
		false,
		time.Now(),
		goal.ID,
		goal.UserID,
	)

	return err
}

// MarkGenerated claims today's generation for a goal. It reports false when
// the goal was already generated today, so concurrent passes create at most
// one task per goal per day.
func (r *recurringGoalRepository) MarkGenerated(ctx context.Context, userID, goalID, today string) (bool, error) {
	query := `UPDATE recurring_goals
	          SET last_generated_date = $1, tasks_generated_today = $2, updated_at = $3
	          WHERE id = $4 AND user_id = $5
	            AND (last_generated_date IS NULL OR last_generated_date < $1)`

	result, err := r.db.ExecContext(ctx, query, today, true, time.Now(), goalID, userID)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *recurringGoalRepository) IncrementCompletion(ctx context.Context, userID, goalID, today string) error {
	query := `UPDATE recurring_goals
	          SET times_completed_this_week = times_completed_this_week + 1, last_completed_date = $1, updated_at = $2
	          WHERE id = $3 AND user_id = $4`

	result, err := r.db.ExecContext(ctx, query, today, time.Now(), goalID, userID)
	return requireRow(result, err, ErrGoalNotFound)
}

// UpdateStreak stores the current streak and raises best_streak when exceeded.
func (r *recurringGoalRepository) UpdateStreak(ctx context.Context, userID, goalID string, streak int) error {
	query := `UPDATE recurring_goals
	          SET streak = $1,
	              best_streak = CASE WHEN best_streak > $1 THEN best_streak ELSE $1 END,
	              updated_at = $2
	          WHERE id = $3 AND user_id = $4`

	result, err := r.db.ExecContext(ctx, query, streak, time.Now(), goalID, userID)
	return requireRow(result, err, ErrGoalNotFound)
}

func (r *recurringGoalRepository) Delete(ctx context.Context, userID, goalID string) error {
	query := `DELETE FROM recurring_goals WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, goalID, userID)
	return requireRow(result, err, ErrGoalNotFound)
}

// requireRow turns a zero-row write into notFound.
func requireRow(result sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
