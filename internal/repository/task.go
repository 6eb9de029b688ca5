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
	ErrTaskNotFound = errors.New("task not found")
)

type TaskRepository interface {
	WithTx(tx *sqlx.Tx) TaskRepository
	Create(ctx context.Context, task *model.Task) error
	ByID(ctx context.Context, userID, taskID string) (*model.Task, error)
	Tasks(ctx context.Context, userID, status string) ([]*model.Task, error)
	Subtasks(ctx context.Context, userID, parentID string) ([]*model.Task, error)
	CompletedOn(ctx context.Context, userID, date string) ([]*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID, taskID string) error
}

type taskRepository struct {
	db db.DBTX
}

func NewTaskRepository(db *sqlx.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) WithTx(tx *sqlx.Tx) TaskRepository {
	return &taskRepository{db: tx}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `INSERT INTO tasks (
	              id, user_id, goal_id, parent_task_id, title, description, category, status, created_by,
	              deadline, energy_required, estimated_duration, priority_score, user_order, ai_reasoning,
	              completed_at, completed_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.GoalID,
		task.ParentTaskID,
		task.Title,
		task.Description,
		task.Category,
		task.Status,
		task.CreatedBy,
		task.Deadline,
		task.EnergyRequired,
		task.EstimatedDuration,
		task.PriorityScore,
		task.UserOrder,
		task.AIReasoning,
		task.CompletedAt,
		task.CompletedDate,
		task.CreatedAt,
		task.UpdatedAt,
	)

	return err
}

func (r *taskRepository) ByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task := &model.Task{}
	query := `SELECT * FROM tasks WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, task, query, taskID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}

	return task, nil
}

// Tasks lists top-level tasks, optionally filtered by status. Highest
// priority first.
func (r *taskRepository) Tasks(ctx context.Context, userID, status string) ([]*model.Task, error) {
	tasks := []*model.Task{}

	query := `SELECT * FROM tasks WHERE user_id = $1 AND parent_task_id IS NULL`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY priority_score DESC, created_at DESC`

	err := r.db.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) Subtasks(ctx context.Context, userID, parentID string) ([]*model.Task, error) {
	tasks := []*model.Task{}
	query := `SELECT * FROM tasks
	          WHERE user_id = $1 AND parent_task_id = $2
	          ORDER BY user_order ASC, created_at ASC`

	err := r.db.SelectContext(ctx, &tasks, query, userID, parentID)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) CompletedOn(ctx context.Context, userID, date string) ([]*model.Task, error) {
	tasks := []*model.Task{}
	query := `SELECT * FROM tasks
	          WHERE user_id = $1 AND status = $2 AND completed_date = $3
	          ORDER BY completed_at DESC`

	err := r.db.SelectContext(ctx, &tasks, query, userID, model.TaskStatusCompleted, date)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	query := `UPDATE tasks
	          SET title = $1, description = $2, category = $3, status = $4, deadline = $5,
	              energy_required = $6, estimated_duration = $7, priority_score = $8, user_order = $9,
	              completed_at = $10, completed_date = $11, updated_at = $12
	          WHERE id = $13 AND user_id = $14`

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		task.Category,
		task.Status,
		task.Deadline,
		task.EnergyRequired,
		task.EstimatedDuration,
		task.PriorityScore,
		task.UserOrder,
		task.CompletedAt,
		task.CompletedDate,
		time.Now(),
		task.ID,
		task.UserID,
	)

	return requireRow(result, err, ErrTaskNotFound)
}

func (r *taskRepository) Delete(ctx context.Context, userID, taskID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, taskID, userID)
	return requireRow(result, err, ErrTaskNotFound)
}
