package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/llm"
	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/repository"
	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/validation"
)

const maxSubtasks = 5

type TaskService struct {
	tasks repository.TaskRepository
	tx    *db.Transactor
	llm   llm.Client
	clock *schedule.Clock
}

func NewTaskService(tasks repository.TaskRepository, tx *db.Transactor, client llm.Client, clock *schedule.Clock) *TaskService {
	return &TaskService{
		tasks: tasks,
		tx:    tx,
		llm:   client,
		clock: clock,
	}
}

// PriorityScore ranks a task by how close its deadline is.
func PriorityScore(deadline *time.Time, now time.Time) int {
	score := 10
	if deadline == nil {
		return score
	}

	until := deadline.Sub(now)
	switch {
	case until < 24*time.Hour:
		score += 50
	case until < 3*24*time.Hour:
		score += 30
	case until < 7*24*time.Hour:
		score += 15
	}
	return score
}

func (s *TaskService) Create(ctx context.Context, userID string, input model.TaskInput) (*model.Task, error) {
	now := s.clock.Now()
	task := &model.Task{
		ID:                uuid.New().String(),
		UserID:            userID,
		ParentTaskID:      input.ParentTaskID,
		Title:             strings.TrimSpace(input.Title),
		Description:       strings.TrimSpace(input.Description),
		Category:          strings.TrimSpace(input.Category),
		Status:            model.TaskStatusPending,
		CreatedBy:         model.CreatedByUser,
		Deadline:          input.Deadline,
		EnergyRequired:    input.EnergyRequired,
		EstimatedDuration: input.EstimatedDuration,
		PriorityScore:     PriorityScore(input.Deadline, now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := validation.ValidateTask(task)
	if err != nil {
		return nil, err
	}

	// Verify ownership of the parent
	if task.ParentTaskID != nil {
		_, err = s.tasks.ByID(ctx, userID, *task.ParentTaskID)
		if err != nil {
			return nil, err
		}
	}

	err = s.tasks.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// List returns top-level tasks, optionally filtered by status.
func (s *TaskService) List(ctx context.Context, userID, status string) ([]*model.Task, error) {
	if status != "" {
		var c validation.Collector
		c.Add(validation.ValidateOneOf("status", status,
			model.TaskStatusPending, model.TaskStatusInProgress, model.TaskStatusCompleted))
		err := c.Err()
		if err != nil {
			return nil, err
		}
	}
	return s.tasks.Tasks(ctx, userID, status)
}

// ByID returns the task with its subtasks loaded.
func (s *TaskService) ByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.tasks.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.Subtasks, err = s.tasks.Subtasks(ctx, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subtasks: %w", err)
	}

	return task, nil
}

func (s *TaskService) Update(ctx context.Context, userID, taskID string, update model.TaskUpdate) (*model.Task, error) {
	if update.IsEmpty() {
		return nil, validation.New("body", "no valid fields to update")
	}

	task, err := s.tasks.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		task.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Category != nil {
		task.Category = *update.Category
	}
	if update.Deadline != nil {
		task.Deadline = update.Deadline
		task.PriorityScore = PriorityScore(task.Deadline, s.clock.Now())
	}
	if update.EnergyRequired != nil {
		task.EnergyRequired = update.EnergyRequired
	}
	if update.EstimatedDuration != nil {
		task.EstimatedDuration = update.EstimatedDuration
	}
	if update.UserOrder != nil {
		task.UserOrder = update.UserOrder
	}
	if update.Status != nil && *update.Status != task.Status {
		s.setStatus(task, *update.Status)
	}

	err = validation.ValidateTask(task)
	if err != nil {
		return nil, err
	}

	err = s.tasks.Update(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// Toggle flips a task between pending and completed.
func (s *TaskService) Toggle(ctx context.Context, userID, taskID string) (*model.Task, error) {
	task, err := s.tasks.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if task.IsCompleted() {
		s.setStatus(task, model.TaskStatusPending)
	} else {
		s.setStatus(task, model.TaskStatusCompleted)
	}

	err = s.tasks.Update(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to toggle task: %w", err)
	}

	return task, nil
}

// setStatus keeps completed_at and completed_date in step with the status.
func (s *TaskService) setStatus(task *model.Task, status string) {
	task.Status = status
	if status != model.TaskStatusCompleted {
		task.CompletedAt = nil
		task.CompletedDate = nil
		return
	}

	now := s.clock.Now()
	day := schedule.FormatDate(now)
	task.CompletedAt = &now
	task.CompletedDate = &day
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID string) error {
	return s.tasks.Delete(ctx, userID, taskID)
}

// Breakdown asks the LLM to split a task into subtasks. Nothing is stored.
func (s *TaskService) Breakdown(ctx context.Context, userID, taskID string) ([]model.SubtaskSuggestion, error) {
	task, err := s.tasks.ByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	var suggestions []model.SubtaskSuggestion
	err = s.llm.CompleteJSON(ctx, breakdownPrompt(task), &suggestions)
	if err != nil {
		return nil, fmt.Errorf("failed to break down task: %w", err)
	}

	subtasks := make([]model.SubtaskSuggestion, 0, maxSubtasks)
	for _, suggestion := range suggestions {
		suggestion.Title = strings.TrimSpace(suggestion.Title)
		if suggestion.Title == "" {
			continue
		}
		if suggestion.EstimatedDuration < 0 {
			suggestion.EstimatedDuration = 0
		}
		subtasks = append(subtasks, suggestion)
		if len(subtasks) == maxSubtasks {
			break
		}
	}
	if len(subtasks) == 0 {
		return nil, fmt.Errorf("failed to break down task: %w", llm.ErrInvalidResponse)
	}

	return subtasks, nil
}

func breakdownPrompt(task *model.Task) string {
	var b strings.Builder
	b.WriteString("Break the following task into 3 to 5 concrete subtasks.\n")
	b.WriteString("Task: " + task.Title + "\n")
	if task.Description != "" {
		b.WriteString("Details: " + task.Description + "\n")
	}
	b.WriteString(`Respond with only a JSON array of objects with keys "title", "description" and "estimated_duration" (minutes).`)
	return b.String()
}

// AcceptBreakdown stores the chosen subtasks under the parent in one
// transaction.
func (s *TaskService) AcceptBreakdown(ctx context.Context, userID, taskID string, subtasks []model.SubtaskSuggestion) ([]*model.Task, error) {
	if len(subtasks) == 0 {
		return nil, validation.New("subtasks", "must contain at least one subtask")
	}

	var c validation.Collector
	for _, st := range subtasks {
		c.Add(validation.ValidateRequired("subtasks.title", st.Title))
		c.Add(validation.ValidateMaxLength("subtasks.title", st.Title, validation.MaxTitleLength))
	}
	err := c.Err()
	if err != nil {
		return nil, err
	}

	created := make([]*model.Task, 0, len(subtasks))
	err = s.tx.Do(ctx, func(tx *sqlx.Tx) error {
		tasks := s.tasks.WithTx(tx)

		parent, err := tasks.ByID(ctx, userID, taskID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		for i, st := range subtasks {
			order := i
			task := &model.Task{
				ID:            uuid.New().String(),
				UserID:        userID,
				ParentTaskID:  &parent.ID,
				Title:         strings.TrimSpace(st.Title),
				Description:   st.Description,
				Category:      parent.Category,
				Status:        model.TaskStatusPending,
				CreatedBy:     model.CreatedByAI,
				Deadline:      parent.Deadline,
				PriorityScore: parent.PriorityScore,
				UserOrder:     &order,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if st.EstimatedDuration > 0 {
				d := st.EstimatedDuration
				task.EstimatedDuration = &d
			}

			err = tasks.Create(ctx, task)
			if err != nil {
				return fmt.Errorf("failed to create subtask: %w", err)
			}
			created = append(created, task)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
