package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/schedule"
)

// GenerationResult lists the tasks created by one generation pass.
type GenerationResult struct {
	Tasks []*model.Task `json:"tasks"`
	Count int           `json:"count"`
}

// GenerateDailyTasks turns today's due goals into pending tasks. The pass runs
// in one transaction: either every due goal gets its task and is marked
// generated, or nothing is written. Goals already generated or completed
// today are skipped, so repeating the pass creates nothing.
func (s *RecurringGoalService) GenerateDailyTasks(ctx context.Context, userID string, today time.Time) (*GenerationResult, error) {
	day := schedule.FormatDate(today)
	now := s.clock.Now()
	result := &GenerationResult{Tasks: []*model.Task{}}

	err := s.tx.Do(ctx, func(tx *sqlx.Tx) error {
		goals := s.goals.WithTx(tx)
		tasks := s.tasks.WithTx(tx)

		active, err := goals.ActiveGoals(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to load goals: %w", err)
		}
		for _, goal := range active {
			if !s.week.Rollover(goal, today) {
				continue
			}
			err = goals.Rollover(ctx, goal)
			if err != nil {
				return fmt.Errorf("failed to roll over goal %s: %w", goal.ID, err)
			}
		}

		pending, err := goals.PendingGeneration(ctx, userID, day)
		if err != nil {
			return fmt.Errorf("failed to load pending goals: %w", err)
		}

		for _, goal := range pending {
			if goal.LastCompletedDate != nil && *goal.LastCompletedDate == day {
				continue
			}
			if !schedule.IsDue(goal, today, s.week) {
				continue
			}

			claimed, err := goals.MarkGenerated(ctx, userID, goal.ID, day)
			if err != nil {
				return fmt.Errorf("failed to mark goal %s generated: %w", goal.ID, err)
			}
			if !claimed {
				continue
			}

			task := taskFromGoal(goal, now)
			err = tasks.Create(ctx, task)
			if err != nil {
				return fmt.Errorf("failed to create task for goal %s: %w", goal.ID, err)
			}

			result.Tasks = append(result.Tasks, task)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Count = len(result.Tasks)
	return result, nil
}

func taskFromGoal(goal *model.RecurringGoal, now time.Time) *model.Task {
	goalID := goal.ID
	return &model.Task{
		ID:                uuid.New().String(),
		UserID:            goal.UserID,
		GoalID:            &goalID,
		Title:             goal.Title,
		Description:       goal.Description,
		Category:          goal.Category,
		Status:            model.TaskStatusPending,
		CreatedBy:         model.CreatedByGoal,
		EstimatedDuration: goal.DurationMinutes,
		PriorityScore:     PriorityScore(nil, now),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
