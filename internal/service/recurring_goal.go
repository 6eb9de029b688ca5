package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nzoschke/cadence/internal/db"
	"github.com/nzoschke/cadence/internal/model"
	"github.com/nzoschke/cadence/internal/repository"
	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/validation"
)

// Completion outcomes.
const (
	CompletionCompleted   = "completed"
	CompletionAlreadyDone = "already_done"
)

const (
	DefaultHistoryLimit = 30
	MaxHistoryLimit     = 365

	completionRateWindow = 30
)

// CompletionOutcome is the result of checking a goal off for a day. A second
// check-in on the same day is reported as already_done, never as an error.
type CompletionOutcome struct {
	Status string               `json:"status"`
	Goal   *model.RecurringGoal `json:"goal,omitempty"`
}

type RecurringGoalService struct {
	goals       repository.RecurringGoalRepository
	completions repository.GoalCompletionRepository
	tasks       repository.TaskRepository
	tx          *db.Transactor
	week        schedule.Week
	clock       *schedule.Clock
}

func NewRecurringGoalService(
	goals repository.RecurringGoalRepository,
	completions repository.GoalCompletionRepository,
	tasks repository.TaskRepository,
	tx *db.Transactor,
	week schedule.Week,
	clock *schedule.Clock,
) *RecurringGoalService {
	return &RecurringGoalService{
		goals:       goals,
		completions: completions,
		tasks:       tasks,
		tx:          tx,
		week:        week,
		clock:       clock,
	}
}

// WithClock returns a copy of the service that stamps generated tasks with
// clock's time. The generate command uses it to backfill a past day.
func (s *RecurringGoalService) WithClock(clock *schedule.Clock) *RecurringGoalService {
	c := *s
	c.clock = clock
	return &c
}

func (s *RecurringGoalService) Create(ctx context.Context, userID string, input model.RecurringGoalInput, today time.Time) (*model.RecurringGoal, error) {
	now := time.Now()
	goal := &model.RecurringGoal{
		ID:              uuid.New().String(),
		UserID:          userID,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Category:        strings.TrimSpace(input.Category),
		Frequency:       input.Frequency,
		TimesPerWeek:    1,
		SpecificDays:    input.SpecificDays,
		PreferredTime:   input.PreferredTime,
		DurationMinutes: input.DurationMinutes,
		IsActive:        true,
		WeekStartDate:   schedule.FormatDate(s.week.StartOf(today)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if input.TimesPerWeek != nil {
		goal.TimesPerWeek = *input.TimesPerWeek
	}
	if goal.Category == "" {
		goal.Category = model.DefaultGoalCategory
	}
	if goal.PreferredTime == "" {
		goal.PreferredTime = model.PreferredTimeAny
	}
	normalizeGoal(goal)

	err := validation.ValidateGoal(goal)
	if err != nil {
		return nil, err
	}

	err = s.goals.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return goal, nil
}

// normalizeGoal applies the frequency-dependent defaults.
func normalizeGoal(goal *model.RecurringGoal) {
	if goal.Frequency == model.FrequencyDaily {
		goal.TimesPerWeek = 7
	}
	for i, d := range goal.SpecificDays {
		goal.SpecificDays[i] = strings.ToLower(strings.TrimSpace(d))
	}
}

func (s *RecurringGoalService) List(ctx context.Context, userID string) ([]*model.RecurringGoal, error) {
	return s.goals.ActiveGoals(ctx, userID)
}

func (s *RecurringGoalService) ByID(ctx context.Context, userID, goalID string) (*model.RecurringGoal, error) {
	return s.goals.ByID(ctx, userID, goalID)
}

func (s *RecurringGoalService) Update(ctx context.Context, userID, goalID string, update model.RecurringGoalUpdate) (*model.RecurringGoal, error) {
	if update.IsEmpty() {
		return nil, validation.New("body", "no valid fields to update")
	}

	goal, err := s.goals.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	update.Apply(goal)
	// days left over from a previous specific_days schedule
	if update.SpecificDays == nil && goal.Frequency != model.FrequencySpecificDays {
		goal.SpecificDays = nil
	}
	normalizeGoal(goal)

	err = validation.ValidateGoal(goal)
	if err != nil {
		return nil, err
	}

	err = s.goals.Update(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	return s.goals.ByID(ctx, userID, goalID)
}

func (s *RecurringGoalService) Delete(ctx context.Context, userID, goalID string) error {
	return s.goals.Delete(ctx, userID, goalID)
}

// Complete records today's check-in. Concurrent calls for the same goal and
// day are arbitrated by the (goal_id, completion_date) constraint: exactly one
// reports completed, the rest already_done.
func (s *RecurringGoalService) Complete(ctx context.Context, userID, goalID string, today time.Time) (*CompletionOutcome, error) {
	day := schedule.FormatDate(today)
	outcome := &CompletionOutcome{Status: CompletionAlreadyDone}

	err := s.tx.Do(ctx, func(tx *sqlx.Tx) error {
		goals := s.goals.WithTx(tx)
		completions := s.completions.WithTx(tx)

		goal, err := goals.ByID(ctx, userID, goalID)
		if err != nil {
			return err
		}

		if s.week.Rollover(goal, today) {
			err = goals.Rollover(ctx, goal)
			if err != nil {
				return fmt.Errorf("failed to roll over goal: %w", err)
			}
		}

		if goal.LastCompletedDate != nil && *goal.LastCompletedDate == day {
			return nil
		}

		inserted, err := completions.Insert(ctx, &model.GoalCompletion{
			ID:             uuid.New().String(),
			GoalID:         goal.ID,
			UserID:         userID,
			CompletionDate: day,
			Completed:      true,
			CreatedAt:      time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to log completion: %w", err)
		}
		if !inserted {
			return nil
		}

		err = goals.IncrementCompletion(ctx, userID, goalID, day)
		if err != nil {
			return fmt.Errorf("failed to increment completion: %w", err)
		}

		values, err := completions.CompletedDates(ctx, goalID, repository.StreakWindow)
		if err != nil {
			return fmt.Errorf("failed to load completion dates: %w", err)
		}
		dates, err := schedule.ParseDates(values)
		if err != nil {
			return err
		}
		streak := max(schedule.CalculateStreak(dates), 1)

		err = goals.UpdateStreak(ctx, userID, goalID, streak)
		if err != nil {
			return fmt.Errorf("failed to update streak: %w", err)
		}

		goal, err = goals.ByID(ctx, userID, goalID)
		if err != nil {
			return err
		}

		outcome = &CompletionOutcome{Status: CompletionCompleted, Goal: goal}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return outcome, nil
}

// RolloverAll resets the weekly counters of every active goal whose week has
// ended. A failure on one goal is logged and does not stop the others.
func (s *RecurringGoalService) RolloverAll(ctx context.Context, userID string, today time.Time) (int, error) {
	goals, err := s.goals.ActiveGoals(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to load goals: %w", err)
	}

	return s.rollover(ctx, goals, today), nil
}

func (s *RecurringGoalService) rollover(ctx context.Context, goals []*model.RecurringGoal, today time.Time) int {
	rolled := 0
	for _, goal := range goals {
		if !s.week.Rollover(goal, today) {
			continue
		}
		err := s.goals.Rollover(ctx, goal)
		if err != nil {
			slog.Error("failed to roll over goal", "error", err, "goal_id", goal.ID, "user_id", goal.UserID)
			continue
		}
		rolled++
	}
	return rolled
}

// TodayStatus lists active goals with their standing for today, due goals
// first.
func (s *RecurringGoalService) TodayStatus(ctx context.Context, userID string, today time.Time) ([]*model.GoalStatus, error) {
	goals, err := s.goals.ActiveGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	s.rollover(ctx, goals, today)

	totals, err := s.completions.TotalsByGoal(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}

	day := schedule.FormatDate(today)
	statuses := make([]*model.GoalStatus, 0, len(goals))
	for _, goal := range goals {
		completedToday := goal.LastCompletedDate != nil && *goal.LastCompletedDate == day
		statuses = append(statuses, &model.GoalStatus{
			RecurringGoal:     goal,
			CompletedToday:    completedToday,
			DueToday:          !completedToday && schedule.IsDue(goal, today, s.week),
			RemainingThisWeek: schedule.RemainingThisWeek(goal),
			TotalCompletions:  totals[goal.ID],
		})
	}

	// goals arrive newest first; keep that order within each group
	slices.SortStableFunc(statuses, func(a, b *model.GoalStatus) int {
		return cmp.Compare(boolRank(a.DueToday), boolRank(b.DueToday))
	})

	return statuses, nil
}

func boolRank(due bool) int {
	if due {
		return 0
	}
	return 1
}

func (s *RecurringGoalService) Stats(ctx context.Context, userID, goalID string, today time.Time) (*model.GoalStats, error) {
	goal, err := s.goals.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	total, err := s.completions.CountByGoal(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}

	since := schedule.FormatDate(schedule.Date(today).AddDate(0, 0, -(completionRateWindow - 1)))
	recent, err := s.completions.CountSince(ctx, goalID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent completions: %w", err)
	}

	return &model.GoalStats{
		GoalID:            goal.ID,
		CurrentStreak:     goal.Streak,
		BestStreak:        goal.BestStreak,
		TotalCompletions:  total,
		LastCompletedDate: goal.LastCompletedDate,
		CompletionRate30d: int(math.Round(float64(recent) / completionRateWindow * 100)),
	}, nil
}

func (s *RecurringGoalService) History(ctx context.Context, userID, goalID string, limit int) ([]*model.GoalCompletion, error) {
	_, err := s.goals.ByID(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	return s.completions.History(ctx, userID, goalID, limit)
}

// ActiveUserIDs lists users that own at least one active goal.
func (s *RecurringGoalService) ActiveUserIDs(ctx context.Context) ([]string, error) {
	return s.goals.ActiveUserIDs(ctx)
}

