package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/nzoschke/cadence/internal/service"
)

// DailyTaskGenerator defines the service operations needed by the daily task worker.
type DailyTaskGenerator interface {
	ActiveUserIDs(ctx context.Context) ([]string, error)
	GenerateDailyTasks(ctx context.Context, userID string, today time.Time) (*service.GenerationResult, error)
}

// Today yields the current calendar day in the configured time zone.
type Today func() time.Time

// PassResult summarizes one generation pass over all users.
type PassResult struct {
	Users  int
	Tasks  int
	Failed int
}

// DailyTaskWorker periodically generates today's tasks for every user with
// active goals.
type DailyTaskWorker struct {
	generator DailyTaskGenerator
	today     Today
	interval  time.Duration
}

// NewDailyTaskWorker creates a worker with the given generator, day source and interval.
func NewDailyTaskWorker(generator DailyTaskGenerator, today Today, interval time.Duration) *DailyTaskWorker {
	return &DailyTaskWorker{
		generator: generator,
		today:     today,
		interval:  interval,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// Runs one pass immediately so a restart does not delay the day's tasks.
func (w *DailyTaskWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "daily-tasks",
		"interval", w.interval.String(),
	)

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "daily-tasks",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce generates today's tasks for every user. A failure for one user is
// logged and the pass moves on to the next.
func (w *DailyTaskWorker) RunOnce(ctx context.Context) PassResult {
	start := time.Now()
	today := w.today()
	var result PassResult

	userIDs, err := w.generator.ActiveUserIDs(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("generation pass failed",
				"component", "worker",
				"action", "list_users_failed",
				"error", err,
			)
		}
		return result
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return result
		}

		generated, err := w.generator.GenerateDailyTasks(ctx, userID, today)
		if err != nil {
			result.Failed++
			slog.Error("failed to generate daily tasks",
				"component", "worker",
				"action", "generate_failed",
				"user_id", userID,
				"error", err,
			)
			continue
		}

		result.Users++
		result.Tasks += generated.Count
	}

	slog.Info("generation pass completed",
		"component", "worker",
		"action", "generate_complete",
		"date", today.Format(time.DateOnly),
		"users", result.Users,
		"tasks", result.Tasks,
		"failed", result.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result
}
