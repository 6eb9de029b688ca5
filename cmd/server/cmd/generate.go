package cmd

import (
	"fmt"
	"time"

	"github.com/nzoschke/cadence/internal/schedule"
	"github.com/nzoschke/cadence/internal/worker"
	"github.com/spf13/cobra"
)

func GenerateCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one daily task generation pass over all users",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp(a)

			goals := a.RecurringGoalService
			today := a.Clock.Today
			if date != "" {
				day, err := schedule.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				clock := schedule.FixedClock(day)
				goals = goals.WithClock(clock)
				today = clock.Today
			}

			result := worker.NewDailyTaskWorker(goals, today, time.Hour).RunOnce(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "users=%d tasks=%d failed=%d\n", result.Users, result.Tasks, result.Failed)
			if result.Failed > 0 {
				return fmt.Errorf("generation failed for %d user(s)", result.Failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "generate for this day (YYYY-MM-DD) instead of today")
	return cmd
}
