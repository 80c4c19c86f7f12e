package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/schedule"
)

func scheduleCmd() *cobra.Command {
	var (
		cronExpr string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the billing flow on a timetable",
		Long: `Start the scheduler and run the full flow (fetch, convert, process) on
the configured timetable. Runs that would overlap a still-running one
are skipped with a warning.

The command blocks until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler := cli.NewInterruptHandler(nil)
			ctx := handler.HandleInterrupts(cmd.Context(), true)

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			cfg := settings.ScheduleConfig()
			if cmd.Flags().Changed("cron") {
				cfg = schedule.Config{Type: schedule.TypeCron, Expression: cronExpr}
			}

			runner := func(ctx context.Context) error {
				// Reload so config edits apply from the next run.
				settings, err := loadSettings()
				if err != nil {
					return err
				}
				return runFullFlow(ctx, settings, flowOptions{})
			}

			sched, err := schedule.New(cfg, runner)
			if err != nil {
				return fmt.Errorf("failed to build schedule: %w", err)
			}

			fmt.Println(cli.FormatInfo(fmt.Sprintf("%s Scheduling billing flow: %s", cli.ClockIcon, sched.Spec())))

			if runNow {
				slog.Info("Running flow once before starting the timetable")
				if err := runner(ctx); err != nil {
					slog.Error("Initial run failed", "error", err)
				}
			}

			sched.Run(ctx)

			if handler.WasInterrupted() {
				fmt.Println(cli.FormatInfo("Scheduler stopped."))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Override the timetable with a raw 5-field cron expression")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run the flow once immediately, then follow the timetable")

	return cmd
}
