// Package schedule runs the fetch-and-process flow on a recurring
// timetable.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/telaro/tariffa/internal/common"
)

// Schedule types accepted in configuration.
const (
	TypeDaily    = "daily"
	TypeWeekly   = "weekly"
	TypeMonthly  = "monthly"
	TypeInterval = "interval"
	TypeCron     = "cron"
)

// Config describes when the flow should run. Day means day of month
// for monthly schedules and weekday (0 = Sunday) for weekly ones.
type Config struct {
	Type       string
	Expression string
	Every      time.Duration
	Day        int
	Hour       int
	Minute     int
}

// CronSpec renders the config as a cron expression.
func (c Config) CronSpec() (string, error) {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case TypeDaily:
		return fmt.Sprintf("%d %d * * *", c.Minute, c.Hour), nil
	case TypeWeekly:
		return fmt.Sprintf("%d %d * * %d", c.Minute, c.Hour, c.Day), nil
	case TypeMonthly:
		day := c.Day
		if day <= 0 {
			day = 1
		}
		return fmt.Sprintf("%d %d %d * *", c.Minute, c.Hour, day), nil
	case TypeInterval:
		if c.Every <= 0 {
			return "", fmt.Errorf("%w: interval schedule needs a positive duration", common.ErrInvalidConfig)
		}
		return "@every " + c.Every.String(), nil
	case TypeCron:
		expr := strings.TrimSpace(c.Expression)
		if len(strings.Fields(expr)) != 5 {
			return "", fmt.Errorf("%w: cron expression %q must have 5 fields", common.ErrInvalidConfig, expr)
		}
		return expr, nil
	default:
		return "", fmt.Errorf("%w: unknown schedule type %q", common.ErrInvalidConfig, c.Type)
	}
}

// Runner is the job executed on every tick.
type Runner func(ctx context.Context) error

// Scheduler triggers a Runner on a cron timetable. A tick that fires
// while the previous run is still in progress is skipped.
type Scheduler struct {
	cron *cron.Cron
	run  Runner
	spec string

	mu  sync.Mutex
	ctx context.Context
}

// New builds a scheduler from the config. The cron spec is validated
// here, so a bad timetable fails at startup rather than at first tick.
func New(cfg Config, run Runner) (*Scheduler, error) {
	if run == nil {
		return nil, fmt.Errorf("%w: schedule runner cannot be nil", common.ErrInvalidConfig)
	}

	spec, err := cfg.CronSpec()
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		run:  run,
		spec: spec,
	}
	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{}),
		cron.Recover(cronLogger{}),
	))

	if _, err := s.cron.AddFunc(spec, s.execute); err != nil {
		return nil, fmt.Errorf("%w: cron spec %q: %v", common.ErrInvalidConfig, spec, err)
	}
	return s, nil
}

// Spec returns the effective cron expression.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Next returns the time of the next tick, or the zero time when the
// scheduler is not running.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run starts the timetable and blocks until ctx is canceled, then
// waits for any in-flight run to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	slog.Info("Scheduler started", "spec", s.spec, "next_run", s.Next())

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) execute() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	started := time.Now()
	slog.Info("Scheduled run starting", "spec", s.spec)

	if err := s.run(ctx); err != nil {
		slog.Error("Scheduled run failed",
			"error", err,
			"duration", time.Since(started))
		return
	}
	slog.Info("Scheduled run complete",
		"duration", time.Since(started),
		"next_run", s.Next())
}

// cronLogger adapts slog to the cron logging interface.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Info(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append(keysAndValues, "error", err)...)
}
