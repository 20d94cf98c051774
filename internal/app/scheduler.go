package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/heartmarshall/stock-ledger/internal/config"
)

// cronLogger routes scheduler messages into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}

// newScheduler registers the session sweep and, when configured, the
// scheduled backup. Jobs never overlap themselves.
func (a *App) newScheduler(ctx context.Context) (*cron.Cron, error) {
	logger := cronLogger{log: a.log.With("component", "cron")}
	c := cron.New(
		cron.WithParser(config.CronParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if spec := strings.TrimSpace(a.cfg.Job.SweepSchedule); spec != "" {
		if _, err := c.AddFunc(spec, func() { a.sweepSessions(ctx) }); err != nil {
			return nil, fmt.Errorf("schedule session sweep: %w", err)
		}
	}
	if spec := strings.TrimSpace(a.cfg.Backup.Schedule); spec != "" {
		if _, err := c.AddFunc(spec, func() { a.scheduledBackup(ctx) }); err != nil {
			return nil, fmt.Errorf("schedule backup: %w", err)
		}
	}
	return c, nil
}

func (a *App) sweepSessions(ctx context.Context) {
	n, err := a.Jobs.SweepExpired(ctx)
	if err != nil {
		a.log.ErrorContext(ctx, "sweep expired sessions", slog.Int("closed", n), slog.String("error", err.Error()))
		return
	}
	if n > 0 {
		a.log.InfoContext(ctx, "expired sessions closed", slog.Int("closed", n))
	}
}

func (a *App) scheduledBackup(ctx context.Context) {
	path, err := a.Backup.WriteScheduledBackup(ctx)
	if err != nil {
		a.log.ErrorContext(ctx, "scheduled backup", slog.String("error", err.Error()))
		return
	}
	a.log.InfoContext(ctx, "scheduled backup written", slog.String("path", path))
}
