package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
)

// RecurringRunner processes every user's recurring rules for one day.
type RecurringRunner interface {
	ProcessAll(ctx context.Context, today core.Date) (services.ProcessResult, error)
}

var _ RecurringRunner = (*services.RecurringProcessor)(nil)

// RecurringScheduler runs the recurring processor on a cron schedule in a
// fixed time zone. "Today" is the calendar date in that zone when the job fires.
type RecurringScheduler struct {
	runner RecurringRunner
	spec   string
	loc    *time.Location
	cron   *cron.Cron
	now    func() time.Time
}

func NewRecurringScheduler(runner RecurringRunner, spec string, loc *time.Location) (*RecurringScheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &RecurringScheduler{
		runner: runner,
		spec:   spec,
		loc:    loc,
		cron:   cron.New(cron.WithLocation(loc)),
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.runScheduled); err != nil {
		return nil, fmt.Errorf("invalid recurring schedule %q: %w", spec, err)
	}
	return s, nil
}

// Today is the current calendar date in the scheduler's time zone.
func (s *RecurringScheduler) Today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

// RunOnce processes all users for the given day.
func (s *RecurringScheduler) RunOnce(ctx context.Context, today core.Date) (services.ProcessResult, error) {
	start := time.Now()
	res, err := s.runner.ProcessAll(ctx, today)
	if err != nil {
		return res, fmt.Errorf("process recurring rules for %s: %w", today, err)
	}
	slog.InfoContext(ctx, "Recurring run finished",
		"date", today.String(),
		"fired", res.Fired,
		"failed", res.Failed,
		"duration", time.Since(start))
	return res, nil
}

// Start runs the schedule until ctx is done, then waits for a running job.
func (s *RecurringScheduler) Start(ctx context.Context) {
	s.cron.Start()
	slog.InfoContext(ctx, "Recurring scheduler started",
		"schedule", s.spec,
		"timezone", s.loc.String())

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	slog.InfoContext(ctx, "Recurring scheduler stopped")
}

func (s *RecurringScheduler) runScheduled() {
	ctx := context.Background()
	if _, err := s.RunOnce(ctx, s.Today()); err != nil {
		slog.ErrorContext(ctx, "Scheduled recurring run failed", "error", err)
	}
}
