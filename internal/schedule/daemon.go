package schedule

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Daemon runs registered jobs on cron schedules until its context is
// canceled. It wraps a single cron runner so the process has one schedule
// loop regardless of how many sources it backs up.
type Daemon struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewDaemon creates a stopped daemon. Schedules use the standard five-field
// cron syntax.
func NewDaemon(logger *slog.Logger) *Daemon {
	return &Daemon{
		cron:   cron.New(),
		logger: logger,
	}
}

// Schedule registers fn to run per the cron expression. It returns an error
// for an unparseable expression; registration after Run has started is not
// supported.
func (d *Daemon) Schedule(expr string, fn func()) error {
	if _, err := d.cron.AddFunc(expr, fn); err != nil {
		return fmt.Errorf("parsing schedule %q: %w", expr, err)
	}
	return nil
}

// Run starts the scheduler, blocks until ctx is canceled, then waits for
// any in-flight job to finish before returning.
func (d *Daemon) Run(ctx context.Context) {
	d.cron.Start()
	d.logger.Info("Scheduler started", "jobs", len(d.cron.Entries()))

	<-ctx.Done()

	d.logger.Info("Scheduler stopping, waiting for in-flight jobs")
	<-d.cron.Stop().Done()
	d.logger.Info("Scheduler stopped")
}
