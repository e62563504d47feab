package runnerimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// ScheduleRuns starts a fixed-interval job invoking Run until ctx is
// cancelled.
func (r *RunnerImpl) ScheduleRuns(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithClock(r.Clock))
	if err != nil {
		return fmt.Errorf("failed to create publish scheduler: %w", err)
	}

	interval := time.Duration(r.Config.Publisher.IntervalMinutes) * time.Minute
	runTimeout := time.Duration(r.Config.Publisher.RunTimeoutMinutes) * time.Minute

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				r.Logger.Info("Context cancelled, stopping publish schedule")
				return
			}

			runCtx, cancel := context.WithTimeout(ctx, runTimeout)
			defer cancel()

			if err := r.Run(runCtx); err != nil {
				r.Logger.Error("Scheduled publish run failed", "error", err)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule publish runs: %w", err)
	}

	scheduler.Start()
	r.Logger.Info("Publish scheduler started", "interval", interval.String())

	go func() {
		<-ctx.Done()
		r.Logger.Info("Stopping publish scheduler")
		if err := scheduler.Shutdown(); err != nil {
			r.Logger.Error("Failed to shut down publish scheduler", "error", err)
		}
	}()

	return nil
}
