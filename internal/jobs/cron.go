package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/vytor/reviewloop/internal/logger"
)

// CurveRefresher refreshes every cached forgetting curve in one sweep.
type CurveRefresher interface {
	RefreshAllCurves(ctx context.Context) error
}

// CronScheduler runs the nightly curve refresh on a cron expression.
type CronScheduler struct {
	scheduler *gocron.Scheduler
	refresher CurveRefresher
	log       *logger.Logger
}

// NewCronScheduler creates a scheduler; call Start to begin and Stop to halt.
func NewCronScheduler(refresher CurveRefresher) *CronScheduler {
	return &CronScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		log:       logger.Default().WithPrefix("cron"),
	}
}

// Start registers the refresh job with the given cron expression and runs the
// scheduler asynchronously.
func (s *CronScheduler) Start(cronExpr string) error {
	_, err := s.scheduler.Cron(cronExpr).Do(s.refreshAll)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.log.Info("curve refresh scheduled: %s", cronExpr)
	return nil
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *CronScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *CronScheduler) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.log.Info("starting curve refresh sweep")
	if err := s.refresher.RefreshAllCurves(logger.NewContext(ctx, s.log)); err != nil {
		s.log.Error("curve refresh sweep failed: %v", err)
		return
	}
	s.log.Info("curve refresh sweep completed")
}
