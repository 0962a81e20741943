package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StatsRefresher reloads the dashboard stats for the signed-in store.
type StatsRefresher interface {
	Refresh(ctx context.Context) error
}

// StatsScheduler keeps the dashboard stats warm on a cron schedule.
type StatsScheduler struct {
	cronEngine *cron.Cron
	stats      StatsRefresher
	logger     *logrus.Entry
	spec       string
	timeout    time.Duration
}

func NewStatsScheduler(stats StatsRefresher, logger *logrus.Entry, spec string, timeout time.Duration) *StatsScheduler {
	return &StatsScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		stats:      stats,
		logger:     logger,
		spec:       spec,
		timeout:    timeout,
	}
}

// Start registers the refresh job and starts the cron engine.
func (s *StatsScheduler) Start() error {
	if _, err := s.cronEngine.AddFunc(s.spec, s.RunOnce); err != nil {
		return fmt.Errorf("add stats refresh job %q: %w", s.spec, err)
	}
	s.cronEngine.Start()
	s.logger.WithField("spec", s.spec).Info("stats scheduler started")
	return nil
}

// RunOnce refreshes the stats with a bounded context.
func (s *StatsScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	if err := s.stats.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("stats refresh failed")
		return
	}
	s.logger.WithField("took", time.Since(started).String()).Debug("stats refreshed")
}

func (s *StatsScheduler) Stop() {
	s.logger.Info("stopping stats scheduler")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("stats scheduler stopped")
}
