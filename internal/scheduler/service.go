package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Refresher runs one scheduled refresh
type Refresher interface {
	RunScheduledRefresh(ctx context.Context) error
}

// Service handles scheduling of background refreshes
type Service struct {
	config    *config.Config
	refresher Refresher
	cron      *cron.Cron

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.Mutex
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, refresher Refresher) (*Service, error) {
	location := time.UTC
	if cfg.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid TIMEZONE %q", cfg.TimeZone)
		}
		location = loc
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		config:    cfg,
		refresher: refresher,
		cron:      cron.New(cron.WithSeconds(), cron.WithLocation(location)),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start registers the refresh job and starts the cron loop. An empty schedule disables it.
func (s *Service) Start() error {
	if s.config.RefreshSchedule == "" {
		logrus.Info("No refresh schedule configured, background refresh disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.config.RefreshSchedule, s.run)
	if err != nil {
		return errors.Wrapf(err, "invalid REFRESH_SCHEDULE %q", s.config.RefreshSchedule)
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q (%s)", s.config.RefreshSchedule, s.cron.Location())
	return nil
}

// run skips a tick while the previous refresh is still going
func (s *Service) run() {
	if !s.running.TryLock() {
		logrus.Warn("Previous scheduled refresh still running, skipping this run")
		return
	}
	defer s.running.Unlock()

	logrus.Info("Starting scheduled refresh")
	if err := s.refresher.RunScheduledRefresh(s.ctx); err != nil {
		logrus.Errorf("Scheduled refresh failed: %v", err)
	}
}

// Stop stops the scheduler and cancels a refresh in progress
func (s *Service) Stop() {
	if s.cron != nil {
		done := s.cron.Stop()
		s.cancel()
		<-done.Done()
		logrus.Info("Scheduler stopped")
	}
}
