package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	"github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
	"github.com/mamadbah2/dairy-dashboard/internal/service/reporting"
)

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	chain        cron.Chain
	dashboardSvc *dashboard.Service
	reportingSvc *reporting.Service
	cfg          config.ReportingConfig
	syncSheets   bool
	logger       *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone.
func NewScheduler(cfg config.Config, dashboardSvc *dashboard.Service, reportingSvc *reporting.Service, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Reporting.Timezone, err)
	}

	// A panicking job is logged and the loop keeps running.
	cl := cronLogger{logger.Sugar()}
	recoverer := cron.Recover(cl)

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc), cron.WithChain(recoverer), cron.WithLogger(cl)),
		chain:        cron.NewChain(recoverer),
		dashboardSvc: dashboardSvc,
		reportingSvc: reportingSvc,
		cfg:          cfg.Reporting,
		syncSheets:   cfg.Sheets.Enabled(),
		logger:       logger,
	}, nil
}

// Start registers the jobs and starts the cron loop. An empty digest schedule
// disables the digest.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("snapshot_schedule", s.cfg.SnapshotSchedule),
		zap.String("digest_schedule", s.cfg.DigestSchedule),
		zap.String("timezone", s.cfg.Timezone))

	if _, err := s.cron.AddFunc(s.cfg.SnapshotSchedule, s.RunSnapshot); err != nil {
		return fmt.Errorf("schedule snapshot job: %w", err)
	}
	if s.cfg.DigestSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.DigestSchedule, s.RunDigest); err != nil {
			return fmt.Errorf("schedule digest job: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunSnapshot refreshes from Sheets when configured, then writes the
// Parquet snapshot of whatever is loaded.
func (s *Scheduler) RunSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if s.syncSheets {
		if err := s.reportingSvc.SyncFromSheets(ctx); err != nil {
			s.logger.Error("failed to sync datasets from sheets", zap.Error(err))
		}
	}

	if err := s.dashboardSvc.PersistSnapshot(ctx); err != nil {
		s.logger.Error("failed to persist snapshot", zap.Error(err))
		return
	}
	s.logger.Debug("snapshot job finished")
}

// RunDigest sends the field team digest.
func (s *Scheduler) RunDigest() {
	s.logger.Info("generating field team digest")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	err := s.reportingSvc.SendDigest(ctx)
	switch {
	case errors.Is(err, dashboard.ErrNoCenterData):
		s.logger.Info("no bmc data loaded, digest skipped")
	case err != nil:
		s.logger.Error("failed to send digest", zap.Error(err))
	default:
		s.logger.Info("digest sent successfully")
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
