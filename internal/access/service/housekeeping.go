package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/catedeguzman-it/finmark-sub001/internal/access/metrics"
)

// DefaultSweepSchedule runs the overdue invitation sweep hourly.
const DefaultSweepSchedule = "@every 1h"

// HousekeepingService runs scheduled background jobs: the overdue
// invitation sweep, plus anything registered with AddJob before Start.
// The sweep only moves rows to expired; it never deletes.
type HousekeepingService struct {
	Invitations *InvitationService
	Logger      *slog.Logger
	Schedule    string
	Metrics     *metrics.Metrics

	cron    *cron.Cron
	initial chan struct{}
}

// NewHousekeepingService builds the scheduler and registers the sweep. An
// empty schedule means DefaultSweepSchedule.
func NewHousekeepingService(invitations *InvitationService, logger *slog.Logger, schedule string, m *metrics.Metrics) (*HousekeepingService, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}

	cl := cronLogger{logger}
	s := &HousekeepingService{
		Invitations: invitations,
		Logger:      logger,
		Schedule:    schedule,
		Metrics:     m,
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		)),
	}

	if err := s.AddJob("invitation-sweep", schedule, func(ctx context.Context) error {
		_, err := s.Sweep(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// AddJob schedules fn under a standard cron spec or an @every descriptor.
func (s *HousekeepingService) AddJob(name, spec string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := fn(context.Background()); err != nil {
			s.Logger.Error("housekeeping job failed", slog.String("job", name), slog.Any("error", err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, spec, err)
	}
	return nil
}

// Start sweeps once immediately and then hands over to the scheduler. It
// does not block.
func (s *HousekeepingService) Start() {
	s.initial = make(chan struct{})
	go func() {
		defer close(s.initial)
		if _, err := s.Sweep(context.Background()); err != nil {
			s.Logger.Error("initial invitation sweep failed", slog.Any("error", err))
		}
	}()
	s.cron.Start()
	s.Logger.Info("housekeeping service started", slog.String("schedule", s.Schedule))
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *HousekeepingService) Stop() {
	<-s.cron.Stop().Done()
	if s.initial != nil {
		<-s.initial
	}
	s.Logger.Info("housekeeping service stopped")
}

// Sweep expires every overdue pending invitation.
func (s *HousekeepingService) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	n, err := s.Invitations.ExpireOverdue(ctx)
	s.Metrics.ObserveSweep(time.Since(start))
	if err != nil {
		return 0, err
	}

	s.Logger.Info("invitation sweep completed",
		slog.Int64("expired", n),
		slog.Duration("duration", time.Since(start)),
	)
	return n, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, slog.Any("error", err))...)
}
