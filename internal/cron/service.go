package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	// Interval between cycles; an hour when unset.
	Interval time.Duration
}

// CycleResult summarises one locked pass over the registry.
type CycleResult struct {
	Skipped   bool
	Holder    string
	Succeeded []string
	Failed    []string
}

// Err is non-nil when any job in the cycle failed.
func (r CycleResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("cron jobs failed: %v", r.Failed)
}

// Service runs registered jobs on a ticker. A cycle only runs on the worker
// that wins the lock.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, errors.New("cron service: logger required")
	}
	if params.Lock == nil {
		return nil, errors.New("cron service: lock required")
	}
	svc := &Service{
		logg:     params.Logger,
		registry: params.Registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: params.Interval,
		now:      time.Now,
	}
	if svc.registry == nil {
		svc.registry = &Registry{}
	}
	if svc.interval <= 0 {
		svc.interval = time.Hour
	}
	return svc, nil
}

// Run executes a cycle immediately and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.cycle(ctx, s.registry.Jobs()); err != nil {
			s.logg.Error(ctx, "cron cycle aborted", err)
		}
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes every registered job in a single locked cycle.
func (s *Service) RunOnce(ctx context.Context) (CycleResult, error) {
	return s.cycle(ctx, s.registry.Jobs())
}

// RunJob executes one named job under the same lock as a full cycle.
func (s *Service) RunJob(ctx context.Context, name string) (CycleResult, error) {
	job, err := s.registry.Lookup(name)
	if err != nil {
		return CycleResult{}, err
	}
	return s.cycle(ctx, []Job{job})
}

func (s *Service) cycle(ctx context.Context, jobs []Job) (CycleResult, error) {
	var result CycleResult
	won, err := s.lock.Acquire(ctx)
	if err != nil {
		return result, fmt.Errorf("acquire cron lock: %w", err)
	}
	if !won {
		result.Skipped = true
		if reporter, ok := s.lock.(holderReporter); ok {
			result.Holder, _ = reporter.Holder(ctx)
		}
		s.logg.Info(s.logg.WithField(ctx, "holder", result.Holder), "cron lock held elsewhere, skipping cycle")
		s.metrics.IncSkipped()
		return result, nil
	}
	defer func() {
		if err := s.lock.Release(ctx); err != nil {
			s.logg.Error(ctx, "cron lock release failed", err)
		}
	}()

	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		if s.execute(ctx, job) {
			result.Succeeded = append(result.Succeeded, job.Name())
		} else {
			result.Failed = append(result.Failed, job.Name())
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
	}), "cron cycle finished")
	return result, nil
}

// execute runs one job; a failure is logged and counted but never stops the
// remaining jobs of the cycle.
func (s *Service) execute(ctx context.Context, job Job) bool {
	name := job.Name()
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": name, "event": "cron.job"})

	started := s.now()
	err := job.Run(jobCtx)
	finished := s.now()
	elapsed := finished.Sub(started)
	s.metrics.ObserveRun(name, elapsed, err, finished)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron job failed", err)
		return false
	}
	s.logg.Info(jobCtx, "cron job succeeded")
	return true
}
