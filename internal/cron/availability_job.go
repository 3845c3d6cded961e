package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const availabilityJobName = "availability-reconcile"

type availabilityReconciler interface {
	ReconcileAvailability(ctx context.Context, now time.Time, dryRun bool) (*inventory.Report, error)
}

type AvailabilityJobParams struct {
	Logger     *logger.Logger
	Reconciler availabilityReconciler
}

// NewAvailabilityJob realigns every size's available flag with its stock and
// expiry on each cron cycle.
func NewAvailabilityJob(params AvailabilityJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	return &availabilityJob{
		logg:       params.Logger,
		reconciler: params.Reconciler,
		now:        time.Now,
	}, nil
}

type availabilityJob struct {
	logg       *logger.Logger
	reconciler availabilityReconciler
	now        func() time.Time
}

func (j *availabilityJob) Name() string { return availabilityJobName }

func (j *availabilityJob) Run(ctx context.Context) error {
	report, err := j.reconciler.ReconcileAvailability(ctx, j.now().UTC(), false)
	if err != nil {
		return fmt.Errorf("availability reconcile: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"sizes_checked":      report.Checked,
		"marked_unavailable": report.MarkedUnavailable,
		"marked_available":   report.MarkedAvailable,
	})
	j.logg.Info(logCtx, "availability reconcile complete")
	return nil
}
