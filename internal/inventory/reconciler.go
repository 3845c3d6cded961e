package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned by Reserve when the guarded decrement
// matched no row.
var ErrInsufficientStock = errors.New("insufficient stock")

const reconcileBatchSize = 500

const (
	directionAvailable   = "available"
	directionUnavailable = "unavailable"
)

// Reconciler owns every write to sizes.quantity and sizes.available.
type Reconciler struct {
	db      *gorm.DB
	metrics *metrics.InventoryMetrics
	logg    *logger.Logger
}

// Report summarises one availability reconciliation pass.
type Report struct {
	Checked           int         `json:"checked"`
	MarkedUnavailable int         `json:"markedUnavailable"`
	MarkedAvailable   int         `json:"markedAvailable"`
	SizeIDs           []uuid.UUID `json:"sizeIds"`
	DryRun            bool        `json:"dryRun"`
}

// NewReconciler builds a reconciler. A nil metrics recorder is allowed.
func NewReconciler(db *gorm.DB, m *metrics.InventoryMetrics, logg *logger.Logger) (*Reconciler, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Reconciler{db: db, metrics: m, logg: logg}, nil
}

// Reserve decrements stock for (productID, size) only when the size is flagged
// available and holds at least qty units. The flag is cleared when the row
// reaches zero. Must run inside the caller's transaction.
func (r *Reconciler) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive")
	}

	res := tx.WithContext(ctx).Exec(
		`UPDATE sizes
		SET quantity = quantity - ?,
			available = CASE WHEN quantity - ? <= 0 THEN ? ELSE available END,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND size = ? AND available = ? AND quantity >= ?`,
		qty, qty, false, productID, size, true, qty,
	)
	if res.Error != nil {
		return res.Error
	}
	reserved := res.RowsAffected > 0
	r.metrics.ObserveReservation(reserved)
	if !reserved {
		return ErrInsufficientStock
	}
	return nil
}

// Restore returns qty units to (productID, size) and marks it available.
// It reports false when the size row no longer exists.
func (r *Reconciler) Restore(ctx context.Context, tx *gorm.DB, productID uuid.UUID, size string, qty int) (bool, error) {
	if tx == nil {
		return false, fmt.Errorf("transaction required")
	}
	if qty <= 0 {
		return false, nil
	}

	res := tx.WithContext(ctx).Exec(
		`UPDATE sizes
		SET quantity = quantity + ?, available = ?, updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND size = ?`,
		qty, true, productID, size,
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	r.metrics.IncRestore()
	return true, nil
}

// ReconcileAvailability walks every size and corrects the cached available
// flag against quantity and expiry at now. With dryRun the report is built
// but nothing is written.
func (r *Reconciler) ReconcileAvailability(ctx context.Context, now time.Time, dryRun bool) (*Report, error) {
	report := &Report{SizeIDs: []uuid.UUID{}, DryRun: dryRun}
	var toDisable, toEnable []uuid.UUID

	var batch []models.Size
	err := r.db.WithContext(ctx).
		Model(&models.Size{}).
		Select("id", "quantity", "available", "expiry_date").
		FindInBatches(&batch, reconcileBatchSize, func(_ *gorm.DB, _ int) error {
			for _, size := range batch {
				report.Checked++
				switch {
				case size.Available && !size.Purchasable(now):
					toDisable = append(toDisable, size.ID)
				case !size.Available && size.Quantity > 0 && !size.Expired(now):
					toEnable = append(toEnable, size.ID)
				}
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("scan sizes: %w", err)
	}

	report.SizeIDs = append(report.SizeIDs, toDisable...)
	report.SizeIDs = append(report.SizeIDs, toEnable...)

	ctx = r.logg.WithFields(ctx, map[string]any{
		"checked":        report.Checked,
		"to_unavailable": len(toDisable),
		"to_available":   len(toEnable),
		"dry_run":        dryRun,
	})

	if dryRun {
		report.MarkedUnavailable = len(toDisable)
		report.MarkedAvailable = len(toEnable)
		r.logg.Info(ctx, "availability reconcile dry run")
		return report, nil
	}

	var errs error
	disabled, err := r.setAvailability(ctx, toDisable, false)
	errs = multierr.Append(errs, err)
	enabled, err := r.setAvailability(ctx, toEnable, true)
	errs = multierr.Append(errs, err)

	report.MarkedUnavailable = disabled
	report.MarkedAvailable = enabled
	r.metrics.AddReconciled(directionUnavailable, disabled)
	r.metrics.AddReconciled(directionAvailable, enabled)

	if errs != nil {
		return report, errs
	}
	r.logg.Info(ctx, "availability reconciled")
	return report, nil
}

// setAvailability flips the flag for ids, guarding on the opposite current
// value and on quantity so a concurrent reservation is not overwritten.
func (r *Reconciler) setAvailability(ctx context.Context, ids []uuid.UUID, available bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	total := 0
	for start := 0; start < len(ids); start += reconcileBatchSize {
		end := min(start+reconcileBatchSize, len(ids))
		q := r.db.WithContext(ctx).
			Model(&models.Size{}).
			Where("id IN ?", ids[start:end]).
			Where("available = ?", !available)
		if available {
			q = q.Where("quantity > ?", 0)
		}
		res := q.Updates(map[string]any{"available": available})
		if res.Error != nil {
			return total, fmt.Errorf("set available=%t: %w", available, res.Error)
		}
		total += int(res.RowsAffected)
	}
	return total, nil
}
