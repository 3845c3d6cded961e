package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type availabilityReconciler interface {
	ReconcileAvailability(ctx context.Context, now time.Time, dryRun bool) (*inventory.Report, error)
}

// AdminReconcileInventory recomputes size availability on demand.
// dry_run=true reports the flips without writing them.
func AdminReconcileInventory(rec availabilityReconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rec == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory reconciler unavailable"))
			return
		}

		dryRun, err := validators.ParseQueryBool(r, "dry_run", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := rec.ReconcileAvailability(ctx, time.Now().UTC(), dryRun)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Passthrough(err, pkgerrors.CodeInternal, "reconcile availability"))
			return
		}

		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"dry_run":            dryRun,
				"checked":            report.Checked,
				"marked_unavailable": report.MarkedUnavailable,
				"marked_available":   report.MarkedAvailable,
			})
			logg.Info(ctx, "inventory.reconciled")
		}
		responses.WriteSuccess(w, report)
	}
}
