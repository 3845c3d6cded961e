package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReadyAllDependenciesUp(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}
	deps := map[string]pkgredis.Pinger{
		"db":    pingFunc(func(context.Context) error { return nil }),
		"redis": pingFunc(func(context.Context) error { return nil }),
	}
	rec := httptest.NewRecorder()

	HealthReady(cfg, deps, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get("X-Storefront-Env"))
	require.Contains(t, rec.Body.String(), `"redis":"ok"`)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	cfg := &config.Config{}
	deps := map[string]pkgredis.Pinger{
		"db":    pingFunc(func(context.Context) error { return nil }),
		"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}
	rec := httptest.NewRecorder()

	HealthReady(cfg, deps, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(&config.Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

type stubReconciler struct {
	dryRun bool
	report *inventory.Report
	err    error
}

func (s *stubReconciler) ReconcileAvailability(ctx context.Context, now time.Time, dryRun bool) (*inventory.Report, error) {
	s.dryRun = dryRun
	return s.report, s.err
}

func TestAdminReconcileInventoryDryRun(t *testing.T) {
	rec := &stubReconciler{report: &inventory.Report{Checked: 4, MarkedUnavailable: 1, SizeIDs: []uuid.UUID{uuid.New()}, DryRun: true}}
	resp := httptest.NewRecorder()

	AdminReconcileInventory(rec, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/inventory/reconcile?dry_run=true", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, rec.dryRun)
	require.Contains(t, resp.Body.String(), `"markedUnavailable":1`)
}

func TestAdminReconcileInventoryRejectsBadFlag(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminReconcileInventory(&stubReconciler{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/inventory/reconcile?dry_run=maybe", nil))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminReconcileInventoryDependencyFailure(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminReconcileInventory(&stubReconciler{err: errors.New("db down")}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/admin/inventory/reconcile", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
