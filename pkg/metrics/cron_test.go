package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "availability-reconcile"
	finished := time.Unix(1_700_000_000, 0)

	m.ObserveRun(job, 250*time.Millisecond, nil, finished)
	m.ObserveRun(job, time.Second, errors.New("boom"), finished.Add(time.Hour))
	m.IncSkipped()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.succeeded.WithLabelValues(job)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed.WithLabelValues(job)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lostLock))
	// a failed run leaves the last-success stamp alone
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues(job)))

	runs := sample(t, reg, "job_duration_seconds", "job", job)
	assert.Equal(t, uint64(2), runs.GetHistogram().GetSampleCount())
	assert.InDelta(t, 1.25, runs.GetHistogram().GetSampleSum(), 1e-9)
}

func TestCronJobMetricsNamesAnonymousJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveRun("", time.Millisecond, nil, time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.succeeded.WithLabelValues("unknown")))
}

func TestEmptyLabelsExportAsUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg).Observe("GET", "", 404, time.Millisecond)
	NewInventoryMetrics(reg).AddReconciled("", 2)

	assert.Equal(t, 1.0, sample(t, reg, "http_requests_total", "route", "unknown").GetCounter().GetValue())
	assert.Equal(t, 2.0, sample(t, reg, "inventory_reconciled_sizes_total", "direction", "unknown").GetCounter().GetValue())
}

func TestNilRegistererIsNoop(t *testing.T) {
	require.Nil(t, NewCronJobMetrics(nil))
	NewCronJobMetrics(nil).ObserveRun("x", time.Second, nil, time.Now())
	NewCronJobMetrics(nil).IncSkipped()
	NewInventoryMetrics(nil).IncRestore()
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
	var inv *InventoryMetrics
	inv.ObserveReservation(true)
}

func TestInventoryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewInventoryMetrics(reg)
	m.ObserveReservation(true)
	m.ObserveReservation(true)
	m.ObserveReservation(false)
	m.IncRestore()
	m.AddReconciled("unavailable", 3)
	m.AddReconciled("available", 0)

	assert.Equal(t, 2.0, sample(t, reg, "inventory_reservations_total", "result", "reserved").GetCounter().GetValue())
	assert.Equal(t, 1.0, sample(t, reg, "inventory_reservations_total", "result", "insufficient").GetCounter().GetValue())
	assert.Equal(t, 3.0, sample(t, reg, "inventory_reconciled_sizes_total", "direction", "unavailable").GetCounter().GetValue())
	assert.Nil(t, find(t, reg, "inventory_reconciled_sizes_total", "direction", "available"), "zero adds must not create a series")
}

func TestHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("POST", "/api/v1/orders/", 201, 40*time.Millisecond)

	assert.Equal(t, 1.0, sample(t, reg, "http_requests_total", "status", "201").GetCounter().GetValue())
	assert.Positive(t, sample(t, reg, "http_request_duration_seconds", "route", "/api/v1/orders/").GetHistogram().GetSampleSum())
}

func sample(t *testing.T, reg *prometheus.Registry, name, label, value string) *dto.Metric {
	t.Helper()
	m := find(t, reg, name, label, value)
	require.NotNil(t, m, "%s{%s=%q} not exported", name, label, value)
	return m
}

func find(t *testing.T, reg *prometheus.Registry, name, label, value string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m
				}
			}
		}
	}
	return nil
}
