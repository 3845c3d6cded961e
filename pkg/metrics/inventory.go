package metrics

import "github.com/prometheus/client_golang/prometheus"

// InventoryMetrics counts stock movements driven by orders and reconciliation.
type InventoryMetrics struct {
	reservations *prometheus.CounterVec
	restores     prometheus.Counter
	reconciled   *prometheus.CounterVec
}

func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	m := &InventoryMetrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_reservations_total",
			Help: "Size stock reservations by result (reserved, insufficient).",
		}, []string{"result"}),
		restores: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventory_restores_total",
			Help: "Order lines whose stock was returned on cancellation.",
		}),
		reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_reconciled_sizes_total",
			Help: "Sizes whose availability flag was corrected, by direction.",
		}, []string{"direction"}),
	}
	reg.MustRegister(m.reservations, m.restores, m.reconciled)
	return m
}

func (m *InventoryMetrics) ObserveReservation(reserved bool) {
	if m == nil || m.reservations == nil {
		return
	}
	result := "reserved"
	if !reserved {
		result = "insufficient"
	}
	m.reservations.WithLabelValues(result).Inc()
}

func (m *InventoryMetrics) IncRestore() {
	if m == nil || m.restores == nil {
		return
	}
	m.restores.Inc()
}

// AddReconciled records flag corrections; direction is "available" or "unavailable".
func (m *InventoryMetrics) AddReconciled(direction string, n int) {
	if m == nil || m.reconciled == nil || n <= 0 {
		return
	}
	m.reconciled.WithLabelValues(normalizeLabel(direction)).Add(float64(n))
}
