package metrics

import "github.com/prometheus/client_golang/prometheus"

// initPingMetrics initializes ping counter metrics.
func (m *Manager) initPingMetrics() {
	m.pingsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pingboard_pings_total",
			Help: "Total number of ping requests received",
		},
	)

	m.counterValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pingboard_counter_value",
			Help: "Current value of the shared ping counter",
		},
	)

	m.registry.MustRegister(m.pingsTotal)
	m.registry.MustRegister(m.counterValue)
}

// RecordPing records one received ping and the resulting counter value.
func (m *Manager) RecordPing(counterValue uint64) {
	if !m.enabled {
		return
	}
	m.pingsTotal.Inc()
	m.counterValue.Set(float64(counterValue))
}
