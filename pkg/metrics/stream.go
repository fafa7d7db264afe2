package metrics

import "github.com/prometheus/client_golang/prometheus"

// initStreamMetrics initializes websocket stream metrics.
func (m *Manager) initStreamMetrics() {
	m.streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pingboard_stream_clients",
			Help: "Current number of connected stream subscribers",
		},
	)

	m.streamMessages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pingboard_stream_messages_total",
			Help: "Total number of counter values sent to subscribers",
		},
	)

	m.registry.MustRegister(m.streamClients)
	m.registry.MustRegister(m.streamMessages)
}

// StreamClientConnected increments the connected subscriber gauge.
func (m *Manager) StreamClientConnected() {
	if !m.enabled {
		return
	}
	m.streamClients.Inc()
}

// StreamClientDisconnected decrements the connected subscriber gauge.
func (m *Manager) StreamClientDisconnected() {
	if !m.enabled {
		return
	}
	m.streamClients.Dec()
}

// RecordStreamMessage counts one value sent to a subscriber.
func (m *Manager) RecordStreamMessage() {
	if !m.enabled {
		return
	}
	m.streamMessages.Inc()
}
