package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles every counter/gauge the listener and connection handler
// update, registered once against a caller-supplied registry (the default
// global one in production, a fresh one in tests) — the same
// describe-once-collect-many shape as runZeroInc-conniver's exporter, just
// built with promauto instead of a hand-written Collector since these are
// plain counters/gauges with no derived computation at scrape time.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	ConnectionsActive   prometheus.Gauge
	HandshakeFailures   *prometheus.CounterVec
	TunnelBytes         *prometheus.CounterVec
	TunnelsActive       prometheus.Gauge
}

// NewMetrics registers mcrelay's metrics against reg and returns the bundle.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "mcrelay_connections_accepted_total",
			Help: "Total number of accepted TCP connections.",
		}),
		ConnectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcrelay_connections_active",
			Help: "Number of connections currently being handled.",
		}),
		HandshakeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcrelay_handshake_failures_total",
			Help: "Total number of connections that failed during handshake, by stage.",
		}, []string{"stage"}),
		TunnelBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "mcrelay_tunnel_bytes_total",
			Help: "Total bytes moved through tunnels, by direction and protocol.",
		}, []string{"direction", "protocol"}),
		TunnelsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mcrelay_tunnels_active",
			Help: "Number of tunnels currently open across all connections.",
		}),
	}
}
