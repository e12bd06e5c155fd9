// Package metrics holds the Prometheus collectors for discovery and
// metrics refresh.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netdash"

var (
	// DiscoveryRunsTotal counts discovery passes by outcome (ok, partial)
	DiscoveryRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_runs_total",
			Help:      "Discovery passes by outcome.",
		},
		[]string{"outcome"},
	)

	// DiscoveryRunTimeSummary observes the duration of discovery passes
	DiscoveryRunTimeSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "discovery_duration_seconds",
			Help:      "A summary metric to measure the total time spent in a discovery pass.",
		},
		[]string{"outcome"},
	)

	// DevicesDiscovered counts devices returned by discovery passes by type
	DevicesDiscovered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devices_discovered_total",
			Help:      "Devices reported by discovery, by device type.",
		},
		[]string{"type"},
	)

	// RefreshTotal counts metrics refreshes by protocol and result
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Device metrics refreshes by protocol and result.",
		},
		[]string{"protocol", "result"},
	)

	// SNMPQueryDuration observes SNMP GET latency by result
	SNMPQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snmp_query_duration_seconds",
			Help:      "SNMP GET round trip time.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"result"},
	)

	// Registry is the registry served on /metrics
	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		DiscoveryRunsTotal,
		DiscoveryRunTimeSummary,
		DevicesDiscovered,
		RefreshTotal,
		SNMPQueryDuration,
	)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
