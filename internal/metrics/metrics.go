// Package metrics defines the proxy's Prometheus counters and serves
// them over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PacketsProcessedTotal counts packets entering a chain, per direction.
	PacketsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_packets_processed_total",
			Help: "Total number of packets fed into a filter chain",
		},
		[]string{"direction"},
	)

	// PacketsForwardedTotal counts packets written to the transport, per direction.
	PacketsForwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_packets_forwarded_total",
			Help: "Total number of packets forwarded to the transport",
		},
		[]string{"direction"},
	)

	// PacketsDroppedTotal counts packets intentionally dropped, per filter.
	PacketsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_packets_dropped_total",
			Help: "Total number of packets dropped by fault filters",
		},
		[]string{"filter"},
	)

	// PacketsHeldTotal counts packets held back for reordering, per filter.
	PacketsHeldTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_packets_held_total",
			Help: "Total number of packets held back for later delivery",
		},
		[]string{"filter"},
	)

	// EventsPublishedTotal counts protocol events placed on the queue.
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_events_published_total",
			Help: "Total number of protocol events published",
		},
		[]string{"event"},
	)

	// EventsDispatchedTotal counts protocol events delivered to filters.
	EventsDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_events_dispatched_total",
			Help: "Total number of protocol events dispatched to filters",
		},
		[]string{"event"},
	)

	// SessionsTotal counts proxied device sessions.
	SessionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "faultline_sessions_total",
			Help: "Total number of proxied sessions",
		},
	)

	// BytesTotal counts raw bytes read from either endpoint.
	BytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "faultline_bytes_total",
			Help: "Total bytes read from the endpoints",
		},
		[]string{"direction"},
	)
)
