// Package metrics holds the Prometheus collectors shared by the sign's workers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sign",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events enqueued on the bus",
		},
		[]string{"event"},
	)

	EventsCoalesced = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sign",
			Subsystem: "events",
			Name:      "coalesced_total",
			Help:      "Non-blocking publishes merged into an identical pending event",
		},
		[]string{"event"},
	)

	EventsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sign",
			Subsystem: "events",
			Name:      "rejected_total",
			Help:      "Publishes that could not be enqueued",
		},
		[]string{"event", "reason"},
	)

	TransportFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sign",
			Subsystem: "transport",
			Name:      "fetch_total",
			Help:      "Departure fetch cycles by outcome",
		},
		[]string{"result"},
	)

	TransportFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sign",
			Subsystem: "transport",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream departure requests",
			Buckets:   prometheus.DefBuckets,
		},
	)

	TransportDepartures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sign",
			Subsystem: "transport",
			Name:      "departures",
			Help:      "Departures in the current snapshot",
		},
	)

	DisplayRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sign",
			Subsystem: "display",
			Name:      "renders_total",
			Help:      "Render cycles by screen state",
		},
		[]string{"state"},
	)

	ConnectivityState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sign",
			Subsystem: "connectivity",
			Name:      "state",
			Help:      "1 for the current connectivity state, 0 otherwise",
		},
		[]string{"state"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sign",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests to the configuration API",
		},
		[]string{"path", "method", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sign",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		EventsPublished, EventsCoalesced, EventsRejected,
		TransportFetches, TransportFetchDuration, TransportDepartures,
		DisplayRenders, ConnectivityState,
		HTTPRequests, HTTPRequestDuration,
	)
}

// SetState flips the one-hot gauge vector to current
func SetState(g *prometheus.GaugeVec, current string, all ...string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		g.WithLabelValues(s).Set(v)
	}
}
