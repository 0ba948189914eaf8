package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus instruments.
type Collector struct {
	ReservationsCreated  prometheus.Counter
	ValidationRejections *prometheus.CounterVec
	StatusTransitions    *prometheus.CounterVec
	OverlapConflicts     prometheus.Counter
	MirrorEventsApplied  *prometheus.CounterVec
	MirrorEventsDropped  prometheus.Counter
	HTTPRequests         *prometheus.CounterVec
}

// NewCollector registers and returns the service collectors.
func NewCollector(namespace string) *Collector {
	return &Collector{
		ReservationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reservations",
			Name:      "created_total",
			Help:      "Total number of reservations created.",
		}),
		ValidationRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reservations",
			Name:      "validation_rejections_total",
			Help:      "Requests rejected by the validation pipeline, by rule.",
		}, []string{"rule"}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reservations",
			Name:      "status_transitions_total",
			Help:      "Committed status transitions, by target status.",
		}, []string{"status"}),
		OverlapConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reservations",
			Name:      "overlap_conflicts_total",
			Help:      "Creates and reschedules rejected by the atomic overlap guard.",
		}),
		MirrorEventsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "events_applied_total",
			Help:      "Catalog events applied to the mirror store, by type.",
		}, []string{"type"}),
		MirrorEventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mirror",
			Name:      "events_dropped_total",
			Help:      "Catalog events dropped at the sync boundary.",
		}),
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by method, route, and status.",
		}, []string{"method", "route", "status"}),
	}
}

// Handler exposes the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
