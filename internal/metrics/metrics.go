package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle and notification counters. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// Lifecycle transitions by operation and outcome (ok, conflict, forbidden, ...)
	Transitions *prometheus.CounterVec

	// Notifications by outcome: sent, failed, dropped
	Notifications *prometheus.CounterVec

	// Current depth of the notification queue
	NotificationQueueDepth prometheus.Gauge

	// Aggregate view cache lookups by view and result (hit, miss)
	CacheLookups *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so several instances can
// coexist in one process (tests build one per app).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frh_donation_transitions_total",
			Help: "Donation lifecycle operations by operation and outcome",
		}, []string{"operation", "outcome"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frh_notifications_total",
			Help: "Notification deliveries by outcome",
		}, []string{"outcome"}),

		NotificationQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "frh_notification_queue_depth",
			Help: "Messages waiting in the notification queue",
		}),

		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "frh_stats_cache_lookups_total",
			Help: "Aggregate view cache lookups by view and result",
		}, []string{"view", "result"}),
	}
}

func (m *Metrics) IncrementTransition(operation, outcome string) {
	if m != nil {
		m.Transitions.WithLabelValues(operation, outcome).Inc()
	}
}

func (m *Metrics) IncrementNotification(outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	if m != nil {
		m.NotificationQueueDepth.Set(float64(n))
	}
}

func (m *Metrics) IncrementCacheLookup(view string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(view, result).Inc()
}
