package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// ReconcileDecisions counts applied policy decisions by resulting status.
	ReconcileDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_reconcile_decisions_total",
		Help: "Applied reconciliation decisions by resulting order status",
	}, []string{"status"})

	// ReconcileLostRaces counts decisions dropped because a concurrent path
	// (poll vs webhook) updated the order first.
	ReconcileLostRaces = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "coffee_reconcile_lost_races_total",
		Help: "Reconciliation decisions dropped after losing the conditional update",
	})

	// DispatchTotal counts dispense command dispatches by result.
	DispatchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_dispatch_total",
		Help: "Dispense command dispatch attempts by result",
	}, []string{"result"})

	// StatusChecksTotal counts provider status polls by result.
	StatusChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_status_checks_total",
		Help: "Provider payment status checks by result",
	}, []string{"result"})

	// PollCycleDuration observes how long one poll loop cycle takes.
	PollCycleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "coffee_poll_cycle_duration_seconds",
		Help:    "Duration of one payment check poll cycle",
		Buckets: prometheus.DefBuckets,
	})

	// WebhookNotifications counts inbound provider notifications by result.
	WebhookNotifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_webhook_notifications_total",
		Help: "Inbound payment provider notifications by handling result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		ReconcileDecisions,
		ReconcileLostRaces,
		DispatchTotal,
		StatusChecksTotal,
		PollCycleDuration,
		WebhookNotifications,
	)
}
