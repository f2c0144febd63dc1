package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_http_requests_total",
		Help: "HTTP requests by method and status code.",
	}, []string{"method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hrdesk_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	PayrollPayments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_payroll_payments_total",
		Help: "Payroll payment attempts by result.",
	}, []string{"result"})

	PayrollUndos = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hrdesk_payroll_undos_total",
		Help: "Reversed payroll payments.",
	})

	OvertimeEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_overtime_events_total",
		Help: "Overtime check-in/check-out events.",
	}, []string{"event"})

	Invitations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_invitations_total",
		Help: "Invitation lifecycle events by outcome.",
	}, []string{"outcome"})

	ReconcileActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_reconcile_actions_total",
		Help: "Applied earnings reconciliation actions by kind.",
	}, []string{"kind"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hrdesk_dashboard_cache_lookups_total",
		Help: "Dashboard cache lookups by result.",
	}, []string{"result"})
)
