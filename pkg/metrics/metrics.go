package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AutomationRulesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "automation_rules_active",
			Help: "Number of active automation rules in the current snapshot (count)",
		},
	)

	AutomationRuleOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_rule_outcomes_total",
			Help: "Automation rule evaluation outcomes (count)",
		},
		[]string{"outcome"},
	)

	ActivityDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "activity_dispatch_duration_ms",
			Help:    "Duration of the post-request activity dispatch loop in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	NotificationsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Notifications dispatched per channel (count)",
		},
		[]string{"channel", "status"},
	)

	ThrottleAcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "throttle_acquisitions_total",
			Help: "Throttle key acquisition attempts (count)",
		},
		[]string{"status"},
	)

	BroadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcasts_total",
			Help: "Manual broadcasts processed (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)
)

func RegisterActivityMetrics() {
	prometheus.MustRegister(AutomationRulesActive)
	prometheus.MustRegister(AutomationRuleOutcomesTotal)
	prometheus.MustRegister(ActivityDispatchDuration)
	prometheus.MustRegister(NotificationsDispatchedTotal)
	prometheus.MustRegister(ThrottleAcquisitionsTotal)
	prometheus.MustRegister(BroadcastsTotal)
	prometheus.MustRegister(RateLimitRequestsTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
	prometheus.MustRegister(CircuitBreakerRequests)
	prometheus.MustRegister(CircuitBreakerFailures)
}

func SetAutomationRulesActive(count int) {
	AutomationRulesActive.Set(float64(count))
}

func IncRuleOutcome(outcome string) {
	AutomationRuleOutcomesTotal.WithLabelValues(outcome).Inc()
}

func ObserveDispatchDuration(duration time.Duration, status string) {
	ActivityDispatchDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncNotificationDispatched(channel, status string) {
	NotificationsDispatchedTotal.WithLabelValues(channel, status).Inc()
}

func IncThrottleAcquisition(status string) {
	ThrottleAcquisitionsTotal.WithLabelValues(status).Inc()
}

func IncBroadcast(status string) {
	BroadcastsTotal.WithLabelValues(status).Inc()
}
