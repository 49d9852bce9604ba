// Package metrics defines Prometheus metrics for the bot, served on
// /metrics by the web app.
//
// Naming follows Prometheus conventions: housebot_ prefix, _total for
// counters, _seconds for duration histograms.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housebot_updates_total",
			Help: "Total webhook updates by kind and routing status.",
		},
		[]string{"kind", "status"}, // kind: command, text, callback, other
	)

	sendsFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "housebot_sends_failed_total",
			Help: "Total outbound Telegram sends that failed by action.",
		},
		[]string{"action"},
	)

	welcomeDebouncedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "housebot_welcome_debounced_total",
			Help: "Total /start greetings suppressed by the debounce window.",
		},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "housebot_http_request_duration_seconds",
			Help:    "Duration of inbound HTTP requests by route and status code.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route", "code"},
	)
)

// RecordUpdate records one routed update.
func RecordUpdate(kind, status string) {
	updatesTotal.WithLabelValues(kind, status).Inc()
}

// RecordSendFailure records one failed outbound send.
func RecordSendFailure(action string) {
	sendsFailedTotal.WithLabelValues(action).Inc()
}

// RecordWelcomeDebounced records one suppressed greeting.
func RecordWelcomeDebounced() {
	welcomeDebouncedTotal.Inc()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(route, code string, took time.Duration) {
	httpRequestDuration.WithLabelValues(route, code).Observe(took.Seconds())
}
