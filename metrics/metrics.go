// Package metrics exposes Prometheus counters for registrations and webhook relays.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kmo"

var (
	WebhookRelays = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_relays_total",
		Help:      "Webhook relays to the automation platform by outcome.",
	}, []string{"outcome"})

	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tournament_registrations_total",
		Help:      "Tournament registrations accepted.",
	})

	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_failures_total",
		Help:      "Failed best-effort registration notifications by channel.",
	}, []string{"channel"})
)

// Webhook relay outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeUpstream = "upstream_error"
	OutcomeInvalid  = "invalid_payload"
)

func Handler() http.Handler {
	return promhttp.Handler()
}
