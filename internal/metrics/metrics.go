package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	// outcome: created | conflict | payment_failed | invalid | error
	ReservationsTotal *prometheus.CounterVec
	// result: accepted | bad_signature | error
	WebhookEventsTotal *prometheus.CounterVec
	QuotesTotal        prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ReservationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomly_reservations_total",
			Help: "Reservation attempts by outcome",
		}, []string{"outcome"}),

		WebhookEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roomly_webhook_events_total",
			Help: "Inbound payment webhook events by result",
		}, []string{"result"}),

		QuotesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "roomly_quotes_total",
			Help: "Standalone price quotes served",
		}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
