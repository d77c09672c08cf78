package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "huddle_active_sessions",
		Help: "Number of live websocket sessions.",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_messages_sent_total",
		Help: "Messages persisted and fanned out.",
	})

	PayloadsDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_payloads_delivered_total",
		Help: "Individual payload deliveries to sessions.",
	})

	HandlerErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "huddle_handler_errors_total",
		Help: "Per-action errors reported back to the originating session.",
	})
)
