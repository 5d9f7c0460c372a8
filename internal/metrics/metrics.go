package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdmhook_events_total",
			Help: "Webhook events received by topic",
		},
		[]string{"topic"},
	)

	EnrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdmhook_enrollments_total",
			Help: "Authenticate events by kind",
		},
		[]string{"kind"}, // new|re
	)

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdmhook_commands_total",
			Help: "Commands issued to the MDM server by request type and result",
		},
		[]string{"request_type", "result"}, // sent|failed
	)

	EventErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdmhook_event_errors_total",
			Help: "Events that could not be fully processed, by reason",
		},
		[]string{"reason"}, // decode|malformed|registry|payload|publish
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		EventsTotal,
		EnrollmentsTotal,
		CommandsTotal,
		EventErrorsTotal,
	)
}
