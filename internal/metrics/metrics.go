package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "gitcord"

var (
	EventsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Total number of webhook events accepted at the boundary.",
		},
		[]string{"event"},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of events dropped before routing, labeled by reason.",
		},
		[]string{"reason"},
	)

	NotificationsRoutedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_routed_total",
			Help:      "Total number of matched channel deliveries computed by the router.",
		},
		[]string{"event"},
	)

	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Total number of Discord delivery attempts, labeled by outcome.",
		},
		[]string{"event", "outcome"},
	)

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of command invocations, labeled by command and outcome.",
		},
		[]string{"command", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		EventsReceivedTotal,
		EventsDroppedTotal,
		NotificationsRoutedTotal,
		DeliveriesTotal,
		CommandsTotal,
	)
}
