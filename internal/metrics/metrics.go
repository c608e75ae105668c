package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "arena"

var (
	MatchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "matchmaking",
		Name:      "requests_total",
		Help:      "Match requests by outcome (matched, waiting).",
	}, []string{"outcome"})

	QueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "matchmaking",
		Name:      "queue_length",
		Help:      "Players currently waiting for an opponent.",
	})

	RoomsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "created_total",
		Help:      "Duel rooms created, by origin (match, manual).",
	}, []string{"origin"})

	RoomJoins = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "joins_total",
		Help:      "Successful manual room joins.",
	})

	ActiveRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "active",
		Help:      "Duel rooms held in memory.",
	})

	Reaped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reaped_total",
		Help:      "Entries removed by the reaper, by structure (queue, mailbox, rooms).",
	}, []string{"structure"})

	Reconciliations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "rooms",
		Name:      "reconciliations_total",
		Help:      "Duels whose both results were reconciled.",
	})

	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "results",
		Name:      "sink_failures_total",
		Help:      "Failed best-effort writes after reconciliation, by target (history, leaderboard).",
	}, []string{"target"})

	RelayMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "messages_total",
		Help:      "Relay messages by kind (host, join, forward, dropped).",
	}, []string{"kind"})

	RelayRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "relay",
		Name:      "rooms",
		Help:      "Relay rooms with a registered host.",
	})
)
