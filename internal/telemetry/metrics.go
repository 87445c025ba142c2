package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics are ambient observability (SPEC_FULL.md "DOMAIN STACK"); none
// of the Non-goals in spec.md's §1 name telemetry, so these are carried
// regardless of the feature-scoped exclusions listed there.
var (
	// ConnectedParticipants tracks the live registry size.
	ConnectedParticipants = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chatbroker",
		Name:      "connected_participants",
		Help:      "Number of participants currently registered.",
	})

	// MessagesRouted counts routed messages by outcome.
	MessagesRouted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chatbroker",
		Name:      "messages_routed_total",
		Help:      "Messages routed, labeled by outcome.",
	}, []string{"outcome"})

	// HeartbeatTimeouts counts connections torn down by the liveness
	// watchdog (spec §4.4, §7).
	HeartbeatTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatbroker",
		Name:      "heartbeat_timeouts_total",
		Help:      "Connections closed for missing the heartbeat deadline.",
	})

	// AcceptErrors counts non-fatal errors from the broker's accept loop
	// (spec §7: "Accept errors are logged, non-fatal").
	AcceptErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chatbroker",
		Name:      "accept_errors_total",
		Help:      "Errors returned by Listener.Accept, excluding shutdown.",
	})
)

// Outcome labels for MessagesRouted.
const (
	OutcomeBroadcast = "broadcast"
	OutcomeWhisper   = "whisper"
	OutcomeFile      = "file"
	OutcomeMiss      = "miss"
	OutcomeSignal    = "signal"
)

func init() {
	prometheus.MustRegister(
		ConnectedParticipants,
		MessagesRouted,
		HeartbeatTimeouts,
		AcceptErrors,
	)
}
