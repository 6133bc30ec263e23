package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors for the chat log. Registered on the default registry so
// promhttp.Handler() exposes them at /metrics.
var (
	MessagesAppended = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "qqchat",
		Name:      "messages_appended_total",
		Help:      "Messages appended to the chat log.",
	})

	ShardRotations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "qqchat",
		Name:      "shard_rotations_total",
		Help:      "New shard files started because the active shard was full.",
	})

	ActiveShard = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "qqchat",
		Name:      "active_shard_index",
		Help:      "Index of the shard receiving appends.",
	})

	MessagesRevoked = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "qqchat",
		Name:      "messages_revoked_total",
		Help:      "Message ids newly added to the revocation set.",
	})

	ReactionToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qqchat",
		Name:      "reaction_toggles_total",
		Help:      "Reaction toggles by direction.",
	}, []string{"direction"})

	SweptFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qqchat",
		Name:      "swept_files_total",
		Help:      "Files removed by the retention sweeper, by kind.",
	}, []string{"kind"})

	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "qqchat",
		Name:      "rate_limited_requests_total",
		Help:      "Write requests rejected by the per-client limiter.",
	})
)

func init() {
	prometheus.MustRegister(
		MessagesAppended,
		ShardRotations,
		ActiveShard,
		MessagesRevoked,
		ReactionToggles,
		SweptFiles,
		RateLimited,
	)
}
