package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Event log metrics (pkg/eventlog)
	EventsEmittedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_events_emitted_total",
			Help: "Total number of events emitted in causal order",
		},
	)

	EventsPendedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_events_pended_total",
			Help: "Total number of events parked waiting on unsatisfied causal dependencies",
		},
	)

	EventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircfed_events_dropped_total",
			Help: "Total number of events dropped by reason",
		},
		[]string{"reason"},
	)

	PendingOverflowTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_pending_overflow_total",
			Help: "Total number of times the pending set exceeded capacity and evicted its oldest entry",
		},
	)

	PendingDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ircfed_pending_depth",
			Help: "Current number of events waiting on unsatisfied causal dependencies",
		},
	)

	// Network state reducer metrics (pkg/netstate)
	NickClashesResolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_nick_clashes_resolved_total",
			Help: "Total number of concurrent nick claims resolved by deterministic tie-break",
		},
	)

	ChannelRacesResolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_channel_races_resolved_total",
			Help: "Total number of concurrent channel-creation races resolved by deterministic tie-break",
		},
	)

	ReferentialWarningsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircfed_referential_warnings_total",
			Help: "Total number of events referencing a missing target, by reason",
		},
		[]string{"reason"},
	)

	BulkUserQuitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_bulk_user_quits_total",
			Help: "Total number of ServerQuit-triggered bulk user removals",
		},
	)

	UsersRemovedByBulkQuitTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_users_removed_by_bulk_quit_total",
			Help: "Total number of users removed across all bulk quits",
		},
	)

	// History log metrics (pkg/history)
	HistoryEntriesRecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_history_entries_recorded_total",
			Help: "Total number of history log entries recorded",
		},
	)

	HistoryEntriesEvictedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircfed_history_entries_evicted_total",
			Help: "Total number of history log entries evicted, by reason",
		},
		[]string{"reason"},
	)

	// Replicator metrics (pkg/replicator)
	GossipPeersJoinedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_gossip_peers_joined_total",
			Help: "Total number of gossip membership join events observed",
		},
	)

	GossipPeersLeftTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_gossip_peers_left_total",
			Help: "Total number of gossip membership leave/failure events observed",
		},
	)

	GossipEventsBroadcastTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_gossip_events_broadcast_total",
			Help: "Total number of locally originated events broadcast over gossip",
		},
	)

	GossipEventsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_gossip_events_received_total",
			Help: "Total number of events received over gossip from peers",
		},
	)

	GossipDecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ircfed_gossip_decode_errors_total",
			Help: "Total number of malformed gossip payloads dropped, by payload kind",
		},
		[]string{"kind"},
	)

	SyncAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_sync_attempts_total",
			Help: "Total number of sync_to_network attempts",
		},
	)

	SyncCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_sync_completed_total",
			Help: "Total number of sync_to_network attempts that reached a quorum of peer replies",
		},
	)

	SyncTimedOutTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ircfed_sync_timed_out_total",
			Help: "Total number of sync_to_network attempts that timed out before a quorum of peers replied",
		},
	)

	// Gauges sampled periodically by Collector from the live network state.
	UsersTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ircfed_users_total",
			Help: "Current number of users known to this server",
		},
	)

	ChannelsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ircfed_channels_total",
			Help: "Current number of channels known to this server",
		},
	)

	HistoryLogSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ircfed_history_log_size",
			Help: "Current number of live entries in the history log",
		},
	)
)

func init() {
	prometheus.MustRegister(
		EventsEmittedTotal,
		EventsPendedTotal,
		EventsDroppedTotal,
		PendingOverflowTotal,
		PendingDepth,
		NickClashesResolvedTotal,
		ChannelRacesResolvedTotal,
		ReferentialWarningsTotal,
		BulkUserQuitsTotal,
		UsersRemovedByBulkQuitTotal,
		HistoryEntriesRecordedTotal,
		HistoryEntriesEvictedTotal,
		GossipPeersJoinedTotal,
		GossipPeersLeftTotal,
		GossipEventsBroadcastTotal,
		GossipEventsReceivedTotal,
		GossipDecodeErrorsTotal,
		SyncAttemptsTotal,
		SyncCompletedTotal,
		SyncTimedOutTotal,
		UsersTotal,
		ChannelsTotal,
		HistoryLogSize,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
