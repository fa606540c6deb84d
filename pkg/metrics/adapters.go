package metrics

// EventLogAdapter implements eventlog.Metrics against the package-level
// Prometheus collectors.
type EventLogAdapter struct{}

func (EventLogAdapter) PendingOverflow()     { PendingOverflowTotal.Inc() }
func (EventLogAdapter) EventEmitted()        { EventsEmittedTotal.Inc() }
func (EventLogAdapter) EventPended()         { EventsPendedTotal.Inc() }
func (EventLogAdapter) EventDropped(reason string) {
	EventsDroppedTotal.WithLabelValues(reason).Inc()
}
func (EventLogAdapter) PendingDepth(n int) { PendingDepth.Set(float64(n)) }

// NetstateAdapter implements netstate.Metrics against the package-level
// Prometheus collectors.
type NetstateAdapter struct{}

func (NetstateAdapter) NickClashResolved()    { NickClashesResolvedTotal.Inc() }
func (NetstateAdapter) ChannelRaceResolved()  { ChannelRacesResolvedTotal.Inc() }
func (NetstateAdapter) ReferentialWarning(reason string) {
	ReferentialWarningsTotal.WithLabelValues(reason).Inc()
}
func (NetstateAdapter) BulkUserQuit(count int) {
	BulkUserQuitsTotal.Inc()
	UsersRemovedByBulkQuitTotal.Add(float64(count))
}

// HistoryAdapter implements history.Metrics against the package-level
// Prometheus collectors.
type HistoryAdapter struct{}

func (HistoryAdapter) EntryRecorded() { HistoryEntriesRecordedTotal.Inc() }
func (HistoryAdapter) EntryEvicted(reason string) {
	HistoryEntriesEvictedTotal.WithLabelValues(reason).Inc()
}

// ReplicatorAdapter implements replicator.Metrics against the
// package-level Prometheus collectors.
type ReplicatorAdapter struct{}

func (ReplicatorAdapter) PeerJoined()     { GossipPeersJoinedTotal.Inc() }
func (ReplicatorAdapter) PeerLeft()       { GossipPeersLeftTotal.Inc() }
func (ReplicatorAdapter) EventBroadcast() { GossipEventsBroadcastTotal.Inc() }
func (ReplicatorAdapter) EventReceived()  { GossipEventsReceivedTotal.Inc() }
func (ReplicatorAdapter) DecodeError(reason string) {
	GossipDecodeErrorsTotal.WithLabelValues(reason).Inc()
}
func (ReplicatorAdapter) SyncStarted()   { SyncAttemptsTotal.Inc() }
func (ReplicatorAdapter) SyncCompleted() { SyncCompletedTotal.Inc() }
func (ReplicatorAdapter) SyncTimedOut()  { SyncTimedOutTotal.Inc() }
