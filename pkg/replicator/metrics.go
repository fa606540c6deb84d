package replicator

// Metrics receives counters the replicator updates as it runs.
// pkg/metrics implements this against Prometheus counters/gauges; tests
// and callers that don't care about observability can pass NopMetrics.
type Metrics interface {
	PeerJoined()
	PeerLeft()
	EventBroadcast()
	EventReceived()
	DecodeError(reason string)
	SyncStarted()
	SyncCompleted()
	SyncTimedOut()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) PeerJoined()            {}
func (NopMetrics) PeerLeft()              {}
func (NopMetrics) EventBroadcast()        {}
func (NopMetrics) EventReceived()         {}
func (NopMetrics) DecodeError(string)     {}
func (NopMetrics) SyncStarted()           {}
func (NopMetrics) SyncCompleted()         {}
func (NopMetrics) SyncTimedOut()          {}
