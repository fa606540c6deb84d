package history

// Metrics receives counters the log updates as entries are recorded and
// evicted. pkg/metrics implements this against Prometheus counters;
// tests pass NopMetrics.
type Metrics interface {
	EntryRecorded()
	EntryEvicted(reason string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) EntryRecorded()      {}
func (NopMetrics) EntryEvicted(string) {}
