package eventlog

// Metrics receives counters the log updates as it runs. pkg/metrics
// implements this against Prometheus counters/gauges; tests and callers
// that don't care about observability can pass NopMetrics.
type Metrics interface {
	PendingOverflow()
	EventEmitted()
	EventPended()
	EventDropped(reason string)
	PendingDepth(n int)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) PendingOverflow()         {}
func (NopMetrics) EventEmitted()            {}
func (NopMetrics) EventPended()             {}
func (NopMetrics) EventDropped(string)      {}
func (NopMetrics) PendingDepth(int)         {}
