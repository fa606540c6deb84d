/*
Package metrics provides Prometheus metrics collection and exposition for
ircfed.

It defines and registers counters/gauges for the event log, the network
state reducer, the history log, and the gossip replicator, each
implementing that package's own Metrics interface (pkg/eventlog.Metrics,
pkg/netstate.Metrics, pkg/history.Metrics, pkg/replicator.Metrics) so the
domain packages never import Prometheus directly. Collector polls
gauge-shaped values (user/channel/history-log counts) off a live
ServerNode on a ticker, since those reflect current state rather than
something cheaply incremented per event.

# Usage

	eventLog := eventlog.New(cfg, sink, metrics.EventLogAdapter{}, logger)
	reducer := netstate.New(metrics.NetstateAdapter{}, logger)
	hist := history.New(histCfg, metrics.HistoryAdapter{}, logger)
	repl, _ := replicator.New(replCfg, server, eventLog, metrics.ReplicatorAdapter{}, logger)

	http.Handle("/metrics", metrics.Handler())

	collector := metrics.NewCollector(node)
	collector.Start()
	defer collector.Stop()
*/
package metrics
