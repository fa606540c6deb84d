package servernode

import (
	"context"
	"sync"

	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/history"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
	"github.com/cuemby/ircfed/pkg/replicator"
	"github.com/rs/zerolog"
)

// Action is a unit of local work submitted by a command handler. It
// runs with exclusive access to the event log — originating zero or
// more events — from the server task's own goroutine.
type Action func(*eventlog.EventLog)

// ClientEventKind tags the variant carried by a ClientEvent.
type ClientEventKind string

const (
	ClientConnected    ClientEventKind = "Connected"
	ClientDisconnected ClientEventKind = "Disconnected"
	ClientLine         ClientEventKind = "Line"
)

// ClientEvent is a raw occurrence handed up from the listener collection
// a new connection, a closed connection, or one line of
// input. pkg/dispatch's static command table is what turns a ClientLine
// into Actions against the event log; ServerNode only routes it there.
type ClientEvent struct {
	Kind       ClientEventKind
	Connection ircid.ObjectID
	Line       string
}

// Dispatcher turns a raw client event into zero or more Actions against
// the event log. pkg/dispatch implements this with the static
// (name, handler) table.
type Dispatcher interface {
	Handle(ClientEvent, *eventlog.EventLog)
}

// Config holds the bounded channel capacities: "bounded
// channels (capacity 128 for control planes...)".
type Config struct {
	ActionCapacity      int
	ClientEventCapacity int
}

const defaultChannelCapacity = 128

// ServerNode is the single server task: it owns the
// network state and history log, and is the only writer of either
// except where the shared-resource policy names a second legal
// writer (see Note below).
//
// Note on remote events: the event log's pending set is
// "touched only by the server task and the replicator's inbound
// handler" — two independent writers, not one funnelled through the
// other. ServerNode therefore does not interpose a channel between
// pkg/replicator and eventlog.Add for inbound gossip events; the
// replicator calls Add directly from its own goroutine, relying on
// EventLog's internal mutex (not ServerNode's loop) to serialize it
// against locally originated events. The run loop below arbitrates the
// three sources ServerNode itself owns: local action submissions,
// client events, and shutdown.
type ServerNode struct {
	server ircid.ServerID

	eventLog   *eventlog.EventLog
	network    *netstate.State
	historyLog *history.Log
	replicator *replicator.Replicator
	dispatcher Dispatcher
	notify     *broker

	actions      chan Action
	clientEvents chan ClientEvent
	shutdown     chan struct{}
	shutdownOnce sync.Once

	log zerolog.Logger
}

// New constructs a ServerNode and its owned network state, history log,
// and event log, wiring the event log's sink back to this node so every
// emitted event is reduced into state, recorded into history, and fanned
// out to subscribers in one place.
func New(
	cfg Config,
	server ircid.ServerID,
	epoch ircid.EpochID,
	eventLogCfg eventlog.Config,
	eventMetrics eventlog.Metrics,
	netMetrics netstate.Metrics,
	historyCfg history.Config,
	historyMetrics history.Metrics,
	logger zerolog.Logger,
) *ServerNode {
	actionCap := cfg.ActionCapacity
	if actionCap <= 0 {
		actionCap = defaultChannelCapacity
	}
	clientCap := cfg.ClientEventCapacity
	if clientCap <= 0 {
		clientCap = defaultChannelCapacity
	}

	node := &ServerNode{
		server:       server,
		network:      netstate.New(netMetrics, logger),
		historyLog:   history.New(historyCfg, historyMetrics, logger),
		notify:       newBroker(),
		actions:      make(chan Action, actionCap),
		clientEvents: make(chan ClientEvent, clientCap),
		shutdown:     make(chan struct{}),
		log:          logger,
	}

	eventLogCfg.Server = server
	eventLogCfg.Epoch = epoch
	node.eventLog = eventlog.New(eventLogCfg, eventlog.SinkFunc(node.applyAndFanOut), eventMetrics, logger)

	return node
}

// AttachReplicator wires the gossip transport that locally originated
// events are broadcast over. Safe to call once before Run.
func (n *ServerNode) AttachReplicator(r *replicator.Replicator) {
	n.replicator = r
}

// AttachDispatcher wires the command table that turns client events into
// Actions. Safe to call once before Run.
func (n *ServerNode) AttachDispatcher(d Dispatcher) {
	n.dispatcher = d
}

// EventLog returns the node's event log, for pkg/replicator's
// SyncToNetwork and pkg/snapshot's save/restore.
func (n *ServerNode) EventLog() *eventlog.EventLog { return n.eventLog }

// Network and HistoryLog expose the node's owned state components
// directly, for pkg/snapshot's Export()/Restore() pair — cmd/ircfed is
// the only caller with a legitimate reason to reach past ServerNode's
// query passthroughs into a full state dump.
func (n *ServerNode) Network() *netstate.State    { return n.network }
func (n *ServerNode) HistoryLog() *history.Log    { return n.historyLog }

func (n *ServerNode) applyAndFanOut(e ircevent.Event) {
	changes := n.network.Apply(e)
	for _, c := range changes {
		recipients := visibleTo(n.network, c)
		n.historyLog.Record(e.Timestamp, e.Clock, e.ID, c, recipients)
		n.notify.publish(c)
	}

	if e.ID.Server != n.server || n.replicator == nil {
		return
	}
	if err := n.replicator.Submit(e); err != nil {
		n.log.Warn().Err(err).Str("event", e.ID.String()).Msg("failed to broadcast locally originated event")
	}
}

// Run pops one item per iteration from the action/client-event/shutdown
// sources and dispatches it, until ctx is cancelled or Shutdown is
// called. Meant to run as the single long-lived server task goroutine.
func (n *ServerNode) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-n.shutdown:
			return
		case a := <-n.actions:
			a(n.eventLog)
		case ce := <-n.clientEvents:
			if n.dispatcher != nil {
				n.dispatcher.Handle(ce, n.eventLog)
			}
		}
	}
}

// Shutdown signals Run to stop after draining nothing further; safe to
// call more than once.
func (n *ServerNode) Shutdown() {
	n.shutdownOnce.Do(func() { close(n.shutdown) })
}

// SubmitAction enqueues a to run on the server task. Blocks until the
// action channel has room or ctx is cancelled.
func (n *ServerNode) SubmitAction(ctx context.Context, a Action) error {
	select {
	case n.actions <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitClientEvent enqueues a raw client occurrence for dispatch.
// Blocks until the client-event channel has room or ctx is cancelled.
func (n *ServerNode) SubmitClientEvent(ctx context.Context, ce ClientEvent) error {
	select {
	case n.clientEvents <- ce:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers a new NetworkStateChange subscriber.
func (n *ServerNode) Subscribe() Subscriber {
	return n.notify.Subscribe(64)
}

// Unsubscribe removes and closes a subscriber.
func (n *ServerNode) Unsubscribe(sub Subscriber) {
	n.notify.Unsubscribe(sub)
}

// The following are read-only passthroughs for command handlers and
// query paths; each delegates to a component that guards itself with
// its own reader-writer lock, per the shared-resource policy.

func (n *ServerNode) User(id ircid.ObjectID) (netstate.User, bool)         { return n.network.User(id) }
func (n *ServerNode) UserByNick(nick string) (netstate.User, bool)        { return n.network.UserByNick(nick) }
func (n *ServerNode) Channel(id ircid.ObjectID) (netstate.Channel, bool)  { return n.network.Channel(id) }
func (n *ServerNode) ChannelByName(name string) (netstate.Channel, bool) { return n.network.ChannelByName(name) }
func (n *ServerNode) MembersOf(channel ircid.ObjectID) []ircid.ObjectID  { return n.network.MembersOf(channel) }
func (n *ServerNode) ChannelsOf(user ircid.ObjectID) []ircid.ObjectID    { return n.network.ChannelsOf(user) }
func (n *ServerNode) Membership(id ircid.ObjectID) (netstate.Membership, bool) {
	return n.network.Membership(id)
}

func (n *ServerNode) EntriesForUser(user ircid.ObjectID) []history.HistoryLogEntry {
	return n.historyLog.EntriesForUser(user)
}

func (n *ServerNode) EntriesForUserReverse(user ircid.ObjectID) []history.HistoryLogEntry {
	return n.historyLog.EntriesForUserReverse(user)
}

// UserCount and ChannelCount are sampled by pkg/metrics.Collector into
// gauges; HistoryLogSize is read directly off the history log.
func (n *ServerNode) UserCount() int    { return n.network.UserCount() }
func (n *ServerNode) ChannelCount() int { return n.network.ChannelCount() }
func (n *ServerNode) HistoryLogSize() int { return n.historyLog.Len() }

// Synchronizing reports whether the attached replicator is currently
// holding for a quorum of peer replies after a (re)join. A node with no
// replicator attached (standalone, or tests) is never synchronizing.
func (n *ServerNode) Synchronizing() bool {
	if n.replicator == nil {
		return false
	}
	return n.replicator.Synchronizing()
}
