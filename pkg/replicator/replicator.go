package replicator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/wire"
	"github.com/hashicorp/serf/serf"
	"github.com/rs/zerolog"
)

const (
	eventNameData        = "ircfed-event"
	eventNameSyncRequest = "ircfed-sync-request"
	eventNameSyncReply   = "ircfed-sync-reply"
)

// Replicator is the gossip-based replicated event log transport.
// One Replicator runs per server node, wrapping a *serf.Serf
// member of the cluster's gossip ring.
type Replicator struct {
	serf    *serf.Serf
	eventCh chan serf.Event

	eventLog *eventlog.EventLog
	server   ircid.ServerID

	syncTimeout time.Duration
	metrics     Metrics
	log         zerolog.Logger

	mu            sync.Mutex
	sync          *syncSession
	synchronizing bool
}

// syncSession tracks one in-flight SyncToNetwork call: the set of
// distinct peers that have replied so far, and the quorum of replies
// needed before the waiting caller is released.
type syncSession struct {
	quorum int
	seen   map[ircid.ServerID]struct{}
	done   chan struct{}
	closed bool
}

// New creates a Replicator and its underlying serf instance, joining the
// configured peers if any were given. Call Run to begin consuming gossip
// events.
func New(cfg Config, server ircid.ServerID, log *eventlog.EventLog, metrics Metrics, logger zerolog.Logger) (*Replicator, error) {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	conf := serf.DefaultConfig()
	if cfg.NodeName != "" {
		conf.NodeName = cfg.NodeName
	}
	if cfg.BindAddr != "" {
		conf.MemberlistConfig.BindAddr = cfg.BindAddr
	}
	if cfg.BindPort != 0 {
		conf.MemberlistConfig.BindPort = cfg.BindPort
	}
	eventCh := make(chan serf.Event, 256)
	conf.EventCh = eventCh

	s, err := serf.Create(conf)
	if err != nil {
		return nil, fmt.Errorf("replicator: create serf: %w", err)
	}

	timeout := cfg.SyncTimeout
	if timeout <= 0 {
		timeout = DefaultSyncTimeout
	}

	r := &Replicator{
		serf:        s,
		eventCh:     eventCh,
		eventLog:    log,
		server:      server,
		syncTimeout: timeout,
		metrics:     metrics,
		log:         logger,
	}

	if len(cfg.Peers) > 0 {
		if _, err := s.Join(cfg.Peers, true); err != nil {
			logger.Warn().Err(err).Msg("initial peer join incomplete")
		}
	}

	return r, nil
}

// Run consumes serf's event channel until ctx is cancelled, dispatching
// inbound events and peer membership changes. Meant to run in its own
// goroutine for the server node's lifetime.
func (r *Replicator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.eventCh:
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

func (r *Replicator) handle(ev serf.Event) {
	switch e := ev.(type) {
	case serf.MemberEvent:
		r.handleMemberEvent(e)
	case serf.UserEvent:
		r.handleUserEvent(e)
	default:
		// Queries and other serf event kinds go unused by this transport.
	}
}

func (r *Replicator) handleMemberEvent(e serf.MemberEvent) {
	switch e.Type {
	case serf.EventMemberJoin:
		for _, m := range e.Members {
			r.log.Info().Str("peer", m.Name).Msg("peer joined gossip cluster")
		}
		r.metrics.PeerJoined()
	case serf.EventMemberLeave, serf.EventMemberFailed:
		for _, m := range e.Members {
			r.log.Info().Str("peer", m.Name).Msg("peer left gossip cluster")
		}
		r.metrics.PeerLeft()
	}
}

func (r *Replicator) handleUserEvent(e serf.UserEvent) {
	switch e.Name {
	case eventNameData:
		r.handleIncomingEvent(e.Payload)
	case eventNameSyncRequest:
		r.handleSyncRequest(e.Payload)
	case eventNameSyncReply:
		r.handleSyncReply(e.Payload)
	}
}

func (r *Replicator) handleIncomingEvent(payload []byte) {
	e, err := wire.DecodeEvent(payload)
	if err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed gossip event")
		r.metrics.DecodeError("event")
		return
	}
	r.metrics.EventReceived()
	r.eventLog.Add(e)
}

// Submit broadcasts a locally originated event to the rest of the
// cluster. The caller (pkg/servernode) has already applied it to the
// local event log; Submit only propagates it outward.
func (r *Replicator) Submit(e ircevent.Event) error {
	data, err := wire.EncodeEvent(e)
	if err != nil {
		return fmt.Errorf("replicator: submit: %w", err)
	}
	if err := r.serf.UserEvent(eventNameData, data, false); err != nil {
		return fmt.Errorf("replicator: broadcast: %w", err)
	}
	r.metrics.EventBroadcast()
	return nil
}

func (r *Replicator) handleSyncRequest(payload []byte) {
	req, err := wire.DecodeSyncRequest(payload)
	if err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed sync request")
		r.metrics.DecodeError("sync_request")
		return
	}
	if req.FromServer == r.server {
		return
	}

	events := r.eventLog.EventsSince(req.Clock)
	reply := wire.SyncReply{ToServer: req.FromServer, FromServer: r.server, Events: events}
	data, err := wire.EncodeSyncReply(reply)
	if err != nil {
		r.log.Error().Err(err).Msg("encode sync reply")
		return
	}
	if err := r.serf.UserEvent(eventNameSyncReply, data, false); err != nil {
		r.log.Warn().Err(err).Msg("broadcast sync reply")
	}
}

func (r *Replicator) handleSyncReply(payload []byte) {
	reply, err := wire.DecodeSyncReply(payload)
	if err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed sync reply")
		r.metrics.DecodeError("sync_reply")
		return
	}

	for _, e := range reply.Events {
		r.eventLog.Add(e)
	}

	if reply.ToServer != r.server {
		return
	}
	r.mu.Lock()
	sess := r.sync
	if sess != nil && !sess.closed {
		sess.seen[reply.FromServer] = struct{}{}
		if len(sess.seen) >= sess.quorum {
			sess.closed = true
			close(sess.done)
		}
	}
	r.mu.Unlock()
}

// Synchronizing reports whether a SyncToNetwork call is currently
// holding for quorum. Command dispatch checks this to hold
// client-visible reads during the sync window instead of serving state
// that a quorum of peers hasn't yet confirmed.
func (r *Replicator) Synchronizing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.synchronizing
}

// SyncToNetwork implements the synchronizing state on join: broadcast
// the local clock, then hold until a quorum of distinct peers have
// replied (or SyncTimeout expires) before returning. Quorum is a
// majority of the other members serf currently knows about, not every
// member, so sync still completes with some peers unreachable. A timed
// out or partial quorum is not an error: the caller proceeds with
// whatever has arrived so far, since causal delivery means events that
// show up later still apply correctly through pkg/eventlog's pending
// set.
func (r *Replicator) SyncToNetwork(ctx context.Context) error {
	peers := len(r.serf.Members()) - 1
	if peers <= 0 {
		return nil
	}
	quorum := peers/2 + 1

	r.metrics.SyncStarted()

	sess := &syncSession{
		quorum: quorum,
		seen:   make(map[ircid.ServerID]struct{}),
		done:   make(chan struct{}),
	}
	r.mu.Lock()
	r.sync = sess
	r.synchronizing = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		if r.sync == sess {
			r.sync = nil
			r.synchronizing = false
		}
		r.mu.Unlock()
	}()

	req := wire.SyncRequest{FromServer: r.server, Clock: r.eventLog.Seen()}
	data, err := wire.EncodeSyncRequest(req)
	if err != nil {
		return fmt.Errorf("replicator: sync request: %w", err)
	}
	if err := r.serf.UserEvent(eventNameSyncRequest, data, false); err != nil {
		return fmt.Errorf("replicator: broadcast sync request: %w", err)
	}

	timer := time.NewTimer(r.syncTimeout)
	defer timer.Stop()

	select {
	case <-sess.done:
		r.metrics.SyncCompleted()
		return nil
	case <-timer.C:
		r.metrics.SyncTimedOut()
		r.mu.Lock()
		replies := len(sess.seen)
		r.mu.Unlock()
		r.log.Warn().Int("replies", replies).Int("quorum", quorum).Dur("timeout", r.syncTimeout).Msg("sync timed out, proceeding with partial state")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SyncTask periodically re-issues SyncToNetwork so a server that missed
// a peer's reply, or that joined mid-partition, catches up without a
// restart. Runs until ctx is cancelled.
func (r *Replicator) SyncTask(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.SyncToNetwork(ctx); err != nil {
				r.log.Warn().Err(err).Msg("periodic sync failed")
			}
		}
	}
}

// Join contacts the given peer addresses to merge gossip clusters.
func (r *Replicator) Join(peers []string) (int, error) {
	n, err := r.serf.Join(peers, true)
	if err != nil {
		return n, fmt.Errorf("replicator: join: %w", err)
	}
	return n, nil
}

// Members returns the current gossip membership list.
func (r *Replicator) Members() []serf.Member {
	return r.serf.Members()
}

// Leave gracefully announces departure to the cluster before Shutdown.
func (r *Replicator) Leave() error {
	return r.serf.Leave()
}

// Shutdown stops the local serf instance without announcing departure to
// the cluster, used on ungraceful exit paths.
func (r *Replicator) Shutdown() error {
	return r.serf.Shutdown()
}
