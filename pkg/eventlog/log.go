package eventlog

import (
	"sort"
	"sync"
	"time"

	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/rs/zerolog"
)

// Sink receives events in causal order as the log emits them. In the
// running server this is the network state reducer (pkg/netstate); tests
// use a recording fake.
type Sink interface {
	Apply(ircevent.Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ircevent.Event)

func (f SinkFunc) Apply(e ircevent.Event) { f(e) }

type pendingEntry struct {
	event     ircevent.Event
	insertSeq uint64
}

// EventLog is the per-node causal event store. It is safe
// for concurrent use; Add may be called from the server task (local
// origination) and the replicator's inbound handler (remote delivery)
// concurrently.
type EventLog struct {
	mu sync.Mutex

	server ircid.ServerID
	epoch  ircid.EpochID
	nextSeq ircid.Seq

	seen         ircclock.EventClock
	pending      map[ircid.EventID]*pendingEntry
	pendingOrder uint64
	appliedOrder []ircid.EventID

	// journal retains the most recently emitted events themselves (not
	// just their ids), bounded by journalCapacity, so pkg/replicator can
	// answer a peer's SyncRequest with the events its clock is missing
	// without a separate storage layer. Oldest entries are dropped first;
	// a peer that has fallen behind further than this gets only the
	// journaled suffix, and nothing resends the dropped events to it.
	journal         []ircevent.Event
	journalCapacity int

	pendingCapacity int
	sink            Sink
	metrics         Metrics
	log             zerolog.Logger
}

// Config holds the tunables kept centralised rather than
// hardcoded: pending-set capacity and (in pkg/replicator) the sync
// timeout.
type Config struct {
	Server          ircid.ServerID
	Epoch           ircid.EpochID
	PendingCapacity int
	JournalCapacity int
}

// New constructs an EventLog. sink may be nil in tests that only assert
// on pending/applied bookkeeping; metrics may be nil to use NopMetrics.
func New(cfg Config, sink Sink, metrics Metrics, logger zerolog.Logger) *EventLog {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	capacity := cfg.PendingCapacity
	if capacity <= 0 {
		capacity = 4096
	}
	journalCapacity := cfg.JournalCapacity
	if journalCapacity <= 0 {
		journalCapacity = 8192
	}
	return &EventLog{
		server:          cfg.Server,
		epoch:           cfg.Epoch,
		seen:            ircclock.New(),
		pending:         make(map[ircid.EventID]*pendingEntry),
		pendingCapacity: capacity,
		journalCapacity: journalCapacity,
		sink:            sink,
		metrics:         metrics,
		log:             logger,
	}
}

// Seen returns a snapshot of the log's accumulated clock.
func (l *EventLog) Seen() ircclock.EventClock {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen.Clone()
}

// PendingCount reports how many events are currently waiting on
// unsatisfied dependencies.
func (l *EventLog) PendingCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// AppliedOrder returns the ids of every event emitted so far, oldest
// first. Exposed for tests verifying scenario ordering.
func (l *EventLog) AppliedOrder() []ircid.EventID {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ircid.EventID, len(l.appliedOrder))
	copy(out, l.appliedOrder)
	return out
}

// Add accepts an event from any source. It never fails: malformed input
// is the deserialiser's problem (pkg/replicator), not the log's — by the
// time an Event reaches Add it is assumed well-formed.
func (l *EventLog) Add(e ircevent.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.addLocked(e)
}

func (l *EventLog) addLocked(e ircevent.Event) {
	// A straggler from a previous incarnation of the local server: the
	// epoch bump on restart (UpdateEpoch) already fences these, so any
	// further local-origin event naming an older epoch is discarded.
	if e.ID.Server == l.server && e.ID.Epoch < l.epoch {
		l.log.Debug().Str("event", e.ID.String()).Msg("discarding stale local-epoch event")
		l.metrics.EventDropped("stale_local_epoch")
		return
	}

	if l.seen.Contains(e.ID) {
		l.log.Debug().Str("event", e.ID.String()).Msg("duplicate event, dropping")
		return
	}

	if e.Clock.IsDependencyOf(l.seen) {
		l.emitLocked(e)
		l.promotePendingLocked()
		return
	}

	l.insertPendingLocked(e)
}

func (l *EventLog) emitLocked(e ircevent.Event) {
	l.appliedOrder = append(l.appliedOrder, e.ID)
	l.seen.Update(e.ID)
	l.journal = append(l.journal, e)
	if len(l.journal) > l.journalCapacity {
		l.journal = l.journal[len(l.journal)-l.journalCapacity:]
	}
	l.metrics.EventEmitted()
	if l.sink != nil {
		l.sink.Apply(e)
	}
}

// EventsSince returns, oldest first, every journaled event not already
// covered by clock. Used by pkg/replicator to build a SyncReply. A
// requester whose clock has fallen further behind than journalCapacity
// will not get a complete answer here; there is no other transfer that
// fills that gap.
func (l *EventLog) EventsSince(clock ircclock.EventClock) []ircevent.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ircevent.Event
	for _, e := range l.journal {
		if !clock.Contains(e.ID) {
			out = append(out, e)
		}
	}
	return out
}

// promotePendingLocked re-scans pending for events now covered by seen,
// emitting the lexicographically-smallest ready event repeatedly until
// no more become ready. Re-sorting each round (rather than once) is what
// lets a single emission cascade-unlock a long dependency chain.
func (l *EventLog) promotePendingLocked() {
	for {
		ready := l.readyPendingLocked()
		if len(ready) == 0 {
			return
		}
		sort.Slice(ready, func(i, j int) bool { return ready[i].ID.Less(ready[j].ID) })
		next := ready[0]
		delete(l.pending, next.ID)
		l.emitLocked(next)
	}
}

func (l *EventLog) readyPendingLocked() []ircevent.Event {
	var ready []ircevent.Event
	for _, entry := range l.pending {
		if entry.event.Clock.IsDependencyOf(l.seen) {
			ready = append(ready, entry.event)
		}
	}
	return ready
}

func (l *EventLog) insertPendingLocked(e ircevent.Event) {
	if _, exists := l.pending[e.ID]; exists {
		return
	}
	if len(l.pending) >= l.pendingCapacity {
		l.evictOldestPendingLocked()
	}
	l.pendingOrder++
	l.pending[e.ID] = &pendingEntry{event: e, insertSeq: l.pendingOrder}
	l.metrics.EventPended()
	l.metrics.PendingDepth(len(l.pending))
}

// evictOldestPendingLocked drops the oldest pended event when the
// pending set exceeds its configured bound. This is a partition-recovery
// pathology, not normal flow: it trades
// correctness for bounded memory when a peer has fallen far behind.
func (l *EventLog) evictOldestPendingLocked() {
	var oldestID ircid.EventID
	var oldestSeq uint64
	first := true
	for id, entry := range l.pending {
		if first || entry.insertSeq < oldestSeq {
			oldestID = id
			oldestSeq = entry.insertSeq
			first = false
		}
	}
	if first {
		return
	}
	delete(l.pending, oldestID)
	l.metrics.PendingOverflow()
	l.log.Warn().Str("event", oldestID.String()).Msg("pending set overflow, evicting oldest")
}

// UpdateEpoch bumps the local epoch. Epoch semantics:
// future locally-originated events use the new epoch, and any pending
// event authored by this server under the old epoch is flushed (it is
// obsolete by restart, since the node that created it no longer exists
// in that incarnation).
func (l *EventLog) UpdateEpoch(newEpoch ircid.EpochID) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id, entry := range l.pending {
		if entry.event.ID.Server == l.server && entry.event.ID.Epoch < newEpoch {
			delete(l.pending, id)
			l.log.Debug().Str("event", id.String()).Msg("flushing pending event from prior local epoch")
		}
	}
	l.epoch = newEpoch
	l.nextSeq = 0
}

func (l *EventLog) nextLocalID() (ircid.EventID, ircclock.EventClock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextSeq++
	id := ircid.EventID{Server: l.server, Epoch: l.epoch, Seq: l.nextSeq}
	return id, l.seen.Clone()
}

// NewEvent originates an event locally that mutates or removes an
// existing object: target is stamped with a snapshot of the log's
// current clock and a fresh id, then fed through the same Add path as
// any remote event, so local origination can never skip the
// causal-delivery bookkeeping.
func (l *EventLog) NewEvent(target ircid.ObjectID, details ircevent.EventDetails) ircid.EventID {
	id, clock := l.nextLocalID()
	e := ircevent.Event{
		ID:        id,
		Timestamp: time.Now().UnixNano(),
		Clock:     clock,
		Target:    target,
		Details:   details,
	}
	l.Add(e)
	return id
}

// NewCreationEvent originates an event that creates a new object. Per
// the provenance invariant, a created object's id must be
// derived from its creating event's own id, which isn't known until the
// id has been assigned — so build receives the assigned EventID and
// returns the details referencing it (e.g. a message object quoting its
// own id isn't needed, but a ChannelJoin's synthesised membership id is).
func (l *EventLog) NewCreationEvent(kind ircid.ObjectKind, build func(ircid.EventID) ircevent.EventDetails) (ircid.ObjectID, ircid.EventID) {
	id, clock := l.nextLocalID()
	target := ircid.NewObjectID(kind, id)
	e := ircevent.Event{
		ID:        id,
		Timestamp: time.Now().UnixNano(),
		Clock:     clock,
		Target:    target,
		Details:   build(id),
	}
	l.Add(e)
	return target, id
}

// CurrentEpoch returns the epoch future NewEvent calls will be stamped
// with.
func (l *EventLog) CurrentEpoch() ircid.EpochID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.epoch
}
