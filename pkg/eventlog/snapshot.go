package eventlog

import (
	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/rs/zerolog"
)

// SavedEventLog is the event-log portion of the persisted SavedState
// container: the accumulated clock plus whatever is still
// waiting on unsatisfied dependencies. The journal and applied-order
// bookkeeping are not part of the snapshot — they exist only to serve
// already-running peers and rebuild for free as new events arrive.
type SavedEventLog struct {
	Seen    ircclock.EventClock
	Pending []ircevent.Event
}

// Export captures the log's durable state for a snapshot write.
func (l *EventLog) Export() SavedEventLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	pending := make([]ircevent.Event, 0, len(l.pending))
	for _, entry := range l.pending {
		pending = append(pending, entry.event)
	}
	return SavedEventLog{Seen: l.seen.Clone(), Pending: pending}
}

// Restore rebuilds an EventLog from a previously Exported snapshot.
// Pending events are reinserted without re-running causal delivery —
// a snapshot is a cold-start shortcut, not an event replay — so any
// dependency that was unsatisfied at save time is still unsatisfied
// until matching events arrive again over the wire.
func Restore(cfg Config, saved SavedEventLog, sink Sink, metrics Metrics, logger zerolog.Logger) *EventLog {
	l := New(cfg, sink, metrics, logger)
	l.seen = saved.Seen.Clone()
	for _, e := range saved.Pending {
		l.pendingOrder++
		l.pending[e.ID] = &pendingEntry{event: e, insertSeq: l.pendingOrder}
	}
	return l
}
