package history

import (
	"sync"
	"time"

	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
	"github.com/rs/zerolog"
)

// Config holds the ring's bounds.
type Config struct {
	Capacity  int           // 0 means DefaultCapacity
	Retention time.Duration // 0 disables age-based eviction
}

const DefaultCapacity = 8192

// Log is the bounded, per-user-indexed history ring.
type Log struct {
	mu sync.RWMutex

	capacity  int
	retention time.Duration
	now       func() time.Time

	entries map[ircid.ObjectID]*HistoryLogEntry
	order   []ircid.ObjectID
	perUser map[ircid.ObjectID][]ircid.ObjectID

	metrics Metrics
	log     zerolog.Logger
}

// New constructs a Log. metrics may be nil to use NopMetrics.
func New(cfg Config, metrics Metrics, logger zerolog.Logger) *Log {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity:  capacity,
		retention: cfg.Retention,
		now:       time.Now,
		entries:   make(map[ircid.ObjectID]*HistoryLogEntry),
		perUser:   make(map[ircid.ObjectID][]ircid.ObjectID),
		metrics:   metrics,
		log:       logger,
	}
}

// Record appends a new entry keyed by its source event's id (the
// provenance invariant (every object's id names its creating event) extends to history entries too: the
// entry's ObjectID is derived from the event that produced it) and
// indexes it under every user it is visible to.
func (l *Log) Record(timestamp int64, clock ircclock.EventClock, sourceEvent ircid.EventID, details netstate.NetworkStateChange, visibleTo []ircid.ObjectID) ircid.ObjectID {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := ircid.NewObjectID(ircid.ObjectHistoryEntry, sourceEvent)
	entry := &HistoryLogEntry{
		ID:          id,
		Timestamp:   timestamp,
		Clock:       clock.Clone(),
		SourceEvent: sourceEvent,
		Details:     details,
		VisibleTo:   append([]ircid.ObjectID(nil), visibleTo...),
	}
	l.entries[id] = entry
	l.order = append(l.order, id)
	for _, u := range visibleTo {
		l.perUser[u] = append(l.perUser[u], id)
	}
	l.metrics.EntryRecorded()

	l.evictLocked()
	return id
}

func (l *Log) evictLocked() {
	for len(l.order) > l.capacity {
		l.evictOldestLocked("capacity")
	}
	if l.retention <= 0 {
		return
	}
	cutoff := l.now().Add(-l.retention)
	for len(l.order) > 0 {
		oldest := l.entries[l.order[0]]
		if oldest == nil || time.Unix(0, oldest.Timestamp).After(cutoff) {
			return
		}
		l.evictOldestLocked("retention")
	}
}

// evictOldestLocked drops the globally-oldest entry. Because every
// per-user index is a subsequence of the global insertion order, the
// globally-oldest entry is also the oldest entry of any per-user list it
// belongs to, so a front-trim is always correct there too.
func (l *Log) evictOldestLocked(reason string) {
	if len(l.order) == 0 {
		return
	}
	id := l.order[0]
	l.order = l.order[1:]
	entry := l.entries[id]
	delete(l.entries, id)
	l.metrics.EntryEvicted(reason)
	if entry == nil {
		return
	}
	for _, u := range entry.VisibleTo {
		list := l.perUser[u]
		if len(list) > 0 && list[0] == id {
			l.perUser[u] = list[1:]
		}
	}
}

// EntriesForUser returns the entries visible to user, oldest first.
func (l *Log) EntriesForUser(user ircid.ObjectID) []HistoryLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := l.perUser[user]
	out := make([]HistoryLogEntry, 0, len(ids))
	for _, id := range ids {
		if e := l.entries[id]; e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// EntriesForUserReverse returns the entries visible to user, newest
// first.
func (l *Log) EntriesForUserReverse(user ircid.ObjectID) []HistoryLogEntry {
	forward := l.EntriesForUser(user)
	out := make([]HistoryLogEntry, len(forward))
	for i, e := range forward {
		out[len(forward)-1-i] = e
	}
	return out
}

// Len reports the number of live entries in the ring.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// SetClock overrides the log's notion of "now", for deterministic
// retention-window tests.
func (l *Log) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
