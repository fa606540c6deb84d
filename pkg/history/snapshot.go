package history

import "github.com/rs/zerolog"

// Export returns every live entry, oldest first — the history portion
// of the persisted SavedState container.
func (l *Log) Export() []HistoryLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]HistoryLogEntry, 0, len(l.order))
	for _, id := range l.order {
		if e := l.entries[id]; e != nil {
			out = append(out, *e)
		}
	}
	return out
}

// Restore rebuilds a Log from a previously Exported entry list,
// preserving insertion order and per-user visibility without replaying
// through Record's eviction logic (the entries already respect the
// capacity they were saved under).
func Restore(cfg Config, entries []HistoryLogEntry, metrics Metrics, logger zerolog.Logger) *Log {
	l := New(cfg, metrics, logger)
	for _, e := range entries {
		entry := e
		l.entries[entry.ID] = &entry
		l.order = append(l.order, entry.ID)
		for _, u := range entry.VisibleTo {
			l.perUser[u] = append(l.perUser[u], entry.ID)
		}
	}
	return l
}
