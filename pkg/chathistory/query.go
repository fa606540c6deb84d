package chathistory

import (
	"sort"

	"github.com/cuemby/ircfed/pkg/history"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
)

// FilterByTarget narrows entries already visible to self down to the
// conversation with target: channel messages addressed to target, or
// private messages exchanged between self and target.
func FilterByTarget(entries []history.HistoryLogEntry, self, target ircid.ObjectID) []history.HistoryLogEntry {
	out := make([]history.HistoryLogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Details.Kind != netstate.ChangeMessage {
			continue
		}
		m := e.Details.Message
		if m.To == target {
			out = append(out, e)
			continue
		}
		if m.To == self && m.From == target {
			out = append(out, e)
		}
	}
	return sortedAscending(out)
}

func sortedAscending(entries []history.HistoryLogEntry) []history.HistoryLogEntry {
	out := append([]history.HistoryLogEntry(nil), entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

// Before returns up to limit entries strictly older than timestamp,
// nearest to timestamp first in time but returned in ascending order.
func Before(entries []history.HistoryLogEntry, timestamp int64, limit int) []history.HistoryLogEntry {
	asc := sortedAscending(entries)
	var matched []history.HistoryLogEntry
	for _, e := range asc {
		if e.Timestamp < timestamp {
			matched = append(matched, e)
		}
	}
	return tailLimit(matched, limit)
}

// After returns up to limit entries strictly newer than timestamp, in
// ascending order.
func After(entries []history.HistoryLogEntry, timestamp int64, limit int) []history.HistoryLogEntry {
	asc := sortedAscending(entries)
	var matched []history.HistoryLogEntry
	for _, e := range asc {
		if e.Timestamp > timestamp {
			matched = append(matched, e)
		}
	}
	return headLimit(matched, limit)
}

// Around returns a window centred on timestamp: a backward half of
// ⌊limit/2⌋ entries with timestamp <= timestamp (the anchor is included
// in the backward half, per the around-boundary scenario and DESIGN.md's Open
// Question decision), plus a forward half of ⌊limit/2⌋ entries strictly
// after timestamp. Result is in ascending order.
func Around(entries []history.HistoryLogEntry, timestamp int64, limit int) []history.HistoryLogEntry {
	asc := sortedAscending(entries)
	half := limit / 2

	var backward, forward []history.HistoryLogEntry
	for _, e := range asc {
		if e.Timestamp <= timestamp {
			backward = append(backward, e)
		} else {
			forward = append(forward, e)
		}
	}
	backward = tailLimit(backward, half)
	forward = headLimit(forward, half)

	out := make([]history.HistoryLogEntry, 0, len(backward)+len(forward))
	out = append(out, backward...)
	out = append(out, forward...)
	return out
}

// Between returns up to limit entries in the half-open range
// [start, end), after normalising start <= end. start == end yields an
// empty batch without error, matching the documented boundary behaviour.
func Between(entries []history.HistoryLogEntry, start, end int64, limit int) []history.HistoryLogEntry {
	if start > end {
		start, end = end, start
	}
	if start == end {
		return nil
	}
	asc := sortedAscending(entries)
	var matched []history.HistoryLogEntry
	for _, e := range asc {
		if e.Timestamp >= start && e.Timestamp < end {
			matched = append(matched, e)
		}
	}
	return headLimit(matched, limit)
}

// Latest returns the most recent limit entries, in ascending order.
func Latest(entries []history.HistoryLogEntry, limit int) []history.HistoryLogEntry {
	asc := sortedAscending(entries)
	return tailLimit(asc, limit)
}

// TargetSighting is one row of a TARGETS reply: a conversation partner
// (user or channel) and the timestamp of the most recent message
// exchanged with them at or after since.
type TargetSighting struct {
	Target ircid.ObjectID
	Latest int64
}

// Targets walks entries newest-first (pass history.EntriesForUserReverse's
// output) and remembers the newest timestamp per distinct conversation
// partner. Because iteration is reverse-chronological, the first sighting
// of a given target is authoritative and later, older sightings of the
// same target are ignored.
func Targets(reverseEntries []history.HistoryLogEntry, self ircid.ObjectID, since int64, limit int) []TargetSighting {
	seen := make(map[ircid.ObjectID]bool)
	var out []TargetSighting
	for _, e := range reverseEntries {
		if e.Timestamp < since {
			continue
		}
		if e.Details.Kind != netstate.ChangeMessage {
			continue
		}
		m := e.Details.Message
		target, ok := conversationPartner(m, self)
		if !ok || seen[target] {
			continue
		}
		seen[target] = true
		out = append(out, TargetSighting{Target: target, Latest: e.Timestamp})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func conversationPartner(m *netstate.MessageChange, self ircid.ObjectID) (ircid.ObjectID, bool) {
	if m.To.Kind == ircid.ObjectChannel {
		return m.To, true
	}
	switch {
	case m.To == self:
		return m.From, true
	case m.From == self:
		return m.To, true
	default:
		return ircid.ObjectID{}, false
	}
}

func headLimit(entries []history.HistoryLogEntry, limit int) []history.HistoryLogEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}

func tailLimit(entries []history.HistoryLogEntry, limit int) []history.HistoryLogEntry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[len(entries)-limit:]
}
