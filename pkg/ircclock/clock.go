package ircclock

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cuemby/ircfed/pkg/ircid"
)

// EventClock maps ServerID to the highest EventID observed from that
// server. A server absent from the map has not been observed at all.
//
// EventClock is not safe for concurrent use; callers (pkg/eventlog,
// pkg/netstate) hold it behind their own locks.
type EventClock struct {
	seen map[ircid.ServerID]ircid.EventID
}

// New returns an empty EventClock.
func New() EventClock {
	return EventClock{seen: make(map[ircid.ServerID]ircid.EventID)}
}

// Clone returns an independent copy, used when stamping a locally
// originated event with a snapshot of the log's current clock.
func (c EventClock) Clone() EventClock {
	out := make(map[ircid.ServerID]ircid.EventID, len(c.seen))
	for s, id := range c.seen {
		out[s] = id
	}
	return EventClock{seen: out}
}

// Update records that id has been observed, advancing the entry for
// id.Server if id is newer than what's already recorded.
func (c EventClock) Update(id ircid.EventID) {
	if existing, ok := c.seen[id.Server]; !ok || existing.Less(id) {
		c.seen[id.Server] = id
	}
}

// Contains reports whether id has already been observed: true iff the
// clock's entry for id.Server is >= id.
func (c EventClock) Contains(id ircid.EventID) bool {
	existing, ok := c.seen[id.Server]
	if !ok {
		return false
	}
	return id.LessOrEqual(existing)
}

// Get returns the highest EventID seen from server, and whether any has
// been seen at all.
func (c EventClock) Get(server ircid.ServerID) (ircid.EventID, bool) {
	id, ok := c.seen[server]
	return id, ok
}

// IsDependencyOf reports whether every entry of c is already covered by
// other — i.e. whether an event stamped with clock c may be applied
// once other has been reached. This is the causal-dependency ⊆ test.
func (c EventClock) IsDependencyOf(other EventClock) bool {
	for server, id := range c.seen {
		otherID, ok := other.seen[server]
		if !ok || otherID.Less(id) {
			return false
		}
	}
	return true
}

// Merge returns the pointwise maximum of c and other, mutating neither.
func (c EventClock) Merge(other EventClock) EventClock {
	out := c.Clone()
	for _, id := range other.seen {
		out.Update(id)
	}
	return out
}

// Ordering classifies the relationship between two clocks.
type Ordering int

const (
	// Equal: identical observed sets.
	Equal Ordering = iota
	// Less: a is a strict subset (a ≤ b and a ≠ b).
	Less
	// Greater: b is a strict subset of a.
	Greater
	// Concurrent: neither clock's observed set contains the other's.
	Concurrent
)

// Compare classifies a relative to b: A ≤ B iff every entry
// in A is ≤ B's; strictly less iff ≤ and ≠; otherwise concurrent.
func Compare(a, b EventClock) Ordering {
	aLEb := a.IsDependencyOf(b)
	bLEa := b.IsDependencyOf(a)
	switch {
	case aLEb && bLEa:
		return Equal
	case aLEb:
		return Less
	case bLEa:
		return Greater
	default:
		return Concurrent
	}
}

func (c EventClock) String() string {
	servers := make([]ircid.ServerID, 0, len(c.seen))
	for s := range c.seen {
		servers = append(servers, s)
	}
	sort.Slice(servers, func(i, j int) bool { return servers[i] < servers[j] })

	parts := make([]string, 0, len(servers))
	for _, s := range servers {
		parts = append(parts, fmt.Sprintf("%d:%s", s, c.seen[s]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Len reports the number of servers this clock has observed.
func (c EventClock) Len() int {
	return len(c.seen)
}

// MarshalJSON renders the clock as its underlying server->EventID map,
// making it a self-describing textual record suitable for the gossip
// wire format and persisted snapshots.
func (c EventClock) MarshalJSON() ([]byte, error) {
	if c.seen == nil {
		return json.Marshal(map[ircid.ServerID]ircid.EventID{})
	}
	return json.Marshal(c.seen)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *EventClock) UnmarshalJSON(data []byte) error {
	m := make(map[ircid.ServerID]ircid.EventID)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.seen = m
	return nil
}
