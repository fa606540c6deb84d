package history

import (
	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
)

// HistoryLogEntry is one durable record in the ring.
type HistoryLogEntry struct {
	ID          ircid.ObjectID
	Timestamp   int64 // unix nanoseconds, copied from the source event
	Clock       ircclock.EventClock
	SourceEvent ircid.EventID
	Details     netstate.NetworkStateChange
	VisibleTo   []ircid.ObjectID
}
