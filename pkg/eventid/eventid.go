// Package eventid mints the connection-scoped identifiers carried by
// pkg/listener's ConnectionEvent.source. Unlike ircid's
// EventID/ObjectID family, a connection id has no causal meaning — it
// never crosses a server boundary and is never referenced by an Event
// — so it needs no Server/Epoch/Seq structure, only uniqueness within
// one running process.
//
// Grounded on github.com/google/uuid's use for ephemeral,
// non-replicated identifiers elsewhere (pkg/api/server.go, pkg/scheduler).
package eventid

import "github.com/google/uuid"

// ConnectionID identifies one accepted socket for the lifetime of the
// process. It is never persisted across a restart; a resumed listener
// (Resume) mints fresh ids for the file descriptors it recovers.
type ConnectionID uuid.UUID

// New mints a fresh, random ConnectionID.
func New() ConnectionID {
	return ConnectionID(uuid.New())
}

func (c ConnectionID) String() string {
	return uuid.UUID(c).String()
}

func (c ConnectionID) Zero() bool {
	return c == ConnectionID{}
}
