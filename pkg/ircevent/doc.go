/*
Package ircevent defines Event and the closed EventDetails sum: the
full vocabulary of state-mutating operations that flow through
the event log, gossip transport and network-state reducer.

EventDetails is rendered as a single struct carrying a Kind tag plus one
populated pointer field per variant, the same "tag + payload" shape
pkg/manager.Command uses for Raft log entries — except the payload here
is a typed Go field rather than json.RawMessage, since every consumer in
this module needs the concrete type and a second unmarshal pass buys
nothing. The Details<Kind> constructors (details.go) keep callers from
having to hand-populate the Kind tag.
*/
package ircevent
