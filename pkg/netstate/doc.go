/*
Package netstate implements the Network State reducer: a
pure, deterministic function from (state, Event) to the state's next
value plus a slice of NetworkStateChange notifications, covering the
graph of users, channels, memberships, servers, list-mode entries,
invites and audit entries.

Apply never returns an error: referential problems (an event naming a
missing object despite a satisfied clock) are logged, dropped, and
surfaced as a Warning notification rather than propagated, per the
propagation policy ("the reducer never propagates errors upward").

Grounded on pkg/manager/fsm.go's Apply/Snapshot/Restore FSM triad —
generalised from "committed Raft log entry" to "causally-ordered
Event" — and on sable's object arena model named in original_source's
file list (sable_network).
*/
package netstate
