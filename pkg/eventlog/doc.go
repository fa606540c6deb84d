/*
Package eventlog implements the append-only, partially-ordered Event Log:
the single entry point for events from any source (local
origination or remote gossip), the causal-delivery algorithm that pends
events until their clock dependencies are satisfied, and the epoch
bookkeeping that fences stale events from a previous incarnation of the
local server.

The delivery algorithm is the canonical one: on Add, a
duplicate is dropped, an event whose Clock is already covered by the
log's accumulated Seen clock is emitted immediately (and the pending set
re-scanned for newly-eligible events), and everything else is pended.
Concurrent ready events are emitted in ascending (server, epoch, seq)
order — the single tie-break rule every node applies identically.

Grounded on chaitanyaphalak-go-mcast's commit/apply dispatch
(pkg/mcast/core/deliver.go, pkg/mcast/types/state_machine.go) and
BEET-ONLINE-go-lachesis's epoch-bump-on-restart discarding stale local
predecessors (poset/epoch.go).
*/
package eventlog
