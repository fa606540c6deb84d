/*
Package history implements the History Log: a bounded,
append-only ring of HistoryLogEntry records, each wrapping a
netstate.NetworkStateChange with its source event's id, timestamp and
clock, plus a per-user secondary index in insertion order.

The log itself is target-agnostic about "visibility" — the caller
(pkg/servernode) resolves which users a change is visible to (message
sender/recipient, or a channel's current membership at delivery time)
and passes that set to Record. This mirrors pkg/events.Broker
(pkg/events/events.go), generalised from a fixed fan-out-to-all-subscribers
model to a bounded ring with a per-user index, because CHATHISTORY needs
durable backward lookup rather than just live fan-out.

Eviction is FIFO by capacity and, optionally, by a retention window
(entries older than the window are dropped even under capacity). Because
insertion order is global and a user's own entries are always a
subsequence of that order, the globally-oldest entry being evicted is
always also the oldest entry of any per-user index it appears in — so
eviction only ever needs to trim from the front of both the global order
and every affected per-user list.
*/
package history
