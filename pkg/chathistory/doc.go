/*
Package chathistory implements the CHATHISTORY query engine:
BEFORE, AFTER, AROUND, BETWEEN, LATEST and TARGETS over a slice of
history.HistoryLogEntry already scoped to the querying user.

This package implements the queries as pure functions: it has no
dependency on pkg/history's storage
beyond the HistoryLogEntry type, and no network/IRC-wire concerns — it
is wired into the protocol layer by pkg/dispatch.

Grounded on original_source's sable_ircd/command/handlers/chathistory.rs
for the six sub-commands' windowing semantics and
sable_ircd/messages/send_history.rs for the notion of a returned batch,
re-expressed here as a plain Go slice since batch framing is
pkg/dispatch's concern (its sendBatch helper), not this package's.
*/
package chathistory
