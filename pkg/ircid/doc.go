/*
Package ircid defines the typed, total-ordered identifiers shared across
the event log, network state and replicator: ServerID, EpochID, EventID
and the ObjectID sum type over users, channels, memberships, messages,
servers, audit entries, invites and list-mode entries.

An EventID is the triple (server, epoch, local sequence) and is globally
unique and totally ordered within one (server, epoch) pair. Every
ObjectID carries a sub-id of the same shape, and by invariant an object's
(server, epoch) prefix equals the id of the event that created it — so an
object's provenance is always recoverable from its id alone.
*/
package ircid
