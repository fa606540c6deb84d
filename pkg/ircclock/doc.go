/*
Package ircclock implements EventClock, the sparse vector clock used to
linearise causally-dependent events across server nodes.

Unlike a classic fixed-length vector clock indexed by process rank,
EventClock is a sparse map from ServerID to the highest EventID observed
from that server, since the set of participating servers is not known in
advance and servers may join or leave. The ordering it induces — A ≤ B iff
every entry of A is ≤ the corresponding entry of B — is a partial order;
two clocks that are neither ≤ nor ≥ each other are concurrent, and
concurrent events are ordered only by the tie-break rule in pkg/eventlog.
*/
package ircclock
