/*
Package replicator is the replicated event log transport.
It carries locally originated events to every other server and delivers
remotely originated events into the local pkg/eventlog, using gossip
broadcast rather than a leader-based consensus protocol: causal delivery
only requires that every server eventually see every event and can
re-derive the same total order locally (pkg/eventlog's pending-set
promotion), so there is nothing for a leader to coordinate.

This replaces pkg/manager, which replicates a single
linearised command log via github.com/hashicorp/raft and commits each
entry through an FSM before any node may apply it. That shape fits a
scheduler placing containers, where only one decision may win per slot.
It is the wrong fit here: event clocks are explicitly designed
so concurrent events from different servers do not need to race for a
single slot, and the failure model tolerates partitions by
design ("pending set... capacity bound... a partition-recovery
pathology, not normal flow") rather than blocking writes until a quorum
reconnects the way Raft would.

github.com/hashicorp/serf (which brings in github.com/hashicorp/memberlist
as its own dependency) gives exactly the primitive
this needs: Serf.UserEvent broadcasts an opaque payload to every member
of the cluster, delivered to Serf.Config.EventCh as a serf.UserEvent.
Broadcasting an encoded ircevent.Event this way is indistinguishable,
from the event log's point of view, from delivering it over any other
transport — pkg/eventlog.Add does not know or care how an Event arrived.

Replicator additionally broadcasts wire.SyncRequest/wire.SyncReply over
the same UserEvent channel to implement a synchronising state: a newly
joined or rejoining node announces its EventClock, and
peers reply with the events they hold that the requester's clock does
not yet cover.
*/
package replicator
