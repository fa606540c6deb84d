package ircid

import "fmt"

// ServerID uniquely identifies a cooperating server node in the cluster.
type ServerID uint32

// EpochID is bumped by a node each time it restarts without saved state.
// It fences events authored by a previous incarnation of the same server.
type EpochID uint64

// Seq is a per-(server,epoch) monotonic local sequence number.
type Seq uint64

// EventID globally and totally orders events: first by server, then by
// epoch, then by local sequence. Two EventIDs compare equal only when all
// three fields match.
type EventID struct {
	Server ServerID
	Epoch  EpochID
	Seq    Seq
}

// Zero reports whether this is the unset EventID; ObjectID.Zero builds on
// it. EventClock does not use it: an absent map entry marks a server it
// has seen nothing from.
func (id EventID) Zero() bool {
	return id == EventID{}
}

// Less implements the canonical tie-break ordering: ascending
// by (server, epoch, local_seq).
func (id EventID) Less(other EventID) bool {
	if id.Server != other.Server {
		return id.Server < other.Server
	}
	if id.Epoch != other.Epoch {
		return id.Epoch < other.Epoch
	}
	return id.Seq < other.Seq
}

// LessOrEqual is Less with equality admitted, convenient for clock
// comparisons (EventClock.Contains uses >=, this gives the <= leg).
func (id EventID) LessOrEqual(other EventID) bool {
	return id == other || id.Less(other)
}

func (id EventID) String() string {
	return fmt.Sprintf("%d.%d.%d", id.Server, id.Epoch, id.Seq)
}

// ObjectKind tags the variant carried by an ObjectID.
type ObjectKind uint8

const (
	ObjectUnknown ObjectKind = iota
	ObjectUser
	ObjectChannel
	ObjectMembership
	ObjectMessage
	ObjectServer
	ObjectAuditEntry
	ObjectInvite
	ObjectListMode
	ObjectHistoryEntry
)

func (k ObjectKind) String() string {
	switch k {
	case ObjectUser:
		return "User"
	case ObjectChannel:
		return "Channel"
	case ObjectMembership:
		return "Membership"
	case ObjectMessage:
		return "Message"
	case ObjectServer:
		return "Server"
	case ObjectAuditEntry:
		return "AuditEntry"
	case ObjectInvite:
		return "Invite"
	case ObjectListMode:
		return "ListMode"
	case ObjectHistoryEntry:
		return "HistoryEntry"
	default:
		return "Unknown"
	}
}

// ObjectID is a tagged variant over the object tables of the network
// state. Its Sub field is an EventID-shaped id: by invariant, Sub's
// (Server, Epoch) prefix equals the id of the event that created the
// object, so provenance never needs a side table.
type ObjectID struct {
	Kind ObjectKind
	Sub  EventID
}

func (o ObjectID) Zero() bool {
	return o.Kind == ObjectUnknown && o.Sub.Zero()
}

func (o ObjectID) String() string {
	return fmt.Sprintf("%s:%s", o.Kind, o.Sub)
}

// NewObjectID builds an ObjectID of the given kind from the EventID of
// the creating event, per the provenance invariant.
func NewObjectID(kind ObjectKind, creator EventID) ObjectID {
	return ObjectID{Kind: kind, Sub: creator}
}

// MembershipID composes the (user, channel) pair a Membership is keyed
// by — it is not itself an EventID-shaped id, since a membership's
// identity is the pair of endpoints, not its creating event.
type MembershipID struct {
	User    ObjectID
	Channel ObjectID
}

func (m MembershipID) String() string {
	return fmt.Sprintf("%s/%s", m.User, m.Channel)
}
