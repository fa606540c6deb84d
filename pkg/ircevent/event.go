package ircevent

import (
	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircid"
)

// Event is an atomic state-mutating record originating at a node.
// Clock captures the events the originator had already observed
// when it created this one; a receiving node may apply Event only once
// every id in Clock has itself been applied.
type Event struct {
	ID        ircid.EventID
	Timestamp int64 // unix nanoseconds
	Clock     ircclock.EventClock
	Target    ircid.ObjectID
	Details   EventDetails
}

// DetailKind tags the populated field of EventDetails.
type DetailKind string

const (
	KindNewUser             DetailKind = "NewUser"
	KindUserQuit            DetailKind = "UserQuit"
	KindNewChannel          DetailKind = "NewChannel"
	KindChannelJoin         DetailKind = "ChannelJoin"
	KindChannelPart         DetailKind = "ChannelPart"
	KindChannelKick         DetailKind = "ChannelKick"
	KindChannelModeChange   DetailKind = "ChannelModeChange"
	KindMembershipFlagChange DetailKind = "MembershipFlagChange"
	KindNewMessage          DetailKind = "NewMessage"
	KindChannelTopicChange  DetailKind = "ChannelTopicChange"
	KindNewServer           DetailKind = "NewServer"
	KindServerQuit          DetailKind = "ServerQuit"
	KindBulkUserQuit        DetailKind = "BulkUserQuit"
	KindUserNickChange      DetailKind = "UserNickChange"
	KindUserModeChange      DetailKind = "UserModeChange"
	KindUserAwayChange      DetailKind = "UserAwayChange"
	KindListModeAdded       DetailKind = "ListModeAdded"
	KindListModeRemoved     DetailKind = "ListModeRemoved"
	KindNewInvite           DetailKind = "NewInvite"
	KindNewAuditLogEntry    DetailKind = "NewAuditLogEntry"
	KindUserLoginChange     DetailKind = "UserLoginChange"
)

// EventDetails is the closed sum over the state-mutation vocabulary of
// a tagged union. Exactly one field is populated, matching Kind.
type EventDetails struct {
	Kind DetailKind

	NewUser              *NewUser
	UserQuit             *UserQuit
	NewChannel           *NewChannel
	ChannelJoin          *ChannelJoin
	ChannelPart          *ChannelPart
	ChannelKick          *ChannelKick
	ChannelModeChange    *ChannelModeChange
	MembershipFlagChange *MembershipFlagChange
	NewMessage           *NewMessage
	ChannelTopicChange   *ChannelTopicChange
	NewServer            *NewServer
	ServerQuit           *ServerQuit
	BulkUserQuit         *BulkUserQuit
	UserNickChange       *UserNickChange
	UserModeChange       *UserModeChange
	UserAwayChange       *UserAwayChange
	ListModeAdded        *ListModeAdded
	ListModeRemoved      *ListModeRemoved
	NewInvite            *NewInvite
	NewAuditLogEntry     *NewAuditLogEntry
	UserLoginChange      *UserLoginChange
}

// NewUser creates a user. Target is the new user's ObjectID.
type NewUser struct {
	Nick       string
	User       string
	Host       string
	Realname   string
	HomeServer ircid.ServerID
}

// UserQuit removes a user and all their memberships. Target is the user.
type UserQuit struct {
	Reason string
}

// NewChannel creates a channel. Target is the new channel's ObjectID.
type NewChannel struct {
	Name string
}

// ChannelJoin creates a membership. Target is the new membership's
// ObjectID (kind ObjectMembership); User and Channel name the endpoints.
type ChannelJoin struct {
	User    ircid.ObjectID
	Channel ircid.ObjectID
}

// ChannelPart removes a membership by the user's own action. Target is
// the membership being removed.
type ChannelPart struct {
	Reason string
}

// ChannelKick removes a membership by another user's action. Target is
// the membership being removed.
type ChannelKick struct {
	By     ircid.ObjectID
	Reason string
}

// ModeChar is a single IRC channel or user mode letter, e.g. 'o', 'n', 't'.
type ModeChar byte

// ChannelModeChange adds and/or removes simple (non-list, non-membership)
// channel modes. Target is the channel.
type ChannelModeChange struct {
	Added   []ModeChar
	Removed []ModeChar
	By      ircid.ObjectID
}

// MembershipFlagChange adds/removes per-member permission flags (op,
// voice, ...) on an existing membership. Target is the membership.
type MembershipFlagChange struct {
	Added   []ModeChar
	Removed []ModeChar
	By      ircid.ObjectID
}

// MessageKind distinguishes PRIVMSG-shaped traffic from NOTICE etc.
type MessageKind string

const (
	MessagePrivmsg MessageKind = "PRIVMSG"
	MessageNotice  MessageKind = "NOTICE"
)

// NewMessage records a message sent to a user or channel. Target is the
// new message's ObjectID, used as the History Log's sort/identity key.
type NewMessage struct {
	From ircid.ObjectID
	To   ircid.ObjectID // ObjectUser or ObjectChannel
	Kind MessageKind
	Text string
}

// ChannelTopicChange sets a channel's topic. Target is the channel.
type ChannelTopicChange struct {
	Topic string
	SetBy ircid.ObjectID
}

// NewServer announces a peer node joining the network. Target is the new
// server's ObjectID.
type NewServer struct {
	Name string
}

// ServerQuit removes a peer node. Epoch identifies which incarnation of
// that server is being quit, so a straggler naming a stale epoch (the
// epoch-restart scenario) cannot affect the server's current epoch. Target is the
// server.
type ServerQuit struct {
	Epoch  ircid.EpochID
	Reason string
}

// BulkUserQuit is synthesised, never gossiped as authored input: when a
// ServerQuit is applied, every user whose home server matches is removed
// in one notification instead of one UserQuit per user.
// Target is the quitting server's ObjectID.
type BulkUserQuit struct {
	HomeServer ircid.ServerID
	Reason     string
}

// UserNickChange changes a user's nickname, or is synthesised by the
// nick-clash policy to rename the losing side. Target is the user.
type UserNickChange struct {
	NewNick string
	Synthetic bool
}

// UserModeChange adds/removes simple user modes (invisible, oper, ...).
// Target is the user.
type UserModeChange struct {
	Added   []ModeChar
	Removed []ModeChar
}

// UserAwayChange sets or clears a user's away status. Nil Reason means
// "no longer away". Target is the user.
type UserAwayChange struct {
	Reason *string
}

// ListModeType distinguishes ban/except/invex list-mode tables.
type ListModeType string

const (
	ListModeBan    ListModeType = "ban"
	ListModeExcept ListModeType = "except"
	ListModeInvex  ListModeType = "invex"
)

// ListModeAdded adds an entry to a channel's per-type list mode set.
// Target is the new list-mode entry's ObjectID.
type ListModeAdded struct {
	Channel ircid.ObjectID
	Type    ListModeType
	Pattern string
	SetBy   ircid.ObjectID
}

// ListModeRemoved removes a previously added list-mode entry. Target is
// the list-mode entry being removed.
type ListModeRemoved struct {
	Channel ircid.ObjectID
	Type    ListModeType
	Pattern string
}

// NewInvite records an invitation of a user to an invite-only channel.
// Target is the new invite's ObjectID.
type NewInvite struct {
	User    ircid.ObjectID
	Channel ircid.ObjectID
	By      ircid.ObjectID
}

// NewAuditLogEntry appends an operator-visible audit record. Its history
// emitter is an intentional no-op (an open design question: unimplemented
// in the source, treated as a no-op pending design here too). Target is
// the new audit entry's ObjectID.
type NewAuditLogEntry struct {
	Message string
	By      ircid.ObjectID
}

// UserLoginChange records a SASL/account login or logout. Like
// NewAuditLogEntry its history emitter is a no-op pending design. Target
// is the user.
type UserLoginChange struct {
	Account *string
}
