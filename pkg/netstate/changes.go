package netstate

import (
	"fmt"

	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
)

// ChangeKind tags the populated field of NetworkStateChange.
type ChangeKind string

const (
	ChangeUserAdded          ChangeKind = "UserAdded"
	ChangeUserRemoved        ChangeKind = "UserRemoved"
	ChangeUsersRemovedBulk   ChangeKind = "UsersRemovedBulk"
	ChangeChannelAdded       ChangeKind = "ChannelAdded"
	ChangeMembershipAdded    ChangeKind = "MembershipAdded"
	ChangeMembershipRemoved  ChangeKind = "MembershipRemoved"
	ChangeMembershipFlags    ChangeKind = "MembershipFlagsChanged"
	ChangeChannelModes       ChangeKind = "ChannelModesChanged"
	ChangeChannelTopic       ChangeKind = "ChannelTopicChanged"
	ChangeUserNick           ChangeKind = "UserNickChanged"
	ChangeUserModes          ChangeKind = "UserModesChanged"
	ChangeUserAway           ChangeKind = "UserAwayChanged"
	ChangeMessage            ChangeKind = "Message"
	ChangeServerAdded        ChangeKind = "ServerAdded"
	ChangeServerRemoved      ChangeKind = "ServerRemoved"
	ChangeListModeAdded      ChangeKind = "ListModeAdded"
	ChangeListModeRemoved    ChangeKind = "ListModeRemoved"
	ChangeInviteAdded        ChangeKind = "InviteAdded"
	ChangeWarning            ChangeKind = "Warning"
)

// NetworkStateChange is the notification sum Apply returns, in the same
// tag+payload-pointer shape as ircevent.EventDetails. Consumers (the
// history log, connected clients' IRC line renderers) switch on Kind.
type NetworkStateChange struct {
	Kind ChangeKind

	UserAdded         *UserAddedChange
	UserRemoved       *UserRemovedChange
	UsersRemovedBulk  *UsersRemovedBulkChange
	ChannelAdded      *ChannelAddedChange
	MembershipAdded   *MembershipAddedChange
	MembershipRemoved *MembershipRemovedChange
	MembershipFlags   *MembershipFlagsChange
	ChannelModes      *ChannelModesChange
	ChannelTopic      *ChannelTopicChange
	UserNick          *UserNickChange
	UserModes         *UserModesChange
	UserAway          *UserAwayChange
	Message           *MessageChange
	ServerAdded       *ServerAddedChange
	ServerRemoved     *ServerRemovedChange
	ListModeAdded     *ListModeAddedChange
	ListModeRemoved   *ListModeRemovedChange
	InviteAdded       *InviteAddedChange
	Warning           *WarningChange
}

type UserAddedChange struct{ User ircid.ObjectID }
type UserRemovedChange struct {
	User   ircid.ObjectID
	Reason string
}
type UsersRemovedBulkChange struct {
	Users      []ircid.ObjectID
	HomeServer ircid.ServerID
	Reason     string
}
type ChannelAddedChange struct{ Channel ircid.ObjectID }
type MembershipAddedChange struct {
	Membership ircid.ObjectID
	User       ircid.ObjectID
	Channel    ircid.ObjectID
}
type MembershipRemovedChange struct {
	Membership ircid.ObjectID
	User       ircid.ObjectID
	Channel    ircid.ObjectID
	By         ircid.ObjectID // zero when a self-part
	Reason     string
}
type MembershipFlagsChange struct {
	Membership ircid.ObjectID
	Added      []ircevent.ModeChar
	Removed    []ircevent.ModeChar
	By         ircid.ObjectID
}
type ChannelModesChange struct {
	Channel ircid.ObjectID
	Added   []ircevent.ModeChar
	Removed []ircevent.ModeChar
	By      ircid.ObjectID
}
type ChannelTopicChange struct {
	Channel ircid.ObjectID
	Topic   string
	SetBy   ircid.ObjectID
}
type UserNickChange struct {
	User      ircid.ObjectID
	NewNick   string
	Synthetic bool
}
type UserModesChange struct {
	User    ircid.ObjectID
	Added   []ircevent.ModeChar
	Removed []ircevent.ModeChar
}
type UserAwayChange struct {
	User   ircid.ObjectID
	Reason *string
}
type MessageChange struct {
	Message ircid.ObjectID
	From    ircid.ObjectID
	To      ircid.ObjectID
	Kind    ircevent.MessageKind
	Text    string
}
type ServerAddedChange struct{ Server ircid.ObjectID }
type ServerRemovedChange struct {
	Server ircid.ObjectID
	Reason string
}
type ListModeAddedChange struct {
	Entry   ircid.ObjectID
	Channel ircid.ObjectID
	Type    ircevent.ListModeType
	Pattern string
	SetBy   ircid.ObjectID
}
type ListModeRemovedChange struct {
	Channel ircid.ObjectID
	Type    ircevent.ListModeType
	Pattern string
}
type InviteAddedChange struct {
	Invite  ircid.ObjectID
	User    ircid.ObjectID
	Channel ircid.ObjectID
	By      ircid.ObjectID
}

// WarningChange surfaces a referential problem the reducer swallowed
// rather than propagating: an event named an object that
// wasn't found despite a satisfied clock.
type WarningChange struct {
	Message string
}

func changeUserAdded(u ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeUserAdded, UserAdded: &UserAddedChange{User: u}}
}
func changeUserRemoved(u ircid.ObjectID, reason string) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeUserRemoved, UserRemoved: &UserRemovedChange{User: u, Reason: reason}}
}
func changeUsersRemovedBulk(users []ircid.ObjectID, home ircid.ServerID, reason string) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeUsersRemovedBulk, UsersRemovedBulk: &UsersRemovedBulkChange{Users: users, HomeServer: home, Reason: reason}}
}
func changeChannelAdded(c ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeChannelAdded, ChannelAdded: &ChannelAddedChange{Channel: c}}
}
func changeMembershipAdded(m, u, c ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeMembershipAdded, MembershipAdded: &MembershipAddedChange{Membership: m, User: u, Channel: c}}
}
func changeMembershipRemoved(m, u, c, by ircid.ObjectID, reason string) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeMembershipRemoved, MembershipRemoved: &MembershipRemovedChange{Membership: m, User: u, Channel: c, By: by, Reason: reason}}
}
func changeMembershipFlags(m ircid.ObjectID, added, removed []ircevent.ModeChar, by ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeMembershipFlags, MembershipFlags: &MembershipFlagsChange{Membership: m, Added: added, Removed: removed, By: by}}
}
func changeChannelModes(c ircid.ObjectID, added, removed []ircevent.ModeChar, by ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeChannelModes, ChannelModes: &ChannelModesChange{Channel: c, Added: added, Removed: removed, By: by}}
}
func changeChannelTopic(c ircid.ObjectID, topic string, setBy ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeChannelTopic, ChannelTopic: &ChannelTopicChange{Channel: c, Topic: topic, SetBy: setBy}}
}
func changeUserNick(u ircid.ObjectID, nick string, synthetic bool) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeUserNick, UserNick: &UserNickChange{User: u, NewNick: nick, Synthetic: synthetic}}
}
func changeUserModes(u ircid.ObjectID, added, removed []ircevent.ModeChar) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeUserModes, UserModes: &UserModesChange{User: u, Added: added, Removed: removed}}
}
func changeUserAway(u ircid.ObjectID, reason *string) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeUserAway, UserAway: &UserAwayChange{User: u, Reason: reason}}
}
func changeMessage(id, from, to ircid.ObjectID, kind ircevent.MessageKind, text string) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeMessage, Message: &MessageChange{Message: id, From: from, To: to, Kind: kind, Text: text}}
}
func changeServerAdded(s ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeServerAdded, ServerAdded: &ServerAddedChange{Server: s}}
}
func changeServerRemoved(s ircid.ObjectID, reason string) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeServerRemoved, ServerRemoved: &ServerRemovedChange{Server: s, Reason: reason}}
}
func changeListModeAdded(entry, channel ircid.ObjectID, t ircevent.ListModeType, pattern string, setBy ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeListModeAdded, ListModeAdded: &ListModeAddedChange{Entry: entry, Channel: channel, Type: t, Pattern: pattern, SetBy: setBy}}
}
func changeListModeRemoved(channel ircid.ObjectID, t ircevent.ListModeType, pattern string) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeListModeRemoved, ListModeRemoved: &ListModeRemovedChange{Channel: channel, Type: t, Pattern: pattern}}
}
func changeInviteAdded(invite, user, channel, by ircid.ObjectID) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeInviteAdded, InviteAdded: &InviteAddedChange{Invite: invite, User: user, Channel: channel, By: by}}
}
func changeWarning(format string, args ...any) NetworkStateChange {
	return NetworkStateChange{Kind: ChangeWarning, Warning: &WarningChange{Message: fmt.Sprintf(format, args...)}}
}
