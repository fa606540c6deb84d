package servernode

import (
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
)

// visibleTo computes the history-log recipients of a change per the
// rule: "messages to/from the user or a channel they belong to,
// plus membership changes involving them." network must already reflect
// the change (visibleTo is called after netstate.Apply returns).
func visibleTo(network *netstate.State, c netstate.NetworkStateChange) []ircid.ObjectID {
	switch c.Kind {
	case netstate.ChangeMessage:
		return messageRecipients(network, c.Message)
	case netstate.ChangeMembershipAdded:
		return channelNeighbors(network, c.MembershipAdded.Channel, c.MembershipAdded.User)
	case netstate.ChangeMembershipRemoved:
		return channelNeighbors(network, c.MembershipRemoved.Channel, c.MembershipRemoved.User)
	case netstate.ChangeMembershipFlags:
		return membershipNeighbors(network, c.MembershipFlags.Membership)
	case netstate.ChangeChannelTopic:
		return channelMemberUsers(network, c.ChannelTopic.Channel)
	case netstate.ChangeChannelModes:
		return channelMemberUsers(network, c.ChannelModes.Channel)
	case netstate.ChangeListModeAdded:
		return channelMemberUsers(network, c.ListModeAdded.Channel)
	case netstate.ChangeListModeRemoved:
		return channelMemberUsers(network, c.ListModeRemoved.Channel)
	case netstate.ChangeUserNick:
		return userNeighbors(network, c.UserNick.User)
	case netstate.ChangeUserAway:
		return userNeighbors(network, c.UserAway.User)
	case netstate.ChangeUserModes:
		return []ircid.ObjectID{c.UserModes.User}
	case netstate.ChangeUserAdded:
		return []ircid.ObjectID{c.UserAdded.User}
	case netstate.ChangeUserRemoved:
		return userNeighbors(network, c.UserRemoved.User)
	case netstate.ChangeInviteAdded:
		return []ircid.ObjectID{c.InviteAdded.User}
	default:
		// Server topology, bulk quits, and referential warnings are
		// operator-visible (pkg/management / logs), not part of any
		// user's personal history.
		return nil
	}
}

// channelMemberUsers resolves a channel's current membership ids
// (network.MembersOf returns membership-kind ids, keyed by the
// channel) down to the user ids those memberships belong to — the
// same membership-id -> field resolution dispatch/commands.go's
// findMembership uses, just reading .User instead of .Channel.
func channelMemberUsers(network *netstate.State, channel ircid.ObjectID) []ircid.ObjectID {
	memberships := network.MembersOf(channel)
	users := make([]ircid.ObjectID, 0, len(memberships))
	for _, mID := range memberships {
		m, ok := network.Membership(mID)
		if !ok {
			continue
		}
		users = append(users, m.User)
	}
	return users
}

// membershipNeighbors resolves a membership id (MembershipFlagsChange
// carries only the membership, not its channel/user) to its channel's
// current members plus the membership's own user.
func membershipNeighbors(network *netstate.State, membershipID ircid.ObjectID) []ircid.ObjectID {
	m, ok := network.Membership(membershipID)
	if !ok {
		return nil
	}
	return channelNeighbors(network, m.Channel, m.User)
}

// channelNeighbors returns a channel's current members plus the named
// user, so a user who just left still receives their own departure
// notice even though they are no longer in the member list.
func channelNeighbors(network *netstate.State, channel, user ircid.ObjectID) []ircid.ObjectID {
	members := channelMemberUsers(network, channel)
	for _, m := range members {
		if m == user {
			return members
		}
	}
	return append(members, user)
}

// userNeighbors returns every user who shares a channel with user, plus
// user themself — the set of people who can currently observe that
// user's nick, mode, or presence changes. network.ChannelsOf(user)
// returns membership ids, not channel ids, so each one is resolved via
// network.Membership to its .Channel before looking up that channel's
// members.
func userNeighbors(network *netstate.State, user ircid.ObjectID) []ircid.ObjectID {
	seen := map[ircid.ObjectID]struct{}{user: {}}
	for _, mID := range network.ChannelsOf(user) {
		membership, ok := network.Membership(mID)
		if !ok {
			continue
		}
		for _, u := range channelMemberUsers(network, membership.Channel) {
			seen[u] = struct{}{}
		}
	}
	out := make([]ircid.ObjectID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

func messageRecipients(network *netstate.State, m *netstate.MessageChange) []ircid.ObjectID {
	if m == nil {
		return nil
	}
	if m.To.Kind == ircid.ObjectChannel {
		return channelNeighbors(network, m.To, m.From)
	}
	return []ircid.ObjectID{m.From, m.To}
}
