package ircevent

// The constructors below stamp the Kind tag alongside the payload so
// callers (pkg/dispatch's command handlers, tests) never
// have to keep the tag and the populated field in sync by hand.

func DetailsNewUser(d NewUser) EventDetails { return EventDetails{Kind: KindNewUser, NewUser: &d} }

func DetailsUserQuit(d UserQuit) EventDetails { return EventDetails{Kind: KindUserQuit, UserQuit: &d} }

func DetailsNewChannel(d NewChannel) EventDetails {
	return EventDetails{Kind: KindNewChannel, NewChannel: &d}
}

func DetailsChannelJoin(d ChannelJoin) EventDetails {
	return EventDetails{Kind: KindChannelJoin, ChannelJoin: &d}
}

func DetailsChannelPart(d ChannelPart) EventDetails {
	return EventDetails{Kind: KindChannelPart, ChannelPart: &d}
}

func DetailsChannelKick(d ChannelKick) EventDetails {
	return EventDetails{Kind: KindChannelKick, ChannelKick: &d}
}

func DetailsChannelModeChange(d ChannelModeChange) EventDetails {
	return EventDetails{Kind: KindChannelModeChange, ChannelModeChange: &d}
}

func DetailsMembershipFlagChange(d MembershipFlagChange) EventDetails {
	return EventDetails{Kind: KindMembershipFlagChange, MembershipFlagChange: &d}
}

func DetailsNewMessage(d NewMessage) EventDetails {
	return EventDetails{Kind: KindNewMessage, NewMessage: &d}
}

func DetailsChannelTopicChange(d ChannelTopicChange) EventDetails {
	return EventDetails{Kind: KindChannelTopicChange, ChannelTopicChange: &d}
}

func DetailsNewServer(d NewServer) EventDetails {
	return EventDetails{Kind: KindNewServer, NewServer: &d}
}

func DetailsServerQuit(d ServerQuit) EventDetails {
	return EventDetails{Kind: KindServerQuit, ServerQuit: &d}
}

func DetailsBulkUserQuit(d BulkUserQuit) EventDetails {
	return EventDetails{Kind: KindBulkUserQuit, BulkUserQuit: &d}
}

func DetailsUserNickChange(d UserNickChange) EventDetails {
	return EventDetails{Kind: KindUserNickChange, UserNickChange: &d}
}

func DetailsUserModeChange(d UserModeChange) EventDetails {
	return EventDetails{Kind: KindUserModeChange, UserModeChange: &d}
}

func DetailsUserAwayChange(d UserAwayChange) EventDetails {
	return EventDetails{Kind: KindUserAwayChange, UserAwayChange: &d}
}

func DetailsListModeAdded(d ListModeAdded) EventDetails {
	return EventDetails{Kind: KindListModeAdded, ListModeAdded: &d}
}

func DetailsListModeRemoved(d ListModeRemoved) EventDetails {
	return EventDetails{Kind: KindListModeRemoved, ListModeRemoved: &d}
}

func DetailsNewInvite(d NewInvite) EventDetails {
	return EventDetails{Kind: KindNewInvite, NewInvite: &d}
}

func DetailsNewAuditLogEntry(d NewAuditLogEntry) EventDetails {
	return EventDetails{Kind: KindNewAuditLogEntry, NewAuditLogEntry: &d}
}

func DetailsUserLoginChange(d UserLoginChange) EventDetails {
	return EventDetails{Kind: KindUserLoginChange, UserLoginChange: &d}
}
