package netstate

import (
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
)

// Apply folds one causally-ordered event into the state, in the same
// spirit as pkg/manager's raft FSM Apply(*raft.Log): it is the only
// writer, is expected to be called with events already in causal order
// (pkg/eventlog guarantees this), and never errors — problems are
// reported as Warning changes instead.
func (s *State) Apply(e ircevent.Event) (changes []NetworkStateChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		for _, c := range changes {
			if c.Kind == ChangeWarning {
				s.log.Warn().Str("event", e.ID.String()).Msg(c.Warning.Message)
			}
		}
	}()

	switch e.Details.Kind {
	case ircevent.KindNewUser:
		return s.applyNewUser(e)
	case ircevent.KindUserQuit:
		return s.applyUserQuit(e)
	case ircevent.KindNewChannel:
		return s.applyNewChannel(e)
	case ircevent.KindChannelJoin:
		return s.applyChannelJoin(e)
	case ircevent.KindChannelPart:
		return s.applyChannelPart(e)
	case ircevent.KindChannelKick:
		return s.applyChannelKick(e)
	case ircevent.KindChannelModeChange:
		return s.applyChannelModeChange(e)
	case ircevent.KindMembershipFlagChange:
		return s.applyMembershipFlagChange(e)
	case ircevent.KindNewMessage:
		return s.applyNewMessage(e)
	case ircevent.KindChannelTopicChange:
		return s.applyChannelTopicChange(e)
	case ircevent.KindNewServer:
		return s.applyNewServer(e)
	case ircevent.KindServerQuit:
		return s.applyServerQuit(e)
	case ircevent.KindUserNickChange:
		return s.applyUserNickChange(e)
	case ircevent.KindUserModeChange:
		return s.applyUserModeChange(e)
	case ircevent.KindUserAwayChange:
		return s.applyUserAwayChange(e)
	case ircevent.KindListModeAdded:
		return s.applyListModeAdded(e)
	case ircevent.KindListModeRemoved:
		return s.applyListModeRemoved(e)
	case ircevent.KindNewInvite:
		return s.applyNewInvite(e)
	case ircevent.KindNewAuditLogEntry:
		return s.applyNewAuditLogEntry(e)
	case ircevent.KindUserLoginChange:
		return s.applyUserLoginChange(e)
	case ircevent.KindBulkUserQuit:
		// BulkUserQuit is synthesised by applyServerQuit itself and never
		// arrives as authored input; treat an incoming one defensively as
		// a no-op rather than double-removing users.
		return nil
	default:
		return []NetworkStateChange{changeWarning("unrecognised event kind %q", e.Details.Kind)}
	}
}

func (s *State) applyNewUser(e ircevent.Event) []NetworkStateChange {
	d := e.Details.NewUser
	user := &User{
		ID:         e.Target,
		Nick:       d.Nick,
		User:       d.User,
		Host:       d.Host,
		Realname:   d.Realname,
		HomeServer: d.HomeServer,
		Modes:      make(map[ircevent.ModeChar]struct{}),
	}
	s.users[user.ID] = user
	changes := []NetworkStateChange{changeUserAdded(user.ID)}
	changes = append(changes, s.claimNickLocked(user.ID, d.Nick, e.ID)...)
	return changes
}

// claimNickLocked assigns nick to user, resolving a concurrent-claim
// clash deterministically: the event with the smaller id (by the canonical tie-break
// order) keeps the requested nick; the other is deterministically
// renamed. assigningEvent is the id of the event that is requesting the
// nick (the NewUser or UserNickChange), used as the clash tie-break key
// rather than the user's own creation id, since a later nick change must
// also be able to win a clash against an older registration.
func (s *State) claimNickLocked(user ircid.ObjectID, nick string, assigningEvent ircid.EventID) []NetworkStateChange {
	key := normalizeNick(nick)
	existing, taken := s.nickIndex[key]

	if !taken {
		s.nickIndex[key] = nickOwner{user: user, assignedBy: assigningEvent}
		s.setNickLocked(user, nick)
		return nil
	}

	if existing.user == user {
		// Re-claiming our own current nick (no-op rename); nothing to do.
		s.nickIndex[key] = nickOwner{user: user, assignedBy: assigningEvent}
		return nil
	}

	s.metrics.NickClashResolved()

	if assigningEvent.Less(existing.assignedBy) {
		// The new claim actually happened first; it wins and the
		// previously-registered owner is bumped to a fallback nick.
		s.nickIndex[key] = nickOwner{user: user, assignedBy: assigningEvent}
		s.setNickLocked(user, nick)

		loserID := existing.user
		fallback := fallbackNick(nick, loserID.Sub)
		s.forceNickLocked(loserID, fallback, assigningEvent)
		return []NetworkStateChange{changeUserNick(loserID, fallback, true)}
	}

	// We lose: keep the winner's claim untouched and rename ourselves.
	fallback := fallbackNick(nick, user.Sub)
	s.setNickLocked(user, fallback)
	s.nickIndex[normalizeNick(fallback)] = nickOwner{user: user, assignedBy: assigningEvent}
	return []NetworkStateChange{changeUserNick(user, fallback, true)}
}

func (s *State) setNickLocked(user ircid.ObjectID, nick string) {
	if u, ok := s.users[user]; ok {
		u.Nick = nick
	}
}

// forceNickLocked reassigns a nick clash loser discovered while handling
// someone else's claim: it must vacate its old index entry too.
func (s *State) forceNickLocked(user ircid.ObjectID, nick string, assigningEvent ircid.EventID) {
	if u, ok := s.users[user]; ok {
		delete(s.nickIndex, normalizeNick(u.Nick))
		u.Nick = nick
	}
	s.nickIndex[normalizeNick(nick)] = nickOwner{user: user, assignedBy: assigningEvent}
}

func (s *State) applyUserQuit(e ircevent.Event) []NetworkStateChange {
	user, ok := s.users[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("user_quit_missing_user")
		return []NetworkStateChange{changeWarning("UserQuit for unknown user %s", e.Target)}
	}
	changes := s.removeUserLocked(e.Target)
	delete(s.nickIndex, normalizeNick(user.Nick))
	return append([]NetworkStateChange{changeUserRemoved(e.Target, e.Details.UserQuit.Reason)}, changes...)
}

// removeUserLocked deletes every membership a user holds and returns the
// resulting MembershipRemoved notifications, but not the UserRemoved
// notification itself (callers add that, since BulkUserQuit wants a
// single bulk notification instead).
func (s *State) removeUserLocked(user ircid.ObjectID) []NetworkStateChange {
	var changes []NetworkStateChange
	for mID := range s.userMembers[user] {
		m, ok := s.memberships[mID]
		if !ok {
			continue
		}
		s.deleteMembershipLocked(mID)
		changes = append(changes, changeMembershipRemoved(mID, m.User, m.Channel, ircid.ObjectID{}, "user quit"))
	}
	delete(s.users, user)
	return changes
}

func (s *State) deleteMembershipLocked(id ircid.ObjectID) {
	m, ok := s.memberships[id]
	if !ok {
		return
	}
	delete(s.memberships, id)
	delete(s.membershipIndex, ircid.MembershipID{User: m.User, Channel: m.Channel})
	if set := s.userMembers[m.User]; set != nil {
		delete(set, id)
	}
	if set := s.channelMembers[m.Channel]; set != nil {
		delete(set, id)
	}
}

func (s *State) applyNewChannel(e ircevent.Event) []NetworkStateChange {
	d := e.Details.NewChannel
	key := normalizeChannelName(d.Name)

	existingID, exists := s.nameIndex[key]
	if !exists {
		ch := &Channel{
			ID:        e.Target,
			Name:      d.Name,
			Modes:     make(map[ircevent.ModeChar]struct{}),
			ListModes: make(map[ircevent.ListModeType]map[string]ircid.ObjectID),
		}
		s.channels[ch.ID] = ch
		s.nameIndex[key] = ch.ID
		return []NetworkStateChange{changeChannelAdded(ch.ID)}
	}

	// Concurrent creation race: the channel with the
	// smaller creating EventID is the true winner, regardless of arrival
	// order.
	s.metrics.ChannelRaceResolved()
	if e.Target.Sub.Less(existingID.Sub) {
		winner := &Channel{
			ID:        e.Target,
			Name:      d.Name,
			Modes:     make(map[ircevent.ModeChar]struct{}),
			ListModes: make(map[ircevent.ListModeType]map[string]ircid.ObjectID),
		}
		s.channels[winner.ID] = winner
		s.nameIndex[key] = winner.ID
		s.channelRedirect[existingID] = winner.ID

		var changes []NetworkStateChange
		if loser, ok := s.channels[existingID]; ok {
			for mID := range s.channelMembers[existingID] {
				if m, ok := s.memberships[mID]; ok {
					s.migrateMembershipLocked(m, winner.ID)
					changes = append(changes, changeMembershipAdded(m.ID, m.User, winner.ID))
				}
			}
			delete(s.channels, existingID)
			_ = loser
		}
		return append([]NetworkStateChange{changeChannelAdded(winner.ID)}, changes...)
	}

	// We lose: redirect silently, this channel id never becomes visible.
	s.channelRedirect[e.Target] = existingID
	return nil
}

// migrateMembershipLocked re-homes a membership onto a different channel
// id, updating every index, used when a channel-creation race resolves
// in favour of a different winner id than the one members had already
// joined.
func (s *State) migrateMembershipLocked(m *Membership, newChannel ircid.ObjectID) {
	delete(s.membershipIndex, ircid.MembershipID{User: m.User, Channel: m.Channel})
	if set := s.channelMembers[m.Channel]; set != nil {
		delete(set, m.ID)
	}
	m.Channel = newChannel
	s.membershipIndex[ircid.MembershipID{User: m.User, Channel: newChannel}] = m.ID
	if s.channelMembers[newChannel] == nil {
		s.channelMembers[newChannel] = make(map[ircid.ObjectID]struct{})
	}
	s.channelMembers[newChannel][m.ID] = struct{}{}
}

func (s *State) applyChannelJoin(e ircevent.Event) []NetworkStateChange {
	d := e.Details.ChannelJoin
	channel := s.resolveChannelLocked(d.Channel)

	if _, ok := s.users[d.User]; !ok {
		s.metrics.ReferentialWarning("channel_join_missing_user")
		return []NetworkStateChange{changeWarning("ChannelJoin for unknown user %s", d.User)}
	}
	if _, ok := s.channels[channel]; !ok {
		s.metrics.ReferentialWarning("channel_join_missing_channel")
		return []NetworkStateChange{changeWarning("ChannelJoin for unknown channel %s", channel)}
	}

	m := &Membership{
		ID:          e.Target,
		User:        d.User,
		Channel:     channel,
		Permissions: make(map[ircevent.ModeChar]struct{}),
	}
	s.memberships[m.ID] = m
	s.membershipIndex[ircid.MembershipID{User: m.User, Channel: m.Channel}] = m.ID
	if s.userMembers[m.User] == nil {
		s.userMembers[m.User] = make(map[ircid.ObjectID]struct{})
	}
	s.userMembers[m.User][m.ID] = struct{}{}
	if s.channelMembers[m.Channel] == nil {
		s.channelMembers[m.Channel] = make(map[ircid.ObjectID]struct{})
	}
	s.channelMembers[m.Channel][m.ID] = struct{}{}

	return []NetworkStateChange{changeMembershipAdded(m.ID, m.User, m.Channel)}
}

func (s *State) applyChannelPart(e ircevent.Event) []NetworkStateChange {
	m, ok := s.memberships[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("channel_part_missing_membership")
		return []NetworkStateChange{changeWarning("ChannelPart for unknown membership %s", e.Target)}
	}
	user, channel := m.User, m.Channel
	s.deleteMembershipLocked(e.Target)
	return []NetworkStateChange{changeMembershipRemoved(e.Target, user, channel, ircid.ObjectID{}, e.Details.ChannelPart.Reason)}
}

func (s *State) applyChannelKick(e ircevent.Event) []NetworkStateChange {
	m, ok := s.memberships[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("channel_kick_missing_membership")
		return []NetworkStateChange{changeWarning("ChannelKick for unknown membership %s", e.Target)}
	}
	user, channel := m.User, m.Channel
	s.deleteMembershipLocked(e.Target)
	d := e.Details.ChannelKick
	return []NetworkStateChange{changeMembershipRemoved(e.Target, user, channel, d.By, d.Reason)}
}

func (s *State) applyChannelModeChange(e ircevent.Event) []NetworkStateChange {
	ch, ok := s.channels[s.resolveChannelLocked(e.Target)]
	if !ok {
		s.metrics.ReferentialWarning("channel_mode_missing_channel")
		return []NetworkStateChange{changeWarning("ChannelModeChange for unknown channel %s", e.Target)}
	}
	d := e.Details.ChannelModeChange
	for _, mc := range d.Added {
		ch.Modes[mc] = struct{}{}
	}
	for _, mc := range d.Removed {
		delete(ch.Modes, mc)
	}
	return []NetworkStateChange{changeChannelModes(ch.ID, d.Added, d.Removed, d.By)}
}

func (s *State) applyMembershipFlagChange(e ircevent.Event) []NetworkStateChange {
	m, ok := s.memberships[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("membership_flag_missing_membership")
		return []NetworkStateChange{changeWarning("MembershipFlagChange for unknown membership %s", e.Target)}
	}
	d := e.Details.MembershipFlagChange
	for _, mc := range d.Added {
		m.Permissions[mc] = struct{}{}
	}
	for _, mc := range d.Removed {
		delete(m.Permissions, mc)
	}
	return []NetworkStateChange{changeMembershipFlags(m.ID, d.Added, d.Removed, d.By)}
}

func (s *State) applyNewMessage(e ircevent.Event) []NetworkStateChange {
	d := e.Details.NewMessage
	return []NetworkStateChange{changeMessage(e.Target, d.From, d.To, d.Kind, d.Text)}
}

func (s *State) applyChannelTopicChange(e ircevent.Event) []NetworkStateChange {
	ch, ok := s.channels[s.resolveChannelLocked(e.Target)]
	if !ok {
		s.metrics.ReferentialWarning("channel_topic_missing_channel")
		return []NetworkStateChange{changeWarning("ChannelTopicChange for unknown channel %s", e.Target)}
	}
	d := e.Details.ChannelTopicChange
	ch.Topic = d.Topic
	ch.TopicSetBy = d.SetBy
	ch.HasTopic = true
	return []NetworkStateChange{changeChannelTopic(ch.ID, d.Topic, d.SetBy)}
}

func (s *State) applyNewServer(e ircevent.Event) []NetworkStateChange {
	srv := &ServerMeta{ID: e.Target, Name: e.Details.NewServer.Name, Epoch: e.ID.Epoch}
	s.servers[srv.ID] = srv
	s.serverByID[e.ID.Server] = srv.ID
	return []NetworkStateChange{changeServerAdded(srv.ID)}
}

// applyServerQuit removes a peer node and every user it was home to in a
// single BulkUserQuit notification. A ServerQuit whose Epoch no longer
// matches the server's current epoch is a straggler from a prior
// incarnation and must not affect the live one.
func (s *State) applyServerQuit(e ircevent.Event) []NetworkStateChange {
	srv, ok := s.servers[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("server_quit_missing_server")
		return []NetworkStateChange{changeWarning("ServerQuit for unknown server %s", e.Target)}
	}
	d := e.Details.ServerQuit
	if d.Epoch != srv.Epoch {
		return nil
	}

	homeServer := e.Target.Sub.Server
	var removed []ircid.ObjectID
	for id, u := range s.users {
		if u.HomeServer != homeServer {
			continue
		}
		s.removeUserLocked(id)
		delete(s.nickIndex, normalizeNick(u.Nick))
		removed = append(removed, id)
	}

	delete(s.servers, e.Target)
	delete(s.serverByID, homeServer)

	s.metrics.BulkUserQuit(len(removed))
	changes := []NetworkStateChange{changeServerRemoved(e.Target, d.Reason)}
	if len(removed) > 0 {
		changes = append(changes, changeUsersRemovedBulk(removed, homeServer, d.Reason))
	}
	return changes
}

func (s *State) applyUserNickChange(e ircevent.Event) []NetworkStateChange {
	d := e.Details.UserNickChange
	if _, ok := s.users[e.Target]; !ok {
		s.metrics.ReferentialWarning("nick_change_missing_user")
		return []NetworkStateChange{changeWarning("UserNickChange for unknown user %s", e.Target)}
	}
	clashChanges := s.claimNickLocked(e.Target, d.NewNick, e.ID)
	return append([]NetworkStateChange{changeUserNick(e.Target, d.NewNick, d.Synthetic)}, clashChanges...)
}

func (s *State) applyUserModeChange(e ircevent.Event) []NetworkStateChange {
	u, ok := s.users[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("user_mode_missing_user")
		return []NetworkStateChange{changeWarning("UserModeChange for unknown user %s", e.Target)}
	}
	d := e.Details.UserModeChange
	for _, mc := range d.Added {
		u.Modes[mc] = struct{}{}
	}
	for _, mc := range d.Removed {
		delete(u.Modes, mc)
	}
	return []NetworkStateChange{changeUserModes(u.ID, d.Added, d.Removed)}
}

func (s *State) applyUserAwayChange(e ircevent.Event) []NetworkStateChange {
	u, ok := s.users[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("user_away_missing_user")
		return []NetworkStateChange{changeWarning("UserAwayChange for unknown user %s", e.Target)}
	}
	u.AwayReason = e.Details.UserAwayChange.Reason
	return []NetworkStateChange{changeUserAway(u.ID, u.AwayReason)}
}

func (s *State) applyListModeAdded(e ircevent.Event) []NetworkStateChange {
	d := e.Details.ListModeAdded
	channel := s.resolveChannelLocked(d.Channel)
	ch, ok := s.channels[channel]
	if !ok {
		s.metrics.ReferentialWarning("list_mode_missing_channel")
		return []NetworkStateChange{changeWarning("ListModeAdded for unknown channel %s", channel)}
	}
	if ch.ListModes[d.Type] == nil {
		ch.ListModes[d.Type] = make(map[string]ircid.ObjectID)
	}
	pattern := normalizeNick(d.Pattern)
	ch.ListModes[d.Type][pattern] = e.Target
	s.listModes[e.Target] = &ListModeEntry{ID: e.Target, Channel: channel, Type: d.Type, Pattern: d.Pattern, SetBy: d.SetBy}
	return []NetworkStateChange{changeListModeAdded(e.Target, channel, d.Type, d.Pattern, d.SetBy)}
}

func (s *State) applyListModeRemoved(e ircevent.Event) []NetworkStateChange {
	entry, ok := s.listModes[e.Target]
	if !ok {
		s.metrics.ReferentialWarning("list_mode_missing_entry")
		return []NetworkStateChange{changeWarning("ListModeRemoved for unknown entry %s", e.Target)}
	}
	if ch, ok := s.channels[entry.Channel]; ok {
		delete(ch.ListModes[entry.Type], normalizeNick(entry.Pattern))
	}
	delete(s.listModes, e.Target)
	return []NetworkStateChange{changeListModeRemoved(entry.Channel, entry.Type, entry.Pattern)}
}

func (s *State) applyNewInvite(e ircevent.Event) []NetworkStateChange {
	d := e.Details.NewInvite
	s.invites[e.Target] = &Invite{ID: e.Target, User: d.User, Channel: d.Channel, By: d.By}
	return []NetworkStateChange{changeInviteAdded(e.Target, d.User, d.Channel, d.By)}
}

// applyNewAuditLogEntry is an intentional no-op emitter beyond bookkeeping
// the record itself: DESIGN.md's Open Question decision #2 treats audit
// log history projection as unimplemented, matching the source.
func (s *State) applyNewAuditLogEntry(e ircevent.Event) []NetworkStateChange {
	d := e.Details.NewAuditLogEntry
	s.auditEntries[e.Target] = &AuditEntry{ID: e.Target, Message: d.Message, By: d.By}
	return nil
}

// applyUserLoginChange is likewise a bookkeeping-only no-op emitter; see
// applyNewAuditLogEntry.
func (s *State) applyUserLoginChange(e ircevent.Event) []NetworkStateChange {
	if u, ok := s.users[e.Target]; ok {
		u.Account = e.Details.UserLoginChange.Account
	}
	return nil
}
