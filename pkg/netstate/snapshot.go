package netstate

import (
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/rs/zerolog"
)

// SavedUser pairs a User with the id of the event that currently holds
// its nick assignment, so a restored nick-clash tie-break still has the
// comparison value the nick-uniqueness invariant needs (its
// resolution rule compares assigning-event ids, not user-creation ids).
type SavedUser struct {
	User       User
	AssignedBy ircid.EventID
}

// SavedServer pairs a ServerMeta with the ircid.ServerID that names it
// in event provenance, recovering the serverByID index on restore.
type SavedServer struct {
	Meta     ServerMeta
	ServerID ircid.ServerID
}

// SavedState is the network-state portion of the persisted SavedState
// container.
type SavedState struct {
	Users       []SavedUser
	Channels    []Channel
	Memberships []Membership
	Servers     []SavedServer
	ListModes   []ListModeEntry
	Invites     []Invite
}

// Export captures the reducer's current state for a snapshot write.
func (s *State) Export() SavedState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saved := SavedState{
		Users:       make([]SavedUser, 0, len(s.users)),
		Channels:    make([]Channel, 0, len(s.channels)),
		Memberships: make([]Membership, 0, len(s.memberships)),
		Servers:     make([]SavedServer, 0, len(s.servers)),
		ListModes:   make([]ListModeEntry, 0, len(s.listModes)),
		Invites:     make([]Invite, 0, len(s.invites)),
	}
	for _, u := range s.users {
		owner := s.nickIndex[normalizeNick(u.Nick)]
		saved.Users = append(saved.Users, SavedUser{User: *u, AssignedBy: owner.assignedBy})
	}
	for _, c := range s.channels {
		saved.Channels = append(saved.Channels, *c)
	}
	for _, m := range s.memberships {
		saved.Memberships = append(saved.Memberships, *m)
	}
	serverIDByObject := make(map[ircid.ObjectID]ircid.ServerID, len(s.serverByID))
	for serverID, objID := range s.serverByID {
		serverIDByObject[objID] = serverID
	}
	for _, sv := range s.servers {
		saved.Servers = append(saved.Servers, SavedServer{Meta: *sv, ServerID: serverIDByObject[sv.ID]})
	}
	for _, lm := range s.listModes {
		saved.ListModes = append(saved.ListModes, *lm)
	}
	for _, inv := range s.invites {
		saved.Invites = append(saved.Invites, *inv)
	}
	return saved
}

// Restore rebuilds a State from a previously Exported snapshot,
// reconstructing every derived index (nick/name/membership lookups)
// from the plain record lists.
func Restore(saved SavedState, metrics Metrics, logger zerolog.Logger) *State {
	s := New(metrics, logger)

	for _, su := range saved.Users {
		u := su.User
		s.users[u.ID] = &u
		s.nickIndex[normalizeNick(u.Nick)] = nickOwner{user: u.ID, assignedBy: su.AssignedBy}
	}
	for _, c := range saved.Channels {
		ch := c
		s.channels[ch.ID] = &ch
		s.nameIndex[normalizeChannelName(ch.Name)] = ch.ID
	}
	for _, m := range saved.Memberships {
		mem := m
		s.memberships[mem.ID] = &mem
		s.membershipIndex[ircid.MembershipID{User: mem.User, Channel: mem.Channel}] = mem.ID
		if s.userMembers[mem.User] == nil {
			s.userMembers[mem.User] = make(map[ircid.ObjectID]struct{})
		}
		s.userMembers[mem.User][mem.ID] = struct{}{}
		if s.channelMembers[mem.Channel] == nil {
			s.channelMembers[mem.Channel] = make(map[ircid.ObjectID]struct{})
		}
		s.channelMembers[mem.Channel][mem.ID] = struct{}{}
	}
	for _, sv := range saved.Servers {
		meta := sv.Meta
		s.servers[meta.ID] = &meta
		s.serverByID[sv.ServerID] = meta.ID
	}
	for _, lm := range saved.ListModes {
		entry := lm
		s.listModes[entry.ID] = &entry
	}
	for _, inv := range saved.Invites {
		invite := inv
		s.invites[invite.ID] = &invite
	}
	return s
}
