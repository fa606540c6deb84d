package netstate

import (
	"testing"

	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestState() *State {
	return New(NopMetrics{}, zerolog.Nop())
}

func userObj(server ircid.ServerID, seq ircid.Seq) ircid.ObjectID {
	return ircid.NewObjectID(ircid.ObjectUser, ircid.EventID{Server: server, Seq: seq})
}

func channelObj(server ircid.ServerID, seq ircid.Seq) ircid.ObjectID {
	return ircid.NewObjectID(ircid.ObjectChannel, ircid.EventID{Server: server, Seq: seq})
}

func membershipObj(server ircid.ServerID, seq ircid.Seq) ircid.ObjectID {
	return ircid.NewObjectID(ircid.ObjectMembership, ircid.EventID{Server: server, Seq: seq})
}

func evt(id ircid.EventID, target ircid.ObjectID, details ircevent.EventDetails) ircevent.Event {
	return ircevent.Event{ID: id, Clock: ircclock.New(), Target: target, Details: details}
}

// TestSoloJoinProducesUserChannelAndMembership reproduces the solo-join
// scenario: a single user joining a fresh channel.
func TestSoloJoinProducesUserChannelAndMembership(t *testing.T) {
	s := newTestState()

	uID := userObj(1, 1)
	changes := s.Apply(evt(ircid.EventID{Server: 1, Seq: 1}, uID,
		ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 1})))
	require.Len(t, changes, 1)
	require.Equal(t, ChangeUserAdded, changes[0].Kind)

	cID := channelObj(1, 2)
	changes = s.Apply(evt(ircid.EventID{Server: 1, Seq: 2}, cID,
		ircevent.DetailsNewChannel(ircevent.NewChannel{Name: "#general"})))
	require.Len(t, changes, 1)
	require.Equal(t, ChangeChannelAdded, changes[0].Kind)

	mID := membershipObj(1, 3)
	changes = s.Apply(evt(ircid.EventID{Server: 1, Seq: 3}, mID,
		ircevent.DetailsChannelJoin(ircevent.ChannelJoin{User: uID, Channel: cID})))
	require.Len(t, changes, 1)
	require.Equal(t, ChangeMembershipAdded, changes[0].Kind)

	user, ok := s.User(uID)
	require.True(t, ok)
	require.Equal(t, "alice", user.Nick)

	members := s.MembersOf(cID)
	require.Len(t, members, 1)
	require.Equal(t, mID, members[0])
}

// TestConcurrentNickClashDeterministicWinner reproduces the
// concurrent-nick-clash scenario: two users on different servers
// concurrently register the same nick; every node must resolve the
// clash identically by comparing the assigning events' ids,
// independent of arrival order.
func TestConcurrentNickClashDeterministicWinner(t *testing.T) {
	winnerFirst := newTestState()
	loserFirst := newTestState()

	winnerID := userObj(1, 1) // server 1 event — smaller, wins ties
	loserID := userObj(2, 1)  // server 2 event — loses ties

	winnerEvent := evt(ircid.EventID{Server: 1, Seq: 1}, winnerID,
		ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 1}))
	loserEvent := evt(ircid.EventID{Server: 2, Seq: 1}, loserID,
		ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 2}))

	winnerFirst.Apply(winnerEvent)
	clashChanges := winnerFirst.Apply(loserEvent)
	require.Len(t, clashChanges, 2, "new user added, then synthetic rename")
	require.Equal(t, ChangeUserNick, clashChanges[1].Kind)
	require.True(t, clashChanges[1].UserNick.Synthetic)
	require.Equal(t, loserID, clashChanges[1].UserNick.User)

	// Arrival order reversed: the loser registers first, then the winner
	// shows up and bumps it. The final resolved state must match exactly.
	loserFirst.Apply(loserEvent)
	reorderChanges := loserFirst.Apply(winnerEvent)
	require.Len(t, reorderChanges, 2)
	require.Equal(t, ChangeUserNick, reorderChanges[1].Kind)
	require.True(t, reorderChanges[1].UserNick.Synthetic)
	require.Equal(t, loserID, reorderChanges[1].UserNick.User)

	for _, st := range []*State{winnerFirst, loserFirst} {
		winner, ok := st.User(winnerID)
		require.True(t, ok)
		require.Equal(t, "alice", winner.Nick)

		loser, ok := st.User(loserID)
		require.True(t, ok)
		require.NotEqual(t, "alice", loser.Nick)

		byNick, ok := st.UserByNick("alice")
		require.True(t, ok)
		require.Equal(t, winnerID, byNick.ID)
	}
}

// TestConcurrentChannelCreationRaceConvergesOnSameWinner reproduces the
// concurrent-channel-creation scenario: two servers concurrently create "#general"; the channel
// with the smaller creating event id wins on every node regardless of
// local arrival order, and members of the losing channel are migrated.
func TestConcurrentChannelCreationRaceConvergesOnSameWinner(t *testing.T) {
	winnerCID := channelObj(1, 1)
	loserCID := channelObj(2, 1)

	winnerEvent := evt(ircid.EventID{Server: 1, Seq: 1}, winnerCID,
		ircevent.DetailsNewChannel(ircevent.NewChannel{Name: "#general"}))
	loserEvent := evt(ircid.EventID{Server: 2, Seq: 1}, loserCID,
		ircevent.DetailsNewChannel(ircevent.NewChannel{Name: "#general"}))

	t.Run("winner arrives first", func(t *testing.T) {
		s := newTestState()
		s.Apply(winnerEvent)
		s.Apply(loserEvent)

		ch, ok := s.ChannelByName("#general")
		require.True(t, ok)
		require.Equal(t, winnerCID, ch.ID)
	})

	t.Run("loser arrives first, members migrate to winner", func(t *testing.T) {
		s := newTestState()
		s.Apply(loserEvent)

		uID := userObj(2, 2)
		s.Apply(evt(ircid.EventID{Server: 2, Seq: 2}, uID,
			ircevent.DetailsNewUser(ircevent.NewUser{Nick: "bob", HomeServer: 2})))

		mID := membershipObj(2, 3)
		joinChanges := s.Apply(evt(ircid.EventID{Server: 2, Seq: 3}, mID,
			ircevent.DetailsChannelJoin(ircevent.ChannelJoin{User: uID, Channel: loserCID})))
		require.Len(t, joinChanges, 1)

		changes := s.Apply(winnerEvent)
		require.Equal(t, ChangeChannelAdded, changes[0].Kind)
		require.Equal(t, ChangeMembershipAdded, changes[1].Kind)
		require.Equal(t, winnerCID, changes[1].MembershipAdded.Channel)

		ch, ok := s.ChannelByName("#general")
		require.True(t, ok)
		require.Equal(t, winnerCID, ch.ID)

		members := s.MembersOf(winnerCID)
		require.Len(t, members, 1)

		// The losing id still resolves (through the redirect) to the same
		// member set, so any event still naming it keeps working.
		require.Equal(t, members, s.MembersOf(loserCID))
	})
}

// TestQuitCascadesRemoveMemberships reproduces the quit-cascade scenario:
// a user quitting removes every membership they held.
func TestQuitCascadesRemoveMemberships(t *testing.T) {
	s := newTestState()

	uID := userObj(1, 1)
	s.Apply(evt(ircid.EventID{Server: 1, Seq: 1}, uID,
		ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 1})))
	cID := channelObj(1, 2)
	s.Apply(evt(ircid.EventID{Server: 1, Seq: 2}, cID,
		ircevent.DetailsNewChannel(ircevent.NewChannel{Name: "#general"})))
	mID := membershipObj(1, 3)
	s.Apply(evt(ircid.EventID{Server: 1, Seq: 3}, mID,
		ircevent.DetailsChannelJoin(ircevent.ChannelJoin{User: uID, Channel: cID})))

	changes := s.Apply(evt(ircid.EventID{Server: 1, Seq: 4}, uID,
		ircevent.DetailsUserQuit(ircevent.UserQuit{Reason: "bye"})))
	require.Len(t, changes, 2)
	require.Equal(t, ChangeUserRemoved, changes[0].Kind)
	require.Equal(t, ChangeMembershipRemoved, changes[1].Kind)

	_, ok := s.User(uID)
	require.False(t, ok)
	require.Empty(t, s.MembersOf(cID))
}

// TestServerQuitBulkRemovesHomedUsersInOneNotification covers the
// ServerQuit -> BulkUserQuit synthesis path, and the epoch fencing
// behaviour of the epoch-restart scenario: a ServerQuit naming a stale epoch must
// not affect the live incarnation.
func TestServerQuitBulkRemovesHomedUsersInOneNotification(t *testing.T) {
	s := newTestState()

	srvID := ircid.NewObjectID(ircid.ObjectServer, ircid.EventID{Server: 2, Seq: 1})
	s.Apply(evt(ircid.EventID{Server: 2, Seq: 1}, srvID,
		ircevent.DetailsNewServer(ircevent.NewServer{Name: "peer"})))

	u1 := userObj(2, 2)
	s.Apply(evt(ircid.EventID{Server: 2, Seq: 2}, u1,
		ircevent.DetailsNewUser(ircevent.NewUser{Nick: "bob", HomeServer: 2})))
	u2 := userObj(2, 3)
	s.Apply(evt(ircid.EventID{Server: 2, Seq: 3}, u2,
		ircevent.DetailsNewUser(ircevent.NewUser{Nick: "carol", HomeServer: 2})))

	// Stale epoch: this must be a no-op.
	stale := s.Apply(evt(ircid.EventID{Server: 2, Seq: 4}, srvID,
		ircevent.DetailsServerQuit(ircevent.ServerQuit{Epoch: 999, Reason: "stale"})))
	require.Nil(t, stale)
	_, stillThere := s.User(u1)
	require.True(t, stillThere)

	changes := s.Apply(evt(ircid.EventID{Server: 2, Seq: 5}, srvID,
		ircevent.DetailsServerQuit(ircevent.ServerQuit{Epoch: 0, Reason: "netsplit"})))
	require.Len(t, changes, 2)
	require.Equal(t, ChangeServerRemoved, changes[0].Kind)
	require.Equal(t, ChangeUsersRemovedBulk, changes[1].Kind)
	require.ElementsMatch(t, []ircid.ObjectID{u1, u2}, changes[1].UsersRemovedBulk.Users)

	_, ok := s.User(u1)
	require.False(t, ok)
	_, ok = s.User(u2)
	require.False(t, ok)
}

func TestReferentialWarningOnMissingTarget(t *testing.T) {
	s := newTestState()
	changes := s.Apply(evt(ircid.EventID{Server: 1, Seq: 1}, userObj(9, 9),
		ircevent.DetailsUserQuit(ircevent.UserQuit{Reason: "ghost"})))
	require.Len(t, changes, 1)
	require.Equal(t, ChangeWarning, changes[0].Kind)
}
