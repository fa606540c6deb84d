package servernode

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/history"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T) *ServerNode {
	t.Helper()
	return New(
		Config{},
		ircid.ServerID(1),
		ircid.EpochID(0),
		eventlog.Config{},
		nil,
		nil,
		history.Config{},
		nil,
		zerolog.Nop(),
	)
}

func runNode(t *testing.T, n *ServerNode) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go n.Run(ctx)
	return cancel
}

func TestActionOriginatesEventAndFansOutChange(t *testing.T) {
	node := newTestNode(t)
	cancel := runNode(t, node)
	defer cancel()

	sub := node.Subscribe()
	defer node.Unsubscribe(sub)

	var createdUser ircid.ObjectID
	done := make(chan struct{})
	ctx, actionCancel := context.WithTimeout(context.Background(), time.Second)
	defer actionCancel()

	require.NoError(t, node.SubmitAction(ctx, func(log *eventlog.EventLog) {
		defer close(done)
		createdUser, _ = log.NewCreationEvent(ircid.ObjectUser, func(evID ircid.EventID) ircevent.EventDetails {
			return ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 1})
		})
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("action never ran")
	}
	require.False(t, createdUser.Zero())

	select {
	case change := <-sub:
		require.Equal(t, netstate.ChangeUserAdded, change.Kind)
		require.Equal(t, createdUser, change.UserAdded.User)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the change")
	}

	u, ok := node.User(createdUser)
	require.True(t, ok)
	require.Equal(t, "alice", u.Nick)

	entries := node.EntriesForUser(createdUser)
	require.Len(t, entries, 1)
	require.Equal(t, netstate.ChangeUserAdded, entries[0].Details.Kind)
}

// TestNickChangeHistoryVisibleToChannelNeighbors covers the path the
// node.EntriesForUser(createdUser) assertion in
// TestActionOriginatesEventAndFansOutChange doesn't: a change about one
// user (a nick change) must also land in the history of every other user
// who shares a channel with them, not just the acting user.
func TestNickChangeHistoryVisibleToChannelNeighbors(t *testing.T) {
	node := newTestNode(t)
	cancel := runNode(t, node)
	defer cancel()

	var alice, bob, channel ircid.ObjectID
	done := make(chan struct{})
	ctx, actionCancel := context.WithTimeout(context.Background(), time.Second)
	defer actionCancel()

	require.NoError(t, node.SubmitAction(ctx, func(log *eventlog.EventLog) {
		defer close(done)
		alice, _ = log.NewCreationEvent(ircid.ObjectUser, func(ircid.EventID) ircevent.EventDetails {
			return ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 1})
		})
		bob, _ = log.NewCreationEvent(ircid.ObjectUser, func(ircid.EventID) ircevent.EventDetails {
			return ircevent.DetailsNewUser(ircevent.NewUser{Nick: "bob", HomeServer: 1})
		})
		channel, _ = log.NewCreationEvent(ircid.ObjectChannel, func(ircid.EventID) ircevent.EventDetails {
			return ircevent.DetailsNewChannel(ircevent.NewChannel{Name: "#general"})
		})
		log.NewCreationEvent(ircid.ObjectMembership, func(ircid.EventID) ircevent.EventDetails {
			return ircevent.DetailsChannelJoin(ircevent.ChannelJoin{User: alice, Channel: channel})
		})
		log.NewCreationEvent(ircid.ObjectMembership, func(ircid.EventID) ircevent.EventDetails {
			return ircevent.DetailsChannelJoin(ircevent.ChannelJoin{User: bob, Channel: channel})
		})
		log.NewEvent(alice, ircevent.DetailsUserNickChange(ircevent.UserNickChange{NewNick: "alice2"}))
	}))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("action never ran")
	}

	// Give the run loop a moment to drain the fan-out and index the
	// change into both users' history before asserting on it.
	require.Eventually(t, func() bool {
		return len(node.EntriesForUser(bob)) > 0
	}, time.Second, time.Millisecond)

	var nickEntry *history.HistoryLogEntry
	for _, e := range node.EntriesForUser(bob) {
		if e.Details.Kind == netstate.ChangeUserNick {
			entry := e
			nickEntry = &entry
		}
	}
	require.NotNil(t, nickEntry, "bob, alice's channel neighbor, must see alice's nick change in history")
	require.Equal(t, alice, nickEntry.Details.UserNick.User)
	require.Equal(t, "alice2", nickEntry.Details.UserNick.NewNick)
}

func TestShutdownStopsRunLoop(t *testing.T) {
	node := newTestNode(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		node.Run(ctx)
		close(stopped)
	}()

	node.Shutdown()
	node.Shutdown() // must be idempotent

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}
