package replicator

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/ircfed/pkg/eventlog"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newNode(t *testing.T, server ircid.ServerID, bindPort int, name string) (*Replicator, *eventlog.EventLog) {
	t.Helper()
	log := eventlog.New(eventlog.Config{Server: server}, nil, nil, zerolog.Nop())
	r, err := New(Config{
		NodeName: name,
		BindAddr: "127.0.0.1",
		BindPort: bindPort,
	}, server, log, nil, zerolog.Nop())
	require.NoError(t, err)
	return r, log
}

// TestSubmitPropagatesToJoinedPeer exercises the gossip path end to end:
// an event submitted on one node's Replicator is decoded and applied to
// a different node's EventLog purely via serf broadcast.
func TestSubmitPropagatesToJoinedPeer(t *testing.T) {
	a, logA := newNode(t, 1, 18301, "node-a")
	b, logB := newNode(t, 2, 18302, "node-b")
	defer a.Shutdown()
	defer b.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	go b.Run(ctx)

	_, err := b.Join([]string{"127.0.0.1:18301"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(a.Members()) == 2 && len(b.Members()) == 2
	}, 5*time.Second, 50*time.Millisecond, "peers did not converge membership")

	target, id := logA.NewCreationEvent(ircid.ObjectUser, func(evID ircid.EventID) ircevent.EventDetails {
		return ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 1})
	})
	require.False(t, target.Zero())

	require.NoError(t, a.Submit(ircevent.Event{
		ID:      id,
		Target:  target,
		Clock:   logA.Seen(),
		Details: ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice", HomeServer: 1}),
	}))

	require.Eventually(t, func() bool {
		return logB.Seen().Contains(id)
	}, 5*time.Second, 50*time.Millisecond, "peer never applied gossiped event")
}

func TestSyncToNetworkReturnsImmediatelyWhenAlone(t *testing.T) {
	a, _ := newNode(t, 3, 18303, "solo")
	defer a.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	syncCtx, syncCancel := context.WithTimeout(context.Background(), time.Second)
	defer syncCancel()
	require.NoError(t, a.SyncToNetwork(syncCtx))
}

// TestSyncToNetworkWaitsForQuorumOfDistinctPeers joins three nodes and
// has one of them sync: with two peers present, quorum is both of them,
// so SyncToNetwork returns only once both distinct peers have answered.
// The test checks that the requester is not Synchronizing before the
// call, that the call resolves without error, and that the flag is
// cleared afterwards.
func TestSyncToNetworkWaitsForQuorumOfDistinctPeers(t *testing.T) {
	a, _ := newNode(t, 4, 18304, "node-a")
	b, _ := newNode(t, 5, 18305, "node-b")
	c, _ := newNode(t, 6, 18306, "node-c")
	defer a.Shutdown()
	defer b.Shutdown()
	defer c.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)
	go b.Run(ctx)
	go c.Run(ctx)

	_, err := b.Join([]string{"127.0.0.1:18304"})
	require.NoError(t, err)
	_, err = c.Join([]string{"127.0.0.1:18304"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(a.Members()) == 3 && len(b.Members()) == 3 && len(c.Members()) == 3
	}, 5*time.Second, 50*time.Millisecond, "peers did not converge membership")

	require.False(t, a.Synchronizing(), "must not be synchronizing before SyncToNetwork is called")

	done := make(chan error, 1)
	go func() {
		syncCtx, syncCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer syncCancel()
		done <- a.SyncToNetwork(syncCtx)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("SyncToNetwork never resolved once both peers replied")
	}
	require.False(t, a.Synchronizing(), "must clear the synchronizing flag once quorum is reached")
}
