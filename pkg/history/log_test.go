package history

import (
	"testing"
	"time"

	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/cuemby/ircfed/pkg/netstate"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLog(t *testing.T, capacity int) *Log {
	t.Helper()
	return New(Config{Capacity: capacity}, NopMetrics{}, zerolog.Nop())
}

func msgChange(text string) netstate.NetworkStateChange {
	return netstate.NetworkStateChange{Kind: netstate.ChangeMessage}
}

func src(seq ircid.Seq) ircid.EventID {
	return ircid.EventID{Server: 1, Seq: seq}
}

func TestRecordAndEntriesForUserOrdering(t *testing.T) {
	l := testLog(t, 16)
	alice := ircid.NewObjectID(ircid.ObjectUser, src(1))
	bob := ircid.NewObjectID(ircid.ObjectUser, src(2))

	l.Record(1, ircclock.New(), src(10), msgChange("hi"), []ircid.ObjectID{alice, bob})
	l.Record(2, ircclock.New(), src(11), msgChange("only alice"), []ircid.ObjectID{alice})
	l.Record(3, ircclock.New(), src(12), msgChange("only bob"), []ircid.ObjectID{bob})

	aliceEntries := l.EntriesForUser(alice)
	require.Len(t, aliceEntries, 2)
	require.Equal(t, int64(1), aliceEntries[0].Timestamp)
	require.Equal(t, int64(2), aliceEntries[1].Timestamp)

	bobReverse := l.EntriesForUserReverse(bob)
	require.Len(t, bobReverse, 2)
	require.Equal(t, int64(3), bobReverse[0].Timestamp)
	require.Equal(t, int64(1), bobReverse[1].Timestamp)
}

func TestCapacityEvictsOldestFromGlobalAndPerUser(t *testing.T) {
	l := testLog(t, 2)
	alice := ircid.NewObjectID(ircid.ObjectUser, src(1))

	id1 := l.Record(1, ircclock.New(), src(10), msgChange("a"), []ircid.ObjectID{alice})
	l.Record(2, ircclock.New(), src(11), msgChange("b"), []ircid.ObjectID{alice})
	l.Record(3, ircclock.New(), src(12), msgChange("c"), []ircid.ObjectID{alice})

	require.Equal(t, 2, l.Len())
	entries := l.EntriesForUser(alice)
	require.Len(t, entries, 2)
	require.Equal(t, int64(2), entries[0].Timestamp)
	require.Equal(t, int64(3), entries[1].Timestamp)

	for _, e := range entries {
		require.NotEqual(t, id1, e.ID)
	}
}

func TestRetentionWindowEvictsAgedEntries(t *testing.T) {
	l := New(Config{Capacity: 64, Retention: time.Minute}, NopMetrics{}, zerolog.Nop())
	base := time.Unix(1000, 0)
	l.SetClock(func() time.Time { return base })

	alice := ircid.NewObjectID(ircid.ObjectUser, src(1))
	l.Record(base.Add(-2*time.Minute).UnixNano(), ircclock.New(), src(10), msgChange("old"), []ircid.ObjectID{alice})
	l.Record(base.UnixNano(), ircclock.New(), src(11), msgChange("new"), []ircid.ObjectID{alice})

	require.Equal(t, 1, l.Len())
	entries := l.EntriesForUser(alice)
	require.Len(t, entries, 1)
	require.Equal(t, base.UnixNano(), entries[0].Timestamp)
}

func TestUserWithNoEntriesReturnsEmpty(t *testing.T) {
	l := testLog(t, 16)
	stranger := ircid.NewObjectID(ircid.ObjectUser, src(99))
	require.Empty(t, l.EntriesForUser(stranger))
	require.Empty(t, l.EntriesForUserReverse(stranger))
}
