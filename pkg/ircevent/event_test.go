package ircevent

import (
	"testing"

	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/stretchr/testify/require"
)

func TestDetailsConstructorsTagMatchesPayload(t *testing.T) {
	cases := []struct {
		name string
		d    EventDetails
	}{
		{"NewUser", DetailsNewUser(NewUser{Nick: "alice"})},
		{"UserQuit", DetailsUserQuit(UserQuit{Reason: "bye"})},
		{"NewChannel", DetailsNewChannel(NewChannel{Name: "#chat"})},
		{"ChannelJoin", DetailsChannelJoin(ChannelJoin{})},
		{"BulkUserQuit", DetailsBulkUserQuit(BulkUserQuit{HomeServer: 1})},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			switch tc.d.Kind {
			case KindNewUser:
				require.NotNil(t, tc.d.NewUser)
			case KindUserQuit:
				require.NotNil(t, tc.d.UserQuit)
			case KindNewChannel:
				require.NotNil(t, tc.d.NewChannel)
			case KindChannelJoin:
				require.NotNil(t, tc.d.ChannelJoin)
			case KindBulkUserQuit:
				require.NotNil(t, tc.d.BulkUserQuit)
			}
		})
	}
}

func TestEventConstruction(t *testing.T) {
	clock := ircclock.New()
	id := ircid.EventID{Server: 1, Epoch: 0, Seq: 1}
	target := ircid.NewObjectID(ircid.ObjectUser, id)

	ev := Event{
		ID:        id,
		Timestamp: 1234,
		Clock:     clock,
		Target:    target,
		Details:   DetailsNewUser(NewUser{Nick: "alice"}),
	}

	require.Equal(t, KindNewUser, ev.Details.Kind)
	require.Equal(t, "alice", ev.Details.NewUser.Nick)
	require.Equal(t, ircid.ObjectUser, ev.Target.Kind)
}
