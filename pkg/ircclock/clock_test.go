package ircclock

import (
	"encoding/json"
	"testing"

	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/stretchr/testify/require"
)

func id(server ircid.ServerID, epoch ircid.EpochID, seq ircid.Seq) ircid.EventID {
	return ircid.EventID{Server: server, Epoch: epoch, Seq: seq}
}

func TestUpdateAndContains(t *testing.T) {
	c := New()
	require.False(t, c.Contains(id(1, 0, 1)))

	c.Update(id(1, 0, 1))
	require.True(t, c.Contains(id(1, 0, 1)))
	require.False(t, c.Contains(id(1, 0, 2)))

	c.Update(id(1, 0, 5))
	require.True(t, c.Contains(id(1, 0, 3)))

	// Updating with an older id does not regress the clock.
	c.Update(id(1, 0, 2))
	require.True(t, c.Contains(id(1, 0, 5)))
}

func TestMergeIsPointwiseMax(t *testing.T) {
	a := New()
	a.Update(id(1, 0, 5))
	b := New()
	b.Update(id(1, 0, 2))
	b.Update(id(2, 0, 9))

	merged := a.Merge(b)
	require.True(t, merged.Contains(id(1, 0, 5)))
	require.True(t, merged.Contains(id(2, 0, 9)))
	// original clocks are untouched
	require.False(t, a.Contains(id(2, 0, 9)))
}

func TestCompareOrderings(t *testing.T) {
	a := New()
	a.Update(id(1, 0, 1))

	b := a.Clone()
	b.Update(id(1, 0, 2))

	require.Equal(t, Equal, Compare(a, a))
	require.Equal(t, Less, Compare(a, b))
	require.Equal(t, Greater, Compare(b, a))

	c := New()
	c.Update(id(2, 0, 1))
	require.Equal(t, Concurrent, Compare(a, c))
}

func TestIsDependencyOf(t *testing.T) {
	dep := New()
	dep.Update(id(1, 0, 7))

	satisfied := New()
	satisfied.Update(id(1, 0, 7))
	satisfied.Update(id(2, 0, 3))

	require.True(t, dep.IsDependencyOf(satisfied))

	unsatisfied := New()
	unsatisfied.Update(id(1, 0, 6))
	require.False(t, dep.IsDependencyOf(unsatisfied))
}

func TestCloneIndependence(t *testing.T) {
	a := New()
	a.Update(id(1, 0, 1))
	b := a.Clone()
	b.Update(id(1, 0, 2))

	require.True(t, a.Contains(id(1, 0, 1)))
	require.False(t, a.Contains(id(1, 0, 2)))
}

func TestJSONRoundTrip(t *testing.T) {
	a := New()
	a.Update(id(1, 0, 5))
	a.Update(id(2, 1, 3))

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var b EventClock
	require.NoError(t, json.Unmarshal(data, &b))

	require.Equal(t, Equal, Compare(a, b))
	require.True(t, b.Contains(id(1, 0, 5)))
	require.True(t, b.Contains(id(2, 1, 3)))
}
