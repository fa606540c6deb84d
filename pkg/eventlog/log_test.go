package eventlog

import (
	"testing"

	"github.com/cuemby/ircfed/pkg/ircclock"
	"github.com/cuemby/ircfed/pkg/ircevent"
	"github.com/cuemby/ircfed/pkg/ircid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLog(t *testing.T, server ircid.ServerID, capacity int) (*EventLog, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	cfg := Config{Server: server, Epoch: 0, PendingCapacity: capacity}
	return New(cfg, sink, NopMetrics{}, zerolog.Nop()), sink
}

type recordingSink struct {
	applied []ircevent.Event
}

func (s *recordingSink) Apply(e ircevent.Event) { s.applied = append(s.applied, e) }

func eventWithClock(id ircid.EventID, clock ircclock.EventClock) ircevent.Event {
	return ircevent.Event{ID: id, Clock: clock, Details: ircevent.DetailsNewAuditLogEntry(ircevent.NewAuditLogEntry{})}
}

func TestAddEmitsWhenClockSatisfied(t *testing.T) {
	log, sink := testLog(t, 1, 16)

	e := eventWithClock(ircid.EventID{Server: 1, Epoch: 0, Seq: 1}, ircclock.New())
	log.Add(e)

	require.Len(t, sink.applied, 1)
	require.True(t, log.Seen().Contains(e.ID))
	require.Equal(t, 0, log.PendingCount())
}

func TestAddPendsWhenDependencyUnsatisfied(t *testing.T) {
	log, sink := testLog(t, 1, 16)

	dep := ircclock.New()
	dep.Update(ircid.EventID{Server: 2, Epoch: 0, Seq: 1})

	e := eventWithClock(ircid.EventID{Server: 1, Epoch: 0, Seq: 1}, dep)
	log.Add(e)

	require.Len(t, sink.applied, 0)
	require.Equal(t, 1, log.PendingCount())
}

func TestDuplicateEventDropped(t *testing.T) {
	log, sink := testLog(t, 1, 16)

	e := eventWithClock(ircid.EventID{Server: 1, Epoch: 0, Seq: 1}, ircclock.New())
	log.Add(e)
	log.Add(e)

	require.Len(t, sink.applied, 1)
}

// TestLateArrivingDependency reproduces the late-dependency scenario: B arrives
// before A (the event B's clock names) and must be pended, then
// promoted the instant A arrives.
func TestLateArrivingDependency(t *testing.T) {
	log, sink := testLog(t, 3, 16)

	aID := ircid.EventID{Server: 1, Epoch: 1, Seq: 7}
	bClock := ircclock.New()
	bClock.Update(aID)
	bID := ircid.EventID{Server: 2, Epoch: 0, Seq: 1}
	b := eventWithClock(bID, bClock)

	log.Add(b)
	require.Len(t, sink.applied, 0, "B must be pended until A arrives")
	require.Equal(t, 1, log.PendingCount())

	a := eventWithClock(aID, ircclock.New())
	log.Add(a)

	require.Len(t, sink.applied, 2, "A arriving must immediately promote B")
	require.Equal(t, aID, sink.applied[0].ID)
	require.Equal(t, bID, sink.applied[1].ID)
	require.Equal(t, 0, log.PendingCount())
}

func TestConcurrentEventsTieBreakAscending(t *testing.T) {
	log, sink := testLog(t, 3, 16)

	// Both concurrent (same clock) and pended behind a shared dependency
	// so they become ready in the same promotion round.
	dep := ircid.EventID{Server: 9, Epoch: 0, Seq: 1}
	depClock := ircclock.New()
	depClock.Update(dep)

	big := eventWithClock(ircid.EventID{Server: 5, Epoch: 0, Seq: 1}, depClock)
	small := eventWithClock(ircid.EventID{Server: 1, Epoch: 0, Seq: 1}, depClock)
	log.Add(big)
	log.Add(small)
	require.Equal(t, 2, log.PendingCount())

	log.Add(eventWithClock(dep, ircclock.New()))

	require.Len(t, sink.applied, 3)
	require.Equal(t, dep, sink.applied[0].ID)
	require.Equal(t, small.ID, sink.applied[1].ID)
	require.Equal(t, big.ID, sink.applied[2].ID)
}

func TestPendingOverflowEvictsOldest(t *testing.T) {
	log, sink := testLog(t, 1, 2)

	unsatisfied := ircclock.New()
	unsatisfied.Update(ircid.EventID{Server: 99, Epoch: 0, Seq: 1})

	first := eventWithClock(ircid.EventID{Server: 2, Epoch: 0, Seq: 1}, unsatisfied)
	second := eventWithClock(ircid.EventID{Server: 3, Epoch: 0, Seq: 1}, unsatisfied)
	third := eventWithClock(ircid.EventID{Server: 4, Epoch: 0, Seq: 1}, unsatisfied)

	log.Add(first)
	log.Add(second)
	require.Equal(t, 2, log.PendingCount())

	log.Add(third)
	require.Equal(t, 2, log.PendingCount(), "capacity bound must hold")
	require.Len(t, sink.applied, 0)

	_, stillPending := log.pending[first.ID]
	require.False(t, stillPending, "oldest pending entry must have been evicted")
	_, secondPending := log.pending[second.ID]
	require.True(t, secondPending)
	_, thirdPending := log.pending[third.ID]
	require.True(t, thirdPending)
}

// TestEpochRestartDiscardsStaleLocalEvent reproduces the epoch-restart scenario: a straggler naming a
// stale local epoch must not be re-admitted after restart.
func TestEpochRestartDiscardsStaleLocalEvent(t *testing.T) {
	log, sink := testLog(t, 1, 16)
	log.UpdateEpoch(4)

	stale := eventWithClock(ircid.EventID{Server: 1, Epoch: 3, Seq: 1}, ircclock.New())
	log.Add(stale)

	require.Len(t, sink.applied, 0)
	require.Equal(t, 0, log.PendingCount())
}

func TestUpdateEpochFlushesOwnStalePending(t *testing.T) {
	log, _ := testLog(t, 1, 16)

	dep := ircclock.New()
	dep.Update(ircid.EventID{Server: 9, Epoch: 0, Seq: 1})

	ownStale := eventWithClock(ircid.EventID{Server: 1, Epoch: 0, Seq: 1}, dep)
	log.Add(ownStale)
	require.Equal(t, 1, log.PendingCount())

	log.UpdateEpoch(1)
	require.Equal(t, 0, log.PendingCount())
}

func TestNewEventStampsCurrentClockAndEmits(t *testing.T) {
	log, sink := testLog(t, 1, 16)

	target := ircid.ObjectID{Kind: ircid.ObjectUser}
	id := log.NewEvent(target, ircevent.DetailsUserQuit(ircevent.UserQuit{Reason: "bye"}))

	require.Equal(t, ircid.ServerID(1), id.Server)
	require.Len(t, sink.applied, 1)
	require.Equal(t, id, sink.applied[0].ID)
}

func TestNewCreationEventDerivesObjectIDFromOwnEventID(t *testing.T) {
	log, sink := testLog(t, 1, 16)

	target, id := log.NewCreationEvent(ircid.ObjectUser, func(eid ircid.EventID) ircevent.EventDetails {
		return ircevent.DetailsNewUser(ircevent.NewUser{Nick: "alice"})
	})

	require.Equal(t, id, target.Sub)
	require.Equal(t, ircid.ObjectUser, target.Kind)
	require.Len(t, sink.applied, 1)
	require.Equal(t, target, sink.applied[0].Target)
}
