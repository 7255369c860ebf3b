package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/eventbus/testbus"
	"github.com/colonyops/tally/internal/core/timer"
	"github.com/colonyops/tally/internal/data/db"
	"github.com/colonyops/tally/internal/data/stores"
)

// newProcessTimer builds a TimerService the way a separate tally process
// would: its own mirror, bus and controller over a shared ledger store.
func newProcessTimer(t *testing.T, store LedgerStore, clock *fakeClock) (*TimerService, *testbus.Bus) {
	t.Helper()
	tb := testbus.New(t)
	mirror := NewMirror()
	mirror.ApplySnapshot(seedTasks())

	svc, err := NewTimerService(context.Background(), store, mirror, tb.EventBus, zerolog.Nop(), timer.WithClock(clock))
	require.NoError(t, err)
	return svc, tb
}

func openLedger(t *testing.T, owner string) (*stores.LedgerStore, *db.DB) {
	t.Helper()
	database, err := db.Open(t.TempDir(), db.DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return stores.NewLedgerStore(database, owner), database
}

func TestTimerService_StopElsewhereIsNotCreditedTwice(t *testing.T) {
	store, _ := openLedger(t, "me")
	clock := newFakeClock()

	watcher, watcherBus := newProcessTimer(t, store, clock)
	_, err := watcher.Start("X")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	stopper, _ := newProcessTimer(t, store, clock)
	require.Equal(t, "X", stopper.Status().TaskID, "the second process resumes the session")
	rec, err := stopper.Stop("X")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, rec.Elapsed)

	clock.Advance(15 * time.Minute)
	_, ended := watcher.Tick()
	assert.False(t, ended)
	assert.Equal(t, timer.StateIdle, watcher.Status().State)
	assert.Equal(t, 10*time.Minute, watcher.Ledger()["X"], "the watcher picks up the stored total")

	totals, err := store.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, totals["X"])
	watcherBus.AssertNotPublished(t, eventbus.EventTimerCompleted, 20*time.Millisecond)
}

func TestTimerService_StaleRecordIsDropped(t *testing.T) {
	store, _ := openLedger(t, "me")
	clock := newFakeClock()

	watcher, watcherBus := newProcessTimer(t, store, clock)
	_, err := watcher.Start("X")
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	stopper, _ := newProcessTimer(t, store, clock)
	_, err = stopper.Stop("X")
	require.NoError(t, err)

	// The watcher's controller still believes X is running and completes it
	// without re-reading the store first.
	clock.Advance(15 * time.Minute)
	_, ended := watcher.Controller().Tick()
	require.True(t, ended)

	totals, err := store.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, totals["X"])
	assert.Equal(t, 10*time.Minute, watcher.Ledger()["X"], "the in-memory credit is rolled back")

	history, err := store.History(context.Background(), "X")
	require.NoError(t, err)
	assert.Len(t, history, 1)

	watcherBus.AssertNotPublished(t, eventbus.EventTimerCompleted, 20*time.Millisecond)
	watcherBus.AssertNotPublished(t, eventbus.EventStoreFailed, 0)
}

func TestTimerService_FollowsStartElsewhere(t *testing.T) {
	store, _ := openLedger(t, "me")
	clock := newFakeClock()

	watcher, _ := newProcessTimer(t, store, clock)
	other, _ := newProcessTimer(t, store, clock)

	_, err := other.Start("Y")
	require.NoError(t, err)

	watcher.Refresh(context.Background())
	status := watcher.Status()
	assert.Equal(t, timer.StateRunning, status.State)
	assert.Equal(t, "Y", status.TaskID)

	clock.Advance(25 * time.Minute)
	rec, ended := watcher.Tick()
	require.True(t, ended)
	assert.Equal(t, 25*time.Minute, rec.Elapsed)

	_, ended = other.Tick()
	assert.False(t, ended, "only one process completes the session")

	totals, err := store.Totals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25*time.Minute, totals["Y"])
}

func TestTimerService_OwnersDoNotShareTimers(t *testing.T) {
	alice, database := openLedger(t, "me")
	bob := stores.NewLedgerStore(database, "them")
	clock := newFakeClock()

	mine, _ := newProcessTimer(t, alice, clock)
	_, err := mine.Start("X")
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	_, err = mine.Stop("X")
	require.NoError(t, err)
	_, err = mine.Start("Y")
	require.NoError(t, err)

	theirs, _ := newProcessTimer(t, bob, clock)
	assert.Equal(t, timer.StateIdle, theirs.Status().State)
	assert.Empty(t, theirs.Ledger())
}

func TestTimerService_RestoreSkipsUnknownTask(t *testing.T) {
	store, _ := openLedger(t, "me")
	clock := newFakeClock()
	require.NoError(t, store.SaveActive(context.Background(), timer.Session{TaskID: "not-mirrored", StartTime: clock.Now(), Budget: time.Minute}))

	svc, _ := newProcessTimer(t, store, clock)
	assert.Equal(t, timer.StateIdle, svc.Status().State)
}
