package stores

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tally/internal/core/timer"
)

// finish persists a running session and records it as ended after elapsed.
func finish(t *testing.T, store *LedgerStore, taskID string, start time.Time, elapsed time.Duration, exhausted bool) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveActive(ctx, timer.Session{TaskID: taskID, StartTime: start, Budget: 25 * time.Minute}))
	id, err := store.Record(ctx, timer.Record{
		TaskID:    taskID,
		StartTime: start,
		EndTime:   start.Add(elapsed),
		Elapsed:   elapsed,
		Exhausted: exhausted,
	})
	require.NoError(t, err)
	return id
}

func TestLedgerStore_RecordAndTotals(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(openTestDB(t), "me")

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals)

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	id := finish(t, store, "a", start, 25*time.Minute, true)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	finish(t, store, "a", start.Add(time.Hour), 90*time.Second, false)
	finish(t, store, "b", start, 0, false)

	totals, err = store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Duration{"a": 25*time.Minute + 90*time.Second}, totals)

	history, err := store.History(ctx, "a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Exhausted)
	assert.False(t, history[1].Exhausted)
	assert.Equal(t, 25*time.Minute+90*time.Second, history[1].Total)
	assert.True(t, start.Equal(history[0].StartTime))
}

func TestLedgerStore_ActiveSession(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(openTestDB(t), "me")

	_, ok, err := store.LoadActive(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveActive(ctx, timer.Session{TaskID: "a", StartTime: start, Budget: 25 * time.Minute}))
	require.NoError(t, store.SaveActive(ctx, timer.Session{TaskID: "b", StartTime: start.Add(time.Minute), Budget: 10 * time.Minute}))

	sess, ok, err := store.LoadActive(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", sess.TaskID, "saving replaces the previous session")
	assert.Equal(t, 10*time.Minute, sess.Budget)
	assert.True(t, start.Add(time.Minute).Equal(sess.StartTime))

	_, err = store.Record(ctx, timer.Record{TaskID: "b", StartTime: sess.StartTime, EndTime: sess.StartTime.Add(time.Minute), Elapsed: time.Minute})
	require.NoError(t, err)

	_, ok, err = store.LoadActive(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "recording a session clears the active row")

	require.NoError(t, store.SaveActive(ctx, timer.Session{TaskID: "c", StartTime: start, Budget: time.Minute}))
	require.NoError(t, store.ClearActive(ctx))
	_, ok, err = store.LoadActive(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLedgerStore_RecordOnlyCreditsPersistedSession(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(openTestDB(t), "me")
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rec := timer.Record{TaskID: "a", StartTime: start, EndTime: start.Add(10 * time.Minute), Elapsed: 10 * time.Minute}

	tests := []struct {
		name   string
		active *timer.Session
	}{
		{"no running session", nil},
		{"different task", &timer.Session{TaskID: "b", StartTime: start}},
		{"later session of the same task", &timer.Session{TaskID: "a", StartTime: start.Add(time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, store.ClearActive(ctx))
			if tt.active != nil {
				require.NoError(t, store.SaveActive(ctx, *tt.active))
			}

			_, err := store.Record(ctx, rec)
			require.ErrorIs(t, err, timer.ErrStaleSession)

			totals, err := store.Totals(ctx)
			require.NoError(t, err)
			assert.Empty(t, totals)
			history, err := store.History(ctx, "a")
			require.NoError(t, err)
			assert.Empty(t, history)

			_, ok, err := store.LoadActive(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.active != nil, ok, "a foreign session stays running")
		})
	}

	require.NoError(t, store.SaveActive(ctx, timer.Session{TaskID: "a", StartTime: start}))
	_, err := store.Record(ctx, rec)
	require.NoError(t, err)
	_, err = store.Record(ctx, rec)
	require.ErrorIs(t, err, timer.ErrStaleSession, "a session is credited once")

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, totals["a"])
}

func TestLedgerStore_OwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	alice := NewLedgerStore(database, "alice")
	bob := NewLedgerStore(database, "bob")
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	finish(t, alice, "a1", start, 5*time.Minute, false)
	require.NoError(t, alice.SaveActive(ctx, timer.Session{TaskID: "a2", StartTime: start, Budget: 25 * time.Minute}))

	totals, err := bob.Totals(ctx)
	require.NoError(t, err)
	assert.Empty(t, totals)
	_, ok, err := bob.LoadActive(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	history, err := bob.History(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, bob.SaveActive(ctx, timer.Session{TaskID: "b1", StartTime: start, Budget: 25 * time.Minute}))
	require.NoError(t, bob.ClearActive(ctx))

	sess, ok, err := alice.LoadActive(ctx)
	require.NoError(t, err)
	require.True(t, ok, "another owner's clear leaves this session alone")
	assert.Equal(t, "a2", sess.TaskID)

	totals, err = alice.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]time.Duration{"a1": 5 * time.Minute}, totals)
}
