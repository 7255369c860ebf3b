package stores

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tally/internal/core/task"
)

type snapshotRecorder struct {
	mu    sync.Mutex
	snaps [][]task.Task
	errs  []error
}

func (r *snapshotRecorder) onSnapshot(tasks []task.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, tasks)
}

func (r *snapshotRecorder) onError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *snapshotRecorder) last() []task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return nil
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func newTestTaskStore(t *testing.T) *TaskStore {
	t.Helper()
	store := NewTaskStore(openTestDB(t), zerolog.Nop())
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var tick int
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return store
}

func TestTaskStore_CreateAndSubscribe(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe(ctx, "me", rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer cancel()

	require.Equal(t, 1, rec.count(), "initial snapshot is delivered immediately")
	assert.Empty(t, rec.last())

	first, err := store.Create(ctx, "me", task.Fields{Title: "first", Area: task.AreaWork, Priority: task.PriorityHigh})
	require.NoError(t, err)
	assert.Len(t, first, 10)

	second, err := store.Create(ctx, "me", task.Fields{Title: "second", Area: task.AreaHome, Priority: task.PriorityLow, Deadline: "2026-06-01"})
	require.NoError(t, err)

	_, err = store.Create(ctx, "someone-else", task.Fields{Title: "theirs", Area: task.AreaHome, Priority: task.PriorityLow})
	require.NoError(t, err)

	assert.Equal(t, 3, rec.count(), "other owners do not trigger snapshots")

	snap := rec.last()
	require.Len(t, snap, 2)
	assert.Equal(t, second, snap[0].ID, "newest first")
	assert.Equal(t, first, snap[1].ID)
	assert.Equal(t, "2026-06-01", snap[0].Deadline)
	assert.Equal(t, "me", snap[0].OwnerID)
	assert.False(t, snap[0].Completed)
	assert.Nil(t, snap[0].CompletedAt)
}

func TestTaskStore_Update(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	id, err := store.Create(ctx, "me", task.Fields{Title: "draft", Area: task.AreaWork, Priority: task.PriorityMedium})
	require.NoError(t, err)

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe(ctx, "me", rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer cancel()

	doneAt := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Update(ctx, "me", id, task.CompletionPatch(true, doneAt)))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, doneAt.Equal(*got.CompletedAt))
	assert.Equal(t, "draft", got.Title)

	assert.Equal(t, 2, rec.count())
	assert.True(t, rec.last()[0].Completed)

	require.NoError(t, store.Update(ctx, "me", id, task.CompletionPatch(false, doneAt)))
	got, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Nil(t, got.CompletedAt, "reopening clears completedAt")

	title := "final"
	require.NoError(t, store.Update(ctx, "me", id, task.Patch{Title: &title}))
	got, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
}

func TestTaskStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	title := "x"
	err := store.Update(ctx, "me", "missing", task.Patch{Title: &title})
	require.ErrorIs(t, err, task.ErrNotFound)

	err = store.Delete(ctx, "me", "missing")
	require.ErrorIs(t, err, task.ErrNotFound)

	var nf *task.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "missing", nf.ID)

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, task.ErrNotFound)
}

func TestTaskStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	id, err := store.Create(ctx, "me", task.Fields{Title: "gone", Area: task.AreaWork, Priority: task.PriorityMedium})
	require.NoError(t, err)

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe(ctx, "me", rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer cancel()
	require.Len(t, rec.last(), 1)

	require.NoError(t, store.Delete(ctx, "me", id))
	assert.Empty(t, rec.last())
}

func TestTaskStore_OwnerScopedMutations(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	id, err := store.Create(ctx, "alice", task.Fields{Title: "mine", Area: task.AreaWork, Priority: task.PriorityMedium})
	require.NoError(t, err)

	alice := &snapshotRecorder{}
	cancel, err := store.Subscribe(ctx, "alice", alice.onSnapshot, alice.onError)
	require.NoError(t, err)
	defer cancel()

	title := "taken over"
	err = store.Update(ctx, "bob", id, task.Patch{Title: &title})
	require.ErrorIs(t, err, task.ErrNotFound)

	err = store.Delete(ctx, "bob", id)
	var nf *task.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, id, nf.ID)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)
	assert.Equal(t, "alice", got.OwnerID)
	assert.Equal(t, 1, alice.count(), "rejected mutations push nothing")

	require.NoError(t, store.Delete(ctx, "alice", id))
	assert.Empty(t, alice.last())
}

func TestTaskStore_IDCollisionRetries(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	ids := []string{"dupdupdup0", "dupdupdup0", "fresh00001"}
	var n int
	store.newID = func() (string, error) {
		id := ids[n]
		n++
		return id, nil
	}

	first, err := store.Create(ctx, "me", task.Fields{Title: "a", Area: task.AreaWork, Priority: task.PriorityLow})
	require.NoError(t, err)
	second, err := store.Create(ctx, "me", task.Fields{Title: "b", Area: task.AreaWork, Priority: task.PriorityLow})
	require.NoError(t, err)

	assert.Equal(t, "dupdupdup0", first)
	assert.Equal(t, "fresh00001", second)
}

func TestTaskStore_CancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe(ctx, "me", rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	cancel()
	cancel()

	_, err = store.Create(ctx, "me", task.Fields{Title: "a", Area: task.AreaWork, Priority: task.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.count())

	subCtx, subCancel := context.WithCancel(ctx)
	rec2 := &snapshotRecorder{}
	_, err = store.Subscribe(subCtx, "me", rec2.onSnapshot, rec2.onError)
	require.NoError(t, err)
	subCancel()

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.subs) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTaskStore_VersionAndRefresh(t *testing.T) {
	ctx := context.Background()
	store := newTestTaskStore(t)

	before, err := store.Version(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, "0:0", before)

	rec := &snapshotRecorder{}
	cancel, err := store.Subscribe(ctx, "me", rec.onSnapshot, rec.onError)
	require.NoError(t, err)
	defer cancel()

	for i := range 3 {
		_, err := store.Create(ctx, "me", task.Fields{Title: fmt.Sprintf("t%d", i), Area: task.AreaWork, Priority: task.PriorityLow})
		require.NoError(t, err)
	}

	after, err := store.Version(ctx, "me")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	n := rec.count()
	store.Refresh(ctx)
	assert.Equal(t, n+1, rec.count())
	assert.Len(t, rec.last(), 3)
	assert.Empty(t, rec.errs)
}
