package tracker

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/core/timer"
)

// fakeRemote is an in-memory task.Remote that pushes a full snapshot after
// every mutation unless hold is set.
type fakeRemote struct {
	mu     sync.Mutex
	tasks  []task.Task
	subs   map[int]func([]task.Task)
	subSeq int
	nextID int
	calls  int
	hold   bool
	fail   map[string]error // keyed by task id, or "create"/"subscribe"
	now    time.Time
}

func newFakeRemote(seed ...task.Task) *fakeRemote {
	return &fakeRemote{
		tasks: seed,
		subs:  map[int]func([]task.Task){},
		fail:  map[string]error{},
		now:   time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (r *fakeRemote) Subscribe(_ context.Context, _ string, onSnapshot func([]task.Task), _ func(error)) (func(), error) {
	r.mu.Lock()
	if err := r.fail["subscribe"]; err != nil {
		r.mu.Unlock()
		return nil, err
	}
	id := r.subSeq
	r.subSeq++
	r.subs[id] = onSnapshot
	snap := task.CloneAll(r.tasks)
	r.mu.Unlock()

	onSnapshot(snap)
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subs, id)
	}, nil
}

func (r *fakeRemote) Create(_ context.Context, owner string, f task.Fields) (string, error) {
	r.mu.Lock()
	r.calls++
	if err := r.fail["create"]; err != nil {
		r.mu.Unlock()
		return "", err
	}
	r.nextID++
	id := fmt.Sprintf("task%06d", r.nextID)
	r.tasks = slices.Insert(r.tasks, 0, task.Task{
		ID:          id,
		OwnerID:     owner,
		Title:       f.Title,
		Description: f.Description,
		Area:        f.Area,
		Priority:    f.Priority,
		Deadline:    f.Deadline,
		CreatedAt:   r.now.Add(time.Duration(r.nextID) * time.Minute),
	})
	r.mu.Unlock()

	r.push()
	return id, nil
}

func (r *fakeRemote) Update(_ context.Context, owner, id string, p task.Patch) error {
	r.mu.Lock()
	r.calls++
	if err := r.fail[id]; err != nil {
		r.mu.Unlock()
		return err
	}
	i := r.indexOf(owner, id)
	if i < 0 {
		r.mu.Unlock()
		return &task.NotFoundError{ID: id}
	}
	r.tasks[i] = p.Apply(r.tasks[i])
	r.mu.Unlock()

	r.push()
	return nil
}

func (r *fakeRemote) Delete(_ context.Context, owner, id string) error {
	r.mu.Lock()
	r.calls++
	if err := r.fail[id]; err != nil {
		r.mu.Unlock()
		return err
	}
	i := r.indexOf(owner, id)
	if i < 0 {
		r.mu.Unlock()
		return &task.NotFoundError{ID: id}
	}
	r.tasks = slices.Delete(r.tasks, i, i+1)
	r.mu.Unlock()

	r.push()
	return nil
}

// indexOf finds an owner's task. Callers must hold r.mu.
func (r *fakeRemote) indexOf(owner, id string) int {
	return slices.IndexFunc(r.tasks, func(t task.Task) bool { return t.ID == id && t.OwnerID == owner })
}

func (r *fakeRemote) push() {
	r.mu.Lock()
	if r.hold {
		r.mu.Unlock()
		return
	}
	snap := task.CloneAll(r.tasks)
	subs := make([]func([]task.Task), 0, len(r.subs))
	for _, fn := range r.subs {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(task.CloneAll(snap))
	}
}

func (r *fakeRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memLedger is an in-memory LedgerStore.
type memLedger struct {
	mu      sync.Mutex
	totals  map[string]time.Duration
	records []timer.Record
	active  *timer.Session
	err     error
}

func newMemLedger() *memLedger {
	return &memLedger{totals: map[string]time.Duration{}}
}

func (m *memLedger) Totals(context.Context) (map[string]time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Duration, len(m.totals))
	for k, v := range m.totals {
		out[k] = v
	}
	return out, nil
}

func (m *memLedger) Record(_ context.Context, r timer.Record) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.active == nil || m.active.TaskID != r.TaskID || !m.active.StartTime.Equal(r.StartTime) {
		return "", timer.ErrStaleSession
	}
	m.totals[r.TaskID] += r.Elapsed
	m.records = append(m.records, r)
	m.active = nil
	return fmt.Sprintf("rec-%d", len(m.records)), nil
}

func (m *memLedger) SaveActive(_ context.Context, s timer.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.active = &s
	return nil
}

func (m *memLedger) LoadActive(context.Context) (timer.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return timer.Session{}, false, nil
	}
	return *m.active, true, nil
}

func (m *memLedger) activeSession() *timer.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func seedTasks() []task.Task {
	created := time.Date(2026, 4, 20, 9, 0, 0, 0, time.UTC)
	return []task.Task{
		{ID: "X", Title: "Write report", Area: task.AreaWork, Priority: task.PriorityHigh, Deadline: "2026-05-03", CreatedAt: created, OwnerID: "me"},
		{ID: "Y", Title: "Groceries", Area: task.AreaHome, Priority: task.PriorityMedium, Deadline: "2026-05-05", CreatedAt: created, OwnerID: "me"},
	}
}
