package tracker

import (
	"slices"
	"sync"

	"github.com/colonyops/tally/internal/core/task"
)

// Mirror is the local, read-only copy of the store's task collection. It only
// changes when a snapshot or change set arrives from the store.
type Mirror struct {
	mu      sync.RWMutex
	tasks   []task.Task
	version uint64
	ready   bool
}

// NewMirror returns an empty mirror that has not yet seen a snapshot.
func NewMirror() *Mirror {
	return &Mirror{}
}

// ApplySnapshot replaces the collection wholesale, keeping receipt order.
// Applying the same snapshot twice leaves the mirror unchanged.
func (m *Mirror) ApplySnapshot(tasks []task.Task) {
	next := task.CloneAll(tasks)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = next
	m.version++
	m.ready = true
}

// ApplyChanges reconciles a delta set. Inserts of a known id and updates of
// an unknown id are treated as upserts; new tasks go to the front so the
// newest-first order of snapshots is preserved.
func (m *Mirror) ApplyChanges(changes []task.Change) {
	if len(changes) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range changes {
		i := slices.IndexFunc(m.tasks, func(t task.Task) bool { return t.ID == c.Task.ID })
		switch c.Kind {
		case task.ChangeInsert, task.ChangeUpdate:
			if i >= 0 {
				m.tasks[i] = c.Task.Clone()
			} else {
				m.tasks = slices.Insert(m.tasks, 0, c.Task.Clone())
			}
		case task.ChangeDelete:
			if i >= 0 {
				m.tasks = slices.Delete(m.tasks, i, i+1)
			}
		}
	}
	m.version++
	m.ready = true
}

// Tasks returns a copy of the collection.
func (m *Mirror) Tasks() []task.Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return task.CloneAll(m.tasks)
}

// Get returns the mirrored task with id.
func (m *Mirror) Get(id string) (task.Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return task.Task{}, false
}

// Has reports whether id is mirrored.
func (m *Mirror) Has(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// Len returns the number of mirrored tasks.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tasks)
}

// Ready reports whether at least one snapshot has been applied.
func (m *Mirror) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ready
}

// Version increments every time the mirror changes.
func (m *Mirror) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}
