package classify

import (
	"cmp"
	"slices"
	"time"

	"github.com/colonyops/tally/internal/core/task"
)

// entry caches the parsed sort keys of a task and its position in the input.
type entry struct {
	task        task.Task
	index       int
	rank        int
	deadline    time.Time
	hasDeadline bool
}

func newEntry(t task.Task, index int, loc *time.Location) entry {
	d, ok := t.DeadlineIn(loc)
	return entry{
		task:        t,
		index:       index,
		rank:        t.Priority.Rank(),
		deadline:    d,
		hasDeadline: ok,
	}
}

// compare orders by priority descending, then deadline ascending, then input
// position. A missing or unparseable deadline sorts after every real one.
func compare(a, b entry) int {
	if c := cmp.Compare(b.rank, a.rank); c != 0 {
		return c
	}

	switch {
	case a.hasDeadline && b.hasDeadline:
		if c := a.deadline.Compare(b.deadline); c != 0 {
			return c
		}
	case a.hasDeadline:
		return -1
	case b.hasDeadline:
		return 1
	}

	return cmp.Compare(a.index, b.index)
}

// Sort orders tasks in place with the classification comparator. The sort is
// stable with respect to the input order.
func Sort(tasks []task.Task, loc *time.Location) {
	entries := make([]entry, len(tasks))
	for i, t := range tasks {
		entries[i] = newEntry(t, i, loc)
	}
	slices.SortFunc(entries, compare)
	for i, e := range entries {
		tasks[i] = e.task
	}
}
