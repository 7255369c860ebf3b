package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/tally/internal/core/classify"
	"github.com/colonyops/tally/internal/core/metrics"
	"github.com/colonyops/tally/internal/core/task"
)

// findTask resolves ref to a task by exact id or by a unique id prefix.
func findTask(tasks []task.Task, ref string) (task.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return task.Task{}, fmt.Errorf("task id is required")
	}

	var matches []task.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return task.Task{}, &task.NotFoundError{ID: ref}
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, t := range matches {
			ids[i] = t.ID
		}
		return task.Task{}, fmt.Errorf("id %q is ambiguous: %s", ref, strings.Join(ids, ", "))
	}
}

// resolveIDs maps every ref to a full task id. Unknown refs are returned
// unchanged so the caller reports them as individual failures.
func resolveIDs(tasks []task.Task, refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		t, err := findTask(tasks, ref)
		if err != nil {
			out = append(out, ref)
			continue
		}
		out = append(out, t.ID)
	}
	return out
}

// viewState builds the classification state from command flags.
func viewState(mode, query string, filters []string) (classify.ViewState, error) {
	state := classify.DefaultViewState()

	m, err := classify.ParseMode(mode)
	if err != nil {
		return state, err
	}
	state.Mode = m
	state.Query = query

	if len(filters) > 0 {
		fs, err := classify.ParseFilters(filters)
		if err != nil {
			return state, err
		}
		state.Filters = fs
	}

	return state, nil
}

// taskInfo is the JSON line format for task listings.
type taskInfo struct {
	classify.Annotated
	TimeSpent string `json:"time_spent,omitempty"`
	DueIn     string `json:"due_in,omitempty"`
}

func newTaskInfo(at classify.Annotated, spent time.Duration, now time.Time) taskInfo {
	info := taskInfo{Annotated: at}
	if spent > 0 {
		info.TimeSpent = spent.Round(time.Second).String()
	}
	if !at.Completed {
		info.DueIn = metrics.DaysUntilDeadline(at.Task, now)
	}
	return info
}
