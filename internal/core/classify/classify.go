// Package classify derives the done/current/pending labels for a task set and
// builds the filtered, sorted, per-area view shown to the user.
//
// Everything here is recomputed from scratch on every call. Inputs are never
// mutated and no state is kept between calls.
package classify

import (
	"slices"
	"strings"
	"time"

	"github.com/colonyops/tally/internal/core/task"
)

// DefaultCurrentLimit is the number of tasks per area labelled current.
const DefaultCurrentLimit = 3

// Annotated is a task paired with its derived label.
type Annotated struct {
	task.Task
	Label task.Label `json:"label"`
}

// View is the display-ready result of Classify.
type View struct {
	// Visible is the filtered set in priority/deadline order.
	Visible []Annotated
	// ByArea groups Visible by area. Every area has an entry, possibly empty.
	ByArea map[task.Area][]Annotated
	// Selection is the subset of the requested selection that is visible.
	Selection []string
}

// Classifier holds the tunables for classification.
type Classifier struct {
	CurrentLimit int
}

// New returns a Classifier with the given per-area current limit. Values
// below 1 use DefaultCurrentLimit.
func New(limit int) Classifier {
	if limit < 1 {
		limit = DefaultCurrentLimit
	}
	return Classifier{CurrentLimit: limit}
}

// Classify is Classifier.Classify with the default limit.
func Classify(tasks []task.Task, state ViewState, now time.Time) View {
	return New(DefaultCurrentLimit).Classify(tasks, state, now)
}

// Labels is Classifier.Labels with the default limit.
func Labels(tasks []task.Task) map[string]task.Label {
	return New(DefaultCurrentLimit).Labels(tasks)
}

// Labels returns the label of every task keyed by id. Incomplete tasks are
// ranked within their area and the first CurrentLimit of each area are
// current.
func (c Classifier) Labels(tasks []task.Task) map[string]task.Label {
	labels := labelIndexes(tasks, c.limit(), time.Local)
	out := make(map[string]task.Label, len(tasks))
	for i, t := range tasks {
		out[t.ID] = labels[i]
	}
	return out
}

// LabelsIn returns labels aligned with tasks by index, resolving deadlines
// in loc.
func (c Classifier) LabelsIn(tasks []task.Task, loc *time.Location) []task.Label {
	return labelIndexes(tasks, c.limit(), loc)
}

// Classify runs the full pipeline: label, search, filter, mode select, sort,
// and group by area.
func (c Classifier) Classify(tasks []task.Task, state ViewState, now time.Time) View {
	limit := c.limit()
	labels := labelIndexes(tasks, limit, now.Location())
	filters := NormalizeFilters(state.Filters)
	query := strings.ToLower(state.Query)
	mode := state.Mode
	if mode == "" {
		mode = ModeCurrent
	}

	visible := make([]entry, 0, len(tasks))
	for i, t := range tasks {
		if !matchesQuery(t, query) {
			continue
		}
		if !matchesFilters(t, filters, now) {
			continue
		}
		if !matchesMode(t, labels[i], mode) {
			continue
		}
		visible = append(visible, newEntry(t, i, now.Location()))
	}
	slices.SortFunc(visible, compare)

	view := View{
		Visible: make([]Annotated, 0, len(visible)),
		ByArea:  make(map[task.Area][]Annotated, len(task.Areas())),
	}
	for _, a := range task.Areas() {
		view.ByArea[a] = []Annotated{}
	}

	visibleIDs := make(map[string]bool, len(visible))
	for _, e := range visible {
		at := Annotated{Task: e.task.Clone(), Label: labels[e.index]}
		view.Visible = append(view.Visible, at)
		visibleIDs[at.ID] = true

		group, ok := view.ByArea[at.Area]
		if !ok {
			continue
		}
		if mode == ModeCurrent && len(group) >= limit {
			continue
		}
		view.ByArea[at.Area] = append(group, at)
	}

	view.Selection = PruneSelection(state.Selection, visibleIDs)
	return view
}

func (c Classifier) limit() int {
	if c.CurrentLimit < 1 {
		return DefaultCurrentLimit
	}
	return c.CurrentLimit
}

// PruneSelection keeps the selected ids that are visible, preserving order
// and dropping duplicates.
func PruneSelection(selection []string, visible map[string]bool) []string {
	out := make([]string, 0, len(selection))
	seen := make(map[string]bool, len(selection))
	for _, id := range selection {
		if visible[id] && !seen[id] {
			out = append(out, id)
			seen[id] = true
		}
	}
	return out
}

// labelIndexes labels tasks by slice index so duplicate or empty ids cannot
// collide.
func labelIndexes(tasks []task.Task, limit int, loc *time.Location) []task.Label {
	labels := make([]task.Label, len(tasks))
	groups := make(map[task.Area][]entry)

	for i, t := range tasks {
		if t.Completed {
			labels[i] = task.LabelDone
			continue
		}
		groups[t.Area] = append(groups[t.Area], newEntry(t, i, loc))
	}

	for _, group := range groups {
		slices.SortFunc(group, compare)
		for rank, e := range group {
			if rank < limit {
				labels[e.index] = task.LabelCurrent
			} else {
				labels[e.index] = task.LabelPending
			}
		}
	}

	return labels
}

func matchesQuery(t task.Task, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Title), query) ||
		strings.Contains(strings.ToLower(t.Description), query) ||
		strings.Contains(strings.ToLower(string(t.Area)), query)
}

func matchesFilters(t task.Task, filters []Filter, now time.Time) bool {
	for _, f := range filters {
		if matchesFilter(t, f, now) {
			return true
		}
	}
	return false
}

func matchesFilter(t task.Task, f Filter, now time.Time) bool {
	switch f {
	case FilterAll:
		return true
	case FilterHigh:
		return t.Priority == task.PriorityHigh
	case FilterOverdue:
		return IsOverdue(t, now)
	case FilterToday:
		return IsDueToday(t, now)
	default:
		return false
	}
}

func matchesMode(t task.Task, label task.Label, mode Mode) bool {
	switch mode {
	case ModeCurrent:
		return label == task.LabelCurrent && !t.Completed
	case ModePending:
		return label == task.LabelPending && !t.Completed
	case ModeDone:
		return t.Completed
	default:
		return false
	}
}

// IsOverdue reports whether an incomplete task's deadline is strictly before
// now. Tasks without a parseable deadline are never overdue.
func IsOverdue(t task.Task, now time.Time) bool {
	if t.Completed {
		return false
	}
	d, ok := t.DeadlineIn(now.Location())
	return ok && d.Before(now)
}

// IsDueToday reports whether the deadline falls on now's calendar date.
func IsDueToday(t task.Task, now time.Time) bool {
	d, ok := t.DeadlineIn(now.Location())
	if !ok {
		return false
	}
	dy, dm, dd := d.Date()
	ny, nm, nd := now.Date()
	return dy == ny && dm == nm && dd == nd
}

// Counts summarizes the label distribution of a task set.
type Counts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Current   int `json:"current"`
	Pending   int `json:"pending"`
	Overdue   int `json:"overdue"`
}

// Count tallies labels and overdue tasks.
func (c Classifier) Count(tasks []task.Task, now time.Time) Counts {
	var out Counts
	labels := labelIndexes(tasks, c.limit(), now.Location())
	for i, t := range tasks {
		switch labels[i] {
		case task.LabelDone:
			out.Completed++
			continue
		case task.LabelCurrent:
			out.Current++
		case task.LabelPending:
			out.Pending++
		}
		out.Active++
		if IsOverdue(t, now) {
			out.Overdue++
		}
	}
	return out
}
