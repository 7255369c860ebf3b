package classify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tally/internal/core/task"
)

var now = time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)

func day(offset int) string {
	return now.AddDate(0, 0, offset).Format(task.DateLayout)
}

func mk(id string, area task.Area, p task.Priority, deadline string) task.Task {
	return task.Task{
		ID:        id,
		Title:     "Task " + id,
		Area:      area,
		Priority:  p,
		Deadline:  deadline,
		CreatedAt: now.Add(-time.Hour),
	}
}

func done(t task.Task) task.Task {
	at := now.Add(-time.Minute)
	t.Completed = true
	t.CompletedAt = &at
	return t
}

func ids(items []Annotated) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestLabels_HighPriorityIsCurrent(t *testing.T) {
	tasks := []task.Task{
		mk("w1", task.AreaWork, task.PriorityLow, day(1)),
		mk("w2", task.AreaWork, task.PriorityMedium, day(2)),
		mk("w3", task.AreaWork, task.PriorityMedium, day(3)),
		mk("w4", task.AreaWork, task.PriorityLow, day(4)),
		mk("w5", task.AreaWork, task.PriorityMedium, day(5)),
		mk("hot", task.AreaWork, task.PriorityHigh, day(1)),
	}

	labels := Labels(tasks)
	assert.Equal(t, task.LabelCurrent, labels["hot"])
}

func TestLabels_DeadlineBreaksPriorityTies(t *testing.T) {
	tasks := []task.Task{
		mk("d4", task.AreaHome, task.PriorityHigh, day(4)),
		mk("d2", task.AreaHome, task.PriorityHigh, day(2)),
		mk("d1", task.AreaHome, task.PriorityHigh, day(1)),
		mk("d3", task.AreaHome, task.PriorityHigh, day(3)),
	}

	labels := Labels(tasks)
	assert.Equal(t, task.LabelCurrent, labels["d1"])
	assert.Equal(t, task.LabelCurrent, labels["d2"])
	assert.Equal(t, task.LabelCurrent, labels["d3"])
	assert.Equal(t, task.LabelPending, labels["d4"])
}

func TestLabels_CompletedAlwaysDone(t *testing.T) {
	tasks := []task.Task{
		done(mk("a", task.AreaSelf, task.PriorityHigh, day(0))),
		mk("b", task.AreaSelf, task.PriorityLow, day(1)),
		done(mk("c", task.AreaWork, task.PriorityLow, "")),
	}

	labels := Labels(tasks)
	assert.Equal(t, task.LabelDone, labels["a"])
	assert.Equal(t, task.LabelCurrent, labels["b"])
	assert.Equal(t, task.LabelDone, labels["c"])
}

func TestLabels_AtMostLimitCurrentPerArea(t *testing.T) {
	var tasks []task.Task
	for i := range 10 {
		area := task.Areas()[i%3]
		tasks = append(tasks, mk(fmt.Sprintf("t%d", i), area, task.PriorityMedium, day(i)))
	}

	for _, limit := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			labels := New(limit).Labels(tasks)
			current := map[task.Area]int{}
			for _, tk := range tasks {
				if labels[tk.ID] == task.LabelCurrent {
					current[tk.Area]++
				}
			}
			for _, a := range task.Areas() {
				assert.LessOrEqual(t, current[a], limit)
			}
		})
	}
}

func TestLabels_MissingDeadlineSinks(t *testing.T) {
	tasks := []task.Task{
		mk("none", task.AreaWork, task.PriorityHigh, ""),
		mk("bad", task.AreaWork, task.PriorityHigh, "soon"),
		mk("a", task.AreaWork, task.PriorityHigh, day(30)),
		mk("b", task.AreaWork, task.PriorityHigh, day(20)),
		mk("c", task.AreaWork, task.PriorityHigh, day(10)),
	}

	labels := Labels(tasks)
	assert.Equal(t, task.LabelPending, labels["none"])
	assert.Equal(t, task.LabelPending, labels["bad"])

	view := Classify(tasks, ViewState{Mode: ModePending}, now)
	// missing deadlines keep input order among themselves
	assert.Equal(t, []string{"none", "bad"}, ids(view.Visible))

	sorted := append([]task.Task(nil), tasks...)
	Sort(sorted, time.UTC)
	got := make([]string, len(sorted))
	for i, tk := range sorted {
		got[i] = tk.ID
	}
	assert.Equal(t, []string{"c", "b", "a", "none", "bad"}, got)
}

func TestClassify_ModeSelection(t *testing.T) {
	tasks := []task.Task{
		mk("h1", task.AreaHome, task.PriorityHigh, day(1)),
		mk("h2", task.AreaHome, task.PriorityHigh, day(2)),
		mk("h3", task.AreaHome, task.PriorityHigh, day(3)),
		mk("h4", task.AreaHome, task.PriorityHigh, day(4)),
		done(mk("h5", task.AreaHome, task.PriorityLow, day(1))),
		mk("w1", task.AreaWork, task.PriorityLow, day(1)),
	}

	tests := []struct {
		mode Mode
		want []string
	}{
		{ModeCurrent, []string{"h1", "h2", "h3", "w1"}},
		{ModePending, []string{"h4"}},
		{ModeDone, []string{"h5"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			view := Classify(tasks, ViewState{Mode: tt.mode}, now)
			assert.Equal(t, tt.want, ids(view.Visible))
		})
	}
}

func TestClassify_SortsByPriorityThenDeadline(t *testing.T) {
	tasks := []task.Task{
		mk("low-soon", task.AreaHome, task.PriorityLow, day(1)),
		mk("high-late", task.AreaWork, task.PriorityHigh, day(9)),
		mk("high-soon", task.AreaSelf, task.PriorityHigh, day(2)),
		mk("med", task.AreaHome, task.PriorityMedium, day(0)),
	}

	view := Classify(tasks, DefaultViewState(), now)
	assert.Equal(t, []string{"high-soon", "high-late", "med", "low-soon"}, ids(view.Visible))
}

func TestClassify_EmptyAreasPresent(t *testing.T) {
	view := Classify([]task.Task{mk("w", task.AreaWork, task.PriorityLow, day(1))}, DefaultViewState(), now)

	require.Len(t, view.ByArea, 3)
	assert.Empty(t, view.ByArea[task.AreaHome])
	assert.NotNil(t, view.ByArea[task.AreaHome])
	assert.Len(t, view.ByArea[task.AreaWork], 1)
	assert.Empty(t, view.ByArea[task.AreaSelf])

	empty := Classify(nil, DefaultViewState(), now)
	assert.Len(t, empty.ByArea, 3)
	assert.Empty(t, empty.Visible)
}

func TestClassify_Search(t *testing.T) {
	a := mk("a", task.AreaHome, task.PriorityLow, day(1))
	a.Title = "Buy MILK"
	b := mk("b", task.AreaWork, task.PriorityLow, day(1))
	b.Description = "ask about the milk budget"
	c := mk("c", task.AreaSelf, task.PriorityLow, day(1))
	d := mk("d", task.AreaWork, task.PriorityLow, day(1))
	d.Title = "Standup"
	tasks := []task.Task{a, b, c, d}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"a", "b", "c", "d"}},
		{"milk", []string{"a", "b"}},
		{" Milk", []string{"a", "b"}},
		{"  Milk ", []string{}},
		{" ", []string{"a", "b", "c"}},
		{"self", []string{"c"}},
		{"nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			view := Classify(tasks, ViewState{Mode: ModeCurrent, Query: tt.query}, now)
			assert.ElementsMatch(t, tt.want, ids(view.Visible))
		})
	}
}

func TestClassify_Filters(t *testing.T) {
	high := mk("high", task.AreaHome, task.PriorityHigh, day(5))
	overdue := mk("overdue", task.AreaWork, task.PriorityLow, day(-2))
	today := mk("today", task.AreaSelf, task.PriorityLow, day(0))
	plain := mk("plain", task.AreaSelf, task.PriorityMedium, day(3))
	overdueDone := done(mk("overdue-done", task.AreaWork, task.PriorityLow, day(-3)))
	tasks := []task.Task{high, overdue, today, plain, overdueDone}

	tests := []struct {
		name    string
		mode    Mode
		filters []Filter
		want    []string
	}{
		{"all", ModeCurrent, []Filter{FilterAll}, []string{"high", "overdue", "today", "plain"}},
		{"empty means all", ModeCurrent, nil, []string{"high", "overdue", "today", "plain"}},
		{"high", ModeCurrent, []Filter{FilterHigh}, []string{"high"}},
		// a date-only deadline is midnight, so "today" is already past at 14:00
		{"overdue", ModeCurrent, []Filter{FilterOverdue}, []string{"overdue", "today"}},
		{"today", ModeCurrent, []Filter{FilterToday}, []string{"today"}},
		{"high or today", ModeCurrent, []Filter{FilterHigh, FilterToday}, []string{"high", "today"}},
		{"all wins only alone", ModeCurrent, []Filter{FilterAll, FilterHigh}, []string{"high"}},
		{"completed is never overdue", ModeDone, []Filter{FilterOverdue}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Classify(tasks, ViewState{Mode: tt.mode, Filters: tt.filters}, now)
			assert.ElementsMatch(t, tt.want, ids(view.Visible))
		})
	}
}

func TestClassify_CurrentModeTruncatesGroups(t *testing.T) {
	var tasks []task.Task
	for i := range 5 {
		tasks = append(tasks, mk(fmt.Sprintf("w%d", i), task.AreaWork, task.PriorityHigh, day(i)))
	}

	view := New(2).Classify(tasks, ViewState{Mode: ModeCurrent}, now)
	assert.Equal(t, []string{"w0", "w1"}, ids(view.ByArea[task.AreaWork]))

	pending := New(2).Classify(tasks, ViewState{Mode: ModePending}, now)
	assert.Equal(t, []string{"w2", "w3", "w4"}, ids(pending.ByArea[task.AreaWork]))
}

func TestClassify_PureAndDeterministic(t *testing.T) {
	tasks := []task.Task{
		mk("a", task.AreaHome, task.PriorityHigh, day(1)),
		mk("b", task.AreaHome, task.PriorityHigh, day(1)),
		mk("c", task.AreaHome, task.PriorityHigh, day(1)),
		mk("d", task.AreaHome, task.PriorityHigh, day(1)),
		done(mk("e", task.AreaWork, task.PriorityLow, day(2))),
	}
	before := task.CloneAll(tasks)
	state := ViewState{Mode: ModeCurrent, Selection: []string{"a", "d"}}

	first := Classify(tasks, state, now)
	second := Classify(tasks, state, now)

	assert.Equal(t, first, second)
	assert.Equal(t, before, tasks, "input must not be mutated")
	assert.Equal(t, []string{"a", "b", "c"}, ids(first.Visible), "equal keys fall back to input order")

	first.Visible[0].Title = "changed"
	assert.Equal(t, "Task a", tasks[0].Title)
}

func TestClassify_SelectionPrunedToVisible(t *testing.T) {
	tasks := []task.Task{
		mk("a", task.AreaHome, task.PriorityHigh, day(1)),
		done(mk("b", task.AreaHome, task.PriorityHigh, day(1))),
	}

	view := Classify(tasks, ViewState{Mode: ModeCurrent, Selection: []string{"b", "a", "a", "gone"}}, now)
	assert.Equal(t, []string{"a"}, view.Selection)
}

func TestToggleFilter(t *testing.T) {
	active := []Filter{FilterAll}

	active = ToggleFilter(active, FilterHigh)
	assert.Equal(t, []Filter{FilterHigh}, active)

	active = ToggleFilter(active, FilterToday)
	assert.Equal(t, []Filter{FilterHigh, FilterToday}, active)

	active = ToggleFilter(active, FilterHigh)
	assert.Equal(t, []Filter{FilterToday}, active)

	active = ToggleFilter(active, FilterToday)
	assert.Equal(t, []Filter{FilterAll}, active)

	active = ToggleFilter([]Filter{FilterHigh, FilterOverdue}, FilterAll)
	assert.Equal(t, []Filter{FilterAll}, active)
}

func TestParseFilters(t *testing.T) {
	got, err := ParseFilters([]string{"Today", "high", "high"})
	require.NoError(t, err)
	assert.Equal(t, []Filter{FilterHigh, FilterToday}, got)

	_, err = ParseFilters([]string{"urgent"})
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	tasks := []task.Task{
		mk("h1", task.AreaHome, task.PriorityHigh, day(-1)),
		mk("h2", task.AreaHome, task.PriorityHigh, day(1)),
		mk("h3", task.AreaHome, task.PriorityHigh, day(2)),
		mk("h4", task.AreaHome, task.PriorityHigh, day(3)),
		done(mk("w1", task.AreaWork, task.PriorityLow, day(-5))),
	}

	got := New(3).Count(tasks, now)
	assert.Equal(t, Counts{Active: 4, Completed: 1, Current: 3, Pending: 1, Overdue: 1}, got)
}
