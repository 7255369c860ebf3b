package printer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tally/internal/core/classify"
	"github.com/colonyops/tally/internal/core/metrics"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/core/timer"
	"github.com/colonyops/tally/pkg/tuitest"
)

func TestPrinter_Context(t *testing.T) {
	var out, errOut bytes.Buffer
	p := New(&out, &errOut)
	ctx := NewContext(context.Background(), p)

	Ctx(ctx).Successf("Completed %d tasks", 2)
	Ctx(ctx).Println("board")

	assert.Contains(t, errOut.String(), "Completed 2 tasks")
	assert.Equal(t, "board\n", out.String())
	assert.NotNil(t, Ctx(context.Background()))
}

func TestBoard(t *testing.T) {
	now := time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
	tasks := []task.Task{
		{ID: "a1", Title: "Ship release", Area: task.AreaWork, Priority: task.PriorityHigh, Deadline: "2026-05-08"},
		{ID: "b2", Title: "Water plants", Area: task.AreaHome, Priority: task.PriorityLow, Deadline: "2026-05-10"},
	}
	view := classify.Classify(tasks, classify.DefaultViewState(), now)

	out := tuitest.StripANSI(Board(view, classify.ModeCurrent, map[string]time.Duration{"a1": 90 * time.Second}, now))

	assert.Contains(t, out, "Current tasks (2)")
	assert.Contains(t, out, "Ship release")
	assert.Contains(t, out, "2 days overdue")
	assert.Contains(t, out, "Due today")
	assert.Contains(t, out, "1m 30s")
	assert.Contains(t, out, "nothing here", "empty areas still render")
}

func TestDashboard(t *testing.T) {
	out := tuitest.StripANSI(Dashboard(metrics.Summary{
		Active:            3,
		Completed:         1,
		AverageTurnaround: "2 hours",
		CompletionRate:    25,
		OnTimeRate:        100,
		TimeTracked:       "25m",
	}))

	for _, want := range []string{"Active", "Avg TAT", "2 hours", "25%", "100%", "25m"} {
		assert.Contains(t, out, want)
	}
}

func TestTaskCard(t *testing.T) {
	now := time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
	tk := task.Task{
		ID:          "a1",
		Title:       "Ship release",
		Description: "Run the **checklist** first",
		Area:        task.AreaWork,
		Priority:    task.PriorityHigh,
		Deadline:    "2026-05-12",
	}

	out, err := TaskCard(tk, task.LabelCurrent, 0, now, 60)
	require.NoError(t, err)
	out = tuitest.StripANSI(out)

	assert.Contains(t, out, "Ship release")
	assert.Contains(t, out, "Current")
	assert.Contains(t, out, "checklist")
	assert.NotContains(t, out, "**")
}

func TestTimerStatus(t *testing.T) {
	assert.Contains(t, tuitest.StripANSI(TimerStatus(timer.Status{State: timer.StateIdle}, "")), "No timer running")

	running := timer.Status{State: timer.StateRunning, TaskID: "a1", Remaining: 12*time.Minute + 5*time.Second}
	assert.Contains(t, tuitest.StripANSI(TimerStatus(running, "Ship release")), "Ship release  12:05 left")
}
