package metrics

import (
	"time"

	"github.com/colonyops/tally/internal/core/classify"
	"github.com/colonyops/tally/internal/core/task"
)

// Summary is the set of dashboard figures for one task collection.
type Summary struct {
	Total             int    `json:"total"`
	Active            int    `json:"active"`
	Completed         int    `json:"completed"`
	Current           int    `json:"current"`
	Pending           int    `json:"pending"`
	Overdue           int    `json:"overdue"`
	AverageTurnaround string `json:"average_turnaround"`
	CompletionRate    int    `json:"completion_rate"`
	OnTimeRate        int    `json:"on_time_rate"`
	TimeTracked       string `json:"time_tracked"`
}

// Summarize computes every dashboard figure at once. The classifier decides
// the current/pending split.
func Summarize(c classify.Classifier, tasks []task.Task, ledger map[string]time.Duration, now time.Time) Summary {
	counts := c.Count(tasks, now)
	return Summary{
		Total:             len(tasks),
		Active:            counts.Active,
		Completed:         counts.Completed,
		Current:           counts.Current,
		Pending:           counts.Pending,
		Overdue:           counts.Overdue,
		AverageTurnaround: AverageTurnaround(tasks),
		CompletionRate:    CompletionRate(tasks),
		OnTimeRate:        OnTimeRate(tasks, now.Location()),
		TimeTracked:       TotalTimeTracked(ledger),
	}
}
