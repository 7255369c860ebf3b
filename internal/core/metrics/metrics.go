// Package metrics computes turnaround, completion, and time-tracking figures
// from task timestamps and the time-spent ledger. All functions are pure.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/colonyops/tally/internal/core/task"
)

const day = 24 * time.Hour

// NotApplicable is shown when an aggregate has no qualifying input.
const NotApplicable = "N/A"

// Turnaround returns completedAt - createdAt. ok is false for incomplete
// tasks and for completed tasks missing a completion time. Negative spans
// caused by clock skew are clamped to zero.
func Turnaround(t task.Task) (time.Duration, bool) {
	if !t.Completed || t.CompletedAt == nil {
		return 0, false
	}
	return max(t.CompletedAt.Sub(t.CreatedAt), 0), true
}

// FormatTurnaround collapses d to its coarsest unit. A unit is used once the
// span exceeds one of it, counting partial units upward.
func FormatTurnaround(d time.Duration) string {
	switch {
	case ceilUnits(d, day) > 1:
		return fmt.Sprintf("%d days", ceilUnits(d, day))
	case ceilUnits(d, time.Hour) > 1:
		return fmt.Sprintf("%d hours", ceilUnits(d, time.Hour))
	case ceilUnits(d, time.Minute) > 1:
		return fmt.Sprintf("%d minutes", ceilUnits(d, time.Minute))
	default:
		return "Just now"
	}
}

// TurnaroundText is the formatted turnaround of t, or NotApplicable.
func TurnaroundText(t task.Task) string {
	d, ok := Turnaround(t)
	if !ok {
		return NotApplicable
	}
	return FormatTurnaround(d)
}

// AverageTurnaround is the mean turnaround of every completed task that has
// a completion time. Minute detail is dropped at this level.
func AverageTurnaround(tasks []task.Task) string {
	var (
		total time.Duration
		n     int
	)
	for _, t := range tasks {
		if d, ok := Turnaround(t); ok {
			total += d
			n++
		}
	}
	if n == 0 {
		return NotApplicable
	}

	avg := total / time.Duration(n)
	switch {
	case ceilUnits(avg, day) > 1:
		return fmt.Sprintf("%d days", ceilUnits(avg, day))
	case ceilUnits(avg, time.Hour) > 1:
		return fmt.Sprintf("%d hours", ceilUnits(avg, time.Hour))
	default:
		return "Less than 1 hour"
	}
}

// CompletionRate is the percentage of completed tasks, rounded to the
// nearest integer. An empty set is 0.
func CompletionRate(tasks []task.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return percent(done, len(tasks))
}

// OnTimeRate is the percentage of completed tasks finished on or before
// their deadline. Only tasks with a completion time are counted. With no
// such tasks the rate is 100. Deadlines are resolved in loc; a task whose
// deadline cannot be parsed is counted as late.
func OnTimeRate(tasks []task.Task, loc *time.Location) int {
	var completed, onTime int
	for _, t := range tasks {
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		completed++
		deadline, ok := t.DeadlineIn(loc)
		if ok && !t.CompletedAt.After(deadline) {
			onTime++
		}
	}
	if completed == 0 {
		return 100
	}
	return percent(onTime, completed)
}

// TotalTimeTracked sums the ledger and formats it with FormatElapsed. An
// empty ledger reads "0m".
func TotalTimeTracked(ledger map[string]time.Duration) string {
	if len(ledger) == 0 {
		return "0m"
	}
	var total time.Duration
	for _, d := range ledger {
		total += max(d, 0)
	}
	return FormatElapsed(total)
}

// FormatElapsed renders tracked time as "1h 5m", "3m 20s", or "45s".
func FormatElapsed(d time.Duration) string {
	seconds := int64(max(d, 0) / time.Second)
	minutes := seconds / 60
	hours := minutes / 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// DaysUntilDeadline describes how far away the deadline is relative to now,
// counting partial days upward. The empty string is returned when the task
// has no usable deadline.
func DaysUntilDeadline(t task.Task, now time.Time) string {
	deadline, ok := t.DeadlineIn(now.Location())
	if !ok {
		return ""
	}
	days := int(math.Ceil(float64(deadline.Sub(now)) / float64(day)))

	switch {
	case days < 0:
		return fmt.Sprintf("%d days overdue", -days)
	case days == 0:
		return "Due today"
	case days == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

func ceilUnits(d, unit time.Duration) int64 {
	return int64(math.Ceil(float64(d) / float64(unit)))
}

func percent(n, total int) int {
	return int(math.Round(float64(n) / float64(total) * 100))
}
