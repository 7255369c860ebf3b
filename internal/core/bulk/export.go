package bulk

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/colonyops/tally/internal/core/classify"
	"github.com/colonyops/tally/internal/core/metrics"
	"github.com/colonyops/tally/internal/core/task"
)

// Header is the column set of a selection export.
var Header = []string{
	"ID", "Title", "Description", "Area", "Priority", "Deadline",
	"Status", "Completed", "Created At", "TAT",
}

// FullHeader is the column set of a whole-collection export.
var FullHeader = []string{
	"ID", "Title", "Description", "Area", "Priority", "Deadline",
	"Status", "Completed", "Created At", "Completed At", "TAT", "Days Until Deadline",
}

// ExportRows builds the header plus one row per selected task. Rows follow
// the collection order; ids that are not in tasks are skipped. Status is
// derived from the whole collection so current/pending match the board.
func ExportRows(c classify.Classifier, tasks []task.Task, ids []string, now time.Time) [][]string {
	labels := c.LabelsIn(tasks, now.Location())

	rows := [][]string{slices.Clone(Header)}
	for i, t := range tasks {
		if !slices.Contains(ids, t.ID) {
			continue
		}
		rows = append(rows, []string{
			t.ID,
			t.Title,
			t.Description,
			string(t.Area),
			string(t.Priority),
			t.Deadline,
			labels[i].Title(),
			yesNo(t.Completed),
			formatDate(t.CreatedAt, now.Location()),
			metrics.TurnaroundText(t),
		})
	}
	return rows
}

// ExportAll builds the full export of every task, including completion date
// and deadline distance.
func ExportAll(c classify.Classifier, tasks []task.Task, now time.Time) [][]string {
	labels := c.LabelsIn(tasks, now.Location())

	rows := [][]string{slices.Clone(FullHeader)}
	for i, t := range tasks {
		completedAt := metrics.NotApplicable
		if t.Completed && t.CompletedAt != nil {
			completedAt = formatDate(*t.CompletedAt, now.Location())
		}
		daysUntil := metrics.NotApplicable
		if !t.Completed {
			daysUntil = metrics.DaysUntilDeadline(t, now)
		}

		rows = append(rows, []string{
			t.ID,
			t.Title,
			t.Description,
			string(t.Area),
			string(t.Priority),
			t.Deadline,
			labels[i].Title(),
			yesNo(t.Completed),
			formatDate(t.CreatedAt, now.Location()),
			completedAt,
			metrics.TurnaroundText(t),
			daysUntil,
		})
	}
	return rows
}

// WriteCSV writes rows as RFC 4180 CSV. Fields containing commas, quotes,
// or newlines are quoted.
func WriteCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ReadCSV parses rows written by WriteCSV.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return rows, nil
}

// ExportFilename is the suggested file name for an export taken at now.
func ExportFilename(prefix, owner string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s.csv", prefix, owner, now.UTC().Format(task.DateLayout))
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(task.DateLayout)
}
