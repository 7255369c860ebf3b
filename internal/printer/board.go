package printer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/tally/internal/core/classify"
	"github.com/colonyops/tally/internal/core/metrics"
	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/core/timer"
)

// Board renders a classified view grouped by area, one column per area.
func Board(view classify.View, mode classify.Mode, ledger map[string]time.Duration, now time.Time) string {
	columns := make([]string, 0, len(task.Areas()))
	for _, area := range task.Areas() {
		columns = append(columns, areaColumn(area, view.ByArea[area], ledger, now))
	}

	header := styles.HeaderStyle.Render(fmt.Sprintf("%s tasks (%d)", modeTitle(mode), len(view.Visible)))
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
	)
}

func modeTitle(mode classify.Mode) string {
	switch mode {
	case classify.ModePending:
		return "Pending"
	case classify.ModeDone:
		return "Completed"
	default:
		return "Current"
	}
}

func areaColumn(area task.Area, items []classify.Annotated, ledger map[string]time.Duration, now time.Time) string {
	var b strings.Builder
	b.WriteString(styles.AreaStyle.Render(fmt.Sprintf("%s %s", styles.AreaIcon(area), area)))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(styles.MutedStyle.Render("nothing here"))
	}
	for i, at := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(taskLine(at, ledger[at.ID], now))
	}

	return lipgloss.NewStyle().Width(40).PaddingRight(2).Render(b.String())
}

func taskLine(at classify.Annotated, spent time.Duration, now time.Time) string {
	title := at.Title
	if at.Completed {
		title = lipgloss.NewStyle().Strikethrough(true).Render(title)
	}

	line := fmt.Sprintf("%s %s %s",
		styles.IDStyle.Render(at.ID),
		styles.PriorityStyle(at.Priority).Render(string(at.Priority)),
		title,
	)

	meta := []string{deadlineText(at.Task, now)}
	if spent > 0 {
		meta = append(meta, styles.IconTimer+" "+metrics.FormatElapsed(spent))
	}
	return line + "\n  " + strings.Join(meta, "  ")
}

func deadlineText(t task.Task, now time.Time) string {
	if t.Completed {
		return styles.MutedStyle.Render(styles.IconDone + " " + metrics.TurnaroundText(t))
	}
	text := metrics.DaysUntilDeadline(t, now)
	if text == "" {
		return styles.MutedStyle.Render("no deadline")
	}
	switch {
	case classify.IsOverdue(t, now):
		return styles.OverdueStyle.Render(styles.IconOverdue + " " + text)
	case classify.IsDueToday(t, now):
		return styles.DueTodayStyle.Render(styles.IconDueToday + " " + text)
	default:
		return styles.DueLaterStyle.Render(text)
	}
}

// Dashboard renders the summary as a row of stat boxes.
func Dashboard(s metrics.Summary) string {
	stats := []struct {
		value string
		label string
	}{
		{fmt.Sprint(s.Active), "Active"},
		{fmt.Sprint(s.Completed), "Completed"},
		{fmt.Sprint(s.Pending), "Pending"},
		{fmt.Sprint(s.Overdue), "Overdue"},
		{s.AverageTurnaround, "Avg TAT"},
		{fmt.Sprintf("%d%%", s.CompletionRate), "Completion"},
		{s.TimeTracked, "Time Tracked"},
		{fmt.Sprintf("%d%%", s.OnTimeRate), "On Time"},
	}

	boxes := make([]string, len(stats))
	for i, st := range stats {
		boxes[i] = styles.StatBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
			styles.StatNumberStyle.Render(st.value),
			styles.StatLabelStyle.Render(st.label),
		))
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, boxes[:4]...)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, boxes[4:]...)
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom)
}

// TaskCard renders one task with its description as markdown.
func TaskCard(t task.Task, label task.Label, spent time.Duration, now time.Time, width int) (string, error) {
	var b strings.Builder
	b.WriteString(styles.HeaderStyle.Render(t.Title))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s  %s %s  %s  %s\n",
		styles.IDStyle.Render(t.ID),
		styles.AreaIcon(t.Area), t.Area,
		styles.PriorityStyle(t.Priority).Render(string(t.Priority)),
		styles.LabelStyle(label).Render(label.Title()),
	))
	b.WriteString(deadlineText(t, now))
	if spent > 0 {
		b.WriteString("  " + styles.IconTimer + " " + metrics.FormatElapsed(spent))
	}
	b.WriteString("\n")

	if strings.TrimSpace(t.Description) == "" {
		return b.String(), nil
	}

	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	desc, err := renderer.Render(t.Description)
	if err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	b.WriteString(desc)
	return b.String(), nil
}

// TimerStatus renders the controller state in one line.
func TimerStatus(st timer.Status, title string) string {
	if st.State == timer.StateIdle {
		return styles.TimerIdleStyle.Render("No timer running")
	}
	return styles.TimerStyle.Render(fmt.Sprintf("%s %s  %s left", styles.IconTimer, title, clock(st.Remaining)))
}

func clock(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
