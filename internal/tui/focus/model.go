// Package focus renders a full-screen countdown for the running focus
// session.
package focus

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/tally/internal/core/styles"
	"github.com/colonyops/tally/internal/core/timer"
)

const (
	defaultInterval = time.Second
	maxBarWidth     = 60
	barPadding      = 4
)

// Timer is the part of the timer service the view drives.
type Timer interface {
	Tick() (timer.Record, bool)
	Status() timer.Status
	Stop(taskID string) (timer.Record, error)
}

type tickMsg time.Time

type keyMap struct {
	Stop key.Binding
	Quit key.Binding
}

var keys = keyMap{
	Stop: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop session")),
	Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "leave running")),
}

// Model is the bubbletea model for the focus view. Leaving with q keeps the
// session running; s stops it and credits the elapsed time.
type Model struct {
	timer    Timer
	title    string
	interval time.Duration
	bar      progress.Model
	status   timer.Status

	finished *timer.Record
	stopped  bool
	err      error
}

// New creates a focus view for the running session titled title. An
// interval of zero ticks once per second.
func New(t Timer, title string, interval time.Duration) Model {
	if interval <= 0 {
		interval = defaultInterval
	}
	return Model{
		timer:    t,
		title:    title,
		interval: interval,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		status:   t.Status(),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.status.State != timer.StateRunning {
		return tea.Quit
	}
	return m.tick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(msg.Width-barPadding, maxBarWidth)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Stop):
			rec, err := m.timer.Stop(m.status.TaskID)
			if err != nil {
				m.err = err
				return m, tea.Quit
			}
			m.finished = &rec
			m.stopped = true
			m.status = m.timer.Status()
			return m, tea.Quit
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		}
		return m, nil

	case tickMsg:
		rec, ended := m.timer.Tick()
		m.status = m.timer.Status()
		if ended {
			m.finished = &rec
			return m, tea.Quit
		}
		if m.status.State != timer.StateRunning {
			return m, tea.Quit
		}
		return m, m.tick()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.TimerStyle.Render("🍅 " + m.title))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.ErrorStyle.Render(m.err.Error()))
	case m.finished != nil && m.stopped:
		fmt.Fprintf(&b, "Stopped after %s", clock(m.finished.Elapsed))
	case m.finished != nil:
		b.WriteString(styles.SuccessStyle.Render("Session complete"))
	default:
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(clock(m.status.Remaining)))
		b.WriteString(" left\n\n")
		b.WriteString(m.bar.ViewAs(m.Percent()))
		b.WriteString("\n\n")
		b.WriteString(styles.HelpStyle.Render(
			keys.Stop.Help().Key + " " + keys.Stop.Help().Desc + " • " +
				keys.Quit.Help().Key + " " + keys.Quit.Help().Desc))
	}

	b.WriteString("\n")
	return b.String()
}

// Percent is the share of the budget already spent, between 0 and 1.
func (m Model) Percent() float64 {
	if m.status.Budget <= 0 {
		return 0
	}
	p := float64(m.status.Elapsed) / float64(m.status.Budget)
	return max(0, min(p, 1))
}

// Finished returns the record of the session if it ended while the view was
// open, either by running out or by the user stopping it.
func (m Model) Finished() (timer.Record, bool) {
	if m.finished == nil {
		return timer.Record{}, false
	}
	return *m.finished, true
}

// Stopped reports whether the user stopped the session from the view.
func (m Model) Stopped() bool {
	return m.stopped
}

// Err returns the error that closed the view, if any.
func (m Model) Err() error {
	return m.err
}

// Run opens the focus view on the terminal and blocks until it closes.
func Run(t Timer, title string) (Model, error) {
	final, err := tea.NewProgram(New(t, title, 0), tea.WithAltScreen()).Run()
	if err != nil {
		return Model{}, fmt.Errorf("focus view: %w", err)
	}
	return final.(Model), nil
}

func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	return fmt.Sprintf("%02d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
