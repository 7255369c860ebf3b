// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/tally/internal/core/task"
)

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	HeaderStyle  lipgloss.Style
	AreaStyle    lipgloss.Style
	DividerStyle lipgloss.Style
	MutedStyle   lipgloss.Style
	IDStyle      lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style

	// Task row styles.
	PriorityHighStyle   lipgloss.Style
	PriorityMediumStyle lipgloss.Style
	PriorityLowStyle    lipgloss.Style
	LabelCurrentStyle   lipgloss.Style
	LabelPendingStyle   lipgloss.Style
	LabelDoneStyle      lipgloss.Style
	OverdueStyle        lipgloss.Style
	DueTodayStyle       lipgloss.Style
	DueLaterStyle       lipgloss.Style

	// Dashboard and timer.
	StatBoxStyle    lipgloss.Style
	StatNumberStyle lipgloss.Style
	StatLabelStyle  lipgloss.Style
	TimerStyle      lipgloss.Style
	TimerIdleStyle  lipgloss.Style
	HelpStyle       lipgloss.Style
)

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	AreaStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true).
		Underline(true)
	DividerStyle = lipgloss.NewStyle().Foreground(p.Muted)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)
	IDStyle = lipgloss.NewStyle().Foreground(p.Muted)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)

	PriorityHighStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	PriorityMediumStyle = lipgloss.NewStyle().Foreground(p.Warning)
	PriorityLowStyle = lipgloss.NewStyle().Foreground(p.Success)

	LabelCurrentStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Primary).
		Padding(0, 1)
	LabelPendingStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Background(p.Surface).
		Padding(0, 1)
	LabelDoneStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Success).
		Padding(0, 1)

	OverdueStyle = lipgloss.NewStyle().Foreground(p.Error)
	DueTodayStyle = lipgloss.NewStyle().Foreground(p.Warning)
	DueLaterStyle = lipgloss.NewStyle().Foreground(p.Success)

	StatBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Padding(0, 2).
		Align(lipgloss.Center)
	StatNumberStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	StatLabelStyle = lipgloss.NewStyle().Foreground(p.Muted)

	TimerStyle = lipgloss.NewStyle().
		Foreground(p.Warning).
		Bold(true)
	TimerIdleStyle = lipgloss.NewStyle().Foreground(p.Muted)
	HelpStyle = lipgloss.NewStyle().Foreground(p.Muted).MarginTop(1)
}

// PriorityStyle returns the style for a priority.
func PriorityStyle(p task.Priority) lipgloss.Style {
	switch p {
	case task.PriorityHigh:
		return PriorityHighStyle
	case task.PriorityMedium:
		return PriorityMediumStyle
	default:
		return PriorityLowStyle
	}
}

// LabelStyle returns the badge style for a label.
func LabelStyle(l task.Label) lipgloss.Style {
	switch l {
	case task.LabelCurrent:
		return LabelCurrentStyle
	case task.LabelDone:
		return LabelDoneStyle
	default:
		return LabelPendingStyle
	}
}

func init() {
	SetTheme(themes[DefaultTheme])
}
