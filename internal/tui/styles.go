package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/ui"
)

// Style variables for the watch dashboard.
// Initialized from the ui theme system via initTUIStyles().
var (
	panelStyle         lipgloss.Style
	headerStyle        lipgloss.Style
	titleStyle         lipgloss.Style
	dimStyle           lipgloss.Style
	accentStyle        lipgloss.Style
	columnHeaderStyle  lipgloss.Style
	statusRunningStyle lipgloss.Style
	statusDoneStyle    lipgloss.Style
	statusErrorStyle   lipgloss.Style
	statusPausedStyle  lipgloss.Style
	cpuSparklineStyle  lipgloss.Style
	memSparklineStyle  lipgloss.Style
)

func init() {
	initTUIStyles()
}

// initTUIStyles rebuilds all TUI styles from the current ui theme.
// Called at package init and again from Run() after InitTheme has been invoked.
func initTUIStyles() {
	t := ui.GetCurrentTUITheme()

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Foreground(t.Text)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent)

	dimStyle = lipgloss.NewStyle().Foreground(t.Dim)
	accentStyle = lipgloss.NewStyle().Foreground(t.Accent)

	columnHeaderStyle = lipgloss.NewStyle().
		Foreground(t.Info).
		Bold(true)

	statusRunningStyle = lipgloss.NewStyle().Foreground(t.Warning)
	statusDoneStyle = lipgloss.NewStyle().Foreground(t.Success)
	statusErrorStyle = lipgloss.NewStyle().
		Foreground(t.Error).
		Bold(true)

	statusPausedStyle = lipgloss.NewStyle().
		Foreground(t.Warning).
		Bold(true)

	cpuSparklineStyle = lipgloss.NewStyle().Foreground(t.Accent)
	memSparklineStyle = lipgloss.NewStyle().Foreground(t.Warning)
}

// stateStyle picks the style for a task state.
func stateStyle(s registry.State) lipgloss.Style {
	switch s {
	case registry.StateRunning:
		return statusRunningStyle
	case registry.StateAbnormal:
		return statusErrorStyle
	case registry.StateFinished, registry.StateAlreadyFinished:
		return statusDoneStyle
	default:
		return dimStyle
	}
}
