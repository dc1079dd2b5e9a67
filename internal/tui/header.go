package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/compmgr/internal/format"
	"github.com/agbru/compmgr/internal/orchestration"
	"github.com/agbru/compmgr/internal/sysmon"
)

const historyLen = 20

// HeaderModel renders the top bar: title, group, elapsed time, live count
// and host usage.
type HeaderModel struct {
	group   orchestration.Group
	version string
	now     time.Time
	running int
	total   int
	cpu     *History
	mem     *History
	width   int
}

// NewHeaderModel creates a new header for group.
func NewHeaderModel(group orchestration.Group, version string) HeaderModel {
	return HeaderModel{
		group:   group,
		version: version,
		now:     group.Created,
		cpu:     NewHistory(historyLen),
		mem:     NewHistory(historyLen),
	}
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) {
	h.width = w
}

// SetCounts records the running and total component counts.
func (h *HeaderModel) SetCounts(running, total int) {
	h.running = running
	h.total = total
}

// Tick advances the elapsed clock.
func (h *HeaderModel) Tick(now time.Time) {
	h.now = now
}

// AddSample appends host usage to the sparklines.
func (h *HeaderModel) AddSample(s sysmon.Stats) {
	h.cpu.Add(s.CPUPercent)
	h.mem.Add(s.MemPercent)
}

// View renders the header.
func (h HeaderModel) View() string {
	titleText := "compmgr watch"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	pipe := dimStyle.Render(" | ")

	left := titleStyle.Render(titleText) + pipe +
		accentStyle.Render(h.group.Name) + " " + dimStyle.Render(shortID(h.group)) + pipe +
		fmt.Sprintf("Elapsed: %s", accentStyle.Render(format.FormatElapsed(h.elapsed()))) + pipe +
		fmt.Sprintf("Running: %s", accentStyle.Render(fmt.Sprintf("%d/%d", h.running, h.total)))

	right := fmt.Sprintf("CPU %s %5.1f%%  MEM %s %5.1f%%",
		cpuSparklineStyle.Render(RenderSparkline(h.cpu.Values())), h.cpu.Last(),
		memSparklineStyle.Render(RenderSparkline(h.mem.Values())), h.mem.Last())

	innerWidth := max(h.width-2, 0)
	gap := innerWidth - lipgloss.Width(left) - lipgloss.Width(right)
	row := left
	if gap > 0 {
		row += spaces(gap) + right
	} else if innerWidth == 0 {
		row += pipe + right
	}

	style := headerStyle
	if h.width > 0 {
		style = style.Width(h.width)
	}
	return style.Render(row)
}

func (h HeaderModel) elapsed() time.Duration {
	if h.group.Created.IsZero() || h.now.Before(h.group.Created) {
		return 0
	}
	return h.now.Sub(h.group.Created)
}

// shortID returns the first block of the group UUID.
func shortID(g orchestration.Group) string {
	id := g.ID.String()
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// spaces returns a string of n space characters.
func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
