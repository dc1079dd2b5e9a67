package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/compmgr/internal/format"
	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/sysmon"
)

// taskRow is one line of the component table.
type taskRow struct {
	name    string
	state   registry.State
	pid     int
	call    string
	outcome string
	elapsed string
	cpu     string
	rss     string
}

// TableModel renders the components of the group, one per row, in the order
// the registry reports them.
type TableModel struct {
	rows   []taskRow
	width  int
	height int
}

// columns are the table headings, in display order.
var columns = [8]string{"Component", "State", "PID", "Call", "Result", "Time", "CPU", "RSS"}

// SetSize updates dimensions.
func (t *TableModel) SetSize(w, h int) {
	t.width = w
	t.height = h
}

// Update replaces the rows from the latest poll. Usage figures are only
// shown for workers that are still running.
func (t *TableModel) Update(statuses []registry.Status, procs map[int]sysmon.ProcStats) {
	rows := make([]taskRow, 0, len(statuses))
	for _, st := range statuses {
		r := taskRow{name: st.Name, state: st.State, pid: st.PID, cpu: "-", rss: "-", outcome: "-", elapsed: "-"}
		if st.Result.Spec.Function != 0 {
			r.call = format.FormatCall(st.Result.Spec.Function, st.Result.Spec.Arg)
		}
		switch st.State {
		case registry.StateRunning:
			if ps, ok := procs[st.PID]; ok {
				r.cpu = fmt.Sprintf("%.1f%%", ps.CPUPercent)
				r.rss = format.FormatBytes(ps.RSS)
			}
		case registry.StateFinished, registry.StateAlreadyFinished, registry.StateAbnormal:
			if st.Result.OK {
				r.outcome = format.FormatValue(st.Result.Value)
			} else {
				r.outcome = st.Result.Status
			}
			r.elapsed = format.FormatExecutionDuration(st.Result.Elapsed)
		}
		rows = append(rows, r)
	}
	t.rows = rows
}

// Counts returns how many rows are running and how many there are in total.
func (t TableModel) Counts() (running, total int) {
	for _, r := range t.rows {
		if r.state == registry.StateRunning {
			running++
		}
	}
	return running, len(t.rows)
}

// View renders the table inside a panel.
func (t TableModel) View() string {
	var b strings.Builder
	if len(t.rows) == 0 {
		b.WriteString(dimStyle.Render("  No components in the group."))
	} else {
		widths := t.columnWidths()
		b.WriteString(columnHeaderStyle.Render(renderCells(columns, widths, nil)))
		for _, r := range t.rows {
			style := stateStyle(r.state)
			line := renderCells(r.cells(), widths, &style)
			if r.state == registry.StateAbnormal {
				line = statusErrorStyle.Render(line)
			}
			b.WriteString("\n")
			b.WriteString(line)
		}
	}

	style := panelStyle
	if t.width > 2 {
		style = style.Width(t.width - 2)
	}
	if t.height > 2 {
		style = style.Height(t.height - 2)
	}
	return style.Render(b.String())
}

func (r taskRow) cells() [8]string {
	return [8]string{r.name, r.state.String(), fmt.Sprint(r.pid), r.call, r.outcome, r.elapsed, r.cpu, r.rss}
}

// columnWidths sizes every column to its widest cell.
func (t TableModel) columnWidths() [8]int {
	var w [8]int
	for i, h := range columns {
		w[i] = lipgloss.Width(h)
	}
	for _, r := range t.rows {
		for i, c := range r.cells() {
			w[i] = max(w[i], lipgloss.Width(c))
		}
	}
	return w
}

// renderCells joins padded cells. The state column gets stateStyle when set.
func renderCells(c [8]string, w [8]int, stateStyle *lipgloss.Style) string {
	cells := make([]string, len(c))
	for i := range c {
		if i == len(c)-1 {
			cells[i] = c[i]
			break
		}
		cells[i] = pad(c[i], w[i])
	}
	if stateStyle != nil {
		cells[1] = stateStyle.Render(cells[1])
	}
	return " " + strings.Join(cells, "  ")
}

// pad right-fills s to width visible cells.
func pad(s string, width int) string {
	if n := width - lipgloss.Width(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
