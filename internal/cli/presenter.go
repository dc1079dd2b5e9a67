package cli

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/agbru/compmgr/internal/catalog"
	"github.com/agbru/compmgr/internal/format"
	"github.com/agbru/compmgr/internal/metrics"
	"github.com/agbru/compmgr/internal/orchestration"
	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/ui"
)

// CLIResultPresenter implements orchestration.ResultPresenter for the REPL.
// Abnormal terminations go to ErrOut when it is set.
type CLIResultPresenter struct {
	ErrOut io.Writer
}

var _ orchestration.ResultPresenter = CLIResultPresenter{}

// PresentStatuses writes one line per task. Canceled tasks are skipped;
// the cancellation handler reports them.
func (p CLIResultPresenter) PresentStatuses(statuses []registry.Status, out io.Writer) {
	if len(statuses) == 0 {
		fmt.Fprintln(out, "No components in the group.")
		return
	}
	for _, st := range statuses {
		if st.State == registry.StateCanceled {
			continue
		}
		w := out
		if st.State == registry.StateAbnormal && p.ErrOut != nil {
			w = p.ErrOut
		}
		fmt.Fprintln(w, FormatStatus(st))
	}
}

// FormatStatus renders a single status line.
func FormatStatus(st registry.Status) string {
	name := ui.Paint(ui.ColorPrimary(), st.Name)
	switch st.State {
	case registry.StateRunning:
		return fmt.Sprintf("Component %s running (PID: %d)", name, st.PID)
	case registry.StateFinished:
		return fmt.Sprintf("Component %s finished: %s = %s %s",
			name, describeCall(st.Result),
			ui.Paint(ui.ColorSuccess(), format.FormatValue(st.Result.Value)),
			ui.Paint(ui.ColorSecondary(), "["+format.FormatExecutionDuration(st.Result.Elapsed)+"]"))
	case registry.StateAbnormal:
		return ui.Paint(ui.ColorError(), fmt.Sprintf("Component %s failed (PID: %d): %s", st.Name, st.PID, st.Result.Status))
	case registry.StateAlreadyFinished:
		return fmt.Sprintf("Component %s already finished (%s)", name, describeOutcome(st.Result))
	default:
		return fmt.Sprintf("Component %s unknown", name)
	}
}

// PresentSummary writes the collected results as a table.
func (CLIResultPresenter) PresentSummary(group orchestration.Group, results iter.Seq2[string, registry.Result], out io.Writer) {
	type row struct{ name, call, outcome, elapsed string }
	rows := []row{}
	var elapsed []time.Duration
	headers := row{"Component", "Call", "Result", "Time"}
	widths := [4]int{len(headers.name), len(headers.call), len(headers.outcome), len(headers.elapsed)}
	for name, res := range results {
		r := row{name, describeCall(res), describeOutcome(res), format.FormatExecutionDuration(res.Elapsed)}
		for i, cell := range []string{r.name, r.call, r.outcome, r.elapsed} {
			widths[i] = max(widths[i], len(cell))
		}
		rows = append(rows, r)
		if res.OK {
			elapsed = append(elapsed, res.Elapsed)
		}
	}

	fmt.Fprintf(out, "%sSummary of group %s%s %s\n", ui.ColorBold(), group.Name, ui.ColorReset(),
		ui.Paint(ui.ColorSecondary(), "("+group.ID.String()+")"))
	if len(rows) == 0 {
		fmt.Fprintln(out, "  No results collected yet.")
		return
	}
	fmt.Fprintf(out, "  %s  %s  %s  %s\n",
		padRight(headers.name, widths[0]), padRight(headers.call, widths[1]),
		padRight(headers.outcome, widths[2]), headers.elapsed)
	for _, r := range rows {
		outcome := padRight(r.outcome, widths[2])
		if strings.HasPrefix(r.outcome, "failed") {
			outcome = ui.Paint(ui.ColorError(), outcome)
		} else {
			outcome = ui.Paint(ui.ColorSuccess(), outcome)
		}
		fmt.Fprintf(out, "  %s  %s  %s  %s\n",
			ui.Paint(ui.ColorPrimary(), padRight(r.name, widths[0])),
			padRight(r.call, widths[1]), outcome, r.elapsed)
	}
	if len(elapsed) > 0 {
		fmt.Fprintln(out, ui.Paint(ui.ColorSecondary(), formatLatency(metrics.SummarizeLatency(elapsed))))
	}
}

// formatLatency renders the wall-time distribution of finished tasks.
func formatLatency(s metrics.LatencyStats) string {
	return fmt.Sprintf("  Latency over %d finished: min %s  p50 %s  p95 %s  max %s",
		s.Count,
		format.FormatExecutionDuration(s.Min),
		format.FormatExecutionDuration(s.P50),
		format.FormatExecutionDuration(s.P95),
		format.FormatExecutionDuration(s.Max))
}

// PresentKilled reports workers terminated by clear.
func PresentKilled(killed []registry.Killed, out io.Writer) {
	for _, k := range killed {
		fmt.Fprintf(out, "Terminated component: %s (PID: %d)\n", k.Name, k.PID)
	}
}

// PresentCatalog lists the available functions.
func PresentCatalog(out io.Writer) {
	fmt.Fprintf(out, "%sFunctions:%s\n", ui.ColorBold(), ui.ColorReset())
	for _, f := range catalog.All() {
		fmt.Fprintf(out, "  %s  %s  %s\n",
			ui.Paint(ui.ColorWarning(), f.Name),
			padRight(f.Formula, 12),
			ui.Paint(ui.ColorSecondary(), "aliases: "+strings.Join(f.Aliases, ", ")))
	}
}

func describeCall(res registry.Result) string {
	return format.FormatCall(res.Spec.Function, res.Spec.Arg)
}

func describeOutcome(res registry.Result) string {
	if !res.OK {
		return "failed: " + res.Status
	}
	return format.FormatValue(res.Value)
}

// padRight pads s with spaces to length runes.
func padRight(s string, length int) string {
	n := length - len([]rune(s))
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}

// spinnerProgress drives the run spinner from RunAll notifications.
type spinnerProgress struct {
	spinner Spinner
}

var _ orchestration.ProgressReporter = spinnerProgress{}

func (p spinnerProgress) TaskCollected(st registry.Status, done, total int) {
	p.spinner.UpdateSuffix(fmt.Sprintf(" collected %s (%d/%d)", st.Name, done, total))
}
