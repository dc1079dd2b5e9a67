package orchestration

import (
	"io"
	"iter"

	"github.com/agbru/compmgr/internal/registry"
)

// ProgressReporter is notified each time RunAll reconciles a task.
//
// Parameters:
//   - st: The status reported for the task.
//   - done: How many tasks have been reconciled so far, including st.
//   - total: The number of tasks RunAll is processing.
type ProgressReporter interface {
	TaskCollected(st registry.Status, done, total int)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(st registry.Status, done, total int)

// TaskCollected calls the underlying function.
func (f ProgressReporterFunc) TaskCollected(st registry.Status, done, total int) {
	f(st, done, total)
}

// NullProgressReporter discards progress notifications.
type NullProgressReporter struct{}

// TaskCollected does nothing.
func (NullProgressReporter) TaskCollected(registry.Status, int, int) {}

// ResultPresenter renders orchestrator output. Implementations live in the
// command layer.
type ResultPresenter interface {
	// PresentStatuses writes one line per task status.
	PresentStatuses(statuses []registry.Status, out io.Writer)

	// PresentSummary writes the collected results of the group.
	PresentSummary(group Group, results iter.Seq2[string, registry.Result], out io.Writer)
}
