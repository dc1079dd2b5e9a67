// Package orchestration implements the single-group task orchestrator. It
// creates the group, dispatches one worker per task, reconciles finished
// workers without blocking and tears everything down on clear. It decouples
// the command layer from presentation via ProgressReporter and
// ResultPresenter.
package orchestration
