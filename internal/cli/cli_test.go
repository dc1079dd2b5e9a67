package cli

import (
	"io"
	"testing"

	"github.com/agbru/compmgr/internal/ui"
)

// useNoColor disables escape codes so tests can match plain text.
func useNoColor(t *testing.T) {
	t.Helper()
	orig := ui.GetCurrentTheme()
	ui.SetCurrentTheme(ui.NoColorTheme)
	t.Cleanup(func() { ui.SetCurrentTheme(orig) })
}

type nopSpinner struct{ suffixes []string }

func (*nopSpinner) Start()                       {}
func (*nopSpinner) Stop()                        {}
func (s *nopSpinner) UpdateSuffix(suffix string) { s.suffixes = append(s.suffixes, suffix) }

// stubSpinner replaces the terminal spinner for the duration of the test.
func stubSpinner(t *testing.T) *nopSpinner {
	t.Helper()
	s := &nopSpinner{}
	orig := newSpinner
	newSpinner = func(io.Writer) Spinner { return s }
	t.Cleanup(func() { newSpinner = orig })
	return s
}
