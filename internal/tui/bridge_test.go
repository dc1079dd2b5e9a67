package tui

import "testing"

func TestProgramRef_ReleaseNilProgram(t *testing.T) {
	var ref programRef
	ref.Release() // must not panic
}
