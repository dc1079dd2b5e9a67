package tui

import (
	"strings"
	"testing"

	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/sysmon"
)

func TestTableModel_Counts(t *testing.T) {
	var tm TableModel
	tm.Update(sampleStatuses(), nil)
	running, total := tm.Counts()
	if running != 1 || total != 3 {
		t.Errorf("Counts() = %d, %d; want 1, 3", running, total)
	}
}

func TestTableModel_RowsFollowPollOrder(t *testing.T) {
	var tm TableModel
	tm.SetSize(120, 10)
	tm.Update(sampleStatuses(), map[int]sysmon.ProcStats{13: {PID: 13, CPUPercent: 1, RSS: 2048}})
	lines := strings.Split(tm.View(), "\n")

	order := []string{"Component", " a ", " b ", " c "}
	last := -1
	for _, want := range order {
		idx := -1
		for i, l := range lines {
			if strings.Contains(l, want) {
				idx = i
				break
			}
		}
		if idx <= last {
			t.Fatalf("%q not below previous row:\n%s", want, tm.View())
		}
		last = idx
	}
	if !strings.Contains(tm.View(), "2.0 KiB") {
		t.Errorf("RSS missing:\n%s", tm.View())
	}
}

func TestTableModel_UsageOnlyForRunning(t *testing.T) {
	var tm TableModel
	finished := sampleStatuses()[:1]
	tm.Update(finished, map[int]sysmon.ProcStats{11: {PID: 11, CPUPercent: 99, RSS: 1}})
	if strings.Contains(tm.View(), "99.0%") {
		t.Error("usage shown for a finished component")
	}
}

func TestTableModel_Empty(t *testing.T) {
	var tm TableModel
	tm.Update([]registry.Status{}, nil)
	if !strings.Contains(tm.View(), "No components") {
		t.Errorf("View() = %q", tm.View())
	}
}

func TestPad(t *testing.T) {
	if got := pad("ab", 4); got != "ab  " {
		t.Errorf("pad = %q", got)
	}
	if got := pad("abcdef", 2); got != "abcdef" {
		t.Errorf("pad = %q", got)
	}
}
