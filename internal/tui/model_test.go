package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/agbru/compmgr/internal/catalog"
	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/orchestration"
	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/sysmon"
	"github.com/agbru/compmgr/internal/worker"
)

type fakePoller struct {
	mu       sync.Mutex
	group    *orchestration.Group
	statuses []registry.Status
	err      error
	polls    int
}

func (f *fakePoller) Group() (orchestration.Group, bool) {
	if f.group == nil {
		return orchestration.Group{}, false
	}
	return *f.group, true
}

func (f *fakePoller) PollStatus(context.Context) ([]registry.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	return f.statuses, f.err
}

type fakeSampler struct {
	mu   sync.Mutex
	pids [][]int
}

func (f *fakeSampler) Sample(pids []int) sysmon.Snapshot {
	f.mu.Lock()
	f.pids = append(f.pids, pids)
	f.mu.Unlock()
	procs := make(map[int]sysmon.ProcStats, len(pids))
	for _, pid := range pids {
		procs[pid] = sysmon.ProcStats{PID: pid, CPUPercent: 12.5, RSS: 3 << 20}
	}
	return sysmon.Snapshot{System: sysmon.Stats{CPUPercent: 40, MemPercent: 60}, Procs: procs}
}

func testGroup() *orchestration.Group {
	return &orchestration.Group{
		Name:    "lab",
		ID:      uuid.MustParse("5f0c2a7e-1b2d-4c3e-8f9a-0b1c2d3e4f50"),
		Created: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func sampleStatuses() []registry.Status {
	spec := func(name string, fn catalog.FunctionID, arg int) worker.Spec {
		return worker.Spec{Task: name, Function: fn, Arg: arg}
	}
	return []registry.Status{
		{Name: "a", State: registry.StateFinished, PID: 11, Result: registry.Result{
			Spec: spec("a", catalog.F2, 4), PID: 11, Value: 24, OK: true, Elapsed: 4 * time.Millisecond}},
		{Name: "b", State: registry.StateAbnormal, PID: 12, Result: registry.Result{
			Spec: spec("b", catalog.F1, 2), PID: 12, Status: "signal: killed"}},
		{Name: "c", State: registry.StateRunning, PID: 13, Result: registry.Result{Spec: spec("c", catalog.F3, 9), PID: 13}},
	}
}

func newTestModel(t *testing.T, p *fakePoller) (Model, *fakeSampler) {
	t.Helper()
	s := &fakeSampler{}
	m := NewModel(context.Background(), p, Options{Sampler: s, Interval: time.Hour})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 24})
	return next.(Model), s
}

func poll(t *testing.T, m Model) Model {
	t.Helper()
	next, _ := m.Update(m.pollCmd()())
	return next.(Model)
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModel_ViewBeforeSize(t *testing.T) {
	m := NewModel(context.Background(), &fakePoller{group: testGroup()}, Options{Sampler: &fakeSampler{}})
	if m.View() != "Initializing..." {
		t.Errorf("View() = %q", m.View())
	}
}

func TestModel_PollRendersComponents(t *testing.T) {
	m, s := newTestModel(t, &fakePoller{group: testGroup(), statuses: sampleStatuses()})
	m = poll(t, m)

	if len(s.pids) != 1 || len(s.pids[0]) != 1 || s.pids[0][0] != 13 {
		t.Errorf("sampled pids = %v, want only the running worker", s.pids)
	}
	view := m.View()
	for _, want := range []string{
		"compmgr watch", "lab", "5f0c2a7e", "Running: 1/3",
		"f2(4)", "24", "finished",
		"signal: killed", "abnormal",
		"f3(9)", "running", "12.5%", "3.0 MiB",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_TickPollsUnlessPaused(t *testing.T) {
	p := &fakePoller{group: testGroup()}
	m, _ := newTestModel(t, p)

	next, cmd := m.Update(tickMsg(time.Now()))
	m = next.(Model)
	if cmd == nil || !m.polling {
		t.Fatal("tick should start a poll")
	}
	// A poll still in flight is not duplicated.
	next, _ = m.Update(tickMsg(time.Now()))
	if !next.(Model).polling {
		t.Error("polling flag cleared by a second tick")
	}

	m = poll(t, m)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = next.(Model)
	if !m.paused || !strings.Contains(m.View(), "PAUSED") {
		t.Fatal("p should pause the dashboard")
	}
	next, _ = m.Update(tickMsg(time.Now()))
	if next.(Model).polling {
		t.Error("paused dashboard started a poll")
	}
}

func TestModel_Keys(t *testing.T) {
	tests := []struct {
		name        string
		msg         tea.KeyMsg
		quit        bool
		interrupted bool
	}{
		{"q leaves", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, true, false},
		{"esc leaves", tea.KeyMsg{Type: tea.KeyEsc}, true, false},
		{"ctrl+c interrupts", tea.KeyMsg{Type: tea.KeyCtrlC}, true, true},
		{"other key ignored", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, &fakePoller{group: testGroup()})
			next, cmd := m.Update(tt.msg)
			if isQuit(cmd) != tt.quit {
				t.Errorf("quit = %v, want %v", !tt.quit, tt.quit)
			}
			if next.(Model).Interrupted() != tt.interrupted {
				t.Errorf("interrupted = %v, want %v", !tt.interrupted, tt.interrupted)
			}
		})
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m, _ := newTestModel(t, &fakePoller{group: testGroup()})
	before := m.View()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	after := next.(Model).View()
	if strings.Contains(before, "kill all and exit") || !strings.Contains(after, "kill all and exit") {
		t.Error("? should reveal the full key list")
	}
}

func TestModel_PollErrorQuits(t *testing.T) {
	m, _ := newTestModel(t, &fakePoller{group: testGroup(), err: apperrors.ErrNoActiveGroup})
	next, cmd := m.Update(m.pollCmd()())
	if !isQuit(cmd) {
		t.Error("a failing poll should end the session")
	}
	if !errors.Is(next.(Model).Err(), apperrors.ErrNoActiveGroup) {
		t.Errorf("Err() = %v", next.(Model).Err())
	}
}

func TestModel_AllFinishedBanner(t *testing.T) {
	statuses := sampleStatuses()[:2]
	m, _ := newTestModel(t, &fakePoller{group: testGroup(), statuses: statuses})
	m = poll(t, m)
	if !strings.Contains(m.View(), "ALL FINISHED") {
		t.Errorf("view missing completion banner:\n%s", m.View())
	}
}

func TestRun_RequiresGroup(t *testing.T) {
	_, err := Run(context.Background(), &fakePoller{}, Options{})
	if !errors.Is(err, apperrors.ErrNoActiveGroup) {
		t.Errorf("Run() error = %v, want ErrNoActiveGroup", err)
	}
}

func runHeadless(t *testing.T, input string) (Outcome, int, error) {
	t.Helper()
	p := &fakePoller{group: testGroup(), statuses: sampleStatuses()}
	hooks := 0
	out, err := Run(context.Background(), p, Options{
		Sampler:  &fakeSampler{},
		Interval: 10 * time.Millisecond,
		CancelHook: func(func()) func() {
			hooks++
			return func() { hooks-- }
		},
		ProgramOptions: []tea.ProgramOption{
			tea.WithInput(strings.NewReader(input)),
			tea.WithOutput(io.Discard),
		},
	})
	return out, hooks, err
}

func TestRun_QuitReturnsToCaller(t *testing.T) {
	out, hooks, err := runHeadless(t, "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Interrupted {
		t.Error("q should not report an interrupt")
	}
	if hooks != 0 {
		t.Error("cancel hook was not removed")
	}
}

func TestRun_CtrlCReportsInterrupt(t *testing.T) {
	out, _, err := runHeadless(t, "\x03")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !out.Interrupted {
		t.Error("ctrl+c should report an interrupt")
	}
}
