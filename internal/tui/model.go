// Package tui implements the watch dashboard: a full-screen view of the
// active group that polls every component on a fixed interval.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/compmgr/internal/errors"
	"github.com/agbru/compmgr/internal/orchestration"
	"github.com/agbru/compmgr/internal/registry"
	"github.com/agbru/compmgr/internal/sysmon"
)

// DefaultInterval is the refresh period when Options.Interval is unset.
const DefaultInterval = 250 * time.Millisecond

// Poller is the part of the orchestrator the dashboard reads.
type Poller interface {
	Group() (orchestration.Group, bool)
	PollStatus(ctx context.Context) ([]registry.Status, error)
}

// Sampler reports resource usage for a set of worker pids.
type Sampler interface {
	Sample(pids []int) sysmon.Snapshot
}

// Options configures a dashboard session.
type Options struct {
	Interval time.Duration
	Version  string
	// Sampler defaults to a fresh sysmon.Sampler.
	Sampler Sampler
	// CancelHook, when set, is given a function that restores the
	// terminal and must return a function that unregisters it.
	CancelHook func(release func()) (remove func())
	// ProgramOptions are appended to the bubbletea defaults.
	ProgramOptions []tea.ProgramOption
}

// Outcome reports how a session ended.
type Outcome struct {
	// Interrupted is true when the user pressed ctrl+c.
	Interrupted bool
}

type tickMsg time.Time

type pollMsg struct {
	statuses []registry.Status
	snapshot sysmon.Snapshot
	err      error
}

// Model is the root bubbletea model for the watch dashboard.
type Model struct {
	ctx      context.Context
	poller   Poller
	sampler  Sampler
	interval time.Duration

	header HeaderModel
	table  TableModel
	help   help.Model
	keymap KeyMap

	width       int
	height      int
	paused      bool
	polling     bool
	interrupted bool
	err         error
}

// NewModel creates a dashboard over poller.
func NewModel(ctx context.Context, poller Poller, opts Options) Model {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	sampler := opts.Sampler
	if sampler == nil {
		sampler = sysmon.NewSampler()
	}
	group, _ := poller.Group()
	return Model{
		ctx:      ctx,
		poller:   poller,
		sampler:  sampler,
		interval: interval,
		header:   NewHeaderModel(group, opts.Version),
		help:     help.New(),
		keymap:   DefaultKeyMap(),
	}
}

// Init polls once immediately and starts the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.pollCmd(), m.tickCmd())
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tickMsg:
		m.header.Tick(time.Time(msg))
		if m.paused || m.polling {
			return m, m.tickCmd()
		}
		m.polling = true
		return m, tea.Batch(m.pollCmd(), m.tickCmd())

	case pollMsg:
		m.polling = false
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.table.Update(msg.statuses, msg.snapshot.Procs)
		m.header.SetCounts(m.table.Counts())
		m.header.AddSample(msg.snapshot.System)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Interrupt):
		m.interrupted = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		return m, nil
	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	}
	return m, nil
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), m.table.View(), m.footerView())
}

func (m Model) footerView() string {
	footer := " " + m.help.View(m.keymap)
	if m.paused {
		footer = statusPausedStyle.Render(" PAUSED ") + footer
	} else if running, total := m.table.Counts(); total > 0 && running == 0 {
		footer = statusDoneStyle.Render(" ALL FINISHED ") + footer
	}
	return footer
}

func (m *Model) layout() {
	m.header.SetWidth(m.width)
	m.help.Width = m.width
	footerHeight := lipgloss.Height(m.footerView())
	m.table.SetSize(m.width, max(m.height-1-footerHeight, 3))
}

// Interrupted reports whether the session ended with ctrl+c.
func (m Model) Interrupted() bool { return m.interrupted }

// Err returns the error that ended the session, if any.
func (m Model) Err() error { return m.err }

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// pollCmd reconciles every component and samples the live ones.
func (m Model) pollCmd() tea.Cmd {
	ctx, poller, sampler := m.ctx, m.poller, m.sampler
	return func() tea.Msg {
		statuses, err := poller.PollStatus(ctx)
		if err != nil {
			return pollMsg{err: err}
		}
		var pids []int
		for _, st := range statuses {
			if st.State == registry.StateRunning {
				pids = append(pids, st.PID)
			}
		}
		return pollMsg{statuses: statuses, snapshot: sampler.Sample(pids)}
	}
}

// Run shows the dashboard until the user leaves it. A group must exist.
func Run(ctx context.Context, poller Poller, opts Options) (Outcome, error) {
	if _, ok := poller.Group(); !ok {
		return Outcome{}, apperrors.ErrNoActiveGroup
	}
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, poller, opts)
	progOpts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithoutSignalHandler(),
	}, opts.ProgramOptions...)
	p := tea.NewProgram(model, progOpts...)

	ref := &programRef{}
	ref.SetProgram(p)
	if opts.CancelHook != nil {
		remove := opts.CancelHook(ref.Release)
		defer remove()
	}

	final, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		return Outcome{}, apperrors.WrapError(err, "watch dashboard")
	}
	m, ok := final.(Model)
	if !ok {
		return Outcome{}, nil
	}
	return Outcome{Interrupted: m.interrupted}, m.err
}
