package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// programRef is a shared reference to the running tea.Program.
// Because bubbletea copies the model on every Update, we need a pointer
// that survives copies so code outside the event loop can reach it.
type programRef struct {
	mu      sync.RWMutex
	program *tea.Program
}

// SetProgram sets the tea.Program reference (thread-safe).
func (r *programRef) SetProgram(p *tea.Program) {
	r.mu.Lock()
	r.program = p
	r.mu.Unlock()
}

// Release restores the terminal so another writer can use it. It is a
// no-op before the program is set.
func (r *programRef) Release() {
	r.mu.RLock()
	p := r.program
	r.mu.RUnlock()
	if p != nil {
		_ = p.ReleaseTerminal()
	}
}
