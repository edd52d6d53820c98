package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type tickSource int

const (
	tickStatus tickSource = iota
	tickSensors
)

// tickMsg is one interval of a periodic fetch. It is honoured only while
// gen matches the ticker's current generation.
type tickMsg struct {
	source tickSource
	gen    int
}

// ticker owns the generation counter behind a periodic fetch. Every start
// or stop bumps the generation, so at most one tick chain is ever live.
type ticker struct {
	source   tickSource
	interval time.Duration
	gen      int
	running  bool
}

func (t *ticker) start(after scheduler) tea.Cmd {
	t.gen++
	t.running = true
	return t.next(after)
}

func (t *ticker) stop() {
	if !t.running {
		return
	}
	t.gen++
	t.running = false
}

// accept reports whether msg belongs to the live chain
func (t *ticker) accept(msg tickMsg) bool {
	return t.running && msg.source == t.source && msg.gen == t.gen
}

func (t *ticker) next(after scheduler) tea.Cmd {
	source, gen := t.source, t.gen
	return after(t.interval, func(time.Time) tea.Msg {
		return tickMsg{source: source, gen: gen}
	})
}
