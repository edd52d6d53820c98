package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

// statusResultMsg carries one /api/mqtt/status response
type statusResultMsg struct {
	conn *deviceapi.Connection
	err  error
}

// statusRefreshMsg asks for one out-of-band status fetch
type statusRefreshMsg struct{}

// Poller periodically fetches the modem's broker connection status.
//
// When a fetch fails the last good status is kept and the poller is
// marked unavailable until the next success.
type Poller struct {
	dev   Device
	after scheduler
	tick  ticker

	last        *deviceapi.Connection
	unavailable bool
}

// NewPoller creates a stopped poller
func NewPoller(dev Device, interval time.Duration, after scheduler) Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return Poller{
		dev:   dev,
		after: after,
		tick:  ticker{source: tickStatus, interval: interval},
	}
}

// Start issues an immediate fetch and schedules the periodic one. Calling
// Start while running replaces the existing timer.
func (p *Poller) Start() tea.Cmd {
	logging.Debug("status poller started", zap.Duration("interval", p.tick.interval))
	return tea.Batch(p.fetch(), p.tick.start(p.after))
}

// Stop cancels the periodic fetch. Stopping a stopped poller does nothing.
func (p *Poller) Stop() {
	if p.tick.running {
		logging.Debug("status poller stopped")
	}
	p.tick.stop()
}

// Refresh fetches once without touching the timer
func (p *Poller) Refresh() tea.Cmd {
	return p.fetch()
}

// Running reports whether the periodic fetch is active
func (p Poller) Running() bool { return p.tick.running }

// Interval is the time between fetches
func (p Poller) Interval() time.Duration { return p.tick.interval }

// Last returns the most recent good status, or nil before the first one
func (p Poller) Last() *deviceapi.Connection { return p.last }

// Unavailable reports whether the latest fetch failed
func (p Poller) Unavailable() bool { return p.unavailable }

// Update handles poller ticks and fetch results. Other messages are ignored.
func (p *Poller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.source != tickStatus || !p.tick.accept(msg) {
			return nil
		}
		return tea.Batch(p.fetch(), p.tick.next(p.after))

	case statusRefreshMsg:
		return p.fetch()

	case statusResultMsg:
		if msg.err != nil {
			logging.Debug("status fetch failed", zap.Error(msg.err))
			p.unavailable = true
			return nil
		}
		p.last = msg.conn
		p.unavailable = false
	}
	return nil
}

// Badge renders the current status for display
func (p Poller) Badge() StatusBadge {
	switch {
	case p.unavailable:
		return UnavailableBadge()
	case p.last == nil:
		return PendingBadge()
	default:
		return PresentStatus(*p.last)
	}
}

func (p Poller) fetch() tea.Cmd {
	dev := p.dev
	return func() tea.Msg {
		conn, err := dev.GetStatus(context.Background())
		return statusResultMsg{conn: conn, err: err}
	}
}
