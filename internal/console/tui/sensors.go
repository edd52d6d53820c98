package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

type sensorResultMsg struct {
	reading *deviceapi.SensorReading
	err     error
}

// SensorsModel is the read-only telemetry panel. It polls while active
// under the same generation rule as the status poller.
type SensorsModel struct {
	dev   Device
	after scheduler
	tick  ticker

	reading *deviceapi.SensorReading
	err     error
}

// NewSensorsModel creates the Sensors panel model
func NewSensorsModel(dev Device, interval time.Duration, after scheduler) SensorsModel {
	if interval <= 0 {
		interval = DefaultSensorInterval
	}
	return SensorsModel{
		dev:   dev,
		after: after,
		tick:  ticker{source: tickSensors, interval: interval},
	}
}

// Start fetches once and begins the periodic watch
func (m *SensorsModel) Start() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick.start(m.after))
}

// Stop ends the watch
func (m *SensorsModel) Stop() { m.tick.stop() }

// Running reports whether the watch is active
func (m SensorsModel) Running() bool { return m.tick.running }

// Reading returns the last good reading
func (m SensorsModel) Reading() *deviceapi.SensorReading { return m.reading }

// Update handles sensor ticks, results and the manual refresh key
func (m SensorsModel) Update(msg tea.Msg) (SensorsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if msg.source != tickSensors || !m.tick.accept(msg) {
			return m, nil
		}
		return m, tea.Batch(m.fetch(), m.tick.next(m.after))

	case sensorResultMsg:
		m.err = msg.err
		if msg.err != nil {
			logging.Debug("sensor fetch failed", zap.Error(msg.err))
			return m, nil
		}
		m.reading = msg.reading

	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, m.fetch()
		}
	}
	return m, nil
}

func (m SensorsModel) fetch() tea.Cmd {
	dev := m.dev
	return func() tea.Msg {
		r, err := dev.GetSensors(context.Background())
		return sensorResultMsg{reading: r, err: err}
	}
}

// View renders the latest environment and position readings
func (m SensorsModel) View() string {
	var b strings.Builder

	b.WriteString(RenderTitle("Sensors"))
	b.WriteString("\n")

	if m.reading == nil {
		if m.err != nil {
			b.WriteString(ErrorNoticeStyle.Render("✗ " + deviceapi.FailureMessage("failed to read sensors", m.err)))
		} else {
			b.WriteString(RenderPlaceholder("loading…"))
		}
		b.WriteString("\n")
		return b.String()
	}

	r := *m.reading
	b.WriteString(CardStyle.Render(strings.TrimRight(r.FormatEnvironment(), "\n")))
	b.WriteString("\n")
	b.WriteString(CardStyle.Render(strings.TrimRight(r.FormatPosition(), "\n")))
	b.WriteString("\n")
	b.WriteString(RenderSubtitle("  updated " + r.FormatTimestamp()))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(BusyStyle.Render("  readings stale: " + deviceapi.GetShortErrorMessage(m.err)))
		b.WriteString("\n")
	}
	return b.String()
}
