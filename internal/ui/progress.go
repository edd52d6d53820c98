package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Gauge renders a labelled fill bar with a "value/max" suffix, used for
// topic capacity and similar bounded quantities.
type Gauge struct {
	Label string
	Value float64
	Max   float64
	Unit  string // appended to the suffix, e.g. " lux"
	Width int
	bar   progress.Model
}

// NewGauge creates a gauge for value out of max
func NewGauge(label string, value, max float64) *Gauge {
	g := &Gauge{Label: label, Value: value, Max: max}
	return g.SetWidth(GetTerminalWidth())
}

// SetWidth sizes the bar for the given terminal width
func (g *Gauge) SetWidth(width int) *Gauge {
	g.Width = width
	barWidth := width - 40
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	g.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	return g
}

// Percent returns the fill ratio clamped to [0, 1]
func (g *Gauge) Percent() float64 {
	if g.Max <= 0 {
		return 0
	}
	p := g.Value / g.Max
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Render returns the styled gauge line
func (g *Gauge) Render() string {
	suffix := fmt.Sprintf("%g/%g%s", g.Value, g.Max, g.Unit)
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %s  %s",
			ResultKeyStyle.Render(g.Label),
			g.bar.ViewAs(g.Percent()),
			MutedStyle.Render(suffix)))
}

// String implements fmt.Stringer
func (g *Gauge) String() string {
	return g.Render()
}
