package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/modemctl/internal/deviceapi"
)

// Tone groups connection states by how they are coloured
type Tone string

const (
	ToneNeutral     Tone = "neutral"
	ToneConnecting  Tone = "connecting"
	ToneConnected   Tone = "connected"
	ToneError       Tone = "error"
	ToneUnavailable Tone = "unavailable"
)

// StatusBadge is the presentation of one connection status
type StatusBadge struct {
	Tone   Tone
	Label  string
	Detail string
	Color  lipgloss.Color
}

// PresentStatus maps a connection status to its badge. Any code other than
// 0, 1 or 2 is an error and carries the device's error text, if any.
func PresentStatus(c deviceapi.Connection) StatusBadge {
	switch c.Status {
	case deviceapi.StatusDisconnected:
		return StatusBadge{Tone: ToneNeutral, Label: "disconnected", Color: StatusNeutralColor}
	case deviceapi.StatusConnecting:
		return StatusBadge{Tone: ToneConnecting, Label: "connecting", Color: StatusConnectingColor}
	case deviceapi.StatusConnected:
		return StatusBadge{Tone: ToneConnected, Label: "connected", Color: StatusConnectedColor}
	default:
		return StatusBadge{Tone: ToneError, Label: "error", Detail: c.ErrorMessage, Color: StatusErrorColor}
	}
}

// UnavailableBadge is shown when the status could not be fetched
func UnavailableBadge() StatusBadge {
	return StatusBadge{Tone: ToneUnavailable, Label: "status unavailable", Color: StatusUnavailableColor}
}

// PendingBadge is shown before the first status arrives
func PendingBadge() StatusBadge {
	return StatusBadge{Tone: ToneNeutral, Label: "checking…", Color: StatusNeutralColor}
}

// View renders the badge as a coloured dot, label and optional detail
func (b StatusBadge) View() string {
	style := lipgloss.NewStyle().Foreground(b.Color).Bold(true)
	s := style.Render("● " + b.Label)
	if b.Detail != "" {
		s += SubtitleStyle.Render("  " + b.Detail)
	}
	return s
}
