package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header is the banner printed before command output: the operation name
// and the modem it talks to.
type Header struct {
	Title  string // e.g., "Subscription Topics"
	Device string // e.g., "192.168.4.1:80"
	Width  int
}

// NewHeader creates a header sized to the terminal
func NewHeader(title, device string) *Header {
	return &Header{
		Title:  title,
		Device: device,
		Width:  GetTerminalWidth(),
	}
}

// SetWidth sets the width for rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	content := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	if h.Device != "" {
		content = lipgloss.JoinVertical(lipgloss.Left,
			content,
			RenderHorizontalDivider(width-6, "─"),
			HeaderDeviceStyle.Render("Device: "+h.Device),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
