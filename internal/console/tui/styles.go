package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/modemctl/internal/version"
)

// Application branding constants
const (
	AppName = "MODEM CONSOLE"
)

// Layout constants
const (
	MinTerminalWidth   = 60
	DefaultNarrowWidth = 80 // at or below this width long topic names are shortened
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor   = lipgloss.Color("#FFFFFF")
	SubtleColor = lipgloss.Color("#626262")
	BorderColor = lipgloss.Color("#7D56F4")

	// Connection badge colours
	StatusNeutralColor     = lipgloss.Color("#999999")
	StatusConnectingColor  = lipgloss.Color("#FFA500")
	StatusConnectedColor   = lipgloss.Color("#28a745")
	StatusErrorColor       = lipgloss.Color("#dc3545")
	StatusUnavailableColor = lipgloss.Color("#5A5A5A")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 2)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Padding(0, 2)

	LabelStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Width(12)

	SelectedRowStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Italic(true)

	SuccessNoticeStyle = lipgloss.NewStyle().
				Foreground(SecondaryColor).
				Bold(true)

	ErrorNoticeStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	BusyStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor).
			Padding(1, 2)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderColor).
			Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// RenderTitle renders a title with consistent styling
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSubtitle renders a subtitle with consistent styling
func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderPlaceholder renders a list placeholder row ("no topics", "loading…")
func RenderPlaceholder(text string) string {
	return PlaceholderStyle.Render("  " + text)
}

// RenderField renders a labelled form row
func RenderField(label, value string, focused bool) string {
	prefix := "  "
	if focused {
		prefix = SelectedRowStyle.Render("→ ")
	}
	return prefix + LabelStyle.Render(label) + value
}

// BuildHeaderContent creates the header line with app name and device address
func BuildHeaderContent(address string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " " + version.Short())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(address)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// RenderApplicationContainer wraps every screen: header, content and a footer
// pinned to the bottom of a bordered full-screen frame.
func RenderApplicationContainer(header, content, footer string, width, height int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if height < 10 {
		height = 10
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(width-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Foreground(SubtleColor).
		Width(width-4).
		Padding(0, 1)

	styledHeader := headerStyle.Render(header)
	styledFooter := footerStyle.Render(footer)

	// Content fills whatever the header and footer leave
	contentHeight := height - 2 - lipgloss.Height(styledHeader) - lipgloss.Height(styledFooter)
	if contentHeight < 1 {
		contentHeight = 1
	}
	styledContent := lipgloss.NewStyle().
		Width(width - 4).
		Height(contentHeight).
		Render(content)

	inner := lipgloss.JoinVertical(lipgloss.Left, styledHeader, styledContent, styledFooter)

	bordered := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(width - 2).
		Render(inner)

	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, bordered)
}

// RenderModal centers a dialog over a dimmed background
func RenderModal(modalContent string, width, height int) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		ModalStyle.Render(modalContent),
		lipgloss.WithWhitespaceChars("░"),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("240")),
	)
}
