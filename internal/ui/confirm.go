package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Confirm prints prompt with a "[y/N]" suffix and reads one line from in.
// Only "y" or "yes" (any case) confirms; anything else, including EOF,
// declines.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	promptStyle := lipgloss.NewStyle().
		Foreground(WarningColor).
		Bold(true)
	_, _ = fmt.Fprint(out, promptStyle.Render(prompt+" [y/N]: "))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	_, _ = fmt.Fprintln(out, MutedStyle.Render("  Cancelled."))
	return false
}

// ConfirmDelete asks before removing a subscription topic
func ConfirmDelete(in io.Reader, out io.Writer, topic string) bool {
	return Confirm(in, out, fmt.Sprintf("Delete topic %q?", topic))
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ReadSecret prompts on out and reads a line from the terminal on in
// without echo. It fails when in is not a terminal.
func ReadSecret(in *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("cannot prompt for %s: stdin is not a terminal", strings.ToLower(strings.TrimSuffix(prompt, ": ")))
	}

	_, _ = fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(secret), nil
}
