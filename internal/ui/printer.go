package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Format selects how commands print their results
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps a --format value to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// Printer writes command output as styled text or as JSON
type Printer struct {
	out    io.Writer
	width  int
	format Format
}

// NewPrinter creates a Printer on w. If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer, format Format) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:    w,
		width:  GetTerminalWidth(),
		format: format,
	}
}

// SetWidth overrides the detected terminal width
func (p *Printer) SetWidth(width int) *Printer {
	p.width = clampWidth(width)
	return p
}

// Width returns the width used for boxes
func (p *Printer) Width() int {
	return p.width
}

// JSON reports whether the printer emits JSON
func (p *Printer) JSON() bool {
	return p.format == FormatJSON
}

// Emit writes v as indented JSON in JSON mode, otherwise calls text
func (p *Printer) Emit(v any, text func()) error {
	if p.JSON() {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode output: %w", err)
		}
		return nil
	}
	text()
	return nil
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Printf writes formatted content
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format, args...)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box. JSON output has no header.
func (p *Printer) PrintHeader(title, device string) {
	if p.JSON() {
		return
	}
	p.Println(NewHeader(title, device).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Detail) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Detail) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints a failure box with troubleshooting tips
func (p *Printer) PrintError(title string, err error, troubleshooting []string) {
	p.Println(NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintDetails prints aligned key/value lines without a box
func (p *Printer) PrintDetails(details ...Detail) {
	for _, d := range details {
		p.Println(ResultKeyStyle.Render("  "+d.Key+":") + " " + ResultValueStyle.Render(d.Value))
	}
}

// PrintList prints items numbered from 1, or empty when there are none
func (p *Printer) PrintList(items []string, empty string) {
	if len(items) == 0 {
		p.Println(MutedStyle.Render("  " + empty))
		return
	}
	for i, item := range items {
		p.Println(RowIndexStyle.Render(fmt.Sprintf("%d", i+1)) + "  " + item)
	}
}

// PrintGauge prints a fill bar line
func (p *Printer) PrintGauge(g *Gauge) {
	p.Println(g.SetWidth(p.width).Render())
}
