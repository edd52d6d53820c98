package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatText, true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPrinterEmit(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON)

	called := false
	if err := p.Emit(map[string]int{"count": 2}, func() { called = true }); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if called {
		t.Error("text callback ran in JSON mode")
	}
	if !strings.Contains(buf.String(), `"count": 2`) {
		t.Errorf("output = %q, want indented JSON", buf.String())
	}

	buf.Reset()
	p = NewPrinter(&buf, FormatText)
	_ = p.Emit(nil, func() { p.Println("plain") })
	if buf.String() != "plain\n" {
		t.Errorf("output = %q, want plain", buf.String())
	}
}

func TestPrinterHeaderSkippedForJSON(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, FormatJSON).PrintHeader("Topics", "10.0.0.1:80")
	if buf.Len() != 0 {
		t.Errorf("JSON header output = %q, want none", buf.String())
	}

	NewPrinter(&buf, FormatText).SetWidth(80).PrintHeader("Topics", "10.0.0.1:80")
	out := buf.String()
	if !strings.Contains(out, "TOPICS") || !strings.Contains(out, "10.0.0.1:80") {
		t.Errorf("header = %q, want title and device", out)
	}
}

func TestPrinterList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatText)

	p.PrintList(nil, "No topics subscribed")
	if !strings.Contains(buf.String(), "No topics subscribed") {
		t.Errorf("empty list = %q", buf.String())
	}

	buf.Reset()
	p.PrintList([]string{"sensors/a", "sensors/b"}, "none")
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "1") || !strings.HasSuffix(lines[0], "sensors/a") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "sensors/b") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestResultRender(t *testing.T) {
	ok := NewSuccessResult("Topic added", Detail{"Topic", "a/b"}).SetWidth(80).Render()
	if !strings.Contains(ok, "SUCCESS") || !strings.Contains(ok, "Topic added") || !strings.Contains(ok, "a/b") {
		t.Errorf("success box = %q", ok)
	}

	fail := NewFailureResult("Could not add", errors.New("duplicate"), []string{"check the list"}).
		SetWidth(80).Render()
	for _, want := range []string{"FAILED", "Error: duplicate", "Troubleshooting:", "check the list"} {
		if !strings.Contains(fail, want) {
			t.Errorf("failure box missing %q", want)
		}
	}

	warn := NewWarningResult("Stale").AddDetail("Age", "10s").SetWidth(80).Render()
	if !strings.Contains(warn, "WARNING") || !strings.Contains(warn, "10s") {
		t.Errorf("warning box = %q", warn)
	}
}

func TestResultDetailsKeepOrder(t *testing.T) {
	out := NewSuccessResult("Saved",
		Detail{"Broker", "mqtt://a"},
		Detail{"Username", "bob"},
		Detail{"Password", "•••"},
	).SetWidth(80).Render()

	b := strings.Index(out, "Broker")
	u := strings.Index(out, "Username")
	pw := strings.Index(out, "Password")
	if !(b < u && u < pw) {
		t.Errorf("details out of order: broker=%d username=%d password=%d", b, u, pw)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yes please\n", false},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Proceed?")
		if got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("prompt = %q, want [y/N] suffix", out.String())
		}
	}
}

func TestConfirmDeleteNamesTopic(t *testing.T) {
	var out bytes.Buffer
	ConfirmDelete(strings.NewReader("n\n"), &out, "home/kitchen")
	if !strings.Contains(out.String(), `"home/kitchen"`) {
		t.Errorf("prompt = %q, want the topic name", out.String())
	}
}

func TestGauge(t *testing.T) {
	tests := []struct {
		value, max float64
		want       float64
	}{
		{5, 20, 0.25},
		{0, 20, 0},
		{30, 20, 1},
		{-1, 20, 0},
		{3, 0, 0},
	}

	for _, tt := range tests {
		g := NewGauge("Topics", tt.value, tt.max)
		if got := g.Percent(); got != tt.want {
			t.Errorf("Percent(%v/%v) = %v, want %v", tt.value, tt.max, got, tt.want)
		}
	}

	line := NewGauge("Topics", 5, 20).SetWidth(80).Render()
	if !strings.Contains(line, "5/20") {
		t.Errorf("gauge = %q, want 5/20 suffix", line)
	}
}

func TestClampWidth(t *testing.T) {
	tests := []struct{ in, want int }{
		{10, MinTerminalWidth},
		{80, 80},
		{300, MaxContentWidth},
	}
	for _, tt := range tests {
		if got := clampWidth(tt.in); got != tt.want {
			t.Errorf("clampWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
