package tui

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/modemctl/internal/deviceapi"
)

func TestInitialLoadListsTopics(t *testing.T) {
	dev := &fakeDevice{topics: []string{"sensors/temp", "alerts/#"}}
	m, _ := newTestApp(dev)

	if got := dev.Calls(); !reflect.DeepEqual(got, []string{"GET topics"}) {
		t.Fatalf("calls = %v, want [GET topics]", got)
	}
	if got := m.Topics().Topics(); !reflect.DeepEqual(got, []string{"sensors/temp", "alerts/#"}) {
		t.Errorf("topics = %v, want device order", got)
	}
	view := m.Topics().View()
	if strings.Index(view, "sensors/temp") > strings.Index(view, "alerts/#") {
		t.Error("rows are not rendered in the order returned by the device")
	}
}

func TestTopicsEmptyShowsPlaceholder(t *testing.T) {
	dev := &fakeDevice{}
	m, _ := newTestApp(dev)

	if !strings.Contains(m.Topics().View(), "no topics") {
		t.Errorf("empty list should render the no topics placeholder:\n%s", m.Topics().View())
	}
}

func TestTopicsLoadFailure(t *testing.T) {
	dev := &fakeDevice{listErr: deviceapi.NewHTTPError(deviceapi.PathTopics, 500)}
	m, _ := newTestApp(dev)

	view := m.Topics().View()
	if !strings.Contains(view, "could not load topics") {
		t.Errorf("failure placeholder missing:\n%s", view)
	}
	n := m.Topics().Notice()
	if !n.IsError() || n.Text() != "failed to load topics: request failed, please retry" {
		t.Errorf("notice = %q (error=%v)", n.Text(), n.IsError())
	}

	// The placeholder stays until a fetch succeeds
	dev.listErr = nil
	dev.topics = []string{"a"}
	m = settle(m, SelectPanel(PanelPublish), SelectPanel(PanelSubscribe))
	if strings.Contains(m.Topics().View(), "could not load topics") {
		t.Error("failure placeholder should clear after a successful fetch")
	}
}

func TestAddTopicPostsThenListsOnce(t *testing.T) {
	dev := &fakeDevice{}
	m, _ := newTestApp(dev)
	dev.reset()

	m.topics.SetInput("  sensors/humidity  ")
	m = settle(m, keyPress("enter"))

	want := []string{"POST add sensors/humidity", "GET topics"}
	if got := dev.Calls(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	if m.Topics().Input() != "" {
		t.Errorf("input = %q, want cleared after success", m.Topics().Input())
	}
	if m.Topics().Adding() {
		t.Error("add control still locked after success")
	}
	if n := m.Topics().Notice(); !n.IsSuccess() {
		t.Errorf("notice = %q, want success", n.Text())
	}
	if got := m.Topics().Topics(); !reflect.DeepEqual(got, []string{"sensors/humidity"}) {
		t.Errorf("topics = %v", got)
	}
}

func TestAddTopicValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "topic name required"},
		{"whitespace", "   \t ", "topic name required"},
		{"too long", strings.Repeat("a", deviceapi.MaxTopicLength+1), "topic name too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{}
			m, _ := newTestApp(dev)
			dev.reset()

			m.topics.SetInput(tt.input)
			m = settle(m, keyPress("enter"))

			if calls := dev.Calls(); len(calls) != 0 {
				t.Errorf("calls = %v, want none", calls)
			}
			n := m.Topics().Notice()
			if !n.IsError() || !strings.HasPrefix(n.Text(), tt.want) {
				t.Errorf("notice = %q, want prefix %q", n.Text(), tt.want)
			}
			if m.Topics().Adding() {
				t.Error("add control locked after validation failure")
			}
		})
	}
}

func TestAddTopicServerFailureKeepsInput(t *testing.T) {
	dev := &fakeDevice{addErr: deviceapi.NewServerError(deviceapi.PathTopicsAdd, "duplicate")}
	m, _ := newTestApp(dev)
	dev.reset()

	m.topics.SetInput("alerts/#")
	m = settle(m, keyPress("enter"))

	if got := dev.Calls(); !reflect.DeepEqual(got, []string{"POST add alerts/#"}) {
		t.Errorf("calls = %v, want only the add", got)
	}
	if m.Topics().Input() != "alerts/#" {
		t.Errorf("input = %q, want preserved", m.Topics().Input())
	}
	if got := m.Topics().Notice().Text(); got != "failed to add topic: duplicate" {
		t.Errorf("notice = %q, want %q", got, "failed to add topic: duplicate")
	}
	if m.Topics().Adding() {
		t.Error("add control still locked after failure")
	}
}

func TestAddTopicReleasesLockOnEveryFailure(t *testing.T) {
	errs := map[string]error{
		"parse":   deviceapi.NewParseError(deviceapi.PathTopicsAdd, nil),
		"timeout": &deviceapi.DeviceError{Type: deviceapi.ErrTypeTimeout, Message: "request timed out"},
		"http":    deviceapi.NewHTTPError(deviceapi.PathTopicsAdd, 503),
	}

	for name, err := range errs {
		t.Run(name, func(t *testing.T) {
			dev := &fakeDevice{addErr: err}
			m, _ := newTestApp(dev)

			m.topics.SetInput("x")
			m = settle(m, keyPress("enter"))
			if m.Topics().Adding() {
				t.Error("add control still locked")
			}
			if !m.Topics().Notice().IsError() {
				t.Error("expected an error notice")
			}
		})
	}
}

func TestAddTopicIgnoredWhileInFlight(t *testing.T) {
	dev := &fakeDevice{}
	m, _ := newTestApp(dev)
	dev.reset()

	m.topics.SetInput("a")
	if cmd := m.topics.Add(); cmd == nil {
		t.Fatal("first Add() returned no command")
	}
	if cmd := m.topics.Add(); cmd != nil {
		t.Error("second Add() while locked should do nothing")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	dev := &fakeDevice{topics: []string{"first/topic", "second/topic"}}
	m, _ := newTestApp(dev)
	dev.reset()

	// Focus the list, move to the second row, ask to delete, then decline
	m = settle(m, keyPress("tab"), keyPress("down"), keyPress("d"))
	if !m.Topics().Confirming() {
		t.Fatal("delete did not open a confirmation")
	}
	m = settle(m, keyPress("n"))

	if calls := dev.Calls(); len(calls) != 0 {
		t.Errorf("declined delete made calls: %v", calls)
	}
	if m.Topics().Confirming() {
		t.Error("confirmation still open after declining")
	}

	// Confirm: only the second row's name goes out, then one refresh
	m = settle(m, keyPress("d"), keyPress("y"))
	want := []string{"POST delete second/topic", "GET topics"}
	if got := dev.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if m.Topics().Deleting() {
		t.Error("delete control still locked")
	}
	if got := m.Topics().Topics(); !reflect.DeepEqual(got, []string{"first/topic"}) {
		t.Errorf("topics = %v", got)
	}
}

func TestDeleteConfirmationBlocksTabKeys(t *testing.T) {
	dev := &fakeDevice{topics: []string{"a/b", "c/d"}}
	m, _ := newTestApp(dev)
	dev.reset()

	m = settle(m, keyPress("tab"), keyPress("d"))
	if !m.Topics().Confirming() {
		t.Fatal("delete did not open a confirmation")
	}

	for _, k := range []string{"f2", "f3", "ctrl+n", "tab", "r"} {
		m = settle(m, keyPress(k))
		if m.Active() != PanelSubscribe {
			t.Fatalf("%s switched to %v while confirming", k, m.Active())
		}
		if !m.Topics().Confirming() {
			t.Fatalf("%s closed the confirmation", k)
		}
	}
	if calls := dev.Calls(); len(calls) != 0 {
		t.Errorf("keys behind the confirmation made calls: %v", calls)
	}

	m = settle(m, keyPress("y"))
	want := []string{"POST delete a/b", "GET topics"}
	if got := dev.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
}

func TestLeavingSubscribeCancelsConfirmation(t *testing.T) {
	dev := &fakeDevice{topics: []string{"a/b", "c/d"}}
	m, _ := newTestApp(dev)

	m = settle(m, keyPress("tab"), keyPress("d"))
	m = settle(m, SelectPanel(PanelPublish))
	if m.Topics().Confirming() {
		t.Fatal("confirmation survived leaving Subscribe")
	}

	// The topic goes away elsewhere; coming back must not revive the prompt
	dev.topics = []string{"c/d"}
	m = settle(m, SelectPanel(PanelSubscribe))
	dev.reset()

	m = settle(m, keyPress("y"))
	if m.Topics().Confirming() {
		t.Error("confirmation open after returning to Subscribe")
	}
	for _, c := range dev.Calls() {
		if strings.HasPrefix(c, "POST delete") {
			t.Errorf("stale confirmation deleted a topic: %v", dev.Calls())
		}
	}
}

func TestRefreshDropsConfirmationForVanishedTopic(t *testing.T) {
	dev := &fakeDevice{topics: []string{"a/b", "c/d"}}
	m, _ := newTestApp(dev)

	m = settle(m, keyPress("tab"), keyPress("d"))
	m = settle(m, topicsLoadedMsg{seq: m.topics.seq, topics: []string{"c/d"}})

	if m.Topics().Confirming() {
		t.Error("confirmation kept for a topic the device no longer lists")
	}
}

func TestDeleteFailure(t *testing.T) {
	dev := &fakeDevice{
		topics:    []string{"a"},
		deleteErr: deviceapi.NewServerError(deviceapi.PathTopicsDelete, "not found"),
	}
	m, _ := newTestApp(dev)
	dev.reset()

	m = settle(m, keyPress("tab"), keyPress("d"), keyPress("y"))

	if got := dev.Calls(); !reflect.DeepEqual(got, []string{"POST delete a"}) {
		t.Errorf("calls = %v", got)
	}
	if got := m.Topics().Notice().Text(); got != "failed to delete topic: not found" {
		t.Errorf("notice = %q", got)
	}
	if m.Topics().Deleting() {
		t.Error("delete control still locked after failure")
	}
}

func TestDeleteUsesFullNameWhenNarrow(t *testing.T) {
	long := "building/floor-3/room-12/temperature"
	dev := &fakeDevice{topics: []string{long}}
	m, _ := newTestApp(dev)
	m = settle(m, tea.WindowSizeMsg{Width: 60, Height: 30})
	dev.reset()

	if !strings.Contains(m.Topics().View(), DisplayTopic(long, true)) {
		t.Errorf("narrow view should show the shortened name:\n%s", m.Topics().View())
	}

	m = settle(m, keyPress("tab"), keyPress("d"), keyPress("y"))
	if got := dev.Calls(); len(got) == 0 || got[0] != "POST delete "+long {
		t.Errorf("calls = %v, want delete with the full name", got)
	}
}

func TestStaleTopicListDropped(t *testing.T) {
	dev := &fakeDevice{}
	m, _ := newTestApp(dev)

	dev.topics = []string{"stale"}
	older := collect(m.topics.List())
	dev.topics = []string{"new"}
	latest := m.topics.List()

	m = settle(m, collect(latest)...)
	m = settle(m, older...)

	if got := m.Topics().Topics(); !reflect.DeepEqual(got, []string{"new"}) {
		t.Errorf("topics = %v, want the newest response", got)
	}
}

func TestTopicNoticeExpires(t *testing.T) {
	dev := &fakeDevice{}
	m, clock := newTestApp(dev)

	m.topics.SetInput("a")
	m = settle(m, keyPress("enter"))
	if !m.Topics().Notice().IsSuccess() {
		t.Fatal("expected success notice")
	}

	m = settle(m, clock.fire(topicNoticeDuration)...)
	if m.Topics().Notice().Text() != "" {
		t.Errorf("notice = %q, want cleared after %v", m.Topics().Notice().Text(), topicNoticeDuration)
	}
}

func TestDisplayTopic(t *testing.T) {
	tests := []struct {
		name   string
		topic  string
		narrow bool
		want   string
	}{
		{"wide keeps long name", "abcdefghijklmnopqrstuvwxyz", false, "abcdefghijklmnopqrstuvwxyz"},
		{"narrow short name", "short", true, "short"},
		{"narrow exactly twenty", "abcdefghijklmnopqrst", true, "abcdefghijklmnopqrst"},
		{"narrow twenty one", "abcdefghijklmnopqrstu", true, "abcdefghijklmnopq..."},
		{"narrow multibyte", "température/étage/salle-douze", true, "température/étage..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayTopic(tt.topic, tt.narrow); got != tt.want {
				t.Errorf("DisplayTopic(%q, %v) = %q, want %q", tt.topic, tt.narrow, got, tt.want)
			}
		})
	}
}
