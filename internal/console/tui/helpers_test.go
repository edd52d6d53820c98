package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/modemctl/internal/deviceapi"
)

// fakeDevice records every call in order and answers from canned values
type fakeDevice struct {
	mu    sync.Mutex
	calls []string

	topics    []string
	listErr   error
	addErr    error
	deleteErr error

	publishErr error

	settings    deviceapi.BrokerSettings
	settingsErr error
	saveErr     error
	saved       []deviceapi.BrokerSettings

	status    deviceapi.Connection
	statusErr error

	reading   deviceapi.SensorReading
	sensorErr error

	mode     deviceapi.NetworkMode
	modeErr  error
	wifiMsg  string
	wifiErr  error
	stations []deviceapi.WiFiStation
}

func (f *fakeDevice) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeDevice) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDevice) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeDevice) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

func (f *fakeDevice) ListTopics(ctx context.Context) ([]string, error) {
	f.record("GET topics")
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string{}, f.topics...), nil
}

func (f *fakeDevice) AddTopic(ctx context.Context, topic string) error {
	f.record("POST add %s", topic)
	if f.addErr != nil {
		return f.addErr
	}
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakeDevice) DeleteTopic(ctx context.Context, topic string) error {
	f.record("POST delete %s", topic)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, t := range f.topics {
		if t == topic {
			f.topics = append(f.topics[:i], f.topics[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeDevice) Publish(ctx context.Context, topic, message string) error {
	f.record("POST publish %s %s", topic, message)
	return f.publishErr
}

func (f *fakeDevice) GetSettings(ctx context.Context) (*deviceapi.BrokerSettings, error) {
	f.record("GET settings")
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	s := f.settings
	return &s, nil
}

func (f *fakeDevice) SaveSettings(ctx context.Context, s deviceapi.BrokerSettings) error {
	f.record("POST settings")
	f.saved = append(f.saved, s)
	return f.saveErr
}

func (f *fakeDevice) GetStatus(ctx context.Context) (*deviceapi.Connection, error) {
	f.record("GET status")
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	c := f.status
	return &c, nil
}

func (f *fakeDevice) GetSensors(ctx context.Context) (*deviceapi.SensorReading, error) {
	f.record("GET sensors")
	if f.sensorErr != nil {
		return nil, f.sensorErr
	}
	r := f.reading
	return &r, nil
}

func (f *fakeDevice) GetNetworkMode(ctx context.Context) (deviceapi.NetworkMode, error) {
	f.record("GET network_mode")
	return f.mode, f.modeErr
}

func (f *fakeDevice) SaveWiFiStation(ctx context.Context, s deviceapi.WiFiStation) (string, error) {
	f.record("POST wifi_sta")
	f.stations = append(f.stations, s)
	return f.wifiMsg, f.wifiErr
}

// fakeClock collects scheduled timers instead of sleeping. Tests fire
// them explicitly.
type fakeClock struct {
	pending []pendingTimer
}

type pendingTimer struct {
	d  time.Duration
	fn func(time.Time) tea.Msg
}

func (c *fakeClock) after(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	c.pending = append(c.pending, pendingTimer{d: d, fn: fn})
	return nil
}

// fire removes and returns the messages of every timer scheduled for d
func (c *fakeClock) fire(d time.Duration) []tea.Msg {
	var msgs []tea.Msg
	kept := c.pending[:0]
	for _, t := range c.pending {
		if t.d == d {
			msgs = append(msgs, t.fn(time.Now()))
		} else {
			kept = append(kept, t)
		}
	}
	c.pending = kept
	return msgs
}

func (c *fakeClock) scheduled(d time.Duration) int {
	n := 0
	for _, t := range c.pending {
		if t.d == d {
			n++
		}
	}
	return n
}

// collect runs cmd and flattens batches into their messages
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collect(c)...)
		}
		return msgs
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// settle feeds msgs into the app, running every resulting command until
// nothing is left. Timers stay parked on the clock.
func settle(m AppModel, msgs ...tea.Msg) AppModel {
	queue := append([]tea.Msg(nil), msgs...)
	for i := 0; len(queue) > 0; i++ {
		if i > 1000 {
			panic("settle: message loop did not terminate")
		}
		msg := queue[0]
		queue = queue[1:]
		next, cmd := m.Update(msg)
		m = next.(AppModel)
		queue = append(queue, collect(cmd)...)
	}
	return m
}

// newTestApp builds an app on a fake device and runs its initial load
func newTestApp(dev *fakeDevice) (AppModel, *fakeClock) {
	clock := &fakeClock{}
	m := newAppModel(dev, Options{Address: "test"}, clock.after)
	m = settle(m, collect(m.Init())...)
	return m, clock
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+n":
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case "f1":
		return tea.KeyMsg{Type: tea.KeyF1}
	case "f2":
		return tea.KeyMsg{Type: tea.KeyF2}
	case "f3":
		return tea.KeyMsg{Type: tea.KeyF3}
	case "f4":
		return tea.KeyMsg{Type: tea.KeyF4}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
