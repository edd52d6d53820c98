package server

import (
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/muurk/modemctl/internal/deviceapi"
)

// fakeLink records what the handlers ask of the broker link
type fakeLink struct {
	mu         sync.Mutex
	connected  bool
	connects   []deviceapi.BrokerSettings
	subscribed []string
	removed    []string
	published  []string
	closed     bool
}

func (l *fakeLink) Connect(s deviceapi.BrokerSettings) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connects = append(l.connects, s)
}

func (l *fakeLink) Subscribe(topic string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subscribed = append(l.subscribed, topic)
	return nil
}

func (l *fakeLink) Unsubscribe(topic string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removed = append(l.removed, topic)
	return nil
}

func (l *fakeLink) Publish(topic, payload string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.connected {
		return errNotConnected
	}
	l.published = append(l.published, topic+" "+payload)
	return nil
}

func (l *fakeLink) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func testConfig() *Config {
	return &Config{
		ListenAddr:   "127.0.0.1:0",
		Name:         "test-modem",
		BrokerURI:    "mqtt://broker.local:1883",
		SensorSeed:   42,
		FeedTTL:      60,
		FeedCapacity: 10,
	}
}

// newTestEmulator serves the emulator API from an httptest server and
// returns a device client pointed at it
func newTestEmulator(t *testing.T, cfg *Config) (*Server, *fakeLink, *deviceapi.Client) {
	t.Helper()

	link := &fakeLink{}
	s := newServer(cfg, link)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	s.ap = newAccessPoint(cfg, s.now())

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	client := deviceapi.NewClientWithURL(ts.URL)
	client.SetTimeout(2 * time.Second)
	return s, link, client
}

// eventually polls cond until it holds or the deadline passes
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
