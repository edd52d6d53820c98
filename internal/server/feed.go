package server

import (
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/muurk/modemctl/internal/deviceapi"
)

// subscriberBuffer is how many messages a slow monitor may lag before
// messages are dropped for it
const subscriberBuffer = 64

// Feed fans received MQTT messages out to monitor clients and keeps the
// recent ones for replay to clients that connect later.
type Feed struct {
	recent *ttlcache.Cache[uint64, deviceapi.StreamedMessage]

	mu          sync.Mutex
	seq         uint64
	subscribers map[chan deviceapi.StreamedMessage]struct{}
	started     bool

	now func() time.Time
}

// NewFeed keeps up to capacity messages for ttl each
func NewFeed(ttl time.Duration, capacity uint64) *Feed {
	return &Feed{
		recent: ttlcache.New[uint64, deviceapi.StreamedMessage](
			ttlcache.WithTTL[uint64, deviceapi.StreamedMessage](ttl),
			ttlcache.WithCapacity[uint64, deviceapi.StreamedMessage](capacity),
		),
		subscribers: make(map[chan deviceapi.StreamedMessage]struct{}),
		now:         time.Now,
	}
}

// Start runs expiry in the background until Stop
func (f *Feed) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started {
		return
	}
	f.started = true
	go f.recent.Start()
}

// Stop ends background expiry
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.started {
		return
	}
	f.started = false
	f.recent.Stop()
}

// Add records a message and delivers it to every subscriber
func (f *Feed) Add(topic string, payload []byte) deviceapi.StreamedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	msg := deviceapi.StreamedMessage{
		Topic:      topic,
		Payload:    string(payload),
		ReceivedAt: f.now().Unix(),
	}
	f.recent.Set(f.seq, msg, ttlcache.DefaultTTL)

	for ch := range f.subscribers {
		select {
		case ch <- msg:
		default:
		}
	}
	return msg
}

// Recent returns unexpired messages oldest first
func (f *Feed) Recent() []deviceapi.StreamedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recentLocked()
}

func (f *Feed) recentLocked() []deviceapi.StreamedMessage {
	items := f.recent.Items()
	keys := make([]uint64, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]deviceapi.StreamedMessage, 0, len(keys))
	for _, k := range keys {
		out = append(out, items[k].Value())
	}
	return out
}

// Subscribe returns the replay backlog and a channel of later messages.
// Nothing is lost or repeated between the two. Call cancel when done.
func (f *Feed) Subscribe() (backlog []deviceapi.StreamedMessage, ch <-chan deviceapi.StreamedMessage, cancel func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := make(chan deviceapi.StreamedMessage, subscriberBuffer)
	f.subscribers[c] = struct{}{}

	cancel = func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subscribers, c)
	}
	return f.recentLocked(), c, cancel
}

// Subscribers returns the number of connected monitors
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
