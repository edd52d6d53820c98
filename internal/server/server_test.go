package server

import (
	"context"
	"testing"
	"time"

	"github.com/muurk/modemctl/internal/deviceapi"
)

func TestRunServesUntilCancelled(t *testing.T) {
	link := &fakeLink{}
	s := newServer(testConfig(), link)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var client *deviceapi.Client
	eventually(t, "listener", func() bool {
		if s.Addr() == s.config.ListenAddr {
			return false
		}
		client = deviceapi.NewClientWithURL("http://" + s.Addr())
		return client.Ping(context.Background()) == nil
	})

	link.mu.Lock()
	connects := len(link.connects)
	link.mu.Unlock()
	if connects != 1 {
		t.Errorf("link connects at start = %d, want 1", connects)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}

	link.mu.Lock()
	defer link.mu.Unlock()
	if !link.closed {
		t.Error("link not closed on shutdown")
	}
}

func TestRunWithEmbeddedBroker(t *testing.T) {
	cfg := testConfig()
	cfg.EmbeddedBroker = "127.0.0.1:0"
	link := &fakeLink{}
	s := newServer(cfg, link)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	eventually(t, "embedded broker", func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.broker != nil && s.listener != nil
	})

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestRunListenError(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "256.0.0.1:bad"
	s := newServer(cfg, &fakeLink{})

	if err := s.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want listen failure")
	}
}
