package server

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/muurk/modemctl/internal/deviceapi"
)

func TestStateTopics(t *testing.T) {
	s := NewState(deviceapi.BrokerSettings{}, []string{"a", " b ", "a", ""})

	got := s.Topics()
	if strings.Join(got, ",") != "a,b" {
		t.Fatalf("Topics() = %v, want [a b]", got)
	}

	if err := s.AddTopic("a"); !errors.Is(err, errTopicExists) {
		t.Errorf("AddTopic(duplicate) error = %v, want %v", err, errTopicExists)
	}
	if err := s.AddTopic(strings.Repeat("x", deviceapi.MaxTopicLength+1)); !errors.Is(err, errTopicInvalid) {
		t.Errorf("AddTopic(too long) error = %v, want %v", err, errTopicInvalid)
	}
	if err := s.DeleteTopic("missing"); !errors.Is(err, errTopicMissing) {
		t.Errorf("DeleteTopic(missing) error = %v, want %v", err, errTopicMissing)
	}
	if err := s.DeleteTopic("a"); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}
	if got := s.Topics(); strings.Join(got, ",") != "b" {
		t.Errorf("Topics() = %v, want [b]", got)
	}
}

func TestStateTopicLimit(t *testing.T) {
	s := NewState(deviceapi.BrokerSettings{}, nil)
	for i := 0; i < deviceapi.MaxTopics; i++ {
		if err := s.AddTopic(fmt.Sprintf("t/%d", i)); err != nil {
			t.Fatalf("AddTopic(%d) error = %v", i, err)
		}
	}
	if err := s.AddTopic("one/more"); !errors.Is(err, errTopicLimit) {
		t.Errorf("AddTopic(over limit) error = %v, want %v", err, errTopicLimit)
	}
}

func TestStateTopicsIsACopy(t *testing.T) {
	s := NewState(deviceapi.BrokerSettings{}, []string{"a"})
	got := s.Topics()
	got[0] = "mutated"
	if s.Topics()[0] != "a" {
		t.Error("Topics() exposed internal storage")
	}
}

func TestStateUpdateSettingsPartial(t *testing.T) {
	s := NewState(deviceapi.BrokerSettings{Broker: "mqtt://a", Username: "u", Password: "p"}, nil)

	broker := "mqtt://b"
	got := s.UpdateSettings(settingsUpdate{Broker: &broker})

	want := deviceapi.BrokerSettings{Broker: "mqtt://b", Username: "u", Password: "p"}
	if got != want {
		t.Errorf("UpdateSettings() = %+v, want %+v", got, want)
	}
}

func TestStateStatusClearsMessageWhenHealthy(t *testing.T) {
	s := NewState(deviceapi.BrokerSettings{}, nil)

	s.SetStatus(deviceapi.StatusFailedAuth, "bad credentials")
	if code, msg := s.Status(); code != deviceapi.StatusFailedAuth || msg != "bad credentials" {
		t.Errorf("Status() = %v, %q", code, msg)
	}

	s.SetStatus(deviceapi.StatusConnected, "ignored")
	if code, msg := s.Status(); code != deviceapi.StatusConnected || msg != "" {
		t.Errorf("Status() = %v, %q, want connected with no message", code, msg)
	}
}

func TestStateStation(t *testing.T) {
	s := NewState(deviceapi.BrokerSettings{}, nil)
	if s.NetworkMode() != deviceapi.NetworkMode4G {
		t.Errorf("NetworkMode() = %v, want 4G at boot", s.NetworkMode())
	}
	s.SetStation("lab-wifi")
	if s.NetworkMode() != deviceapi.NetworkModeWiFiStation || s.SSID() != "lab-wifi" {
		t.Errorf("after SetStation: mode %v ssid %q", s.NetworkMode(), s.SSID())
	}
}
