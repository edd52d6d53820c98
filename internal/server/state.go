package server

import (
	"errors"
	"strings"
	"sync"

	"github.com/muurk/modemctl/internal/deviceapi"
)

// Topic registry failures, reported to clients as the reply message
var (
	errTopicInvalid = errors.New("invalid topic")
	errTopicExists  = errors.New("topic already subscribed")
	errTopicLimit   = errors.New("topic limit reached")
	errTopicMissing = errors.New("topic not found")
)

// State is everything the emulated firmware keeps in RAM and flash. HTTP
// handlers and MQTT callbacks both reach it, so every access goes through
// the lock.
type State struct {
	mu sync.RWMutex

	topics   []string
	settings deviceapi.BrokerSettings

	status   deviceapi.ConnectionStatus
	errorMsg string

	mode deviceapi.NetworkMode
	ssid string
}

// NewState creates the boot-time state from the configured defaults
func NewState(settings deviceapi.BrokerSettings, topics []string) *State {
	s := &State{settings: settings, mode: deviceapi.NetworkMode4G}
	for _, t := range topics {
		_ = s.AddTopic(t)
	}
	return s
}

// Topics returns a copy of the subscription list in insertion order
func (s *State) Topics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.topics...)
}

// AddTopic appends a topic, enforcing the firmware limits
func (s *State) AddTopic(topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" || len(topic) > deviceapi.MaxTopicLength {
		return errTopicInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.topics {
		if t == topic {
			return errTopicExists
		}
	}
	if len(s.topics) >= deviceapi.MaxTopics {
		return errTopicLimit
	}
	s.topics = append(s.topics, topic)
	return nil
}

// DeleteTopic removes a topic by exact name
func (s *State) DeleteTopic(topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, t := range s.topics {
		if t == topic {
			s.topics = append(s.topics[:i], s.topics[i+1:]...)
			return nil
		}
	}
	return errTopicMissing
}

// Settings returns the stored broker settings
func (s *State) Settings() deviceapi.BrokerSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// settingsUpdate carries only the fields a save request included
type settingsUpdate struct {
	Broker   *string `json:"broker"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

// UpdateSettings overwrites the fields present in u and returns the result
func (s *State) UpdateSettings(u settingsUpdate) deviceapi.BrokerSettings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.Broker != nil {
		s.settings.Broker = *u.Broker
	}
	if u.Username != nil {
		s.settings.Username = *u.Username
	}
	if u.Password != nil {
		s.settings.Password = *u.Password
	}
	return s.settings
}

// Status returns the broker link state
func (s *State) Status() (deviceapi.ConnectionStatus, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.errorMsg
}

// SetStatus records a broker link transition. Healthy states clear the
// error message.
func (s *State) SetStatus(status deviceapi.ConnectionStatus, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
	if status.IsError() {
		s.errorMsg = msg
	} else {
		s.errorMsg = ""
	}
}

// NetworkMode returns the current uplink
func (s *State) NetworkMode() deviceapi.NetworkMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetStation stores station credentials and switches the uplink to WiFi
func (s *State) SetStation(ssid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ssid = ssid
	s.mode = deviceapi.NetworkModeWiFiStation
}

// SSID returns the configured station network, if any
func (s *State) SSID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ssid
}
