package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/modemctl/internal/deviceapi"
)

// Device is the part of *deviceapi.Client the console drives.
type Device interface {
	ListTopics(ctx context.Context) ([]string, error)
	AddTopic(ctx context.Context, topic string) error
	DeleteTopic(ctx context.Context, topic string) error
	Publish(ctx context.Context, topic, message string) error
	GetSettings(ctx context.Context) (*deviceapi.BrokerSettings, error)
	SaveSettings(ctx context.Context, settings deviceapi.BrokerSettings) error
	GetStatus(ctx context.Context) (*deviceapi.Connection, error)
	GetSensors(ctx context.Context) (*deviceapi.SensorReading, error)
	GetNetworkMode(ctx context.Context) (deviceapi.NetworkMode, error)
	SaveWiFiStation(ctx context.Context, station deviceapi.WiFiStation) (string, error)
}

var _ Device = (*deviceapi.Client)(nil)

// scheduler returns a command that delivers fn's message after d.
// Production code uses tea.Tick; tests swap in one that fires at once.
type scheduler func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Delays and intervals used by the panels
const (
	DefaultPollInterval   = 5000 * time.Millisecond
	DefaultSensorInterval = 3000 * time.Millisecond

	topicNoticeDuration    = 3000 * time.Millisecond
	publishNoticeDuration  = 3000 * time.Millisecond
	settingsNoticeDuration = 5000 * time.Millisecond
	wifiNoticeDuration     = 5000 * time.Millisecond
	statusRefreshDelay     = 1000 * time.Millisecond
)
