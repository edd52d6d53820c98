package server

import (
	"fmt"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Config holds the emulator configuration. Every field can come from the
// environment or an optional .env file; command-line flags override them.
type Config struct {
	ListenAddr       string   `env:"EMULATOR_LISTEN" envDefault:":8080"`
	Name             string   `env:"EMULATOR_NAME" envDefault:"modem-emulator"`
	BrokerURI        string   `env:"EMULATOR_BROKER_URI" envDefault:"mqtt://127.0.0.1:1883"`
	BrokerUsername   string   `env:"EMULATOR_BROKER_USERNAME" envDefault:""`
	BrokerPassword   string   `env:"EMULATOR_BROKER_PASSWORD" envDefault:""`
	EmbeddedBroker   string   `env:"EMULATOR_EMBEDDED_BROKER" envDefault:""` // listen address, empty = disabled
	Advertise        bool     `env:"EMULATOR_ADVERTISE" envDefault:"false"`
	Topics           []string `env:"EMULATOR_TOPICS" envSeparator:","`
	SensorSeed       int      `env:"EMULATOR_SENSOR_SEED" envDefault:"1"`
	HotspotSSID      string   `env:"EMULATOR_HOTSPOT_SSID" envDefault:"modem-hotspot"`
	HotspotAuth      string   `env:"EMULATOR_HOTSPOT_AUTH" envDefault:"WPA_WPA2_PSK"`
	HotspotPassword  string   `env:"EMULATOR_HOTSPOT_PASSWORD" envDefault:"modem1234"`
	HotspotChannel   int      `env:"EMULATOR_HOTSPOT_CHANNEL" envDefault:"1"`
	HotspotBandwidth int      `env:"EMULATOR_HOTSPOT_BANDWIDTH" envDefault:"20"` // MHz
	Stations         []string `env:"EMULATOR_STATIONS" envSeparator:","`        // mac@ip, associated at boot
	FeedTTL          int      `env:"EMULATOR_FEED_TTL" envDefault:"300"`         // seconds
	FeedCapacity     int      `env:"EMULATOR_FEED_CAPACITY" envDefault:"100"`    // messages
	LogLevel         string   `env:"EMULATOR_LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads .env when present, then the environment
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// FeedTTLDuration returns how long received messages stay replayable
func (c *Config) FeedTTLDuration() time.Duration {
	if c.FeedTTL <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.FeedTTL) * time.Second
}

func (c *Config) feedCapacity() uint64 {
	if c.FeedCapacity <= 0 {
		return 100
	}
	return uint64(c.FeedCapacity)
}
