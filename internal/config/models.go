package config

import (
	"fmt"
	"net"
	"sort"
	"strings"
	"time"
)

// CurrentVersion is the registry schema version
const CurrentVersion = 1

// Preference defaults
const (
	DefaultPollInterval    = 5  // seconds
	DefaultRequestTimeout  = 5  // seconds
	DefaultNarrowWidth     = 80 // columns
	DefaultDiscoverTimeout = 5  // seconds
	DefaultPort            = 80
)

// Registry is the whole configuration file: named modem profiles and
// console preferences.
//
// Broker credentials and WiFi passwords never go in here. They live on
// the modem and are only ever fetched from it.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // keyed by profile name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is a saved modem address
type Device struct {
	Address  string    `yaml:"address"`             // host name or IP
	Port     int       `yaml:"port,omitempty"`      // HTTP port, 80 when unset
	Note     string    `yaml:"note,omitempty"`      // free-form description
	LastSeen time.Time `yaml:"last_seen,omitempty"` // last successful contact
}

// HostPort returns the address joined with its port
func (d *Device) HostPort() string {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(d.Address, fmt.Sprint(port))
}

// Preferences holds console-wide settings. Durations are whole seconds.
type Preferences struct {
	DefaultDevice   string `yaml:"default_device,omitempty"`
	PollInterval    int    `yaml:"poll_interval"`
	RequestTimeout  int    `yaml:"request_timeout"`
	NarrowWidth     int    `yaml:"narrow_width"`
	DiscoverTimeout int    `yaml:"discover_timeout"`
}

func defaultPreferences() *Preferences {
	return &Preferences{
		PollInterval:    DefaultPollInterval,
		RequestTimeout:  DefaultRequestTimeout,
		NarrowWidth:     DefaultNarrowWidth,
		DiscoverTimeout: DefaultDiscoverTimeout,
	}
}

// PollIntervalDuration returns the status poll interval
func (p *Preferences) PollIntervalDuration() time.Duration {
	return seconds(p.PollInterval, DefaultPollInterval)
}

// RequestTimeoutDuration returns the per-request timeout
func (p *Preferences) RequestTimeoutDuration() time.Duration {
	return seconds(p.RequestTimeout, DefaultRequestTimeout)
}

// DiscoverTimeoutDuration returns how long mDNS scans run
func (p *Preferences) DiscoverTimeoutDuration() time.Duration {
	return seconds(p.DiscoverTimeout, DefaultDiscoverTimeout)
}

func seconds(v, fallback int) time.Duration {
	if v <= 0 {
		v = fallback
	}
	return time.Duration(v) * time.Second
}

// NewRegistry creates an empty registry with default preferences
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// GetDevice returns the named profile, or nil
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// AddDevice creates or replaces a profile. The first profile added becomes
// the default.
func (r *Registry) AddDevice(name, address string, port int) error {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" {
		return fmt.Errorf("device name required")
	}
	if address == "" {
		return fmt.Errorf("device address required")
	}
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	r.Devices[name] = &Device{Address: address, Port: port}

	if r.prefs().DefaultDevice == "" {
		r.Preferences.DefaultDevice = name
	}
	return nil
}

// RemoveDevice deletes a profile, clearing the default if it pointed there
func (r *Registry) RemoveDevice(name string) error {
	if _, ok := r.Devices[name]; !ok {
		return fmt.Errorf("no device named %q", name)
	}
	delete(r.Devices, name)
	if r.prefs().DefaultDevice == name {
		r.Preferences.DefaultDevice = ""
	}
	return nil
}

// SetDefault selects the profile used when no device is given
func (r *Registry) SetDefault(name string) error {
	if _, ok := r.Devices[name]; !ok {
		return fmt.Errorf("no device named %q", name)
	}
	r.prefs().DefaultDevice = name
	return nil
}

// DefaultDevice returns the default profile and its name, or nil
func (r *Registry) DefaultDevice() (string, *Device) {
	name := r.prefs().DefaultDevice
	if name == "" {
		return "", nil
	}
	return name, r.Devices[name]
}

// MarkSeen records a successful contact with a profile
func (r *Registry) MarkSeen(name string, at time.Time) {
	if d := r.Devices[name]; d != nil {
		d.LastSeen = at
	}
}

// DeviceNames returns the profile names in sorted order
func (r *Registry) DeviceNames() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prefs returns the preferences, filling defaults if the section is absent
func (r *Registry) Prefs() *Preferences {
	return r.prefs()
}

func (r *Registry) prefs() *Preferences {
	if r.Preferences == nil {
		r.Preferences = defaultPreferences()
	}
	return r.Preferences
}
