package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Device represents a modem found on the network
type Device struct {
	// Name is the advertised instance name (e.g., "modem-lab-1")
	Name string

	// Hostname is the mDNS hostname (e.g., "modem-lab-1.local.")
	Hostname string

	// IP is the device address, IPv4 preferred
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	// Common fields: "model", "firmware", "emulator"
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Modem %s (%s) at %s", d.Name, d.Hostname, d.Address())
}

// Address returns host:port, bracketing IPv6 addresses
func (d *Device) Address() string {
	return net.JoinHostPort(d.IP, strconv.Itoa(d.Port))
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return "http://" + d.Address()
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// IsEmulator reports whether the advertisement came from modem-emulator
func (d *Device) IsEmulator() bool {
	return d.GetMetadata("emulator") == "true"
}
