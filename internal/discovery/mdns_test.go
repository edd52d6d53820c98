package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func newEntry(instance, host string, port int, v4, v6 []net.IP, text []string) *zeroconf.ServiceEntry {
	entry := zeroconf.NewServiceEntry(instance, ServiceType, ServiceDomain)
	entry.HostName = host
	entry.Port = port
	entry.AddrIPv4 = v4
	entry.AddrIPv6 = v6
	entry.Text = text
	return entry
}

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantIP   string
		wantPort int
	}{
		{
			name:     "modem with IPv4",
			entry:    newEntry("modem-lab-1", "modem-lab-1.local.", 80, []net.IP{net.ParseIP("192.168.4.1")}, nil, []string{"model=esp32-4g"}),
			wantName: "modem-lab-1",
			wantIP:   "192.168.4.1",
			wantPort: 80,
		},
		{
			name:     "emulator on custom port",
			entry:    newEntry("emulator", "builder.local.", 8080, []net.IP{net.ParseIP("10.0.0.5")}, nil, []string{"emulator=true"}),
			wantName: "emulator",
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name:     "no port defaults to 80",
			entry:    newEntry("modem", "modem.local.", 0, []net.IP{net.ParseIP("172.16.0.1")}, nil, nil),
			wantName: "modem",
			wantIP:   "172.16.0.1",
			wantPort: 80,
		},
		{
			name:     "instance missing falls back to hostname",
			entry:    newEntry("", "garage-modem.local.", 80, []net.IP{net.ParseIP("192.168.1.9")}, nil, nil),
			wantName: "garage-modem",
			wantIP:   "192.168.1.9",
			wantPort: 80,
		},
		{
			name:    "no address",
			entry:   newEntry("modem", "modem.local.", 80, nil, nil, nil),
			wantNil: true,
		},
		{
			name:     "IPv6 only",
			entry:    newEntry("modem6", "modem6.local.", 80, nil, []net.IP{net.ParseIP("fe80::1")}, nil),
			wantName: "modem6",
			wantIP:   "fe80::1",
			wantPort: 80,
		},
		{
			name:     "prefers IPv4",
			entry:    newEntry("dual", "dual.local.", 80, []net.IP{net.ParseIP("192.168.1.50")}, []net.IP{net.ParseIP("fe80::2")}, nil),
			wantName: "dual",
			wantIP:   "192.168.1.50",
			wantPort: 80,
		},
		{
			name:    "nil entry",
			entry:   nil,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.Name != tt.wantName {
				t.Errorf("device.Name = %v, want %v", device.Name, tt.wantName)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := newEntry("modem", "modem.local.", 80, []net.IP{net.ParseIP("192.168.4.1")}, nil,
		[]string{"model=esp32-4g", "firmware=1.4.2", "emulator"})

	device := parseServiceEntry(entry)
	if device == nil {
		t.Fatal("parseServiceEntry() = nil, want device")
	}

	expected := map[string]string{
		"model":    "esp32-4g",
		"firmware": "1.4.2",
		"emulator": "",
	}

	if len(device.Metadata) != len(expected) {
		t.Errorf("device.Metadata has %d entries, want %d", len(device.Metadata), len(expected))
	}
	for key, want := range expected {
		if got, ok := device.Metadata[key]; !ok {
			t.Errorf("device.Metadata missing key %q", key)
		} else if got != want {
			t.Errorf("device.Metadata[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestSortDevices(t *testing.T) {
	found := map[string]*Device{
		"b": {Name: "zeta", IP: "10.0.0.2", Port: 80},
		"a": {Name: "alpha", IP: "10.0.0.9", Port: 80},
		"c": {Name: "alpha", IP: "10.0.0.1", Port: 80},
	}

	devices := sortDevices(found)

	want := []string{"10.0.0.1:80", "10.0.0.9:80", "10.0.0.2:80"}
	for i, d := range devices {
		if d.Address() != want[i] {
			t.Errorf("devices[%d] = %s, want %s", i, d.Address(), want[i])
		}
	}
}

func TestNewScanner(t *testing.T) {
	s := NewScanner()

	if s.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", s.Timeout, DefaultScanTimeout)
	}
	if s.service() != ServiceType {
		t.Errorf("service() = %s, want %s", s.service(), ServiceType)
	}

	s.Service = ""
	if s.service() != ServiceType {
		t.Error("empty Service should fall back to ServiceType")
	}
}

func TestAdvertisement_ShutdownNil(t *testing.T) {
	var a *Advertisement
	a.Shutdown()
}
