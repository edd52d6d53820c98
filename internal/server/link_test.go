package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"

	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/muurk/modemctl/internal/deviceapi"
)

func TestBrokerURL(t *testing.T) {
	tests := []struct {
		uri     string
		want    string
		wantErr bool
	}{
		{"mqtt://broker.local", "tcp://broker.local:1883", false},
		{"mqtt://broker.local:1884", "tcp://broker.local:1884", false},
		{"mqtts://broker.local", "ssl://broker.local:8883", false},
		{"tcp://10.0.0.1:1883", "tcp://10.0.0.1:1883", false},
		{"  mqtt://spaced  ", "tcp://spaced:1883", false},
		{"mqtt://[::1]:1883", "tcp://[::1]:1883", false},
		{"http://broker.local", "", true},
		{"mqtt://", "", true},
		{"broker.local", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			got, err := brokerURL(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("brokerURL(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("brokerURL(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestClassifyConnectError(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	unreachable := &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.EHOSTUNREACH)}

	tests := []struct {
		name string
		err  error
		want deviceapi.ConnectionStatus
	}{
		{"bad credentials", packets.ErrorRefusedBadUsernameOrPassword, deviceapi.StatusFailedAuth},
		{"not authorised", fmt.Errorf("connect: %w", packets.ErrorRefusedNotAuthorised), deviceapi.StatusFailedAuth},
		{"server unavailable", packets.ErrorRefusedServerUnavailable, deviceapi.StatusFailedServer},
		{"connection refused", refused, deviceapi.StatusFailedServer},
		{"host unreachable", unreachable, deviceapi.StatusFailedNetwork},
		{"dns", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, deviceapi.StatusFailedNetwork},
		{"other", errors.New("boom"), deviceapi.StatusFailedUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyConnectError(tt.err); got != tt.want {
				t.Errorf("classifyConnectError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPahoLinkDisconnected(t *testing.T) {
	link := NewPahoLink("test", func(deviceapi.ConnectionStatus, string) {}, func(string, []byte) {}, func() []string { return nil })

	if err := link.Subscribe("a"); err != nil {
		t.Errorf("Subscribe() while disconnected error = %v, want nil", err)
	}
	if err := link.Unsubscribe("a"); err != nil {
		t.Errorf("Unsubscribe() while disconnected error = %v, want nil", err)
	}
	if err := link.Publish("a", "b"); !errors.Is(err, errNotConnected) {
		t.Errorf("Publish() while disconnected error = %v, want %v", err, errNotConnected)
	}
	link.Close()
}

func TestPahoLinkRejectsBadURI(t *testing.T) {
	var got deviceapi.ConnectionStatus
	link := NewPahoLink("test", func(s deviceapi.ConnectionStatus, _ string) { got = s }, nil, nil)

	link.Connect(deviceapi.BrokerSettings{Broker: "ftp://nowhere"})
	if got != deviceapi.StatusFailedServer {
		t.Errorf("status = %v, want %v", got, deviceapi.StatusFailedServer)
	}
}
