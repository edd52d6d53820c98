package server

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

const (
	linkQoS         = 1
	linkWaitTimeout = 5 * time.Second
)

var errNotConnected = errors.New("MQTT not connected")

// Link is the emulated modem's connection to its MQTT broker
type Link interface {
	// Connect drops any existing session and dials the broker in the
	// background. Progress is reported through the status callback.
	Connect(settings deviceapi.BrokerSettings)
	Subscribe(topic string) error
	Unsubscribe(topic string) error
	Publish(topic, payload string) error
	Close()
}

// StatusFunc receives broker link transitions
type StatusFunc func(status deviceapi.ConnectionStatus, message string)

// MessageFunc receives messages on subscribed topics
type MessageFunc func(topic string, payload []byte)

// pahoLink implements Link with the Eclipse Paho client
type pahoLink struct {
	mu       sync.Mutex
	client   mqtt.Client
	clientID string

	onStatus  StatusFunc
	onMessage MessageFunc
	topics    func() []string // resubscribed after every (re)connect
}

// NewPahoLink creates a broker link that reports to the given callbacks
func NewPahoLink(clientID string, onStatus StatusFunc, onMessage MessageFunc, topics func() []string) Link {
	return &pahoLink{
		clientID:  clientID,
		onStatus:  onStatus,
		onMessage: onMessage,
		topics:    topics,
	}
}

// brokerURL maps the firmware's mqtt:// and mqtts:// schemes onto the
// ones Paho dials, adding the default port when missing.
func brokerURL(uri string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", fmt.Errorf("invalid broker URI %q: %w", uri, err)
	}

	var scheme, port string
	switch u.Scheme {
	case "mqtt", "tcp":
		scheme, port = "tcp", "1883"
	case "mqtts", "ssl", "tls":
		scheme, port = "ssl", "8883"
	default:
		return "", fmt.Errorf("unsupported broker scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("broker URI %q has no host", uri)
	}
	if u.Port() != "" {
		port = u.Port()
	}
	return scheme + "://" + net.JoinHostPort(u.Hostname(), port), nil
}

// classifyConnectError maps a failed connect onto the firmware status codes
func classifyConnectError(err error) deviceapi.ConnectionStatus {
	switch {
	case errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedNotAuthorised):
		return deviceapi.StatusFailedAuth
	case errors.Is(err, packets.ErrorRefusedServerUnavailable),
		errors.Is(err, packets.ErrorRefusedBadProtocolVersion),
		errors.Is(err, packets.ErrorRefusedIDRejected):
		return deviceapi.StatusFailedServer
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if strings.Contains(opErr.Error(), "refused") {
			return deviceapi.StatusFailedServer
		}
		return deviceapi.StatusFailedNetwork
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return deviceapi.StatusFailedNetwork
	}
	return deviceapi.StatusFailedUnknown
}

func (l *pahoLink) Connect(settings deviceapi.BrokerSettings) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		l.client.Disconnect(250)
		l.client = nil
	}

	broker, err := brokerURL(settings.Broker)
	if err != nil {
		l.onStatus(deviceapi.StatusFailedServer, err.Error())
		return
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(l.clientID)
	if settings.Username != "" {
		opts.SetUsername(settings.Username)
	}
	if settings.Password != "" {
		opts.SetPassword(settings.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(linkWaitTimeout)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		if !l.current(c) {
			return
		}
		logging.Info("MQTT link connected", zap.String("broker", broker))
		l.onStatus(deviceapi.StatusConnected, "")
		for _, t := range l.topics() {
			c.Subscribe(t, linkQoS, l.handle)
		}
	})
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		if !l.current(c) {
			return
		}
		logging.Warn("MQTT link lost", zap.Error(err))
		l.onStatus(deviceapi.StatusFailedNetwork, err.Error())
	})
	opts.SetReconnectingHandler(func(c mqtt.Client, o *mqtt.ClientOptions) {
		if l.current(c) {
			l.onStatus(deviceapi.StatusConnecting, "")
		}
	})

	client := mqtt.NewClient(opts)
	l.client = client
	l.onStatus(deviceapi.StatusConnecting, "")

	logging.Info("MQTT link connecting", zap.String("broker", broker))
	go func() {
		token := client.Connect()
		token.Wait()
		if err := token.Error(); err != nil && l.current(client) {
			status := classifyConnectError(err)
			logging.Warn("MQTT link connect failed",
				zap.String("broker", broker),
				zap.Stringer("status", status),
				zap.Error(err))
			l.onStatus(status, err.Error())
		}
	}()
}

func (l *pahoLink) handle(_ mqtt.Client, msg mqtt.Message) {
	l.onMessage(msg.Topic(), msg.Payload())
}

// current reports whether c is the session of the latest Connect.
// Callbacks from a replaced session must not touch the status.
func (l *pahoLink) current(c mqtt.Client) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.client == c
}

// connected returns the live client, or nil
func (l *pahoLink) connected() mqtt.Client {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client == nil || !l.client.IsConnected() {
		return nil
	}
	return l.client
}

// Subscribe is a no-op while disconnected; the topic list is replayed on
// the next connect.
func (l *pahoLink) Subscribe(topic string) error {
	c := l.connected()
	if c == nil {
		return nil
	}
	return wait(c.Subscribe(topic, linkQoS, l.handle))
}

func (l *pahoLink) Unsubscribe(topic string) error {
	c := l.connected()
	if c == nil {
		return nil
	}
	return wait(c.Unsubscribe(topic))
}

func (l *pahoLink) Publish(topic, payload string) error {
	c := l.connected()
	if c == nil {
		return errNotConnected
	}
	return wait(c.Publish(topic, linkQoS, false, payload))
}

func (l *pahoLink) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.client != nil {
		l.client.Disconnect(250)
		l.client = nil
	}
}

func wait(token mqtt.Token) error {
	if !token.WaitTimeout(linkWaitTimeout) {
		return fmt.Errorf("MQTT operation timed out")
	}
	return token.Error()
}
