package server

import (
	"bytes"
	"fmt"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/logging"
)

// Broker is an in-process MQTT broker so the emulator runs without
// external infrastructure.
type Broker struct {
	server *mochi.Server
	addr   string
}

// credentialHook accepts clients presenting the configured credentials.
// With no username configured every client is accepted.
type credentialHook struct {
	mochi.HookBase
	username string
	password string
}

func (h *credentialHook) ID() string {
	return "modem-emulator-credentials"
}

func (h *credentialHook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mochi.OnConnectAuthenticate,
		mochi.OnACLCheck,
	}, []byte{b})
}

func (h *credentialHook) OnConnectAuthenticate(cl *mochi.Client, pk packets.Packet) bool {
	if h.username == "" {
		return true
	}
	ok := string(pk.Connect.Username) == h.username && string(pk.Connect.Password) == h.password
	if !ok {
		logging.Warn("Embedded broker rejected client", zap.String("client_id", cl.ID))
	}
	return ok
}

func (h *credentialHook) OnACLCheck(cl *mochi.Client, topic string, write bool) bool {
	return true
}

// StartBroker serves MQTT on addr until Close
func StartBroker(addr, username, password string) (*Broker, error) {
	server := mochi.New(&mochi.Options{InlineClient: true})

	hook := &credentialHook{username: username, password: password}
	if err := server.AddHook(hook, nil); err != nil {
		return nil, fmt.Errorf("failed to add broker hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{Type: "tcp", ID: "emulator", Address: addr})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		if err := server.Serve(); err != nil {
			logging.Error("Embedded broker stopped", zap.Error(err))
		}
	}()

	logging.Info("Embedded MQTT broker listening", zap.String("addr", tcp.Address()))
	return &Broker{server: server, addr: tcp.Address()}, nil
}

// Addr returns the listen address
func (b *Broker) Addr() string {
	return b.addr
}

// Inject publishes a message from the broker itself, as if an external
// client had sent it.
func (b *Broker) Inject(topic, payload string) error {
	return b.server.Publish(topic, []byte(payload), false, 0)
}

// Close stops the broker and disconnects its clients
func (b *Broker) Close() error {
	if b == nil || b.server == nil {
		return nil
	}
	return b.server.Close()
}
