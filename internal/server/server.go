package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/discovery"
	"github.com/muurk/modemctl/internal/logging"
	"github.com/muurk/modemctl/internal/version"
)

// Server is an emulated modem: the firmware's HTTP API backed by a real
// MQTT client session.
type Server struct {
	config  *Config
	state   *State
	ap      *AccessPoint
	link    Link
	feed    *Feed
	sensors *SensorSim
	now     func() time.Time

	mu         sync.Mutex
	broker     *Broker
	adv        *discovery.Advertisement
	httpServer *http.Server
	listener   net.Listener
}

// New creates an emulator whose broker link is a Paho client
func New(config *Config) (*Server, error) {
	if err := logging.Initialize(config.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	s := newServer(config, nil)
	s.link = NewPahoLink(config.Name, s.state.SetStatus, s.deliver, s.state.Topics)
	return s, nil
}

// newServer wires everything except the process-level side effects
func newServer(config *Config, link Link) *Server {
	settings := deviceapi.BrokerSettings{
		Broker:   config.BrokerURI,
		Username: config.BrokerUsername,
		Password: config.BrokerPassword,
	}
	return &Server{
		config:  config,
		state:   NewState(settings, config.Topics),
		ap:      newAccessPoint(config, time.Now()),
		link:    link,
		feed:    NewFeed(config.FeedTTLDuration(), config.feedCapacity()),
		sensors: NewSensorSim(int64(config.SensorSeed)),
		now:     time.Now,
	}
}

// deliver handles a message arriving on a subscribed topic
func (s *Server) deliver(topic string, payload []byte) {
	logging.LogMQTTMessage("received", topic, payload)
	s.feed.Add(topic, payload)
}

// State exposes the emulated device state
func (s *Server) State() *State {
	return s.state
}

// AccessPoint exposes the emulated hotspot
func (s *Server) AccessPoint() *AccessPoint {
	return s.ap
}

// Addr returns the HTTP listen address once running
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.config.ListenAddr
	}
	return s.listener.Addr().String()
}

// Start runs the emulator until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx ends, then shuts down
func (s *Server) Run(ctx context.Context) error {
	if s.config.EmbeddedBroker != "" {
		broker, err := StartBroker(s.config.EmbeddedBroker, s.config.BrokerUsername, s.config.BrokerPassword)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.broker = broker
		s.mu.Unlock()
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		_ = s.Shutdown(context.Background())
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	s.feed.Start()
	s.link.Connect(s.state.Settings())

	if s.config.Advertise {
		s.advertise(listener.Addr())
	}

	logging.Info("Modem emulator listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("broker", s.config.BrokerURI),
		zap.Bool("embedded_broker", s.config.EmbeddedBroker != ""),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping emulator...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) advertise(addr net.Addr) {
	_, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		logging.Warn("Cannot advertise: bad listen address", zap.Error(err))
		return
	}
	port, _ := strconv.Atoi(portStr)

	adv, err := discovery.Advertise(s.config.Name, port, []string{
		"model=modem-emulator",
		"firmware=" + version.Short(),
		"emulator=true",
	})
	if err != nil {
		logging.Warn("mDNS advertisement failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.adv = adv
	s.mu.Unlock()
	logging.Info("Advertising on mDNS",
		zap.String("instance", s.config.Name),
		zap.String("service", discovery.ServiceType),
		zap.Int("port", port))
}

// Shutdown stops every component the emulator started
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down emulator...")

	s.mu.Lock()
	httpServer, adv, broker := s.httpServer, s.adv, s.broker
	s.httpServer, s.adv, s.broker = nil, nil, nil
	s.mu.Unlock()

	var err error
	if httpServer != nil {
		if shutdownErr := httpServer.Shutdown(ctx); shutdownErr != nil {
			logging.Warn("HTTP shutdown incomplete", zap.Error(shutdownErr))
			err = shutdownErr
		}
	}

	adv.Shutdown()
	if s.link != nil {
		s.link.Close()
	}
	s.feed.Stop()
	if closeErr := broker.Close(); closeErr != nil {
		logging.Warn("Embedded broker close failed", zap.Error(closeErr))
	}

	logging.Sync()
	return err
}
