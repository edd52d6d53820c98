// Modem-emulator serves the cellular modem's web API for development.
//
// It behaves like the modem firmware: a subscription list, broker settings
// and a real MQTT session to the configured broker, plus synthetic sensor
// readings. It can run its own MQTT broker and advertise itself over mDNS
// so that 'modemctl scan' finds it.
//
// Usage:
//
//	modem-emulator [flags]
//
// Defaults come from EMULATOR_* environment variables or a .env file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/server"
	"github.com/muurk/modemctl/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		listen         string
		broker         string
		username       string
		password       string
		embeddedBroker string
		advertise      bool
		name           string
		topics         []string
		stations       []string
		logLevel       string
	)

	cmd := &cobra.Command{
		Use:   "modem-emulator",
		Short: "Cellular modem web API emulator",
		Long: `Serves the same HTTP API as the modem firmware so modemctl can be used
without hardware.

The emulated modem keeps a real MQTT session with the configured broker.
Use --embedded-broker to run a broker in the same process.`,
		Example: `  # Everything in one process
  modem-emulator --embedded-broker :1883 --broker mqtt://127.0.0.1:1883

  # Against an existing broker, discoverable with 'modemctl scan'
  modem-emulator --broker mqtts://broker.example.com --advertise

  # Preload subscriptions
  modem-emulator --topic fleet/cmd --topic fleet/ota

  # Show two clients on the hotspot
  modem-emulator --station 7c:df:a1:00:00:01@192.168.4.2 --station 7c:df:a1:00:00:02@192.168.4.3`,
		Version:      version.Full(),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := server.LoadConfig()
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("listen") {
				config.ListenAddr = listen
			}
			if flags.Changed("broker") {
				config.BrokerURI = broker
			}
			if flags.Changed("username") {
				config.BrokerUsername = username
			}
			if flags.Changed("password") {
				config.BrokerPassword = password
			}
			if flags.Changed("embedded-broker") {
				config.EmbeddedBroker = embeddedBroker
			}
			if flags.Changed("advertise") {
				config.Advertise = advertise
			}
			if flags.Changed("name") {
				config.Name = name
			}
			if flags.Changed("topic") {
				config.Topics = topics
			}
			if flags.Changed("station") {
				config.Stations = stations
			}
			if flags.Changed("log-level") {
				config.LogLevel = logLevel
			}

			srv, err := server.New(config)
			if err != nil {
				return fmt.Errorf("failed to create emulator: %w", err)
			}
			return srv.Start()
		},
	}

	// Disable automatic completion command generation
	cmd.CompletionOptions.DisableDefaultCmd = true

	f := cmd.Flags()
	f.StringVar(&listen, "listen", ":8080", "HTTP listen address (EMULATOR_LISTEN)")
	f.StringVar(&broker, "broker", "mqtt://127.0.0.1:1883", "Broker URI the modem connects to (EMULATOR_BROKER_URI)")
	f.StringVar(&username, "username", "", "Broker username (EMULATOR_BROKER_USERNAME)")
	f.StringVar(&password, "password", "", "Broker password (EMULATOR_BROKER_PASSWORD)")
	f.StringVar(&embeddedBroker, "embedded-broker", "", "Run an MQTT broker on this address (EMULATOR_EMBEDDED_BROKER)")
	f.BoolVar(&advertise, "advertise", false, "Advertise over mDNS (EMULATOR_ADVERTISE)")
	f.StringVar(&name, "name", "modem-emulator", "Instance name and MQTT client ID (EMULATOR_NAME)")
	f.StringArrayVar(&topics, "topic", nil, "Subscription to preload, repeatable (EMULATOR_TOPICS)")
	f.StringArrayVar(&stations, "station", nil, "Hotspot client as mac@ip, repeatable (EMULATOR_STATIONS)")
	f.StringVar(&logLevel, "log-level", "info", "Log level (EMULATOR_LOG_LEVEL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("modem-emulator %s\n", version.Get())
		},
	})
	return cmd
}
