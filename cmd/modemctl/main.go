// Modemctl is a console for the MQTT client of a cellular modem.
//
// It talks to the modem's embedded web server over HTTP to manage the
// subscription topic list, publish test messages, change broker settings,
// and watch the broker connection and on-board sensors. The modem does
// all MQTT work; modemctl never connects to a broker itself.
//
// Usage:
//
//	modemctl [command] [flags]
//
// Running without arguments opens the full-screen console.
// See 'modemctl --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/config"
	"github.com/muurk/modemctl/internal/console/tui"
	"github.com/muurk/modemctl/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(newCLI()).ExecuteContext(ctx)
	stop()

	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around c
func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "modemctl",
		Short: "Cellular modem MQTT console",
		Long: `A console for the MQTT client of a cellular modem.

Manages the modem's subscription topics, publishes test messages, edits
broker settings, and shows the broker connection and sensor readings. All
of it goes through the modem's local web API.

If no command is specified, the interactive console launches.`,
		Version:       version.Full(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.finish()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConsole(cmd)
		},
	}

	// Disable automatic completion command generation
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringP("device", "d", "", "Modem address or saved device name (skips discovery)")
	pf.IntP("port", "p", config.DefaultPort, "Modem HTTP port when --device has none")
	pf.Duration("timeout", config.DefaultRequestTimeout*time.Second, "Per-request timeout")
	pf.Duration("poll-interval", tui.DefaultPollInterval, "Status poll interval")
	pf.String("format", "text", "Output format (text, json)")
	pf.String("log-level", "", "Log level (debug, info, warn, error); silent when empty")
	pf.String("log-file", "", "Write logs to this file")

	root.Flags().Int("narrow-width", config.DefaultNarrowWidth, "Terminal width at or below which long topics are shortened")

	c.bind(pf)
	c.bind(root.Flags())

	root.AddCommand(
		newScanCmd(c),
		newTopicsCmd(c),
		newPublishCmd(c),
		newSettingsCmd(c),
		newStatusCmd(c),
		newSensorsCmd(c),
		newWiFiCmd(c),
		newHotspotCmd(c),
		newMonitorCmd(c),
		newDevicesCmd(c),
		newVersionCmd(c),
	)
	return root
}

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			return c.out.Emit(info, func() {
				c.out.Println("modemctl " + info.String())
			})
		},
	}
}
