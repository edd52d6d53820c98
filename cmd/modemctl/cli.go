package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/config"
	"github.com/muurk/modemctl/internal/console/tui"
	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/discovery"
	"github.com/muurk/modemctl/internal/logging"
	"github.com/muurk/modemctl/internal/ui"
)

// envPrefix namespaces the environment variables viper reads,
// e.g. MODEMCTL_DEVICE or MODEMCTL_POLL_INTERVAL
const envPrefix = "MODEMCTL"

// reportedError is an error already shown to the user as a result box.
// main exits non-zero without printing it again.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// errCancelled is returned when the user leaves the device picker
var errCancelled = errors.New("no device selected")

// cli is the state shared by every command of one invocation
type cli struct {
	v *viper.Viper

	// in answers confirmation prompts; stdin is used for secrets, which
	// need a terminal
	in    io.Reader
	stdin *os.File

	out    *ui.Printer
	errOut *ui.Printer

	registry *config.Registry
	target   *target

	// scan browses mDNS for the given duration
	scan func(time.Duration) ([]*discovery.Device, error)
	// pick lets the user choose among scan results
	pick func(tui.ScanFunc) (*discovery.Device, error)
}

// target is the modem a command talks to
type target struct {
	name    string // registry profile, empty for ad-hoc addresses
	address string // host:port
}

func newCLI() *cli {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &cli{
		v:     v,
		in:    os.Stdin,
		stdin: os.Stdin,
		scan:  discovery.ScanForDevices,
		pick:  tui.Pick,
	}
}

func (c *cli) bind(fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = c.v.BindPFlag(f.Name, f)
	})
}

// setup loads the registry, lets its preferences fill in values no flag or
// environment variable set, and starts logging.
func (c *cli) setup(cmd *cobra.Command) error {
	registry, err := config.Load()
	if err != nil {
		return err
	}
	c.registry = registry

	prefs := registry.Prefs()
	c.v.SetDefault("timeout", prefs.RequestTimeoutDuration())
	c.v.SetDefault("poll-interval", prefs.PollIntervalDuration())
	c.v.SetDefault("narrow-width", prefs.NarrowWidth)

	format, err := ui.ParseFormat(c.v.GetString("format"))
	if err != nil {
		return err
	}
	c.out = ui.NewPrinter(cmd.OutOrStdout(), format)
	c.errOut = ui.NewPrinter(cmd.ErrOrStderr(), ui.FormatText)

	opts := logging.Options{
		Level: c.v.GetString("log-level"),
		File:  c.v.GetString("log-file"),
	}
	// The console owns the terminal, so its logs always go to a file
	if cmd == cmd.Root() && opts.File == "" && opts.Level != "" {
		if dir, err := config.GetConfigDir(); err == nil {
			if err := os.MkdirAll(dir, 0700); err == nil {
				opts.File = filepath.Join(dir, "modemctl.log")
			}
		}
	}
	if err := logging.Configure(opts); err != nil {
		return err
	}

	logging.Debug("Command starting",
		zap.String("command", cmd.CommandPath()),
		zap.Duration("timeout", c.timeout()),
		zap.String("format", c.v.GetString("format")))
	return nil
}

// finish records contact with a saved device
func (c *cli) finish() error {
	defer logging.Sync()

	if c.target == nil || c.target.name == "" || c.registry == nil {
		return nil
	}
	c.registry.MarkSeen(c.target.name, time.Now())
	if err := c.registry.Save(); err != nil {
		logging.Warn("Failed to update device registry", zap.Error(err))
	}
	return nil
}

func (c *cli) timeout() time.Duration {
	return c.v.GetDuration("timeout")
}

// hostPort appends port to addr unless it already carries one
func hostPort(addr string, port int) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("device address required")
	}
	if _, p, err := net.SplitHostPort(addr); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return "", fmt.Errorf("invalid port %q", p)
		}
		return addr, nil
	}
	if port <= 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %d", port)
	}
	return net.JoinHostPort(strings.Trim(addr, "[]"), strconv.Itoa(port)), nil
}

// resolveTarget picks the modem to talk to: --device (a saved name or an
// address), then MODEMCTL_DEVICE, then the registry default, then the
// only modem answering mDNS. With interactive set, several or no mDNS
// answers open the picker instead of failing.
func (c *cli) resolveTarget(interactive bool) (*target, error) {
	if dev := strings.TrimSpace(c.v.GetString("device")); dev != "" {
		if d := c.registry.GetDevice(dev); d != nil {
			return &target{name: dev, address: d.HostPort()}, nil
		}
		addr, err := hostPort(dev, c.v.GetInt("port"))
		if err != nil {
			return nil, err
		}
		return &target{address: addr}, nil
	}

	if name, d := c.registry.DefaultDevice(); d != nil {
		return &target{name: name, address: d.HostPort()}, nil
	}

	wait := c.registry.Prefs().DiscoverTimeoutDuration()
	logging.Info("No device configured, browsing mDNS", zap.Duration("timeout", wait))
	found, err := c.scan(wait)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}
	if len(found) == 1 {
		return &target{address: found[0].Address()}, nil
	}

	if interactive {
		dev, err := c.pick(func() ([]*discovery.Device, error) { return c.scan(wait) })
		if err != nil {
			return nil, err
		}
		if dev == nil {
			return nil, errCancelled
		}
		return &target{address: dev.Address()}, nil
	}

	if len(found) == 0 {
		return nil, fmt.Errorf("no modems found. Use --device to specify one")
	}
	names := make([]string, 0, len(found))
	for _, d := range found {
		names = append(names, fmt.Sprintf("%s (%s)", d.Name, d.Address()))
	}
	return nil, fmt.Errorf("multiple modems found: %s. Use --device to choose one", strings.Join(names, ", "))
}

// client resolves the target and returns an API client for it
func (c *cli) client() (*deviceapi.Client, error) {
	t, err := c.resolveTarget(false)
	if err != nil {
		return nil, err
	}
	c.target = t

	client := deviceapi.NewClientWithURL("http://" + t.address)
	client.SetTimeout(c.timeout())
	logging.Debug("Using device", zap.String("address", t.address), zap.String("profile", t.name))
	return client, nil
}

// fail shows err as a failure box with troubleshooting tips
func (c *cli) fail(action string, err error) error {
	c.errOut.PrintError(deviceapi.FailureMessage(action, err), err, deviceapi.GetTroubleshootingHint(err))
	return &reportedError{err: fmt.Errorf("%s: %w", action, err)}
}

func (c *cli) device() string {
	if c.target == nil {
		return ""
	}
	if c.target.name != "" {
		return c.target.name + " (" + c.target.address + ")"
	}
	return c.target.address
}

// runConsole opens the full-screen console on the resolved modem
func (c *cli) runConsole(cmd *cobra.Command) error {
	t, err := c.resolveTarget(ui.IsTerminal(c.stdin))
	if errors.Is(err, errCancelled) {
		return nil
	}
	if err != nil {
		return err
	}
	c.target = t

	client := deviceapi.NewClientWithURL("http://" + t.address)
	client.SetTimeout(c.timeout())

	return tui.Run(client, tui.Options{
		Address:        c.device(),
		PollInterval:   c.v.GetDuration("poll-interval"),
		SensorInterval: tui.DefaultSensorInterval,
		NarrowWidth:    c.v.GetInt("narrow-width"),
	})
}

// watch calls fn now and then every interval until ctx ends
func watch(ctx context.Context, interval time.Duration, fn func()) {
	fn()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
