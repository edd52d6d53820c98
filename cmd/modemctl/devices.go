package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/ui"
)

// deviceView is the JSON form of a registry entry
type deviceView struct {
	Name     string     `json:"name"`
	Address  string     `json:"address"`
	Note     string     `json:"note,omitempty"`
	Default  bool       `json:"default"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

func newDevicesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage saved modem addresses",
		Long: `Manage the device registry, a list of named modem addresses kept in
the modemctl configuration directory. Saved names can be passed to
--device, and the default device is used when --device is not given.

Broker credentials and WiFi passwords are never stored in the registry.`,
	}
	cmd.AddCommand(
		newDevicesListCmd(c),
		newDevicesAddCmd(c),
		newDevicesRemoveCmd(c),
		newDevicesDefaultCmd(c),
	)
	return cmd
}

func newDevicesListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defaultName, _ := c.registry.DefaultDevice()

			views := make([]deviceView, 0, len(c.registry.Devices))
			lines := make([]string, 0, len(c.registry.Devices))
			for _, name := range c.registry.DeviceNames() {
				d := c.registry.GetDevice(name)
				v := deviceView{Name: name, Address: d.HostPort(), Note: d.Note, Default: name == defaultName}
				if !d.LastSeen.IsZero() {
					seen := d.LastSeen
					v.LastSeen = &seen
				}
				views = append(views, v)
				lines = append(lines, describeSaved(v))
			}

			return c.out.Emit(views, func() {
				c.out.PrintHeader("Saved Devices", "")
				c.out.PrintList(lines, "No saved devices. Add one with 'modemctl devices add <name> <address>'")
			})
		},
	}
}

func describeSaved(v deviceView) string {
	line := fmt.Sprintf("%s  %s", v.Name, v.Address)
	if v.Default {
		line += "  " + ui.SuccessTitleStyle.Render("(default)")
	}
	if v.Note != "" {
		line += "  " + ui.MutedStyle.Render(v.Note)
	}
	if v.LastSeen != nil {
		line += "  " + ui.MutedStyle.Render("seen "+v.LastSeen.Local().Format(time.DateTime))
	}
	return line
}

func newDevicesAddCmd(c *cli) *cobra.Command {
	var (
		note        string
		makeDefault bool
	)

	cmd := &cobra.Command{
		Use:   "add <name> <address>",
		Short: "Save a modem address under a name",
		Example: `  modemctl devices add lab 192.168.4.1
  modemctl devices add bench 10.0.0.7:8080 --note "emulator on the bench"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			addr, err := hostPort(args[1], c.v.GetInt("port"))
			if err != nil {
				return err
			}
			host, port, err := splitAddress(addr)
			if err != nil {
				return err
			}

			if err := c.registry.AddDevice(name, host, port); err != nil {
				return err
			}
			c.registry.GetDevice(name).Note = note
			if makeDefault {
				if err := c.registry.SetDefault(name); err != nil {
					return err
				}
			}
			if err := c.registry.Save(); err != nil {
				return err
			}

			defaultName, _ := c.registry.DefaultDevice()
			return c.out.Emit(deviceView{Name: name, Address: addr, Note: note, Default: name == defaultName}, func() {
				c.out.PrintSuccess("Device saved",
					ui.Detail{Key: "Name", Value: name},
					ui.Detail{Key: "Address", Value: addr},
					ui.Detail{Key: "Default", Value: fmt.Sprint(name == defaultName)},
				)
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Free-form description")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "Make this the default device")
	return cmd
}

func newDevicesRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <name>",
		Aliases: []string{"remove"},
		Short:   "Forget a saved device",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.registry.RemoveDevice(args[0]); err != nil {
				return err
			}
			if err := c.registry.Save(); err != nil {
				return err
			}
			return c.out.Emit(map[string]string{"removed": args[0]}, func() {
				c.out.PrintSuccess("Device removed", ui.Detail{Key: "Name", Value: args[0]})
			})
		},
	}
}

func newDevicesDefaultCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "default <name>",
		Short: "Use a saved device when --device is not given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.registry.SetDefault(args[0]); err != nil {
				return err
			}
			if err := c.registry.Save(); err != nil {
				return err
			}
			return c.out.Emit(map[string]string{"default": args[0]}, func() {
				c.out.PrintSuccess("Default device set", ui.Detail{Key: "Name", Value: args[0]})
			})
		},
	}
}

// splitAddress separates a host:port produced by hostPort
func splitAddress(addr string) (string, int, error) {
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", p)
	}
	return host, port, nil
}
