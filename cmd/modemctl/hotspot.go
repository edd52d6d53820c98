package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/ui"
)

// hotspotView is the JSON form of the access point settings
type hotspotView struct {
	SSID      string `json:"ssid"`
	Hidden    bool   `json:"hidden"`
	AuthMode  string `json:"auth_mode"`
	Password  string `json:"password"`
	Bandwidth int    `json:"bandwidth"`
	Channel   int    `json:"channel"`
}

// stationView is the JSON form of one hotspot client
type stationView struct {
	Name      string `json:"name"`
	MAC       string `json:"mac"`
	IP        string `json:"ip"`
	Connected int64  `json:"connected_seconds"`
}

const restartNote = "The modem restarts to apply this; hotspot clients reconnect afterwards"

func newHotspotCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "hotspot",
		Aliases: []string{"ap"},
		Short:   "Manage the modem's own WiFi hotspot and its clients",
	}
	cmd.AddCommand(
		newHotspotShowCmd(c),
		newHotspotSetCmd(c),
		newHotspotRadioCmd(c),
		newHotspotClientsCmd(c),
		newHotspotKickCmd(c),
		newHotspotRenameCmd(c),
	)
	return cmd
}

func newHotspotShowCmd(c *cli) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the hotspot network and radio settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			h, err := client.GetHotspot(cmd.Context())
			if err != nil {
				return c.fail("failed to load hotspot settings", err)
			}
			radio, err := client.GetHotspotRadio(cmd.Context())
			if err != nil {
				return c.fail("failed to load hotspot radio", err)
			}

			view := hotspotView{
				SSID:      h.SSID,
				Hidden:    h.Hidden,
				AuthMode:  h.AuthMode,
				Password:  deviceapi.MaskSecret(h.Password),
				Bandwidth: radio.Bandwidth,
				Channel:   radio.Channel,
			}
			if reveal {
				view.Password = h.Password
			}

			return c.out.Emit(view, func() {
				c.out.PrintHeader("Hotspot", c.device())
				c.out.PrintDetails(
					ui.Detail{Key: "SSID", Value: view.SSID},
					ui.Detail{Key: "Hidden", Value: strconv.FormatBool(view.Hidden)},
					ui.Detail{Key: "Security", Value: view.AuthMode},
					ui.Detail{Key: "Password", Value: view.Password},
					ui.Detail{Key: "Channel", Value: fmt.Sprintf("%d (%d MHz)", view.Channel, view.Bandwidth)},
				)
			})
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show the password instead of masking it")
	return cmd
}

func newHotspotSetCmd(c *cli) *cobra.Command {
	var (
		ssid     string
		password string
		auth     string
		hidden   bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the hotspot name, security or password",
		Long: `Change the hotspot network. Fields not given keep their current value.

Security is one of ` + strings.Join(deviceapi.AuthModes, ", ") + `.
` + restartNote + `.`,
		Example: `  modemctl hotspot set --ssid field-kit --password 'long enough'
  modemctl hotspot set --hidden`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("ssid") && !flags.Changed("password") && !flags.Changed("auth") && !flags.Changed("hidden") {
				return fmt.Errorf("nothing to change: give --ssid, --password, --auth or --hidden")
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			current, err := client.GetHotspot(cmd.Context())
			if err != nil {
				return c.fail("failed to load hotspot settings", err)
			}

			next := *current
			if flags.Changed("ssid") {
				next.SSID = ssid
			}
			if flags.Changed("password") {
				next.Password = password
			}
			if flags.Changed("auth") {
				next.AuthMode = auth
			}
			if flags.Changed("hidden") {
				next.Hidden = hidden
			}

			next, err = deviceapi.ValidateHotspot(next)
			if err != nil {
				return c.fail("invalid hotspot settings", err)
			}
			if err := client.SaveHotspot(cmd.Context(), next); err != nil {
				return c.fail("failed to save hotspot settings", err)
			}

			view := hotspotView{SSID: next.SSID, Hidden: next.Hidden, AuthMode: next.AuthMode, Password: deviceapi.MaskSecret(next.Password)}
			return c.out.Emit(view, func() {
				c.out.PrintSuccess("Hotspot settings saved",
					ui.Detail{Key: "SSID", Value: next.SSID},
					ui.Detail{Key: "Security", Value: next.AuthMode},
				)
				c.out.PrintWarning(restartNote)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&ssid, "ssid", "", "Hotspot network name")
	f.StringVar(&password, "password", "", "Hotspot password")
	f.StringVar(&auth, "auth", "", "Security mode")
	f.BoolVar(&hidden, "hidden", false, "Hide the SSID")
	return cmd
}

func newHotspotRadioCmd(c *cli) *cobra.Command {
	var (
		channel   int
		bandwidth int
	)

	cmd := &cobra.Command{
		Use:   "radio",
		Short: "Change the hotspot channel or bandwidth",
		Long: `Change the hotspot channel (1-13) or bandwidth (20 or 40 MHz). Fields not
given keep their current value.

` + restartNote + `.`,
		Example: `  modemctl hotspot radio --channel 11
  modemctl hotspot radio --bandwidth 40`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("channel") && !flags.Changed("bandwidth") {
				return fmt.Errorf("nothing to change: give --channel or --bandwidth")
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			current, err := client.GetHotspotRadio(cmd.Context())
			if err != nil {
				return c.fail("failed to load hotspot radio", err)
			}

			next := *current
			if flags.Changed("channel") {
				next.Channel = channel
			}
			if flags.Changed("bandwidth") {
				next.Bandwidth = bandwidth
			}
			if err := deviceapi.ValidateHotspotRadio(next); err != nil {
				return c.fail("invalid radio settings", err)
			}
			if err := client.SaveHotspotRadio(cmd.Context(), next); err != nil {
				return c.fail("failed to save hotspot radio", err)
			}

			return c.out.Emit(next, func() {
				c.out.PrintSuccess("Hotspot radio saved",
					ui.Detail{Key: "Channel", Value: strconv.Itoa(next.Channel)},
					ui.Detail{Key: "Bandwidth", Value: fmt.Sprintf("%d MHz", next.Bandwidth)},
				)
				c.out.PrintWarning(restartNote)
			})
		},
	}

	cmd.Flags().IntVar(&channel, "channel", 0, "WiFi channel")
	cmd.Flags().IntVar(&bandwidth, "bandwidth", 0, "Channel width in MHz")
	return cmd
}

func newHotspotClientsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "clients",
		Aliases: []string{"ls"},
		Short:   "List devices connected to the hotspot",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			stations, err := client.ListStations(cmd.Context())
			if err != nil {
				return c.fail("failed to load hotspot clients", err)
			}

			views := make([]stationView, 0, len(stations))
			lines := make([]string, 0, len(stations))
			for _, st := range stations {
				views = append(views, stationView{
					Name:      st.Name,
					MAC:       st.MAC,
					IP:        st.IP,
					Connected: int64(st.Connected / time.Second),
				})
				lines = append(lines, fmt.Sprintf("%-20s %s  %-15s %s",
					st.Name, st.MAC, st.IP, st.Connected.Truncate(time.Second)))
			}

			return c.out.Emit(views, func() {
				c.out.PrintHeader("Hotspot Clients", c.device())
				c.out.PrintList(lines, "No clients connected")
			})
		},
	}
}

func newHotspotKickCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "kick <mac>",
		Short: "Disconnect a client from the hotspot",
		Long: `Deauthenticate a hotspot client by MAC address. The device may join
again unless the hotspot password changes.

You are asked to confirm unless --yes is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mac, err := deviceapi.NormalizeMAC(args[0])
			if err != nil {
				return c.fail("invalid client", err)
			}

			if !yes {
				if !ui.IsTerminal(c.stdin) && c.in == c.stdin {
					return fmt.Errorf("refusing to disconnect %s without confirmation: pass --yes", mac)
				}
				if !ui.Confirm(c.in, cmd.ErrOrStderr(), fmt.Sprintf("Disconnect client %s?", mac)) {
					c.errOut.Println("Cancelled")
					return nil
				}
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			if err := client.KickStation(cmd.Context(), mac); err != nil {
				return c.fail("failed to disconnect client", err)
			}

			return c.out.Emit(stationView{MAC: mac}, func() {
				c.out.PrintSuccess("Client disconnected", ui.Detail{Key: "MAC", Value: mac})
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Disconnect without asking")
	return cmd
}

func newHotspotRenameCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "rename <mac> <name>",
		Short:   "Give a hotspot client a display name",
		Example: `  modemctl hotspot rename 7c:df:a1:00:00:01 workshop-laptop`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mac, err := deviceapi.NormalizeMAC(args[0])
			if err != nil {
				return c.fail("invalid client", err)
			}
			name, err := deviceapi.ValidateStationName(args[1])
			if err != nil {
				return c.fail("invalid client name", err)
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			if err := client.RenameStation(cmd.Context(), mac, name); err != nil {
				return c.fail("failed to rename client", err)
			}

			return c.out.Emit(stationView{Name: name, MAC: mac}, func() {
				c.out.PrintSuccess("Client renamed",
					ui.Detail{Key: "MAC", Value: mac},
					ui.Detail{Key: "Name", Value: name},
				)
			})
		},
	}
}
