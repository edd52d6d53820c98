package main

import (
	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/ui"
)

func newWiFiCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wifi",
		Short: "Show the uplink or join a WiFi network",
	}
	cmd.AddCommand(newWiFiShowCmd(c), newWiFiSetCmd(c))
	return cmd
}

func newWiFiShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show whether the modem uses 4G or WiFi",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			mode, err := client.GetNetworkMode(cmd.Context())
			if err != nil {
				return c.fail("failed to load network mode", err)
			}

			view := struct {
				Mode int    `json:"mode"`
				Name string `json:"name"`
			}{int(mode), mode.String()}

			return c.out.Emit(view, func() {
				c.out.PrintHeader("Network", c.device())
				c.out.PrintDetails(ui.Detail{Key: "Uplink", Value: mode.String()})
			})
		},
	}
}

func newWiFiSetCmd(c *cli) *cobra.Command {
	var (
		ssid     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Switch the modem to a WiFi network",
		Long: `Send WiFi station credentials to the modem. It switches from 4G to the
network once connected.

When --password is omitted and stdin is a terminal you are prompted for
it; leave it empty for an open network.`,
		Example: `  modemctl wifi set --ssid workshop
  modemctl wifi set --ssid guest --password ''`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password") && ui.IsTerminal(c.stdin) {
				secret, err := ui.ReadSecret(c.stdin, cmd.ErrOrStderr(), "WiFi password: ")
				if err != nil {
					return err
				}
				password = secret
			}

			station, err := deviceapi.ValidateWiFiStation(deviceapi.WiFiStation{SSID: ssid, Password: password})
			if err != nil {
				return c.fail("invalid WiFi settings", err)
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			msg, err := client.SaveWiFiStation(cmd.Context(), station)
			if err != nil {
				return c.fail("failed to save WiFi settings", err)
			}

			view := struct {
				SSID    string `json:"ssid"`
				Message string `json:"message"`
			}{station.SSID, msg}

			return c.out.Emit(view, func() {
				c.out.PrintSuccess("WiFi settings sent",
					ui.Detail{Key: "SSID", Value: station.SSID},
					ui.Detail{Key: "Modem", Value: msg},
				)
			})
		},
	}

	cmd.Flags().StringVar(&ssid, "ssid", "", "Network name")
	cmd.Flags().StringVar(&password, "password", "", "Network password")
	_ = cmd.MarkFlagRequired("ssid")
	return cmd
}
