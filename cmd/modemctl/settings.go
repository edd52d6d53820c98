package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/ui"
)

// statusRefreshDelay gives the modem time to start reconnecting before
// the status is read back after a save
var statusRefreshDelay = 1 * time.Second

// settingsView is the JSON form of the broker settings
type settingsView struct {
	Broker   string `json:"broker"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the modem's MQTT broker settings",
	}
	cmd.AddCommand(newSettingsShowCmd(c), newSettingsSetCmd(c))
	return cmd
}

func newSettingsShowCmd(c *cli) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the broker settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			settings, err := client.GetSettings(cmd.Context())
			if err != nil {
				return c.fail("failed to load settings", err)
			}

			view := settingsView{
				Broker:   settings.Broker,
				Username: settings.Username,
				Password: deviceapi.MaskSecret(settings.Password),
			}
			if reveal {
				view.Password = settings.Password
			}

			return c.out.Emit(view, func() {
				c.out.PrintHeader("Broker Settings", c.device())
				c.out.PrintDetails(
					ui.Detail{Key: "Broker", Value: view.Broker},
					ui.Detail{Key: "Username", Value: orNone(view.Username)},
					ui.Detail{Key: "Password", Value: view.Password},
				)
			})
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show the password instead of masking it")
	return cmd
}

func newSettingsSetCmd(c *cli) *cobra.Command {
	var (
		broker   string
		username string
		password string
		noStatus bool
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change the broker settings",
		Long: `Change the broker settings. The modem reconnects as soon as they are saved.

Fields that are not given keep their current value. When --password is
omitted and stdin is a terminal you are prompted for it; an empty answer
keeps the current password.`,
		Example: `  modemctl settings set --broker mqtts://broker.example.com:8883 --username modem01
  modemctl settings set --password ''`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("broker") {
				if err := deviceapi.ValidateBroker(strings.TrimSpace(broker)); err != nil {
					return c.fail("invalid settings", err)
				}
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			current, err := client.GetSettings(cmd.Context())
			if err != nil {
				return c.fail("failed to load settings", err)
			}

			next := *current
			if cmd.Flags().Changed("broker") {
				next.Broker = broker
			}
			if cmd.Flags().Changed("username") {
				next.Username = username
			}
			switch {
			case cmd.Flags().Changed("password"):
				next.Password = password
			case ui.IsTerminal(c.stdin):
				secret, err := ui.ReadSecret(c.stdin, cmd.ErrOrStderr(), "Password (empty keeps current): ")
				if err != nil {
					return err
				}
				if secret != "" {
					next.Password = secret
				}
			}

			next, err = deviceapi.ValidateSettings(next)
			if err != nil {
				return c.fail("invalid settings", err)
			}
			if err := client.SaveSettings(cmd.Context(), next); err != nil {
				return c.fail("failed to save settings", err)
			}

			if !c.out.JSON() {
				c.out.PrintSuccess("Settings saved, modem reconnecting",
					ui.Detail{Key: "Broker", Value: next.Broker},
					ui.Detail{Key: "Username", Value: orNone(next.Username)},
					ui.Detail{Key: "Password", Value: deviceapi.MaskSecret(next.Password)},
				)
			}
			if noStatus {
				return nil
			}

			select {
			case <-cmd.Context().Done():
				return nil
			case <-time.After(statusRefreshDelay):
			}
			conn, err := client.GetStatus(cmd.Context())
			if err != nil {
				return c.fail("failed to load status", err)
			}
			return printConnection(c, conn)
		},
	}

	cmd.Flags().StringVar(&broker, "broker", "", "Broker URI (mqtt:// or mqtts://)")
	cmd.Flags().StringVar(&username, "username", "", "Broker username")
	cmd.Flags().StringVar(&password, "password", "", "Broker password")
	cmd.Flags().BoolVar(&noStatus, "no-status", false, "Do not read the connection status back after saving")
	return cmd
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
