package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/console/tui"
	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/ui"
)

// connectionView is the JSON form of a status observation
type connectionView struct {
	Status       int    `json:"status"`
	Text         string `json:"status_text"`
	ErrorMessage string `json:"error_message,omitempty"`
	Healthy      bool   `json:"healthy"`
}

func newStatusCmd(c *cli) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the modem's broker connection status",
		Long: `Show the modem's MQTT connection status.

With --watch the status is polled every --poll-interval until interrupted.
A failed poll is reported and the last known status stays on screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			if !follow {
				conn, err := client.GetStatus(cmd.Context())
				if err != nil {
					return c.fail("failed to load status", err)
				}
				return printConnection(c, conn)
			}

			interval := c.v.GetDuration("poll-interval")
			var last *deviceapi.Connection
			watch(cmd.Context(), interval, func() {
				conn, err := client.GetStatus(cmd.Context())
				if err != nil {
					if cmd.Context().Err() != nil {
						return
					}
					c.errOut.Printf("%s  %s\n", time.Now().Format(time.TimeOnly), deviceapi.FailureMessage("failed to load status", err))
					return
				}
				if last != nil && *last == *conn {
					return
				}
				last = conn
				if c.out.JSON() {
					_ = c.out.Emit(newConnectionView(conn), nil)
					return
				}
				c.out.Printf("%s  %s\n", time.Now().Format(time.TimeOnly), conn.FormatConnection())
			})
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "Keep polling until interrupted")
	return cmd
}

func newConnectionView(conn *deviceapi.Connection) connectionView {
	return connectionView{
		Status:       int(conn.Status),
		Text:         conn.Label(),
		ErrorMessage: conn.ErrorMessage,
		Healthy:      !conn.Status.IsError(),
	}
}

func printConnection(c *cli, conn *deviceapi.Connection) error {
	return c.out.Emit(newConnectionView(conn), func() {
		details := []ui.Detail{
			{Key: "Status", Value: conn.Label()},
			{Key: "Code", Value: fmt.Sprint(int(conn.Status))},
		}
		if conn.ErrorMessage != "" {
			details = append(details, ui.Detail{Key: "Error", Value: conn.ErrorMessage})
		}

		switch {
		case conn.Status == deviceapi.StatusConnected:
			c.out.PrintSuccess("MQTT connected", details...)
		case conn.Status.IsError():
			c.out.PrintError("MQTT connection failed", fmt.Errorf("%s", conn.Label()), statusHints(conn.Status))
		default:
			c.out.PrintWarning("MQTT "+conn.Label(), details...)
		}
	})
}

func statusHints(s deviceapi.ConnectionStatus) []string {
	switch s {
	case deviceapi.StatusFailedAuth:
		return []string{"Check the username and password with 'modemctl settings set'"}
	case deviceapi.StatusFailedServer:
		return []string{"Check the broker address and port", "Make sure the broker is running"}
	case deviceapi.StatusFailedNetwork:
		return []string{"Check the modem's uplink with 'modemctl wifi show'", "Check cellular coverage"}
	default:
		return nil
	}
}

func newSensorsCmd(c *cli) *cobra.Command {
	var (
		follow   bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Show the modem's environment and position readings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}

			show := func() error {
				r, err := client.GetSensors(cmd.Context())
				if err != nil {
					return err
				}
				return c.out.Emit(r, func() {
					c.out.PrintHeader("Sensors", c.device())
					c.out.PrintDetails(sensorDetails(r)...)
				})
			}

			if !follow {
				if err := show(); err != nil {
					return c.fail("failed to load sensors", err)
				}
				return nil
			}

			watch(cmd.Context(), interval, func() {
				if err := show(); err != nil && cmd.Context().Err() == nil {
					c.errOut.Println(deviceapi.FailureMessage("failed to load sensors", err))
				}
			})
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "Keep polling until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", tui.DefaultSensorInterval, "Poll interval with --watch")
	return cmd
}

func sensorDetails(r *deviceapi.SensorReading) []ui.Detail {
	details := []ui.Detail{}
	if r.SensorsValid {
		details = append(details,
			ui.Detail{Key: "Temperature", Value: fmt.Sprintf("%.1f °C", r.Temperature)},
			ui.Detail{Key: "Humidity", Value: fmt.Sprintf("%.1f %%", r.Humidity)},
			ui.Detail{Key: "Light", Value: fmt.Sprintf("%.0f lx", r.LightIntensity)},
		)
	} else {
		details = append(details, ui.Detail{Key: "Environment", Value: "no valid reading"})
	}
	if r.GPSValid {
		details = append(details,
			ui.Detail{Key: "Position", Value: deviceapi.FormatCoordinate(r.Latitude, r.NSIndicator) + ", " + deviceapi.FormatCoordinate(r.Longitude, r.EWIndicator)},
			ui.Detail{Key: "Altitude", Value: fmt.Sprintf("%.1f m", r.Altitude)},
			ui.Detail{Key: "Speed", Value: fmt.Sprintf("%.1f km/h", r.Speed)},
			ui.Detail{Key: "Course", Value: fmt.Sprintf("%.1f°", r.Course)},
			ui.Detail{Key: "Source", Value: r.LocationSource()},
		)
	} else {
		details = append(details, ui.Detail{Key: "Position", Value: "no fix"})
	}
	details = append(details, ui.Detail{Key: "Updated", Value: r.FormatTimestamp()})
	return details
}
