package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/logging"
)

func newMonitorCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream messages the modem receives (emulator only)",
		Long: `Stream the MQTT messages the modem receives on its subscribed topics.

The feed is served by modem-emulator; real firmware has no such endpoint.
Recently received messages are replayed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			streamURL, err := client.StreamURL()
			if err != nil {
				return err
			}

			dialer := websocket.Dialer{HandshakeTimeout: c.timeout()}
			conn, resp, err := dialer.DialContext(cmd.Context(), streamURL, nil)
			if err != nil {
				if resp != nil && resp.StatusCode == http.StatusNotFound {
					return fmt.Errorf("%s has no message feed; monitor works with modem-emulator only", c.device())
				}
				return c.fail("failed to open message feed", deviceapi.ClassifyNetworkError(err, deviceapi.PathMessagesStream))
			}
			defer conn.Close()
			logging.LogConnection(streamURL, "monitor_opened")

			// Unblock ReadJSON when the command is interrupted
			go func() {
				<-cmd.Context().Done()
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				_ = conn.Close()
			}()

			if !c.out.JSON() {
				c.out.Printf("Streaming messages from %s (Ctrl+C to stop)\n\n", c.device())
			}

			for n := 0; limit <= 0 || n < limit; n++ {
				var msg deviceapi.StreamedMessage
				if err := conn.ReadJSON(&msg); err != nil {
					if cmd.Context().Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
						return nil
					}
					var closeErr *websocket.CloseError
					if errors.As(err, &closeErr) {
						logging.Info("Message feed closed", zap.Int("code", closeErr.Code))
						return nil
					}
					return fmt.Errorf("message feed: %w", err)
				}
				printMessage(c, msg)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "count", "n", 0, "Stop after this many messages (0 = unlimited)")
	return cmd
}

func printMessage(c *cli, msg deviceapi.StreamedMessage) {
	if c.out.JSON() {
		_ = c.out.Emit(msg, nil)
		return
	}
	at := time.Unix(msg.ReceivedAt, 0).Format(time.TimeOnly)
	c.out.Printf("%s  %s  %s\n", at, msg.Topic, msg.Payload)
}
