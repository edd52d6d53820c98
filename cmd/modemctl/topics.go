package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muurk/modemctl/internal/deviceapi"
	"github.com/muurk/modemctl/internal/ui"
)

// topicList is the JSON form of the subscription list
type topicList struct {
	Topics []string `json:"topics"`
	Count  int      `json:"count"`
	Max    int      `json:"max"`
}

func newTopicsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "topics",
		Aliases: []string{"topic"},
		Short:   "Manage the modem's subscription topics",
	}
	cmd.AddCommand(newTopicsListCmd(c), newTopicsAddCmd(c), newTopicsRemoveCmd(c))
	return cmd
}

func newTopicsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List subscribed topics in the modem's order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			topics, err := client.ListTopics(cmd.Context())
			if err != nil {
				return c.fail("failed to load topics", err)
			}
			return printTopics(c, topics)
		},
	}
}

func printTopics(c *cli, topics []string) error {
	list := topicList{Topics: topics, Count: len(topics), Max: deviceapi.MaxTopics}
	return c.out.Emit(list, func() {
		c.out.PrintHeader("Subscribed Topics", c.device())
		c.out.PrintList(topics, "No topics subscribed")
		c.out.Newline()
		c.out.PrintGauge(ui.NewGauge("Topics", float64(len(topics)), deviceapi.MaxTopics))
	})
}

func newTopicsAddCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "add <topic>",
		Short: "Subscribe the modem to a topic",
		Example: `  modemctl topics add sensors/+/temperature
  modemctl topics add 'fleet/#' --device lab-modem`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic, err := deviceapi.ValidateTopic(args[0])
			if err != nil {
				return c.fail("invalid topic", err)
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			if err := client.AddTopic(cmd.Context(), topic); err != nil {
				return c.fail("failed to add topic", err)
			}

			topics, err := client.ListTopics(cmd.Context())
			if err != nil {
				return c.fail("topic added, but failed to reload topics", err)
			}
			if !c.out.JSON() {
				c.out.PrintSuccess("Topic added", ui.Detail{Key: "Topic", Value: topic})
			}
			return printTopics(c, topics)
		},
	}
}

func newTopicsRemoveCmd(c *cli) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <topic>",
		Aliases: []string{"remove", "delete"},
		Short:   "Unsubscribe the modem from a topic",
		Long: `Unsubscribe the modem from a topic.

The topic must match an entry of 'modemctl topics list' exactly. You are
asked to confirm unless --yes is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := args[0]

			if !yes {
				if !ui.IsTerminal(c.stdin) && c.in == c.stdin {
					return fmt.Errorf("refusing to delete %q without confirmation: pass --yes", topic)
				}
				if !ui.ConfirmDelete(c.in, cmd.ErrOrStderr(), topic) {
					c.errOut.Println("Cancelled")
					return nil
				}
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			if err := client.DeleteTopic(cmd.Context(), topic); err != nil {
				return c.fail("failed to delete topic", err)
			}

			topics, err := client.ListTopics(cmd.Context())
			if err != nil {
				return c.fail("topic deleted, but failed to reload topics", err)
			}
			if !c.out.JSON() {
				c.out.PrintSuccess("Topic deleted", ui.Detail{Key: "Topic", Value: topic})
			}
			return printTopics(c, topics)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func newPublishCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <topic> <message>",
		Short: "Have the modem publish a message",
		Long: `Ask the modem to publish a message on a topic through its own broker
connection. The modem must be connected to its broker.`,
		Example: `  modemctl publish devices/lab/cmd '{"led":"on"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := deviceapi.ValidatePublish(args[0], args[1])
			if err != nil {
				return c.fail("invalid message", err)
			}

			client, err := c.client()
			if err != nil {
				return err
			}
			if err := client.Publish(cmd.Context(), req.Topic, req.Message); err != nil {
				return c.fail("failed to publish message", err)
			}

			return c.out.Emit(req, func() {
				c.out.PrintSuccess("Message published",
					ui.Detail{Key: "Topic", Value: req.Topic},
					ui.Detail{Key: "Message", Value: req.Message},
				)
			})
		},
	}
}
