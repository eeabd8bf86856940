package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"herald/internal/event"
)

func newSeenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seen <id>",
		Short: "Mark a notification as seen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return markSeen(ctx, cmd, args[0], true)
		},
	}
}

func newUnseenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unseen <id>",
		Short: "Mark a notification as unseen again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return markSeen(ctx, cmd, args[0], false)
		},
	}
}

func markSeen(ctx *commandContext, cmd *cobra.Command, rawID string, seen bool) error {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid notification id %q", rawID)
	}
	client, err := ctx.client()
	if err != nil {
		return err
	}
	notification, err := client.setSeen(cmd.Context(), id, seen)
	if err != nil {
		return err
	}
	fmt.Printf("Notification %d is now %s.\n", notification.ID, notification.HumanStatus)
	return nil
}

func newClaimCommand(ctx *commandContext) *cobra.Command {
	var agentFlag string
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim a notification for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid notification id %q", args[0])
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			notification, err := client.setAgentStatus(cmd.Context(), id, statusFlag, agentFlag)
			if err != nil {
				return err
			}
			fmt.Printf("Notification %d agent status: %s", notification.ID, notification.AgentStatus)
			if notification.AgentID != "" {
				fmt.Printf(" (%s)", notification.AgentID)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "Agent identifier taking the notification")
	cmd.Flags().StringVar(&statusFlag, "status", "claimed", "Agent status to set (claimed, in_progress, resolved)")
	return cmd
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var noteFlag string

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Terminally resolve a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid notification id %q", args[0])
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}

			resolution := event.Payload{}
			if noteFlag != "" {
				resolution["note"] = noteFlag
			}
			notification, err := client.resolve(cmd.Context(), id, resolution)
			if err != nil {
				return err
			}
			fmt.Printf("Notification %d resolved at %s.\n", notification.ID, notification.ResolvedAt)
			return nil
		},
	}

	cmd.Flags().StringVar(&noteFlag, "note", "", "Resolution note stored with the notification")
	return cmd
}
