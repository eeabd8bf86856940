package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and notification counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running: %s\n", yesNo(status.Running))
			if status.Consumer != "" {
				fmt.Fprintf(out, "Consumer: %s\n", status.Consumer)
			}
			fmt.Fprintf(out, "Total notifications: %d\n", status.Total)
			fmt.Fprintf(out, "Unseen: %d\n", status.Unseen)
			fmt.Fprintf(out, "Claimed: %d\n", status.Claimed)
			fmt.Fprintf(out, "Resolved: %d\n", status.Resolved)
			return nil
		},
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
