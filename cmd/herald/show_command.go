package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one notification in full",
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
			notification, err := client.get(cmd.Context(), id)
			if err != nil {
				return err
			}

			encoded, err := json.MarshalIndent(notification, "", "  ")
			if err != nil {
				return fmt.Errorf("encode notification: %w", err)
			}
			fmt.Println(string(encoded))
			return nil
		},
	}
}
