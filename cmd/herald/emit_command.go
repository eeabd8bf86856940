package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEmitCommand(ctx *commandContext) *cobra.Command {
	var (
		sourceFlag      string
		levelFlag       string
		domainFlag      string
		entityFlag      string
		descriptionFlag string
		visibilityFlag  string
		payloadFlag     string
		fieldFlags      []string
	)

	cmd := &cobra.Command{
		Use:   "emit <event-type>",
		Short: "Emit an event onto the transport log",
		Long: `Emit appends one event to the transport log through the daemon.
Payload fields come either from --payload (a JSON object) or from repeated
--field key=value pairs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			payload := map[string]any{}
			if payloadFlag != "" {
				if err := json.Unmarshal([]byte(payloadFlag), &payload); err != nil {
					return fmt.Errorf("parse --payload: %w", err)
				}
			}
			for _, field := range fieldFlags {
				key, value, found := strings.Cut(field, "=")
				if !found || key == "" {
					return fmt.Errorf("invalid --field %q (want key=value)", field)
				}
				payload[key] = value
			}

			body := map[string]any{
				"type":        args[0],
				"source":      sourceFlag,
				"level":       levelFlag,
				"domain":      domainFlag,
				"entity":      entityFlag,
				"description": descriptionFlag,
				"visibility":  visibilityFlag,
				"payload":     payload,
			}
			entryID, err := client.emit(cmd.Context(), body)
			if err != nil {
				return err
			}
			fmt.Printf("Emitted %s as entry %s.\n", args[0], entryID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "herald-cli", "Event source identifier")
	cmd.Flags().StringVar(&levelFlag, "level", "", "Event level (defaults to the catalog schema)")
	cmd.Flags().StringVar(&domainFlag, "domain", "", "Event domain")
	cmd.Flags().StringVar(&entityFlag, "entity", "", "Opaque entity id")
	cmd.Flags().StringVar(&descriptionFlag, "description", "", "Human-readable description")
	cmd.Flags().StringVar(&visibilityFlag, "visibility", "", "Visibility (local, cluster, public)")
	cmd.Flags().StringVar(&payloadFlag, "payload", "", "Payload as a JSON object")
	cmd.Flags().StringArrayVar(&fieldFlags, "field", nil, "Payload field as key=value (repeatable)")

	return cmd
}
