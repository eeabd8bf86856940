package main

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"herald/internal/api"
	"herald/internal/textutil"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		levelFlag       string
		domainFlag      string
		humanStatusFlag string
		agentStatusFlag string
		visibilityFlag  string
		sinceFlag       string
		limitFlag       int
		offsetFlag      int
		unseenFlag      bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}

			params := url.Values{}
			setParam(params, "level", levelFlag)
			setParam(params, "domain", domainFlag)
			setParam(params, "human_status", humanStatusFlag)
			setParam(params, "agent_status", agentStatusFlag)
			setParam(params, "visibility", visibilityFlag)
			if unseenFlag {
				params.Set("human_status", "unseen")
			}
			if sinceFlag != "" {
				since, err := parseSince(sinceFlag)
				if err != nil {
					return err
				}
				params.Set("since", since.Format(time.RFC3339))
			}
			if limitFlag > 0 {
				params.Set("limit", strconv.Itoa(limitFlag))
			}
			if offsetFlag > 0 {
				params.Set("offset", strconv.Itoa(offsetFlag))
			}

			notifications, err := client.list(cmd.Context(), params)
			if err != nil {
				return err
			}
			if len(notifications) == 0 {
				fmt.Println("No notifications.")
				return nil
			}
			fmt.Println(renderNotificationTable(notifications))
			return nil
		},
	}

	cmd.Flags().StringVar(&levelFlag, "level", "", "Filter by level (infrastructure, operational, workflow, business)")
	cmd.Flags().StringVar(&domainFlag, "domain", "", "Filter by domain")
	cmd.Flags().StringVar(&humanStatusFlag, "human-status", "", "Filter by human status (unseen, seen)")
	cmd.Flags().StringVar(&agentStatusFlag, "agent-status", "", "Filter by agent status (none, claimed, in_progress, resolved)")
	cmd.Flags().StringVar(&visibilityFlag, "visibility", "", "Filter by visibility (local, cluster, public)")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "Only notifications created after this time (RFC3339 or duration like 24h)")
	cmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum rows to return")
	cmd.Flags().IntVar(&offsetFlag, "offset", 0, "Rows to skip")
	cmd.Flags().BoolVar(&unseenFlag, "unseen", false, "Shorthand for --human-status unseen")

	return cmd
}

func setParam(params url.Values, key, value string) {
	if strings.TrimSpace(value) != "" {
		params.Set(key, strings.TrimSpace(value))
	}
}

// parseSince accepts an absolute RFC3339 timestamp or a relative duration
// like "24h" counted back from now.
func parseSince(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(value); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid since value %q (want RFC3339 or duration)", value)
}

func renderNotificationTable(notifications []api.Notification) string {
	rows := make([][]string, 0, len(notifications))
	for _, n := range notifications {
		description := textutil.Truncate(textutil.CollapseSpace(n.Description), 60)
		rows = append(rows, []string{
			strconv.FormatInt(n.ID, 10),
			n.EventType,
			n.Level,
			n.HumanStatus,
			n.AgentStatus,
			shortTime(n.CreatedAt),
			description,
		})
	}
	return renderTable(
		[]string{"ID", "Event", "Level", "Human", "Agent", "Created", "Description"},
		rows,
	)
}

func shortTime(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	return t.Local().Format("2006-01-02 15:04")
}
