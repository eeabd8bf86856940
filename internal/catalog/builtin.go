package catalog

import "herald/internal/event"

// Builtin returns the catalog populated with the schema set for the
// orchestrator's own event families. The daemon registers exactly this set
// at startup; there is no runtime mutation surface.
func Builtin() *Catalog {
	c := New()
	for _, schema := range builtinSchemas() {
		c.MustRegister(schema)
	}
	return c
}

func builtinSchemas() []*Schema {
	return []*Schema{
		{
			EventType:         "system.daemon.restarted",
			Description:       "The herald daemon started on a machine",
			Level:             event.LevelInfrastructure,
			Domain:            "system",
			Visibility:        event.VisibilityLocal,
			IdempotencyFields: []string{"computer", "pid"},
			Lifecycle:         &Lifecycle{Creates: true},
		},
		{
			EventType:         "system.transport.lagging",
			Description:       "The event log consumer is falling behind",
			Level:             event.LevelInfrastructure,
			Domain:            "system",
			Visibility:        event.VisibilityLocal,
			IdempotencyFields: []string{"stream", "consumer"},
			Lifecycle: &Lifecycle{
				Creates:          true,
				Updates:          true,
				GroupKey:         "stream",
				MeaningfulFields: []string{"pending"},
				SilentFields:     []string{"checked_at"},
			},
		},
		{
			EventType:         "agent.session.started",
			Description:       "A coding-agent terminal session came up",
			Level:             event.LevelOperational,
			Domain:            "agents",
			Visibility:        event.VisibilityCluster,
			IdempotencyFields: []string{"session"},
			Lifecycle:         &Lifecycle{Creates: true},
		},
		{
			EventType:  "agent.session.exited",
			Level:      event.LevelOperational,
			Domain:     "agents",
			Visibility: event.VisibilityCluster,
			Lifecycle: &Lifecycle{
				Resolves: true,
				GroupKey: "session",
			},
		},
		{
			EventType:         "agent.task.stuck",
			Description:       "An agent session needs operator attention",
			Level:             event.LevelWorkflow,
			Domain:            "agents",
			Visibility:        event.VisibilityCluster,
			IdempotencyFields: []string{"session", "reason"},
			Actionable:        true,
			Lifecycle: &Lifecycle{
				Creates:          true,
				Updates:          true,
				GroupKey:         "session",
				MeaningfulFields: []string{"reason", "waiting_on"},
				SilentFields:     []string{"last_output_at"},
			},
		},
		{
			EventType:         "workflow.item.blocked",
			Description:       "A planned work item is blocked on a dependency",
			Level:             event.LevelWorkflow,
			Domain:            "workflow",
			Visibility:        event.VisibilityCluster,
			IdempotencyFields: []string{"slug"},
			Actionable:        true,
			Lifecycle: &Lifecycle{
				Creates:          true,
				Updates:          true,
				GroupKey:         "slug",
				MeaningfulFields: []string{"status", "blocked_on"},
				SilentFields:     []string{"retries"},
			},
		},
		{
			EventType:  "workflow.item.completed",
			Level:      event.LevelWorkflow,
			Domain:     "workflow",
			Visibility: event.VisibilityCluster,
			Lifecycle: &Lifecycle{
				Resolves: true,
				GroupKey: "slug",
			},
		},
		{
			EventType:         "chat.message.failed",
			Description:       "A chat adapter could not deliver a message",
			Level:             event.LevelOperational,
			Domain:            "chat",
			Visibility:        event.VisibilityLocal,
			IdempotencyFields: []string{"platform", "channel", "message_id"},
			Lifecycle:         &Lifecycle{Creates: true},
		},
		{
			EventType:         "webhook.delivery.failed",
			Description:       "An outbound webhook delivery exhausted retries",
			Level:             event.LevelOperational,
			Domain:            "webhooks",
			Visibility:        event.VisibilityLocal,
			IdempotencyFields: []string{"endpoint", "delivery_id"},
			Actionable:        true,
			Lifecycle: &Lifecycle{
				Creates:          true,
				Updates:          true,
				GroupKey:         "endpoint",
				MeaningfulFields: []string{"status_code"},
				SilentFields:     []string{"attempts"},
			},
		},
		{
			EventType:         "cron.job.missed",
			Description:       "A scheduled job did not run in its window",
			Level:             event.LevelOperational,
			Domain:            "cron",
			Visibility:        event.VisibilityLocal,
			IdempotencyFields: []string{"job", "window"},
			Lifecycle:         &Lifecycle{Creates: true},
		},
		{
			EventType:         "tts.synthesis.failed",
			Description:       "Text-to-speech rendering failed",
			Level:             event.LevelInfrastructure,
			Domain:            "tts",
			Visibility:        event.VisibilityLocal,
			IdempotencyFields: []string{"request_id"},
			Lifecycle:         &Lifecycle{Creates: true},
		},
		{
			// High-level business milestone surfaced to chat adapters.
			// No lifecycle: every emission is its own notification.
			EventType:         "business.review.requested",
			Description:       "A finished deliverable awaits human review",
			Level:             event.LevelBusiness,
			Domain:            "review",
			Visibility:        event.VisibilityPublic,
			IdempotencyFields: []string{"deliverable"},
			Actionable:        true,
			Lifecycle:         &Lifecycle{Creates: true},
		},
	}
}
