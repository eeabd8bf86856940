package store

import (
	"time"

	"herald/internal/event"
)

// HumanStatus tracks whether an operator has looked at a notification.
type HumanStatus string

const (
	HumanUnseen HumanStatus = "unseen"
	HumanSeen   HumanStatus = "seen"
)

// ValidHumanStatus reports whether the value is a defined human status.
func ValidHumanStatus(status HumanStatus) bool {
	return status == HumanUnseen || status == HumanSeen
}

// AgentStatus tracks automated handling of a notification.
type AgentStatus string

const (
	AgentNone       AgentStatus = "none"
	AgentClaimed    AgentStatus = "claimed"
	AgentInProgress AgentStatus = "in_progress"
	AgentResolved   AgentStatus = "resolved"
)

// ValidAgentStatus reports whether the value is a defined agent status.
func ValidAgentStatus(status AgentStatus) bool {
	switch status {
	case AgentNone, AgentClaimed, AgentInProgress, AgentResolved:
		return true
	}
	return false
}

// Notification is one persisted projection row. The integer ID is its sole
// identity; the idempotency key, when present, is unique but optional.
type Notification struct {
	ID             int64
	EventType      string
	Version        string
	Source         string
	Level          event.Level
	Domain         string
	Visibility     event.Visibility
	Entity         string
	Description    string
	Payload        event.Payload
	IdempotencyKey string

	HumanStatus HumanStatus
	AgentStatus AgentStatus
	AgentID     string
	Resolution  event.Payload

	CreatedAt  time.Time
	UpdatedAt  time.Time
	SeenAt     *time.Time
	ClaimedAt  *time.Time
	ResolvedAt *time.Time
}

// Filter narrows List queries. Zero values mean "no constraint"; any
// combination is allowed. Results come back newest first.
type Filter struct {
	EventType   string
	Level       event.Level
	Domain      string
	HumanStatus HumanStatus
	AgentStatus AgentStatus
	Visibility  event.Visibility
	Since       time.Time
	Limit       int
	Offset      int
}

// HealthSummary aggregates row counts for the status surface.
type HealthSummary struct {
	Total    int
	Unseen   int
	Claimed  int
	Resolved int
}
