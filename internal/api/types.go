package api

import (
	"time"

	"herald/internal/event"
	"herald/internal/store"
)

// Notification describes a projection row in a transport-friendly format.
type Notification struct {
	ID             int64         `json:"id"`
	EventType      string        `json:"eventType"`
	Version        string        `json:"version,omitempty"`
	Source         string        `json:"source"`
	Level          string        `json:"level"`
	Domain         string        `json:"domain,omitempty"`
	Visibility     string        `json:"visibility,omitempty"`
	Entity         string        `json:"entity,omitempty"`
	Description    string        `json:"description,omitempty"`
	Payload        event.Payload `json:"payload,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
	HumanStatus    string        `json:"humanStatus"`
	AgentStatus    string        `json:"agentStatus"`
	AgentID        string        `json:"agentId,omitempty"`
	Resolution     event.Payload `json:"resolution,omitempty"`
	CreatedAt      string        `json:"createdAt,omitempty"`
	UpdatedAt      string        `json:"updatedAt,omitempty"`
	SeenAt         string        `json:"seenAt,omitempty"`
	ClaimedAt      string        `json:"claimedAt,omitempty"`
	ResolvedAt     string        `json:"resolvedAt,omitempty"`
}

// StatusSummary reports daemon-level aggregate state.
type StatusSummary struct {
	Running  bool   `json:"running"`
	Consumer string `json:"consumer,omitempty"`
	Total    int    `json:"total"`
	Unseen   int    `json:"unseen"`
	Claimed  int    `json:"claimed"`
	Resolved int    `json:"resolved"`
}

// FromNotification converts a store row to its API view.
func FromNotification(n *store.Notification) Notification {
	view := Notification{
		ID:             n.ID,
		EventType:      n.EventType,
		Version:        n.Version,
		Source:         n.Source,
		Level:          n.Level.String(),
		Domain:         n.Domain,
		Visibility:     string(n.Visibility),
		Entity:         n.Entity,
		Description:    n.Description,
		Payload:        n.Payload,
		IdempotencyKey: n.IdempotencyKey,
		HumanStatus:    string(n.HumanStatus),
		AgentStatus:    string(n.AgentStatus),
		AgentID:        n.AgentID,
		Resolution:     n.Resolution,
		CreatedAt:      formatTimestamp(n.CreatedAt),
		UpdatedAt:      formatTimestamp(n.UpdatedAt),
	}
	if n.SeenAt != nil {
		view.SeenAt = formatTimestamp(*n.SeenAt)
	}
	if n.ClaimedAt != nil {
		view.ClaimedAt = formatTimestamp(*n.ClaimedAt)
	}
	if n.ResolvedAt != nil {
		view.ResolvedAt = formatTimestamp(*n.ResolvedAt)
	}
	return view
}

// FromNotifications converts a row slice, preserving order.
func FromNotifications(rows []*store.Notification) []Notification {
	views := make([]Notification, 0, len(rows))
	for _, n := range rows {
		views = append(views, FromNotification(n))
	}
	return views
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
