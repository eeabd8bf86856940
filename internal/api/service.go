package api

import (
	"context"
	"errors"
	"fmt"

	"herald/internal/event"
	"herald/internal/store"
)

// ErrNotFound mirrors the store sentinel for transport layers mapping it
// to a 404.
var ErrNotFound = store.ErrNotFound

// NotificationService exposes notification operations returning API DTOs.
type NotificationService struct {
	store *store.Store
}

// NewNotificationService constructs a service around the store.
func NewNotificationService(st *store.Store) *NotificationService {
	if st == nil {
		return nil
	}
	return &NotificationService{store: st}
}

// List returns notifications matching the filter, newest first.
func (s *NotificationService) List(ctx context.Context, filter store.Filter) ([]Notification, error) {
	rows, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return FromNotifications(rows), nil
}

// Describe fetches a single notification.
func (s *NotificationService) Describe(ctx context.Context, id int64) (*Notification, error) {
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	view := FromNotification(row)
	return &view, nil
}

// SetHumanStatus transitions the human-facing seen/unseen state.
func (s *NotificationService) SetHumanStatus(ctx context.Context, id int64, status store.HumanStatus) (*Notification, error) {
	if err := s.store.SetHumanStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.Describe(ctx, id)
}

// SetAgentStatus transitions automated handling state. The claim stamp is
// preserved across later transitions by the store.
func (s *NotificationService) SetAgentStatus(ctx context.Context, id int64, status store.AgentStatus, agentID string) (*Notification, error) {
	if err := s.store.SetAgentStatus(ctx, id, status, agentID); err != nil {
		return nil, err
	}
	return s.Describe(ctx, id)
}

// Resolve terminally marks a notification with a resolution document.
func (s *NotificationService) Resolve(ctx context.Context, id int64, resolution event.Payload) (*Notification, error) {
	if err := s.store.Resolve(ctx, id, resolution); err != nil {
		return nil, err
	}
	return s.Describe(ctx, id)
}

// Summary aggregates row counts for the status surface.
func (s *NotificationService) Summary(ctx context.Context) (store.HealthSummary, error) {
	summary, err := s.store.Counts(ctx)
	if err != nil {
		return store.HealthSummary{}, fmt.Errorf("summarize notifications: %w", err)
	}
	return summary, nil
}

// IsNotFound reports whether the error maps to a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
