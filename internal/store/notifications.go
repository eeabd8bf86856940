package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"herald/internal/event"
)

// Insert persists a new notification row and returns it with its assigned
// id. The unique constraint on idempotency_key makes a duplicate insert
// fail rather than silently double-create.
func (s *Store) Insert(ctx context.Context, n *Notification) (*Notification, error) {
	if n == nil {
		return nil, errors.New("notification is nil")
	}
	payloadJSON, err := encodePayload(n.Payload)
	if err != nil {
		return nil, err
	}

	humanStatus := n.HumanStatus
	if humanStatus == "" {
		humanStatus = HumanUnseen
	}
	agentStatus := n.AgentStatus
	if agentStatus == "" {
		agentStatus = AgentNone
	}
	timestamp := formatTime(time.Now())

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO notifications (
            event_type, version, source, level, domain, visibility, entity,
            description, payload_json, idempotency_key, human_status,
            agent_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.EventType,
		nullableString(n.Version),
		n.Source,
		int(n.Level),
		nullableString(n.Domain),
		nullableString(string(n.Visibility)),
		nullableString(n.Entity),
		nullableString(n.Description),
		payloadJSON,
		nullableString(n.IdempotencyKey),
		string(humanStatus),
		string(agentStatus),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert notification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches a notification by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Notification, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+notifColumns+` FROM notifications WHERE id = ?`, id)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

// FindByIdempotencyKey returns the row carrying the key, or nil.
func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (*Notification, error) {
	if key == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+notifColumns+` FROM notifications WHERE idempotency_key = ? LIMIT 1`,
		key,
	)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by idempotency key: %w", err)
	}
	return n, nil
}

// IdempotencyKeyExists reports whether a row already carries the key.
func (s *Store) IdempotencyKeyExists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM notifications WHERE idempotency_key = ?`,
		key,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check idempotency key: %w", err)
	}
	return count > 0, nil
}

// FindLatestByGroupKey returns the most recent row whose payload document
// carries the given value under the group-key field, or nil. When multiple
// threads ever share a group-key value, newest wins; the catalog assumes a
// single active thread per value.
func (s *Store) FindLatestByGroupKey(ctx context.Context, field, value string) (*Notification, error) {
	if field == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+notifColumns+` FROM notifications
         WHERE CAST(json_extract(payload_json, ?) AS TEXT) = ?
         ORDER BY created_at DESC, id DESC LIMIT 1`,
		"$."+field,
		value,
	)
	n, err := scanNotification(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by group key: %w", err)
	}
	return n, nil
}

// UpdateProjection rewrites a row's description and payload from a newer
// event. resetUnseen additionally flips human_status back to unseen so the
// change resurfaces; silent updates leave a seen row seen.
func (s *Store) UpdateProjection(ctx context.Context, id int64, description string, payload event.Payload, resetUnseen bool) error {
	payloadJSON, err := encodePayload(payload)
	if err != nil {
		return err
	}
	query := `UPDATE notifications SET description = ?, payload_json = ?, updated_at = ?`
	args := []any{nullableString(description), payloadJSON, formatTime(time.Now())}
	if resetUnseen {
		query += `, human_status = ?, seen_at = NULL`
		args = append(args, string(HumanUnseen))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update projection: %w", err)
	}
	return requireRow(res)
}

// SetHumanStatus records whether an operator has seen the notification.
// The first transition to seen stamps seen_at; flipping back to unseen
// clears it.
func (s *Store) SetHumanStatus(ctx context.Context, id int64, status HumanStatus) error {
	if !ValidHumanStatus(status) {
		return fmt.Errorf("invalid human status %q", status)
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE notifications
         SET human_status = ?,
             seen_at = CASE
                 WHEN ? = 'seen' AND seen_at IS NULL THEN ?
                 WHEN ? = 'unseen' THEN NULL
                 ELSE seen_at
             END,
             updated_at = ?
         WHERE id = ?`,
		string(status),
		string(status), now,
		string(status),
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("set human status: %w", err)
	}
	return requireRow(res)
}

// SetAgentStatus records automated handling. Only the claim transition
// writes claimed_at; later transitions preserve the original stamp.
func (s *Store) SetAgentStatus(ctx context.Context, id int64, status AgentStatus, agentID string) error {
	if !ValidAgentStatus(status) {
		return fmt.Errorf("invalid agent status %q", status)
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE notifications
         SET agent_status = ?,
             agent_id = COALESCE(?, agent_id),
             claimed_at = CASE
                 WHEN ? = 'claimed' AND claimed_at IS NULL THEN ?
                 ELSE claimed_at
             END,
             resolved_at = CASE
                 WHEN ? = 'resolved' AND resolved_at IS NULL THEN ?
                 ELSE resolved_at
             END,
             updated_at = ?
         WHERE id = ?`,
		string(status),
		nullableString(agentID),
		string(status), now,
		string(status), now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("set agent status: %w", err)
	}
	return requireRow(res)
}

// Resolve marks the notification terminally handled and records the
// resolution document. Resolution is a marker, not removal; the row stays
// queryable forever.
func (s *Store) Resolve(ctx context.Context, id int64, resolution event.Payload) error {
	resolutionJSON, err := encodePayload(resolution)
	if err != nil {
		return err
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(
		ctx,
		`UPDATE notifications
         SET agent_status = ?,
             resolution_json = ?,
             resolved_at = CASE WHEN resolved_at IS NULL THEN ? ELSE resolved_at END,
             updated_at = ?
         WHERE id = ?`,
		string(AgentResolved),
		resolutionJSON,
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("resolve notification: %w", err)
	}
	return requireRow(res)
}

// List returns notifications matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Notification, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.EventType != "" {
		clauses = append(clauses, "event_type = ?")
		args = append(args, filter.EventType)
	}
	if filter.Level != 0 {
		clauses = append(clauses, "level = ?")
		args = append(args, int(filter.Level))
	}
	if filter.Domain != "" {
		clauses = append(clauses, "domain = ?")
		args = append(args, filter.Domain)
	}
	if filter.HumanStatus != "" {
		clauses = append(clauses, "human_status = ?")
		args = append(args, string(filter.HumanStatus))
	}
	if filter.AgentStatus != "" {
		clauses = append(clauses, "agent_status = ?")
		args = append(args, string(filter.AgentStatus))
	}
	if filter.Visibility != "" {
		clauses = append(clauses, "visibility = ?")
		args = append(args, string(filter.Visibility))
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, formatTime(filter.Since))
	}

	query := `SELECT ` + notifColumns + ` FROM notifications`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// Counts aggregates row totals for the status surface.
func (s *Store) Counts(ctx context.Context) (HealthSummary, error) {
	var summary HealthSummary
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(CASE WHEN human_status = 'unseen' THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN agent_status IN ('claimed', 'in_progress') THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(CASE WHEN agent_status = 'resolved' THEN 1 ELSE 0 END), 0)
        FROM notifications`,
	).Scan(&summary.Total, &summary.Unseen, &summary.Claimed, &summary.Resolved)
	if err != nil {
		return HealthSummary{}, fmt.Errorf("count notifications: %w", err)
	}
	return summary, nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
