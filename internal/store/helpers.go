package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"herald/internal/event"
)

const notifColumns = "id, event_type, version, source, level, domain, visibility, entity, description, payload_json, idempotency_key, human_status, agent_status, agent_id, resolution_json, created_at, updated_at, seen_at, claimed_at, resolved_at"

func scanNotification(scanner interface{ Scan(dest ...any) error }) (*Notification, error) {
	var (
		id             int64
		eventType      string
		version        sql.NullString
		source         string
		level          int64
		domain         sql.NullString
		visibility     sql.NullString
		entity         sql.NullString
		description    sql.NullString
		payloadJSON    sql.NullString
		idempotencyKey sql.NullString
		humanStatus    string
		agentStatus    string
		agentID        sql.NullString
		resolutionJSON sql.NullString
		createdRaw     string
		updatedRaw     string
		seenRaw        sql.NullString
		claimedRaw     sql.NullString
		resolvedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&eventType,
		&version,
		&source,
		&level,
		&domain,
		&visibility,
		&entity,
		&description,
		&payloadJSON,
		&idempotencyKey,
		&humanStatus,
		&agentStatus,
		&agentID,
		&resolutionJSON,
		&createdRaw,
		&updatedRaw,
		&seenRaw,
		&claimedRaw,
		&resolvedRaw,
	); err != nil {
		return nil, err
	}

	n := &Notification{
		ID:             id,
		EventType:      eventType,
		Version:        version.String,
		Source:         source,
		Level:          event.Level(level),
		Domain:         domain.String,
		Visibility:     event.Visibility(visibility.String),
		Entity:         entity.String,
		Description:    description.String,
		IdempotencyKey: idempotencyKey.String,
		HumanStatus:    HumanStatus(humanStatus),
		AgentStatus:    AgentStatus(agentStatus),
		AgentID:        agentID.String,
	}

	if payloadJSON.Valid && payloadJSON.String != "" {
		payload := event.Payload{}
		if err := decodeJSON(payloadJSON.String, &payload); err != nil {
			return nil, fmt.Errorf("decode stored payload: %w", err)
		}
		n.Payload = payload
	}
	if resolutionJSON.Valid && resolutionJSON.String != "" {
		resolution := event.Payload{}
		if err := decodeJSON(resolutionJSON.String, &resolution); err != nil {
			return nil, fmt.Errorf("decode stored resolution: %w", err)
		}
		n.Resolution = resolution
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		n.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		n.UpdatedAt = updated
	}
	n.SeenAt = parseNullableTime(seenRaw)
	n.ClaimedAt = parseNullableTime(claimedRaw)
	n.ResolvedAt = parseNullableTime(resolvedRaw)
	return n, nil
}

func decodeJSON(raw string, target any) error {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()
	return decoder.Decode(target)
}

func encodePayload(payload event.Payload) (string, error) {
	if payload == nil {
		return "{}", nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(encoded), nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func parseNullableTime(value sql.NullString) *time.Time {
	if !value.Valid {
		return nil
	}
	t, err := parseTimeString(value.String)
	if err != nil {
		return nil
	}
	return &t
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
