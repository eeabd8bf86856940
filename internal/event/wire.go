package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire field names. The record is flat and fully populated: absent optionals
// are written as empty strings because the transport has no null value.
const (
	wireEvent           = "event"
	wireVersion         = "version"
	wireSource          = "source"
	wireTimestamp       = "timestamp"
	wireIdempotencyKey  = "idempotency_key"
	wireLevel           = "level"
	wireDomain          = "domain"
	wireEntity          = "entity"
	wireDescription     = "description"
	wireVisibility      = "visibility"
	wirePayload         = "payload"
	wireActions         = "actions"
	wireTerminalWhen    = "terminal_when"
	wireResolutionShape = "resolution_shape"
)

// ToWire flattens the envelope into a string-keyed, string-valued record.
// Payload, actions, and resolution shape become embedded JSON substrings.
func ToWire(env *Envelope) (map[string]string, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	payloadJSON, err := encodeDocument(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	actionsJSON, err := encodeOptional(env.Actions)
	if err != nil {
		return nil, fmt.Errorf("encode actions: %w", err)
	}
	resolutionJSON, err := encodeOptional(env.ResolutionShape)
	if err != nil {
		return nil, fmt.Errorf("encode resolution shape: %w", err)
	}

	timestamp := env.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	return map[string]string{
		wireEvent:           env.EventType,
		wireVersion:         env.Version,
		wireSource:          env.Source,
		wireTimestamp:       timestamp.UTC().Format(time.RFC3339Nano),
		wireIdempotencyKey:  env.IdempotencyKey,
		wireLevel:           strconv.Itoa(int(env.Level)),
		wireDomain:          env.Domain,
		wireEntity:          env.Entity,
		wireDescription:     env.Description,
		wireVisibility:      string(env.Visibility),
		wirePayload:         payloadJSON,
		wireActions:         actionsJSON,
		wireTerminalWhen:    env.TerminalWhen,
		wireResolutionShape: resolutionJSON,
	}, nil
}

// FromWire reconstructs an envelope from a flat record. Values may be
// strings or []byte; redis clients return either depending on the call
// path. Malformed embedded JSON is a decode error, never coerced away.
func FromWire(values map[string]any) (*Envelope, error) {
	get := func(key string) string {
		raw, ok := values[key]
		if !ok {
			return ""
		}
		switch v := raw.(type) {
		case string:
			return v
		case []byte:
			return string(v)
		}
		return fmt.Sprint(values[key])
	}

	env := &Envelope{
		EventType:      get(wireEvent),
		Version:        get(wireVersion),
		Source:         get(wireSource),
		IdempotencyKey: get(wireIdempotencyKey),
		Domain:         get(wireDomain),
		Entity:         get(wireEntity),
		Description:    get(wireDescription),
		Visibility:     Visibility(get(wireVisibility)),
		TerminalWhen:   get(wireTerminalWhen),
	}

	if raw := get(wireTimestamp); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("decode timestamp %q: %w", raw, err)
		}
		env.Timestamp = ts
	}

	if raw := strings.TrimSpace(get(wireLevel)); raw != "" {
		ordinal, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode level %q: %w", raw, err)
		}
		env.Level = Level(ordinal)
	}

	if raw := get(wirePayload); raw != "" {
		payload := Payload{}
		if err := decodeDocument(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		env.Payload = payload
	}
	if raw := get(wireActions); raw != "" {
		var actions any
		if err := decodeDocument(raw, &actions); err != nil {
			return nil, fmt.Errorf("decode actions: %w", err)
		}
		env.Actions = actions
	}
	if raw := get(wireResolutionShape); raw != "" {
		var shape any
		if err := decodeDocument(raw, &shape); err != nil {
			return nil, fmt.Errorf("decode resolution shape: %w", err)
		}
		env.ResolutionShape = shape
	}

	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func encodeDocument(value Payload) (string, error) {
	if len(value) == 0 {
		return "{}", nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func encodeOptional(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// decodeDocument decodes JSON preserving numeric precision so payload
// values survive a round trip without float drift.
func decodeDocument(raw string, target any) error {
	decoder := json.NewDecoder(bytes.NewReader([]byte(raw)))
	decoder.UseNumber()
	return decoder.Decode(target)
}
