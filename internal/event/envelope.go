package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Level orders events by how close they sit to the business outcome.
// Infrastructure is the lowest rung; Business the highest. The zero value
// is invalid so a forgotten level fails validation instead of silently
// ranking as infrastructure noise.
type Level int

const (
	LevelInfrastructure Level = iota + 1
	LevelOperational
	LevelWorkflow
	LevelBusiness
)

var levelNames = map[Level]string{
	LevelInfrastructure: "infrastructure",
	LevelOperational:    "operational",
	LevelWorkflow:       "workflow",
	LevelBusiness:       "business",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Valid reports whether the level is one of the defined ordinals.
func (l Level) Valid() bool {
	_, ok := levelNames[l]
	return ok
}

// ParseLevel accepts either a level name or its decimal ordinal.
func ParseLevel(value string) (Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	for level, name := range levelNames {
		if name == trimmed {
			return level, nil
		}
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		level := Level(n)
		if level.Valid() {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q", value)
}

// Visibility scopes who may observe a notification derived from the event.
type Visibility string

const (
	VisibilityLocal   Visibility = "local"
	VisibilityCluster Visibility = "cluster"
	VisibilityPublic  Visibility = "public"
)

// Payload is the opaque document attached to an envelope. Values are the
// result of JSON decoding with UseNumber: strings, bools, json.Number,
// lists, or nested objects.
type Payload map[string]any

// FieldString renders one payload field as a stable string. Missing or nil
// fields render as the empty string; composite values fall back to their
// JSON encoding. Idempotency keys and meaningful-field comparison both
// depend on this rendering being deterministic.
func (p Payload) FieldString(key string) string {
	if p == nil {
		return ""
	}
	value, ok := p[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(encoded)
}

// Clone returns a shallow copy of the payload map.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Envelope is the canonical in-memory event record.
type Envelope struct {
	EventType      string
	Version        string
	Source         string
	Timestamp      time.Time
	IdempotencyKey string
	Level          Level
	Domain         string
	Entity         string
	Description    string
	Visibility     Visibility
	Payload        Payload

	// Forward-compatible hints carried verbatim for downstream consumers.
	// The pipeline never interprets them.
	Actions         any
	TerminalWhen    string
	ResolutionShape any
}

// Validate checks the required envelope fields.
func (e *Envelope) Validate() error {
	if e == nil {
		return errors.New("envelope is nil")
	}
	if strings.TrimSpace(e.EventType) == "" {
		return errors.New("event type is required")
	}
	if strings.TrimSpace(e.Source) == "" {
		return errors.New("source is required")
	}
	if !e.Level.Valid() {
		return fmt.Errorf("level %d is not a defined level", int(e.Level))
	}
	return nil
}

// Clone copies the envelope so a cartridge can stamp fields without
// mutating the caller's record.
func (e *Envelope) Clone() *Envelope {
	if e == nil {
		return nil
	}
	out := *e
	out.Payload = e.Payload.Clone()
	return &out
}
