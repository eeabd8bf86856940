package catalog

import (
	"fmt"
	"strings"

	"herald/internal/event"
)

// Lifecycle declares how successive events for one logical subject fold
// into a single notification row over time.
type Lifecycle struct {
	// Creates and Updates may combine; Resolves is terminal.
	Creates  bool
	Updates  bool
	Resolves bool

	// GroupKey names the payload field whose value correlates events to one
	// logical row, independent of the exact idempotency key.
	GroupKey string

	// MeaningfulFields reset a seen notification back to unseen when they
	// change. SilentFields update the row without resurfacing it.
	MeaningfulFields []string
	SilentFields     []string
}

// Schema describes one event type: defaults applied at emission time and
// the idempotency contract applied at consumption time.
type Schema struct {
	EventType   string
	Description string

	Level      event.Level
	Domain     string
	Visibility event.Visibility

	// IdempotencyFields are the payload fields whose values, joined with the
	// event type, identify a duplicate submission. Empty means the event is
	// never deduplicated.
	IdempotencyFields []string

	Lifecycle  *Lifecycle
	Actionable bool
}

// Catalog is the process-wide schema registry. It is populated during
// startup and read-only afterwards, so lookups take no lock.
type Catalog struct {
	schemas map[string]*Schema
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{schemas: make(map[string]*Schema)}
}

// Register adds a schema. A duplicate event type is a programmer or
// configuration error and fails immediately.
func (c *Catalog) Register(schema *Schema) error {
	if schema == nil {
		return fmt.Errorf("register schema: schema is nil")
	}
	eventType := strings.TrimSpace(schema.EventType)
	if eventType == "" {
		return fmt.Errorf("register schema: event type is required")
	}
	if _, exists := c.schemas[eventType]; exists {
		return fmt.Errorf("register schema: event type %q already registered", eventType)
	}
	c.schemas[eventType] = schema
	return nil
}

// MustRegister panics on a registration error. Intended for the built-in
// declarative set, where a duplicate is a startup bug.
func (c *Catalog) MustRegister(schema *Schema) {
	if err := c.Register(schema); err != nil {
		panic(err)
	}
}

// Get returns the schema for an event type, or nil when none is registered.
func (c *Catalog) Get(eventType string) *Schema {
	return c.schemas[eventType]
}

// Types returns the registered event types. Order is unspecified.
func (c *Catalog) Types() []string {
	types := make([]string, 0, len(c.schemas))
	for eventType := range c.schemas {
		types = append(types, eventType)
	}
	return types
}

// IdempotencyKey derives the deduplication key for an event: the event type
// joined with the ordered values of the schema's idempotency fields. Missing
// fields render as empty strings; incomplete payloads never fail here. The
// empty string means "not deduplicated": unknown schema or no declared
// fields.
func (c *Catalog) IdempotencyKey(eventType string, payload event.Payload) string {
	schema := c.Get(eventType)
	if schema == nil || len(schema.IdempotencyFields) == 0 {
		return ""
	}
	parts := make([]string, 0, len(schema.IdempotencyFields)+1)
	parts = append(parts, eventType)
	for _, field := range schema.IdempotencyFields {
		parts = append(parts, payload.FieldString(field))
	}
	return strings.Join(parts, ":")
}
