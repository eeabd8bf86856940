// Package emitter is the sole write entrypoint for application events.
//
// An Emitter is the process-wide producer handle: it is constructed empty,
// configured exactly once during startup, and injected into anything that
// emits. Emitting before configuration is a hard failure, never a silent
// no-op; a lost event is worse than a crash at the call site. The emitter
// fills envelope defaults from the catalog schema when the caller leaves
// them blank, but carries no dedup or lifecycle knowledge; those are
// consumer-side concerns.
package emitter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"herald/internal/catalog"
	"herald/internal/event"
	"herald/internal/transport"
)

// ErrNotConfigured is returned by Emit before Configure has run.
var ErrNotConfigured = errors.New("emitter not configured")

// Event is the caller-facing emission request. Type is required; Source,
// Level, Domain, and Visibility fall back to the emitter's defaults and
// the catalog schema when blank.
type Event struct {
	Type        string
	Source      string
	Level       event.Level
	Domain      string
	Entity      string
	Description string
	Visibility  event.Visibility
	Payload     event.Payload

	Actions         any
	TerminalWhen    string
	ResolutionShape any
}

// Emitter is the injectable emit handle.
type Emitter struct {
	mu       sync.RWMutex
	producer *transport.Producer
	catalog  *catalog.Catalog
	source   string
}

// New returns an unconfigured emitter.
func New() *Emitter {
	return &Emitter{}
}

// Configure wires the emitter to a producer. It is a documented
// single-assignment startup step; a second call is a programming error.
func (e *Emitter) Configure(producer *transport.Producer, cat *catalog.Catalog, defaultSource string) error {
	if producer == nil {
		return errors.New("configure emitter: producer is nil")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.producer != nil {
		return errors.New("configure emitter: already configured")
	}
	e.producer = producer
	e.catalog = cat
	e.source = defaultSource
	return nil
}

// Emit serializes the event and appends it to the transport log, returning
// the transport-assigned entry id.
func (e *Emitter) Emit(ctx context.Context, evt Event) (string, error) {
	e.mu.RLock()
	producer := e.producer
	cat := e.catalog
	source := e.source
	e.mu.RUnlock()

	if producer == nil {
		return "", ErrNotConfigured
	}

	env := &event.Envelope{
		EventType:       evt.Type,
		Source:          evt.Source,
		Timestamp:       time.Now(),
		Level:           evt.Level,
		Domain:          evt.Domain,
		Entity:          evt.Entity,
		Description:     evt.Description,
		Visibility:      evt.Visibility,
		Payload:         evt.Payload,
		Actions:         evt.Actions,
		TerminalWhen:    evt.TerminalWhen,
		ResolutionShape: evt.ResolutionShape,
	}
	if env.Source == "" {
		env.Source = source
	}
	applySchemaDefaults(env, cat)

	id, err := producer.Append(ctx, env)
	if err != nil {
		return "", fmt.Errorf("emit %s: %w", evt.Type, err)
	}
	return id, nil
}

func applySchemaDefaults(env *event.Envelope, cat *catalog.Catalog) {
	if cat == nil {
		return
	}
	schema := cat.Get(env.EventType)
	if schema == nil {
		return
	}
	if env.Level == 0 {
		env.Level = schema.Level
	}
	if env.Domain == "" {
		env.Domain = schema.Domain
	}
	if env.Visibility == "" {
		env.Visibility = schema.Visibility
	}
	if env.Description == "" {
		env.Description = schema.Description
	}
}
