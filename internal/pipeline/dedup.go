package pipeline

import (
	"context"

	"herald/internal/event"
)

// Dedup stamps idempotency keys. This is the only place a key is ever
// written onto an envelope, so every later stage can trust
// envelope.IdempotencyKey as already vetted. The stamped key is what makes
// a duplicate submission fold into its existing row instead of creating a
// second one: the projector upserts by it, and the store's unique
// constraint backstops concurrent races.
type Dedup struct{}

func (Dedup) Name() string { return "dedup" }

func (Dedup) Process(ctx context.Context, env *event.Envelope, pctx *Context) (*event.Envelope, error) {
	key := pctx.Catalog.IdempotencyKey(env.EventType, env.Payload)
	if key == "" {
		// Unknown schema or no declared idempotency fields: the event is
		// never deduplicated.
		return env, nil
	}

	stamped := env.Clone()
	stamped.IdempotencyKey = key
	return stamped, nil
}
