package pipeline

import (
	"context"
	"fmt"

	"herald/internal/catalog"
	"herald/internal/event"
	"herald/internal/store"
)

// Projector turns envelopes into notification row mutations according to
// the schema's declared lifecycle. Events without a schema or lifecycle
// pass through untouched.
type Projector struct{}

func (Projector) Name() string { return "projector" }

func (p Projector) Process(ctx context.Context, env *event.Envelope, pctx *Context) (*event.Envelope, error) {
	schema := pctx.Catalog.Get(env.EventType)
	if schema == nil || schema.Lifecycle == nil {
		return env, nil
	}
	lifecycle := schema.Lifecycle

	switch {
	case lifecycle.Resolves && lifecycle.GroupKey != "":
		if err := p.resolve(ctx, env, lifecycle, pctx); err != nil {
			return nil, err
		}
	case lifecycle.Updates && lifecycle.GroupKey != "":
		if err := p.update(ctx, env, lifecycle, pctx); err != nil {
			return nil, err
		}
	case lifecycle.Creates:
		if err := p.upsert(ctx, env, pctx); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// upsert handles creates-only lifecycles. An existing idempotency key means
// a concurrent or replayed submission slipped past the lookup in dedup; the
// row is refreshed in place rather than duplicated.
func (p Projector) upsert(ctx context.Context, env *event.Envelope, pctx *Context) error {
	if env.IdempotencyKey != "" {
		existing, err := pctx.Store.FindByIdempotencyKey(ctx, env.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			if err := pctx.Store.UpdateProjection(ctx, existing.ID, env.Description, env.Payload, false); err != nil {
				return err
			}
			pctx.notify(ctx, Change{
				NotificationID: existing.ID,
				EventType:      env.EventType,
				WasCreated:     false,
			})
			return nil
		}
	}

	created, err := pctx.Store.Insert(ctx, notificationFromEnvelope(env))
	if err != nil {
		return err
	}
	pctx.notify(ctx, Change{
		NotificationID: created.ID,
		EventType:      env.EventType,
		WasCreated:     true,
		WasMeaningful:  true,
	})
	return nil
}

// update folds the event into the most recent row sharing its group-key
// value. Meaningful field changes reset the row to unseen; silent-only
// changes update without resurfacing it. A missing row falls back to
// create, treated as meaningful.
func (p Projector) update(ctx context.Context, env *event.Envelope, lifecycle *catalog.Lifecycle, pctx *Context) error {
	value := env.Payload.FieldString(lifecycle.GroupKey)
	existing, err := pctx.Store.FindLatestByGroupKey(ctx, lifecycle.GroupKey, value)
	if err != nil {
		return err
	}
	if existing == nil {
		created, err := pctx.Store.Insert(ctx, notificationFromEnvelope(env))
		if err != nil {
			return err
		}
		pctx.notify(ctx, Change{
			NotificationID: created.ID,
			EventType:      env.EventType,
			WasCreated:     true,
			WasMeaningful:  true,
		})
		return nil
	}

	meaningful := anyMeaningfulChange(existing.Payload, env.Payload, lifecycle.MeaningfulFields)
	if err := pctx.Store.UpdateProjection(ctx, existing.ID, env.Description, env.Payload, meaningful); err != nil {
		return err
	}
	pctx.notify(ctx, Change{
		NotificationID: existing.ID,
		EventType:      env.EventType,
		WasCreated:     false,
		WasMeaningful:  meaningful,
	})
	return nil
}

// resolve terminally marks the row for the event's group-key value. A
// resolve racing ahead of, or outliving, its creating event is a no-op,
// not an error.
func (p Projector) resolve(ctx context.Context, env *event.Envelope, lifecycle *catalog.Lifecycle, pctx *Context) error {
	value := env.Payload.FieldString(lifecycle.GroupKey)
	existing, err := pctx.Store.FindLatestByGroupKey(ctx, lifecycle.GroupKey, value)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := pctx.Store.Resolve(ctx, existing.ID, env.Payload); err != nil {
		return fmt.Errorf("resolve by group key: %w", err)
	}
	pctx.notify(ctx, Change{
		NotificationID: existing.ID,
		EventType:      env.EventType,
		WasCreated:     false,
	})
	return nil
}

func notificationFromEnvelope(env *event.Envelope) *store.Notification {
	return &store.Notification{
		EventType:      env.EventType,
		Version:        env.Version,
		Source:         env.Source,
		Level:          env.Level,
		Domain:         env.Domain,
		Visibility:     env.Visibility,
		Entity:         env.Entity,
		Description:    env.Description,
		Payload:        env.Payload,
		IdempotencyKey: env.IdempotencyKey,
	}
}

// anyMeaningfulChange reports whether any field listed as meaningful
// renders differently between the stored and incoming payloads.
func anyMeaningfulChange(previous, next event.Payload, meaningfulFields []string) bool {
	for _, field := range meaningfulFields {
		if previous.FieldString(field) != next.FieldString(field) {
			return true
		}
	}
	return false
}
