package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"herald/internal/catalog"
	"herald/internal/event"
	"herald/internal/logging"
	"herald/internal/store"
)

// Change describes one notification mutation for push callbacks.
type Change struct {
	NotificationID int64
	EventType      string
	WasCreated     bool
	WasMeaningful  bool
}

// Callback is the push-callback contract. Delivery adapters register one
// and do their own filtering; the pipeline makes no channel decisions.
type Callback func(ctx context.Context, change Change) error

// Context exposes the shared collaborators cartridges may use.
type Context struct {
	Catalog   *catalog.Catalog
	Store     *store.Store
	Callbacks []Callback
	Logger    *slog.Logger
}

func (c *Context) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.NewNop()
}

// notify fans a change out to every registered callback. Each callback is
// individually isolated: a failure or panic is logged and the remaining
// callbacks still run.
func (c *Context) notify(ctx context.Context, change Change) {
	for _, callback := range c.Callbacks {
		c.invoke(ctx, callback, change)
	}
}

func (c *Context) invoke(ctx context.Context, callback Callback, change Change) {
	defer func() {
		if recovered := recover(); recovered != nil {
			c.logger().Error("push callback panicked",
				logging.Int64("notification_id", change.NotificationID),
				logging.String("event_type", change.EventType),
				logging.Any("panic", recovered),
			)
		}
	}()
	if err := callback(ctx, change); err != nil {
		c.logger().Warn("push callback failed",
			logging.Int64("notification_id", change.NotificationID),
			logging.String("event_type", change.EventType),
			logging.Error(err),
		)
	}
}

// Cartridge is one pluggable stage. Returning a nil envelope with a nil
// error drops the event; errors propagate to the caller.
type Cartridge interface {
	Name() string
	Process(ctx context.Context, env *event.Envelope, pctx *Context) (*event.Envelope, error)
}

// Pipeline folds cartridges over an envelope in registration order.
type Pipeline struct {
	cartridges []Cartridge
	pctx       *Context
}

// New builds a pipeline over the shared context.
func New(pctx *Context, cartridges ...Cartridge) *Pipeline {
	return &Pipeline{cartridges: cartridges, pctx: pctx}
}

// Execute runs the envelope through every cartridge, stopping at the first
// drop. The returned envelope is the final transformed record, or nil when
// a cartridge dropped it.
func (p *Pipeline) Execute(ctx context.Context, env *event.Envelope) (*event.Envelope, error) {
	current := env
	for _, cartridge := range p.cartridges {
		next, err := cartridge.Process(ctx, current, p.pctx)
		if err != nil {
			return nil, fmt.Errorf("cartridge %s: %w", cartridge.Name(), err)
		}
		if next == nil {
			return nil, nil
		}
		current = next
	}
	return current, nil
}
