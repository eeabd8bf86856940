package processor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"herald/internal/event"
	"herald/internal/logging"
	"herald/internal/pipeline"
	"herald/internal/transport"
)

// Options tunes the read loop.
type Options struct {
	// Block bounds each blocking read and therefore shutdown latency.
	Block time.Duration
	// ReadCount caps entries per read.
	ReadCount int
	// ErrorRetry is the pause after a transport read failure.
	ErrorRetry time.Duration
}

func (o Options) withDefaults() Options {
	if o.Block <= 0 {
		o.Block = 5 * time.Second
	}
	if o.ReadCount <= 0 {
		o.ReadCount = 16
	}
	if o.ErrorRetry <= 0 {
		o.ErrorRetry = 2 * time.Second
	}
	return o
}

// Processor consumes stream entries and feeds them through the pipeline.
type Processor struct {
	consumer *transport.Consumer
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	opts     Options
}

// New builds a processor. A nil logger discards output.
func New(consumer *transport.Consumer, pipe *pipeline.Pipeline, logger *slog.Logger, opts Options) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		consumer: consumer,
		pipeline: pipe,
		logger:   logger,
		opts:     opts.withDefaults(),
	}
}

// ConsumerName returns this processor's name within the consumer group.
func (p *Processor) ConsumerName() string {
	return p.consumer.Name()
}

// Run executes the processor until the context is cancelled. Group
// creation failure (other than already-exists) aborts; everything after
// that is resilient.
func (p *Processor) Run(ctx context.Context) error {
	if err := p.consumer.EnsureGroup(ctx); err != nil {
		return err
	}
	if err := p.recoverPending(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		entries, err := p.consumer.ReadNew(ctx, p.opts.ReadCount, p.opts.Block)
		if err != nil {
			if canceled(ctx, err) {
				return nil
			}
			// Presumed transient: log, brief pause, keep looping.
			p.logger.Warn("transport read failed",
				logging.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.opts.ErrorRetry):
			}
			continue
		}

		for _, entry := range entries {
			p.handleEntry(ctx, entry)
		}
	}
}

// recoverPending re-reads and processes this consumer's unacknowledged
// entries until the pending list drains. Because every handled entry is
// acked, repeated reads from the list's start always make progress.
func (p *Processor) recoverPending(ctx context.Context) error {
	for {
		entries, err := p.consumer.ReadPending(ctx, p.opts.ReadCount)
		if err != nil {
			if canceled(ctx, err) {
				return nil
			}
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		p.logger.Info("recovering unacknowledged entries",
			logging.Int("count", len(entries)),
			logging.String("consumer", p.consumer.Name()),
		)
		for _, entry := range entries {
			p.handleEntry(ctx, entry)
		}
	}
}

// handleEntry runs one entry through the pipeline and acknowledges it
// unconditionally. Structurally bad events cannot succeed on retry, so
// failures are logged with the entry id rather than redelivered forever.
func (p *Processor) handleEntry(ctx context.Context, entry transport.Entry) {
	env, err := event.FromWire(entry.Values)
	if err != nil {
		p.logger.Error("malformed stream entry",
			logging.String("entry_id", entry.ID),
			logging.Error(err),
		)
	} else if _, err := p.pipeline.Execute(ctx, env); err != nil {
		p.logger.Error("pipeline failed for entry",
			logging.String("entry_id", entry.ID),
			logging.String("event_type", env.EventType),
			logging.Error(err),
		)
	}

	if err := p.consumer.Ack(ctx, entry.ID); err != nil && !canceled(ctx, err) {
		p.logger.Warn("ack failed",
			logging.String("entry_id", entry.ID),
			logging.Error(err),
		)
	}
}

func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
