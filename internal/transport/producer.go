package transport

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"herald/internal/event"
)

// Producer appends envelopes to the stream. It is thin and stateless by
// design: no catalog or dedup knowledge, so arbitrarily many independent
// producers can emit without coordination.
type Producer struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewProducer builds a producer for one stream. maxLen caps the stream
// with approximate trimming; zero or negative disables the cap.
func NewProducer(client *redis.Client, stream string, maxLen int64) *Producer {
	return &Producer{client: client, stream: stream, maxLen: maxLen}
}

// Append serializes the envelope and appends it, returning the
// transport-assigned entry id.
func (p *Producer) Append(ctx context.Context, env *event.Envelope) (string, error) {
	wire, err := event.ToWire(env)
	if err != nil {
		return "", err
	}

	values := make(map[string]any, len(wire))
	for key, value := range wire {
		values[key] = value
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("append to stream %s: %w", p.stream, err)
	}
	return id, nil
}
