package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is one stream record as delivered to a consumer.
type Entry struct {
	ID     string
	Values map[string]any
}

// Consumer reads the stream through a named consumer group.
type Consumer struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

// NewConsumer builds a group member. The consumer name must be stable for
// the life of the process so crash recovery can find its pending entries.
func NewConsumer(client *redis.Client, stream, group, consumer string) *Consumer {
	return &Consumer{client: client, stream: stream, group: group, consumer: consumer}
}

// Name returns the consumer's name within the group.
func (c *Consumer) Name() string { return c.consumer }

// EnsureGroup creates the consumer group at the start of the stream,
// creating the stream itself when absent. An already-existing group is
// success; any other creation error aborts startup.
func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("create consumer group %s on %s: %w", c.group, c.stream, err)
	}
	return nil
}

// ReadPending returns this consumer's own still-unacknowledged entries,
// left over from a prior crash. An empty batch means recovery is complete.
func (c *Consumer) ReadPending(ctx context.Context, count int) ([]Entry, error) {
	return c.read(ctx, "0", count, 0)
}

// ReadNew blocks up to the given timeout for entries not yet delivered to
// any group member.
func (c *Consumer) ReadNew(ctx context.Context, count int, block time.Duration) ([]Entry, error) {
	return c.read(ctx, ">", count, block)
}

func (c *Consumer) read(ctx context.Context, id string, count int, block time.Duration) ([]Entry, error) {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, id},
		Count:    int64(count),
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read stream %s: %w", c.stream, err)
	}

	var entries []Entry
	for _, stream := range streams {
		for _, message := range stream.Messages {
			entries = append(entries, Entry{ID: message.ID, Values: message.Values})
		}
	}
	return entries, nil
}

// Ack acknowledges one entry, removing it from this consumer's pending
// list.
func (c *Consumer) Ack(ctx context.Context, id string) error {
	if err := c.client.XAck(ctx, c.stream, c.group, id).Err(); err != nil {
		return fmt.Errorf("ack entry %s: %w", id, err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && strings.Contains(err.Error(), "BUSYGROUP")
}
