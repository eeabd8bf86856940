package processor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"herald/internal/catalog"
	"herald/internal/emitter"
	"herald/internal/event"
	"herald/internal/pipeline"
	"herald/internal/processor"
	"herald/internal/store"
	"herald/internal/testsupport"
	"herald/internal/transport"
)

const (
	testStream = "herald:test"
	testGroup  = "herald-test"
)

type fixture struct {
	client *redis.Client
	store  *store.Store
	proc   *processor.Processor

	mu      sync.Mutex
	changes []pipeline.Change
}

func newFixture(t *testing.T, consumerName string) *fixture {
	t.Helper()

	_, client := testsupport.NewRedis(t)
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	f := &fixture{client: client, store: st}
	record := func(ctx context.Context, change pipeline.Change) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.changes = append(f.changes, change)
		return nil
	}

	pctx := &pipeline.Context{
		Catalog:   catalog.Builtin(),
		Store:     st,
		Callbacks: []pipeline.Callback{record},
	}
	pipe := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})
	consumer := transport.NewConsumer(client, testStream, testGroup, consumerName)
	f.proc = processor.New(consumer, pipe, nil, processor.Options{
		Block:      50 * time.Millisecond,
		ReadCount:  8,
		ErrorRetry: 50 * time.Millisecond,
	})
	return f
}

func (f *fixture) recorded() []pipeline.Change {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Change(nil), f.changes...)
}

func (f *fixture) append(t *testing.T, env *event.Envelope) {
	t.Helper()
	producer := transport.NewProducer(f.client, testStream, 0)
	if _, err := producer.Append(context.Background(), env); err != nil {
		t.Fatalf("append failed: %v", err)
	}
}

func (f *fixture) appendRaw(t *testing.T, values map[string]any) {
	t.Helper()
	err := f.client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: testStream,
		Values: values,
	}).Err()
	if err != nil {
		t.Fatalf("raw append failed: %v", err)
	}
}

// runUntil runs the processor until the condition holds, then cancels and
// waits for a clean exit.
func (f *fixture) runUntil(t *testing.T, condition func() bool) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- f.proc.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("processor exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("processor did not stop after cancellation")
	}

	if !condition() {
		t.Fatal("condition never held")
	}
}

func (f *fixture) pendingCount(t *testing.T) int64 {
	t.Helper()
	pending, err := f.client.XPending(context.Background(), testStream, testGroup).Result()
	if err != nil {
		t.Fatalf("xpending failed: %v", err)
	}
	return pending.Count
}

func (f *fixture) rowCount(t *testing.T) int {
	t.Helper()
	summary, err := f.store.Counts(context.Background())
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	return summary.Total
}

func restartEnvelope(pid string) *event.Envelope {
	return &event.Envelope{
		EventType:   "system.daemon.restarted",
		Source:      "heraldd@test",
		Level:       event.LevelInfrastructure,
		Description: "daemon started",
		Payload:     event.Payload{"computer": "test", "pid": pid},
	}
}

func TestProcessorProjectsEntries(t *testing.T) {
	f := newFixture(t, "c1")

	f.append(t, restartEnvelope("100"))
	f.append(t, restartEnvelope("200"))

	f.runUntil(t, func() bool { return f.rowCount(t) == 2 })

	if got := f.pendingCount(t); got != 0 {
		t.Fatalf("expected all entries acked, %d still pending", got)
	}
}

func TestProcessorSurvivesPoisonEntries(t *testing.T) {
	f := newFixture(t, "c1")

	f.append(t, restartEnvelope("100"))
	// Poison: truncated embedded JSON fails decoding on every delivery.
	f.appendRaw(t, map[string]any{
		"event":   "system.daemon.restarted",
		"source":  "heraldd@test",
		"level":   "1",
		"payload": `{"computer":`,
	})
	f.append(t, restartEnvelope("200"))

	f.runUntil(t, func() bool { return f.rowCount(t) == 2 })

	// The poison entry is acknowledged too, so nothing wedges the stream.
	if got := f.pendingCount(t); got != 0 {
		t.Fatalf("expected poison entry acked, %d still pending", got)
	}
}

func TestProcessorRecoversOwnPending(t *testing.T) {
	f := newFixture(t, "c1")
	ctx := context.Background()

	f.append(t, restartEnvelope("100"))
	f.append(t, restartEnvelope("200"))

	// Simulate a prior crash: deliver to this consumer without acking.
	if err := f.client.XGroupCreateMkStream(ctx, testStream, testGroup, "0").Err(); err != nil {
		t.Fatalf("create group failed: %v", err)
	}
	_, err := f.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    testGroup,
		Consumer: "c1",
		Streams:  []string{testStream, ">"},
		Count:    10,
	}).Result()
	if err != nil {
		t.Fatalf("pre-delivery read failed: %v", err)
	}
	if got := f.pendingCount(t); got != 2 {
		t.Fatalf("expected 2 pending before restart, got %d", got)
	}

	f.runUntil(t, func() bool { return f.rowCount(t) == 2 })

	if got := f.pendingCount(t); got != 0 {
		t.Fatalf("expected pending drained after recovery, got %d", got)
	}
}

func TestEndToEndDuplicateEmission(t *testing.T) {
	f := newFixture(t, "c1")
	ctx := context.Background()

	em := emitter.New()
	producer := transport.NewProducer(f.client, testStream, 0)
	if err := em.Configure(producer, catalog.Builtin(), "heraldd@test"); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	evt := emitter.Event{
		Type:    "system.daemon.restarted",
		Payload: event.Payload{"computer": "test", "pid": "4242"},
	}
	if _, err := em.Emit(ctx, evt); err != nil {
		t.Fatalf("first emit failed: %v", err)
	}
	if _, err := em.Emit(ctx, evt); err != nil {
		t.Fatalf("second emit failed: %v", err)
	}

	f.runUntil(t, func() bool { return len(f.recorded()) == 2 })

	if got := f.rowCount(t); got != 1 {
		t.Fatalf("identical emissions must fold into one row, got %d", got)
	}
	changes := f.recorded()
	if !changes[0].WasCreated || changes[1].WasCreated {
		t.Fatalf("expected created then refreshed, got %#v", changes)
	}
}
