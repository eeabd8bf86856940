package emitter_test

import (
	"context"
	"errors"
	"testing"

	"herald/internal/catalog"
	"herald/internal/emitter"
	"herald/internal/event"
	"herald/internal/testsupport"
	"herald/internal/transport"
)

func TestEmitBeforeConfigureFails(t *testing.T) {
	em := emitter.New()
	_, err := em.Emit(context.Background(), emitter.Event{Type: "cron.job.missed"})
	if !errors.Is(err, emitter.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestConfigureIsSingleAssignment(t *testing.T) {
	_, client := testsupport.NewRedis(t)
	producer := transport.NewProducer(client, "herald:test", 0)

	em := emitter.New()
	if err := em.Configure(nil, nil, ""); err == nil {
		t.Fatal("expected error for nil producer")
	}
	if err := em.Configure(producer, catalog.Builtin(), "heraldd@test"); err != nil {
		t.Fatalf("configure failed: %v", err)
	}
	if err := em.Configure(producer, catalog.Builtin(), "heraldd@test"); err == nil {
		t.Fatal("expected error on second configure")
	}
}

func TestEmitAppliesSchemaDefaults(t *testing.T) {
	_, client := testsupport.NewRedis(t)
	producer := transport.NewProducer(client, "herald:test", 0)
	ctx := context.Background()

	em := emitter.New()
	if err := em.Configure(producer, catalog.Builtin(), "heraldd@test"); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	id, err := em.Emit(ctx, emitter.Event{
		Type:    "cron.job.missed",
		Payload: event.Payload{"job": "backup", "window": "02:00"},
	})
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected transport-assigned entry id")
	}

	entries, err := client.XRange(ctx, "herald:test", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	values := entries[0].Values
	if values["source"] != "heraldd@test" {
		t.Fatalf("source default not applied: %q", values["source"])
	}
	if values["level"] != "2" {
		t.Fatalf("schema level default not applied: %q", values["level"])
	}
	if values["domain"] != "cron" {
		t.Fatalf("schema domain default not applied: %q", values["domain"])
	}
	if values["visibility"] != "local" {
		t.Fatalf("schema visibility default not applied: %q", values["visibility"])
	}
	if values["idempotency_key"] != "" {
		t.Fatalf("producers must never stamp idempotency keys: %q", values["idempotency_key"])
	}
}

func TestEmitRejectsUnknownLevellessEvents(t *testing.T) {
	_, client := testsupport.NewRedis(t)
	producer := transport.NewProducer(client, "herald:test", 0)

	em := emitter.New()
	if err := em.Configure(producer, catalog.Builtin(), "heraldd@test"); err != nil {
		t.Fatalf("configure failed: %v", err)
	}

	// No schema to supply a level, and none given: validation fails before
	// anything reaches the transport.
	_, err := em.Emit(context.Background(), emitter.Event{Type: "unknown.event"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}
