package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"herald/internal/catalog"
	"herald/internal/event"
	"herald/internal/pipeline"
	"herald/internal/store"
	"herald/internal/testsupport"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c := catalog.New()
	c.MustRegister(&catalog.Schema{
		EventType:         "todo.created",
		Level:             event.LevelWorkflow,
		Domain:            "todos",
		IdempotencyFields: []string{"slug"},
		Lifecycle: &catalog.Lifecycle{
			Creates:          true,
			Updates:          true,
			GroupKey:         "slug",
			MeaningfulFields: []string{"status"},
			SilentFields:     []string{"retries"},
		},
	})
	c.MustRegister(&catalog.Schema{
		EventType: "todo.completed",
		Level:     event.LevelWorkflow,
		Domain:    "todos",
		Lifecycle: &catalog.Lifecycle{
			Resolves: true,
			GroupKey: "slug",
		},
	})
	c.MustRegister(&catalog.Schema{
		EventType:         "ping.received",
		Level:             event.LevelInfrastructure,
		IdempotencyFields: []string{"id"},
		Lifecycle:         &catalog.Lifecycle{Creates: true},
	})
	return c
}

func testContext(t *testing.T, callbacks ...pipeline.Callback) (*pipeline.Context, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return &pipeline.Context{
		Catalog:   testCatalog(t),
		Store:     st,
		Callbacks: callbacks,
	}, st
}

func todoEnvelope(status string) *event.Envelope {
	return &event.Envelope{
		EventType:   "todo.created",
		Source:      "test@host",
		Level:       event.LevelWorkflow,
		Domain:      "todos",
		Description: "Todo " + status,
		Payload:     event.Payload{"slug": "write-docs", "status": status},
	}
}

func TestDedupStampsKey(t *testing.T) {
	pctx, _ := testContext(t)

	env := todoEnvelope("open")
	out, err := pipeline.Dedup{}.Process(context.Background(), env, pctx)
	if err != nil {
		t.Fatalf("dedup failed: %v", err)
	}
	if out.IdempotencyKey != "todo.created:write-docs" {
		t.Fatalf("unexpected key %q", out.IdempotencyKey)
	}
	if env.IdempotencyKey != "" {
		t.Fatal("dedup must not mutate the caller's envelope")
	}
}

func TestDuplicateEmissionFoldsIntoOneRow(t *testing.T) {
	var changes []pipeline.Change
	record := func(ctx context.Context, change pipeline.Change) error {
		changes = append(changes, change)
		return nil
	}
	pctx, st := testContext(t, record)
	ctx := context.Background()

	p := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})
	first := &event.Envelope{
		EventType:   "ping.received",
		Source:      "test@host",
		Level:       event.LevelInfrastructure,
		Description: "ping A",
		Payload:     event.Payload{"id": "p1", "note": "A"},
	}
	second := &event.Envelope{
		EventType:   "ping.received",
		Source:      "test@host",
		Level:       event.LevelInfrastructure,
		Description: "ping B",
		Payload:     event.Payload{"id": "p1", "note": "B"},
	}
	if _, err := p.Execute(ctx, first); err != nil {
		t.Fatalf("first execute failed: %v", err)
	}
	if _, err := p.Execute(ctx, second); err != nil {
		t.Fatalf("second execute failed: %v", err)
	}

	rows, err := st.List(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row, got %d", len(rows))
	}
	if rows[0].Description != "ping B" {
		t.Fatalf("row must reflect the newest payload, got %q", rows[0].Description)
	}
	if len(changes) != 2 || !changes[0].WasCreated || changes[1].WasCreated {
		t.Fatalf("expected created then refreshed, got %#v", changes)
	}

	// A different idempotency-field value is an independent row.
	third := &event.Envelope{
		EventType: "ping.received",
		Source:    "test@host",
		Level:     event.LevelInfrastructure,
		Payload:   event.Payload{"id": "p2"},
	}
	if _, err := p.Execute(ctx, third); err != nil {
		t.Fatalf("third execute failed: %v", err)
	}
	rows, err = st.List(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestDedupPassesUnknownTypes(t *testing.T) {
	pctx, _ := testContext(t)

	env := &event.Envelope{
		EventType: "unknown.event",
		Source:    "test@host",
		Level:     event.LevelInfrastructure,
	}
	out, err := pipeline.Dedup{}.Process(context.Background(), env, pctx)
	if err != nil {
		t.Fatalf("dedup failed: %v", err)
	}
	if out != env {
		t.Fatal("unknown types must pass through unstamped")
	}
	if out.IdempotencyKey != "" {
		t.Fatalf("unexpected key %q", out.IdempotencyKey)
	}
}

func TestProjectorCreates(t *testing.T) {
	var changes []pipeline.Change
	record := func(ctx context.Context, change pipeline.Change) error {
		changes = append(changes, change)
		return nil
	}
	pctx, st := testContext(t, record)
	ctx := context.Background()

	p := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})
	if _, err := p.Execute(ctx, todoEnvelope("open")); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	rows, err := st.List(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].IdempotencyKey != "todo.created:write-docs" {
		t.Fatalf("stamped key not persisted: %q", rows[0].IdempotencyKey)
	}
	if len(changes) != 1 || !changes[0].WasCreated || !changes[0].WasMeaningful {
		t.Fatalf("unexpected callback changes: %#v", changes)
	}
}

type droppingCartridge struct{}

func (droppingCartridge) Name() string { return "dropping" }

func (droppingCartridge) Process(ctx context.Context, env *event.Envelope, pctx *pipeline.Context) (*event.Envelope, error) {
	return nil, nil
}

func TestPipelineDropShortCircuits(t *testing.T) {
	pctx, st := testContext(t)
	ctx := context.Background()

	p := pipeline.New(pctx, droppingCartridge{}, pipeline.Projector{})
	out, err := p.Execute(ctx, todoEnvelope("open"))
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if out != nil {
		t.Fatalf("expected drop, got %#v", out)
	}

	rows, err := st.List(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("dropped events must never reach the projector, got %d rows", len(rows))
	}
}

func TestProjectorMeaningfulUpdate(t *testing.T) {
	var changes []pipeline.Change
	record := func(ctx context.Context, change pipeline.Change) error {
		changes = append(changes, change)
		return nil
	}
	pctx, st := testContext(t, record)
	ctx := context.Background()

	p := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})
	if _, err := p.Execute(ctx, todoEnvelope("open")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	created, err := st.List(ctx, store.Filter{})
	if err != nil || len(created) != 1 {
		t.Fatalf("seed row missing: %v %d", err, len(created))
	}
	if err := st.SetHumanStatus(ctx, created[0].ID, store.HumanSeen); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	// Status changed: meaningful, row resurfaces.
	if _, err := p.Execute(ctx, todoEnvelope("blocked")); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	row, err := st.GetByID(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if row.HumanStatus != store.HumanUnseen {
		t.Fatalf("meaningful change must resurface, got %q", row.HumanStatus)
	}
	if row.Payload.FieldString("status") != "blocked" {
		t.Fatalf("payload not folded in: %#v", row.Payload)
	}

	rows, err := st.List(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("update must not create a second row, got %d", len(rows))
	}

	last := changes[len(changes)-1]
	if last.WasCreated || !last.WasMeaningful {
		t.Fatalf("unexpected change flags: %#v", last)
	}
}

func TestProjectorSilentUpdate(t *testing.T) {
	pctx, st := testContext(t)
	ctx := context.Background()

	p := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})
	if _, err := p.Execute(ctx, todoEnvelope("open")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	created, _ := st.List(ctx, store.Filter{})
	if err := st.SetHumanStatus(ctx, created[0].ID, store.HumanSeen); err != nil {
		t.Fatalf("mark seen failed: %v", err)
	}

	// Same status, only the silent retries counter moved.
	silent := todoEnvelope("open")
	silent.Payload["retries"] = 4
	if _, err := p.Execute(ctx, silent); err != nil {
		t.Fatalf("silent update failed: %v", err)
	}

	row, err := st.GetByID(ctx, created[0].ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if row.HumanStatus != store.HumanSeen {
		t.Fatalf("silent change must not resurface, got %q", row.HumanStatus)
	}
	if row.Payload.FieldString("retries") != "4" {
		t.Fatalf("silent field not folded in: %#v", row.Payload)
	}
}

func TestProjectorUpdateWithoutExistingRowCreates(t *testing.T) {
	pctx, st := testContext(t)
	ctx := context.Background()

	// First observation of this slug arrives as an update-shaped event.
	env := todoEnvelope("blocked")
	out, err := pipeline.Projector{}.Process(ctx, env, pctx)
	if err != nil {
		t.Fatalf("projector failed: %v", err)
	}
	if out == nil {
		t.Fatal("projector must pass the envelope through")
	}

	rows, err := st.List(ctx, store.Filter{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected fallback create: %v %d", err, len(rows))
	}
}

func TestProjectorResolve(t *testing.T) {
	pctx, st := testContext(t)
	ctx := context.Background()

	p := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})
	if _, err := p.Execute(ctx, todoEnvelope("open")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	done := &event.Envelope{
		EventType: "todo.completed",
		Source:    "test@host",
		Level:     event.LevelWorkflow,
		Payload:   event.Payload{"slug": "write-docs", "outcome": "merged"},
	}
	if _, err := p.Execute(ctx, done); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	rows, err := st.List(ctx, store.Filter{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("resolve must not create rows: %v %d", err, len(rows))
	}
	if rows[0].AgentStatus != store.AgentResolved {
		t.Fatalf("row not resolved: %q", rows[0].AgentStatus)
	}
	if rows[0].Resolution.FieldString("outcome") != "merged" {
		t.Fatalf("resolution payload not recorded: %#v", rows[0].Resolution)
	}
}

func TestProjectorResolveWithoutRowIsNoOp(t *testing.T) {
	pctx, st := testContext(t)
	ctx := context.Background()

	done := &event.Envelope{
		EventType: "todo.completed",
		Source:    "test@host",
		Level:     event.LevelWorkflow,
		Payload:   event.Payload{"slug": "never-created"},
	}
	out, err := pipeline.Projector{}.Process(ctx, done, pctx)
	if err != nil {
		t.Fatalf("resolve of absent row must not error: %v", err)
	}
	if out == nil {
		t.Fatal("envelope must pass through")
	}

	rows, err := st.List(ctx, store.Filter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("no rows expected, got %d", len(rows))
	}
}

func TestProjectorPassesSchemalessEvents(t *testing.T) {
	pctx, st := testContext(t)
	ctx := context.Background()

	env := &event.Envelope{
		EventType: "unknown.event",
		Source:    "test@host",
		Level:     event.LevelInfrastructure,
	}
	out, err := pipeline.Projector{}.Process(ctx, env, pctx)
	if err != nil {
		t.Fatalf("projector failed: %v", err)
	}
	if out != env {
		t.Fatal("schemaless events must pass through untouched")
	}
	rows, _ := st.List(ctx, store.Filter{})
	if len(rows) != 0 {
		t.Fatalf("schemaless events must not project rows, got %d", len(rows))
	}
}

func TestCallbackIsolation(t *testing.T) {
	var reached bool
	panicking := func(ctx context.Context, change pipeline.Change) error {
		panic("delivery adapter blew up")
	}
	failing := func(ctx context.Context, change pipeline.Change) error {
		return errors.New("push endpoint down")
	}
	recording := func(ctx context.Context, change pipeline.Change) error {
		reached = true
		return nil
	}
	pctx, st := testContext(t, panicking, failing, recording)
	ctx := context.Background()

	p := pipeline.New(pctx, pipeline.Dedup{}, pipeline.Projector{})
	if _, err := p.Execute(ctx, todoEnvelope("open")); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if !reached {
		t.Fatal("later callbacks must run despite earlier panics and errors")
	}
	rows, err := st.List(ctx, store.Filter{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("projection must survive callback failures: %v %d", err, len(rows))
	}
}

type failingCartridge struct{}

func (failingCartridge) Name() string { return "failing" }

func (failingCartridge) Process(ctx context.Context, env *event.Envelope, pctx *pipeline.Context) (*event.Envelope, error) {
	return nil, errors.New("boom")
}

func TestPipelineWrapsCartridgeErrors(t *testing.T) {
	pctx, _ := testContext(t)

	p := pipeline.New(pctx, failingCartridge{})
	_, err := p.Execute(context.Background(), todoEnvelope("open"))
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "cartridge failing: boom" {
		t.Fatalf("unexpected error %q", got)
	}
}
