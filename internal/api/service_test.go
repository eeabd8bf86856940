package api_test

import (
	"context"
	"testing"

	"herald/internal/api"
	"herald/internal/event"
	"herald/internal/store"
	"herald/internal/testsupport"
)

func seedNotification(t *testing.T, st *store.Store) *store.Notification {
	t.Helper()
	created, err := st.Insert(context.Background(), &store.Notification{
		EventType:   "agent.task.stuck",
		Source:      "test@host",
		Level:       event.LevelWorkflow,
		Domain:      "agents",
		Visibility:  event.VisibilityCluster,
		Description: "Session s1 is stuck",
		Payload:     event.Payload{"session": "s1"},
	})
	if err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return created
}

func TestDescribe(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	service := api.NewNotificationService(st)
	row := seedNotification(t, st)
	ctx := context.Background()

	view, err := service.Describe(ctx, row.ID)
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if view.EventType != "agent.task.stuck" || view.Level != "workflow" {
		t.Fatalf("unexpected view: %#v", view)
	}
	if view.HumanStatus != "unseen" || view.AgentStatus != "none" {
		t.Fatalf("unexpected statuses: %#v", view)
	}
	if view.CreatedAt == "" {
		t.Fatal("created timestamp missing from view")
	}

	_, err = service.Describe(ctx, row.ID+100)
	if !api.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	service := api.NewNotificationService(st)
	row := seedNotification(t, st)
	ctx := context.Background()

	seen, err := service.SetHumanStatus(ctx, row.ID, store.HumanSeen)
	if err != nil {
		t.Fatalf("SetHumanStatus failed: %v", err)
	}
	if seen.HumanStatus != "seen" || seen.SeenAt == "" {
		t.Fatalf("unexpected seen view: %#v", seen)
	}

	claimed, err := service.SetAgentStatus(ctx, row.ID, store.AgentClaimed, "agent-3")
	if err != nil {
		t.Fatalf("SetAgentStatus failed: %v", err)
	}
	if claimed.AgentStatus != "claimed" || claimed.AgentID != "agent-3" || claimed.ClaimedAt == "" {
		t.Fatalf("unexpected claimed view: %#v", claimed)
	}

	resolved, err := service.Resolve(ctx, row.ID, event.Payload{"note": "restarted the session"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if resolved.AgentStatus != "resolved" || resolved.ResolvedAt == "" {
		t.Fatalf("unexpected resolved view: %#v", resolved)
	}
	if resolved.Resolution.FieldString("note") != "restarted the session" {
		t.Fatalf("resolution lost: %#v", resolved.Resolution)
	}
	if resolved.ClaimedAt != claimed.ClaimedAt {
		t.Fatal("claimed timestamp must survive resolution")
	}

	if _, err := service.SetHumanStatus(ctx, row.ID+100, store.HumanSeen); !api.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestListAndSummary(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	service := api.NewNotificationService(st)
	ctx := context.Background()

	seedNotification(t, st)
	seedNotification(t, st)

	views, err := service.List(ctx, store.Filter{Domain: "agents"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}

	summary, err := service.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.Total != 2 || summary.Unseen != 2 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}
