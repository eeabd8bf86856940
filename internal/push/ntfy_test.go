package push_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"herald/internal/event"
	"herald/internal/pipeline"
	"herald/internal/push"
	"herald/internal/store"
	"herald/internal/testsupport"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newTopicServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		captured = append(captured, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]capturedRequest(nil), captured...)
	}
}

func seedRow(t *testing.T, st *store.Store, level event.Level, description string) *store.Notification {
	t.Helper()
	row, err := st.Insert(context.Background(), &store.Notification{
		EventType:   "business.review.requested",
		Source:      "test@host",
		Level:       level,
		Domain:      "review",
		Description: description,
	})
	if err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	return row
}

func TestNtfyAdapterDisabledWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	adapter, err := push.NewNtfyAdapter(cfg, nil)
	if err != nil {
		t.Fatalf("NewNtfyAdapter failed: %v", err)
	}
	if adapter != nil {
		t.Fatal("expected nil adapter when no topic is configured")
	}
}

func TestNtfyAdapterDelivers(t *testing.T) {
	server, requests := newTopicServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Push.NtfyTopic = server.URL
	st := testsupport.MustOpenStore(t, cfg)
	row := seedRow(t, st, event.LevelBusiness, "Ship it")

	adapter, err := push.NewNtfyAdapter(cfg, st)
	if err != nil {
		t.Fatalf("NewNtfyAdapter failed: %v", err)
	}

	callback := adapter.Callback()
	err = callback(context.Background(), pipeline.Change{
		NotificationID: row.ID,
		EventType:      row.EventType,
		WasCreated:     true,
		WasMeaningful:  true,
	})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("expected one delivery, got %d", len(got))
	}
	if got[0].title != "Herald - business.review.requested" {
		t.Fatalf("unexpected title %q", got[0].title)
	}
	if got[0].body != "Ship it" {
		t.Fatalf("unexpected body %q", got[0].body)
	}
	if got[0].priority != "high" {
		t.Fatalf("business-level changes should be high priority, got %q", got[0].priority)
	}
}

func TestNtfyAdapterFiltersBelowMinLevel(t *testing.T) {
	server, requests := newTopicServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Push.NtfyTopic = server.URL
	cfg.Push.MinLevel = "workflow"
	st := testsupport.MustOpenStore(t, cfg)
	row := seedRow(t, st, event.LevelInfrastructure, "noise")

	adapter, err := push.NewNtfyAdapter(cfg, st)
	if err != nil {
		t.Fatalf("NewNtfyAdapter failed: %v", err)
	}

	err = adapter.Callback()(context.Background(), pipeline.Change{NotificationID: row.ID, WasCreated: true})
	if err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if got := requests(); len(got) != 0 {
		t.Fatalf("below-threshold change must be filtered, got %d deliveries", len(got))
	}
}

func TestNtfyAdapterCreatedOnly(t *testing.T) {
	server, requests := newTopicServer(t)
	cfg := testsupport.NewConfig(t)
	cfg.Push.NtfyTopic = server.URL
	cfg.Push.CreatedOnly = true
	st := testsupport.MustOpenStore(t, cfg)
	row := seedRow(t, st, event.LevelBusiness, "Ship it")

	adapter, err := push.NewNtfyAdapter(cfg, st)
	if err != nil {
		t.Fatalf("NewNtfyAdapter failed: %v", err)
	}

	if err := adapter.Callback()(context.Background(), pipeline.Change{NotificationID: row.ID, WasCreated: false}); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}
	if got := requests(); len(got) != 0 {
		t.Fatalf("updates must be filtered in created-only mode, got %d", len(got))
	}
}

func TestNtfyAdapterSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Push.NtfyTopic = server.URL
	st := testsupport.MustOpenStore(t, cfg)
	row := seedRow(t, st, event.LevelBusiness, "Ship it")

	adapter, err := push.NewNtfyAdapter(cfg, st)
	if err != nil {
		t.Fatalf("NewNtfyAdapter failed: %v", err)
	}

	err = adapter.Callback()(context.Background(), pipeline.Change{NotificationID: row.ID, WasCreated: true})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
