package push

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"herald/internal/config"
	"herald/internal/event"
	"herald/internal/pipeline"
	"herald/internal/store"
	"herald/internal/textutil"
)

const (
	userAgent = "Herald/0.1.0"

	// ntfy truncates messages server-side past 4096 bytes; cutting earlier
	// keeps the ellipsis under our control.
	ntfyMessageLimit = 1024
)

// NtfyAdapter publishes notification changes to an ntfy topic.
type NtfyAdapter struct {
	endpoint    string
	client      *http.Client
	store       *store.Store
	minLevel    event.Level
	createdOnly bool
}

// NewNtfyAdapter builds the adapter from config. Returns nil when no topic
// is configured; a nil adapter registers no callback.
func NewNtfyAdapter(cfg *config.Config, st *store.Store) (*NtfyAdapter, error) {
	topic := strings.TrimSpace(cfg.Push.NtfyTopic)
	if topic == "" {
		return nil, nil
	}

	timeout := time.Duration(cfg.Push.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	minLevel := event.LevelOperational
	if cfg.Push.MinLevel != "" {
		parsed, err := event.ParseLevel(cfg.Push.MinLevel)
		if err != nil {
			return nil, fmt.Errorf("push min level: %w", err)
		}
		minLevel = parsed
	}

	return &NtfyAdapter{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		store:       st,
		minLevel:    minLevel,
		createdOnly: cfg.Push.CreatedOnly,
	}, nil
}

// Callback returns the pipeline registration for this adapter.
func (a *NtfyAdapter) Callback() pipeline.Callback {
	return a.deliver
}

func (a *NtfyAdapter) deliver(ctx context.Context, change pipeline.Change) error {
	if a.createdOnly && !change.WasCreated {
		return nil
	}

	n, err := a.store.GetByID(ctx, change.NotificationID)
	if err != nil {
		return fmt.Errorf("load notification %d: %w", change.NotificationID, err)
	}
	if n == nil || n.Level < a.minLevel {
		return nil
	}

	title := "Herald - " + n.EventType
	message := textutil.Truncate(textutil.CollapseSpace(n.Description), ntfyMessageLimit)
	if message == "" {
		message = n.EventType
	}
	tags := []string{"herald", n.Domain}
	priority := ""
	if n.Level >= event.LevelBusiness {
		priority = "high"
	}

	return a.send(ctx, title, message, tags, priority)
}

func (a *NtfyAdapter) send(ctx context.Context, title, message string, tags []string, priority string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title != "" {
		req.Header.Set("Title", title)
	}
	if len(tags) > 0 {
		req.Header.Set("Tags", strings.Join(tags, ","))
	}
	if priority != "" && priority != "default" {
		req.Header.Set("Priority", priority)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
