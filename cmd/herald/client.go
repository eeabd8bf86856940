package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"herald/internal/api"
	"herald/internal/event"
)

// apiClient talks to the daemon's HTTP API.
type apiClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func newAPIClient(address, token string) *apiClient {
	base := strings.TrimSpace(address)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &apiClient{
		baseURL: strings.TrimRight(base, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("is the daemon running? request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) list(ctx context.Context, params url.Values) ([]api.Notification, error) {
	path := "/api/notifications"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out struct {
		Notifications []api.Notification `json:"notifications"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Notifications, nil
}

func (c *apiClient) get(ctx context.Context, id int64) (*api.Notification, error) {
	var out api.Notification
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/notifications/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) setSeen(ctx context.Context, id int64, seen bool) (*api.Notification, error) {
	action := "seen"
	if !seen {
		action = "unseen"
	}
	var out api.Notification
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/%d/%s", id, action), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) setAgentStatus(ctx context.Context, id int64, status, agentID string) (*api.Notification, error) {
	body := map[string]string{"status": status, "agentId": agentID}
	var out api.Notification
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/%d/agent", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) resolve(ctx context.Context, id int64, resolution event.Payload) (*api.Notification, error) {
	body := map[string]any{"resolution": resolution}
	var out api.Notification
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/notifications/%d/resolve", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) emit(ctx context.Context, body map[string]any) (string, error) {
	var out struct {
		EntryID string `json:"entryId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/emit", body, &out); err != nil {
		return "", err
	}
	return out.EntryID, nil
}

func (c *apiClient) status(ctx context.Context) (*api.StatusSummary, error) {
	var out api.StatusSummary
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
