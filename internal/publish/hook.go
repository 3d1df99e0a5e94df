package publish

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// RebuildHook asks the site builder to redeploy after content changes.
type RebuildHook struct {
	url    string
	client *http.Client
}

// NewRebuildHook creates a hook for url. An empty url disables it.
func NewRebuildHook(url string, client *http.Client) *RebuildHook {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RebuildHook{url: url, client: client}
}

// Configured reports whether a hook URL is set.
func (h *RebuildHook) Configured() bool {
	return h != nil && h.url != ""
}

// Trigger POSTs to the hook URL. Any non-2xx response is an error.
func (h *RebuildHook) Trigger(ctx context.Context) error {
	if !h.Configured() {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build rebuild request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("rebuild hook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rebuild hook returned %d", resp.StatusCode)
	}
	return nil
}
