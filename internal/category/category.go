// Package category talks to the external event categorizer and
// memoizes its verdicts in the file cache.
package category

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"pujaboard/internal/cache"
	"pujaboard/internal/feed"
	"pujaboard/internal/model"
)

// request is the categorizer's input shape.
type request struct {
	Seva     string `json:"seva"`
	Venue    string `json:"venue"`
	Activity string `json:"activity"`
}

// Client calls the categorizer service. A nil Client (no endpoint
// configured) is valid and always returns the empty category.
type Client struct {
	client   feed.HTTPClient
	endpoint string
	apiKey   string
	cache    *cache.File
	log      *slog.Logger
}

// New creates a categorizer client. Returns nil when endpoint is
// empty, which disables categorization entirely.
func New(client feed.HTTPClient, endpoint, apiKey string, store *cache.File, log *slog.Logger) *Client {
	if endpoint == "" {
		return nil
	}
	return &Client{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
		cache:    store,
		log:      log,
	}
}

// Lookup returns the category for an event, consulting the cache
// first. The cache is keyed by the event's unique ID; a fresh verdict
// is written back on success. Any failure returns the zero Category
// with the error; callers degrade rather than abort.
func (c *Client) Lookup(ctx context.Context, key string, ev model.PujaEvent) (model.Category, error) {
	if c == nil {
		return model.Category{}, nil
	}

	var cached model.Category
	if c.cache != nil && c.cache.GetJSON(key, &cached) {
		return cached, nil
	}

	got, err := c.categorize(ctx, ev)
	if err != nil {
		return model.Category{}, err
	}

	if c.cache != nil {
		if err := c.cache.Set(key, got); err != nil {
			c.log.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return got, nil
}

func (c *Client) categorize(ctx context.Context, ev model.PujaEvent) (model.Category, error) {
	body, err := json.Marshal(request{Seva: ev.Seva, Venue: ev.Venue, Activity: ev.Activity})
	if err != nil {
		return model.Category{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Category{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Category{}, fmt.Errorf("http post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.Category{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return model.Category{}, fmt.Errorf("read body: %w", err)
	}

	var out model.Category
	if err := json.Unmarshal(data, &out); err != nil {
		return model.Category{}, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
