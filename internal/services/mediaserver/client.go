// Package mediaserver talks to the media server hosting the source
// recordings. The analyzer uses it to pull item metadata, fetch trickplay
// thumbnail sheets when full frame extraction is unavailable, and push
// detected boundaries back as chapter markers.
package mediaserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"titantron/internal/config"
	"titantron/internal/services"
)

// HTTPDoer describes the HTTP client used by the media server service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TrickplayInfo describes one pre-rendered thumbnail resolution.
type TrickplayInfo struct {
	Width          int `json:"Width"`
	Height         int `json:"Height"`
	TileWidth      int `json:"TileWidth"`
	TileHeight     int `json:"TileHeight"`
	ThumbnailCount int `json:"ThumbnailCount"`
	// IntervalMS is the time between thumbnails in milliseconds.
	IntervalMS int `json:"Interval"`
}

// Item is the subset of item metadata the analyzer consumes.
type Item struct {
	ID           string                              `json:"Id"`
	Name         string                              `json:"Name"`
	Path         string                              `json:"Path"`
	RunTimeTicks int64                               `json:"RunTimeTicks"`
	Trickplay    map[string]map[string]TrickplayInfo `json:"Trickplay"`
}

// Chapter is a named boundary pushed back to the server.
type Chapter struct {
	StartPositionTicks int64  `json:"StartPositionTicks"`
	Name               string `json:"Name"`
}

// Client issues authenticated requests against the media server API.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient constructs a client from config. A nil doer uses a real HTTP
// client bounded by the configured request timeout.
func NewClient(cfg *config.Config, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: time.Duration(cfg.MediaServer.RequestTimeout) * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.MediaServer.URL), "/"),
		apiKey:  strings.TrimSpace(cfg.MediaServer.APIKey),
		client:  doer,
	}
}

// Ping verifies the server responds to an unauthenticated info request.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/System/Info/Public", nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "mediaserver", "ping", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrTransient, "mediaserver", "ping", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	return nil
}

// ItemDetail fetches item metadata, including trickplay availability.
func (c *Client) ItemDetail(ctx context.Context, itemID string) (*Item, error) {
	payload, err := c.getJSON(ctx, "/Items/"+itemID)
	if err != nil {
		return nil, err
	}
	var item Item
	if err := json.Unmarshal(payload, &item); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", itemID, err)
	}
	return &item, nil
}

// ThumbnailSheet fetches one trickplay tile sheet as encoded image bytes.
func (c *Client) ThumbnailSheet(ctx context.Context, itemID string, width, index int) ([]byte, error) {
	path := fmt.Sprintf("/Videos/%s/Trickplay/%d/%d.jpg", itemID, width, index)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "mediaserver", "thumbnail sheet", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "mediaserver", "thumbnail sheet", path, nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrTransient, "mediaserver", "thumbnail sheet", fmt.Sprintf("%s: status %d", path, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read thumbnail sheet: %w", err)
	}
	return data, nil
}

// UpdateChapters replaces the item's chapter markers. The server requires a
// full item document on update, so the current document is fetched, patched,
// and posted back.
func (c *Client) UpdateChapters(ctx context.Context, itemID string, chapters []Chapter) error {
	payload, err := c.getJSON(ctx, "/Items/"+itemID)
	if err != nil {
		return err
	}
	var document map[string]any
	if err := json.Unmarshal(payload, &document); err != nil {
		return fmt.Errorf("decode item %s: %w", itemID, err)
	}
	document["Chapters"] = chapters

	body, err := json.Marshal(document)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", itemID, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/Items/"+itemID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "mediaserver", "update chapters", itemID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return services.Wrap(services.ErrTransient, "mediaserver", "update chapters", fmt.Sprintf("%s: status %d", itemID, resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "mediaserver", "get", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "mediaserver", "get", path, nil)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrTransient, "mediaserver", "get", fmt.Sprintf("%s: status %d", path, resp.StatusCode), nil)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "mediaserver", "request", "media server url not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", path, err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-Emby-Token", c.apiKey)
	}
	return req, nil
}
