// Package backend integrates an optional external audio classification
// service. When configured, the analyzer streams raw PCM to it instead of
// running the local bell and music detectors. The backend is best-effort: an
// unreachable service downgrades the audio phase to a skip, never a failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"titantron/internal/config"
	"titantron/internal/detect"
	"titantron/internal/services"
)

// HTTPDoer describes the HTTP client used by the backend service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HealthStatus reports whether the service is ready to classify.
type HealthStatus struct {
	Available   bool `json:"available"`
	ModelLoaded bool `json:"model_loaded"`
}

// ClassifyResult carries the backend's detections plus an optional score
// spectrum: per-window time/score pairs with t in seconds relative to the
// start of the submitted payload.
type ClassifyResult struct {
	Detections []detect.Detection    `json:"detections"`
	Spectrum   []detect.SpectrumPoint `json:"spectrum,omitempty"`
}

// Client issues requests against the classification service.
type Client struct {
	baseURL    string
	windowSecs int
	sampleRate int
	client     HTTPDoer
}

// NewClient constructs a client from config. A nil doer uses a real HTTP
// client bounded by the configured timeout.
func NewClient(cfg *config.Config, doer HTTPDoer) *Client {
	if doer == nil {
		doer = &http.Client{Timeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.Backend.URL), "/"),
		windowSecs: cfg.Backend.WindowSeconds,
		sampleRate: cfg.Audio.SampleRate,
		client:     doer,
	}
}

// Health probes the service. It returns an error (wrapped ErrTransient) when
// the service cannot be reached; callers treat that as a skip signal.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "backend", "health", "backend url not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "backend", "health", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrTransient, "backend", "health", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return &status, nil
}

// Classify sends one chunk of little-endian 16-bit mono PCM for analysis.
// The sample rate and analysis window are passed as query parameters so the
// service does not need out-of-band configuration.
func (c *Client) Classify(ctx context.Context, pcm []byte) (*ClassifyResult, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "backend", "classify", "backend url not configured", nil)
	}
	url := fmt.Sprintf("%s/classify?window_secs=%d&sample_rate=%d", c.baseURL, c.windowSecs, c.sampleRate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pcm))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "backend", "classify", c.baseURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, services.Wrap(services.ErrTransient, "backend", "classify", fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	var result ClassifyResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}
	return &result, nil
}
