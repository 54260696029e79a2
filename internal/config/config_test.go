package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"titantron/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Audio.SampleRate != 22050 {
		t.Fatalf("unexpected default sample rate %d", cfg.Audio.SampleRate)
	}
	if cfg.Analysis.TimeoutSeconds != 600 {
		t.Fatalf("unexpected default analysis timeout %d", cfg.Analysis.TimeoutSeconds)
	}
	if cfg.Visual.SceneThreshold != 0.12 {
		t.Fatalf("unexpected default scene threshold %v", cfg.Visual.SceneThreshold)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
[audio]
sample_rate = 16000
music_score_threshold = 0.8

[visual]
scene_threshold = 0.2
`)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved == "" {
		t.Fatal("expected config file to resolve")
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("expected sample rate override, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Visual.SceneThreshold != 0.2 {
		t.Fatalf("expected scene threshold override, got %v", cfg.Visual.SceneThreshold)
	}
	// Unset fields keep their defaults.
	if cfg.Audio.BellLowHz != 2000 {
		t.Fatalf("expected default bell band, got %v", cfg.Audio.BellLowHz)
	}
}

func TestLoadRejectsBadWeights(t *testing.T) {
	path := writeConfig(t, `
[visual]
weight_mad = 0.9
weight_ssim = 0.9
weight_edge = 0.1
weight_brightness = 0.1
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected weight-sum validation error")
	}
}

func TestLoadRejectsBandAboveNyquist(t *testing.T) {
	path := writeConfig(t, `
[audio]
sample_rate = 8000
bell_low_hz = 2000.0
bell_high_hz = 4500.0
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected Nyquist validation error")
	}
}

func TestMediaServerRequiresURLWhenEnabled(t *testing.T) {
	path := writeConfig(t, `
[media_server]
enabled = true
api_key = "k"
`)
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected media_server.url validation error")
	}
}

func TestMapMediaPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.MediaPathFrom = "/media"
	cfg.Paths.MediaPathTo = "/mnt/media"

	cases := []struct {
		in   string
		want string
	}{
		{"/media/shows/ep1.mkv", "/mnt/media/shows/ep1.mkv"},
		{"/media", "/mnt/media"},
		{"/other/file.mkv", "/other/file.mkv"},
	}
	for _, tc := range cases {
		if got := cfg.MapMediaPath(tc.in); got != tc.want {
			t.Fatalf("MapMediaPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if !strings.HasSuffix(cfg.DatabasePath(), "titantron.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
}
