package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMediaServer(); err != nil {
		return err
	}
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVisual(); err != nil {
		return err
	}
	return c.validateAnalysis()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	from := strings.TrimSpace(c.Paths.MediaPathFrom)
	to := strings.TrimSpace(c.Paths.MediaPathTo)
	if (from == "") != (to == "") {
		return errors.New("paths.media_path_from and paths.media_path_to must be set together")
	}
	return nil
}

func (c *Config) validateMediaServer() error {
	if !c.MediaServer.Enabled {
		return nil
	}
	if strings.TrimSpace(c.MediaServer.URL) == "" {
		return errors.New("media_server.url must be set when media_server.enabled is true")
	}
	if strings.TrimSpace(c.MediaServer.APIKey) == "" {
		return errors.New("media_server.api_key must be set when media_server.enabled is true")
	}
	return nil
}

func (c *Config) validateBackend() error {
	if !c.Backend.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Backend.URL) == "" {
		return errors.New("backend.url must be set when backend.enabled is true")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if err := ensurePositiveMap(map[string]int{
		"audio.sample_rate":          c.Audio.SampleRate,
		"audio.chunk_secs":           c.Audio.ChunkSeconds,
		"audio.bell_min_gap_ms":      c.Audio.BellMinGapMs,
		"audio.music_history_secs":   c.Audio.MusicHistorySeconds,
		"audio.music_sustain_windows": c.Audio.MusicSustainWindows,
		"audio.music_cooldown_secs":  c.Audio.MusicCooldownSeconds,
		"audio.extract_timeout_secs": c.Audio.ExtractTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Audio.BellLowHz <= 0 || c.Audio.BellHighHz <= c.Audio.BellLowHz {
		return errors.New("audio.bell_low_hz and audio.bell_high_hz must describe a positive band")
	}
	if float64(c.Audio.SampleRate)/2 <= c.Audio.BellHighHz {
		return errors.New("audio.bell_high_hz must be below the Nyquist frequency for audio.sample_rate")
	}
	if c.Audio.BellOnsetRatio <= 1 {
		return errors.New("audio.bell_onset_ratio must be greater than 1")
	}
	if c.Audio.MusicScoreThreshold <= 0 {
		return errors.New("audio.music_score_threshold must be positive")
	}
	return nil
}

func (c *Config) validateVisual() error {
	if c.Visual.FrameRate <= 0 {
		return errors.New("visual.frame_rate must be positive")
	}
	if c.Visual.FrameWidth <= 0 || c.Visual.FrameHeight <= 0 {
		return errors.New("visual.frame_width and visual.frame_height must be positive")
	}
	if c.Visual.SceneThreshold <= 0 || c.Visual.SceneThreshold >= 1 {
		return errors.New("visual.scene_threshold must be between 0 and 1")
	}
	if c.Visual.ThumbnailThreshold <= 0 || c.Visual.ThumbnailThreshold >= 1 {
		return errors.New("visual.thumbnail_threshold must be between 0 and 1")
	}
	if c.Visual.DarkBrightness <= 0 || c.Visual.DarkBrightness >= 255 {
		return errors.New("visual.dark_brightness must be between 0 and 255")
	}
	weights := []struct {
		name  string
		value float64
	}{
		{"visual.weight_mad", c.Visual.WeightMAD},
		{"visual.weight_ssim", c.Visual.WeightSSIM},
		{"visual.weight_edge", c.Visual.WeightEdge},
		{"visual.weight_brightness", c.Visual.WeightBrightness},
	}
	sum := 0.0
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("%s must be >= 0", w.name)
		}
		sum += w.value
	}
	if math.Abs(sum-1) > 0.01 {
		return fmt.Errorf("visual composite weights must sum to 1, got %.3f", sum)
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if err := ensurePositiveMap(map[string]int{
		"analysis.timeout_secs":          c.Analysis.TimeoutSeconds,
		"analysis.audio_merge_secs":      c.Analysis.AudioMergeSeconds,
		"analysis.visual_merge_secs":     c.Analysis.VisualMergeSeconds,
		"analysis.thumbnail_merge_secs":  c.Analysis.ThumbMergeSeconds,
		"analysis.bell_min_cluster":      c.Analysis.BellMinClusterSize,
	}); err != nil {
		return err
	}
	if strings.TrimSpace(c.Analysis.FFmpegBinary) == "" {
		return errors.New("analysis.ffmpeg_binary must be set")
	}
	if strings.TrimSpace(c.Analysis.FFprobeBinary) == "" {
		return errors.New("analysis.ffprobe_binary must be set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
