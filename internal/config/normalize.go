package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMediaServer()
	c.normalizeBackend()
	c.normalizeAudio()
	c.normalizeVisual()
	c.normalizeAnalysis()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.MediaPathFrom = strings.TrimSpace(c.Paths.MediaPathFrom)
	c.Paths.MediaPathTo = strings.TrimSpace(c.Paths.MediaPathTo)
	if c.Paths.MediaPathTo != "" {
		if c.Paths.MediaPathTo, err = expandPath(c.Paths.MediaPathTo); err != nil {
			return fmt.Errorf("paths.media_path_to: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeMediaServer() {
	c.MediaServer.URL = strings.TrimRight(strings.TrimSpace(c.MediaServer.URL), "/")
	c.MediaServer.APIKey = strings.TrimSpace(c.MediaServer.APIKey)
	if c.MediaServer.APIKey == "" {
		if value, ok := os.LookupEnv("TITANTRON_MEDIA_SERVER_API_KEY"); ok {
			c.MediaServer.APIKey = strings.TrimSpace(value)
		}
	}
	if c.MediaServer.RequestTimeout <= 0 {
		c.MediaServer.RequestTimeout = defaultMediaServerTimeout
	}
}

func (c *Config) normalizeBackend() {
	c.Backend.URL = strings.TrimRight(strings.TrimSpace(c.Backend.URL), "/")
	if c.Backend.WindowSeconds <= 0 {
		c.Backend.WindowSeconds = defaultBackendWindowSeconds
	}
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = defaultBackendTimeoutSeconds
	}
}

func (c *Config) normalizeAudio() {
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultSampleRate
	}
	if c.Audio.ChunkSeconds <= 0 {
		c.Audio.ChunkSeconds = defaultChunkSeconds
	}
	if c.Audio.BellOnsetRatio <= 0 {
		c.Audio.BellOnsetRatio = defaultBellOnsetRatio
	}
	if c.Audio.BellMinGapMs <= 0 {
		c.Audio.BellMinGapMs = defaultBellMinGapMs
	}
	if c.Audio.MusicHistorySeconds <= 0 {
		c.Audio.MusicHistorySeconds = defaultMusicHistorySeconds
	}
	if c.Audio.MusicSustainWindows <= 0 {
		c.Audio.MusicSustainWindows = defaultMusicSustainWindows
	}
	if c.Audio.MusicScoreThreshold <= 0 {
		c.Audio.MusicScoreThreshold = defaultMusicScoreThreshold
	}
	if c.Audio.MusicCooldownSeconds <= 0 {
		c.Audio.MusicCooldownSeconds = defaultMusicCooldownSeconds
	}
	if c.Audio.ExtractTimeoutSeconds <= 0 {
		c.Audio.ExtractTimeoutSeconds = defaultExtractTimeoutSeconds
	}
}

func (c *Config) normalizeVisual() {
	if c.Visual.FrameRate <= 0 {
		c.Visual.FrameRate = defaultFrameRate
	}
	if c.Visual.FrameWidth <= 0 {
		c.Visual.FrameWidth = defaultFrameWidth
	}
	if c.Visual.FrameHeight <= 0 {
		c.Visual.FrameHeight = defaultFrameHeight
	}
	if c.Visual.SceneThreshold <= 0 {
		c.Visual.SceneThreshold = defaultSceneThreshold
	}
	if c.Visual.ThumbnailThreshold <= 0 {
		c.Visual.ThumbnailThreshold = defaultThumbnailThreshold
	}
	if c.Visual.DarkBrightness <= 0 {
		c.Visual.DarkBrightness = defaultDarkBrightness
	}
	if c.Visual.WeightMAD <= 0 && c.Visual.WeightSSIM <= 0 && c.Visual.WeightEdge <= 0 && c.Visual.WeightBrightness <= 0 {
		c.Visual.WeightMAD = defaultWeightMAD
		c.Visual.WeightSSIM = defaultWeightSSIM
		c.Visual.WeightEdge = defaultWeightEdge
		c.Visual.WeightBrightness = defaultWeightBrightness
	}
}

func (c *Config) normalizeAnalysis() {
	if c.Analysis.TimeoutSeconds <= 0 {
		c.Analysis.TimeoutSeconds = defaultAnalysisTimeoutSeconds
	}
	c.Analysis.FFmpegBinary = strings.TrimSpace(c.Analysis.FFmpegBinary)
	if c.Analysis.FFmpegBinary == "" {
		c.Analysis.FFmpegBinary = defaultFFmpegBinary
	}
	c.Analysis.FFprobeBinary = strings.TrimSpace(c.Analysis.FFprobeBinary)
	if c.Analysis.FFprobeBinary == "" {
		c.Analysis.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Analysis.AudioMergeSeconds <= 0 {
		c.Analysis.AudioMergeSeconds = defaultAudioMergeSeconds
	}
	if c.Analysis.VisualMergeSeconds <= 0 {
		c.Analysis.VisualMergeSeconds = defaultVisualMergeSeconds
	}
	if c.Analysis.ThumbMergeSeconds <= 0 {
		c.Analysis.ThumbMergeSeconds = defaultThumbMergeSeconds
	}
	if c.Analysis.BellMinClusterSize <= 0 {
		c.Analysis.BellMinClusterSize = defaultBellMinClusterSize
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
