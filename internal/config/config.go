package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and path-mapping configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	// MediaPathFrom/MediaPathTo rewrite server-side file paths to the local
	// mount point, e.g. "/media" -> "/mnt/media".
	MediaPathFrom string `toml:"media_path_from"`
	MediaPathTo   string `toml:"media_path_to"`
}

// MediaServer contains configuration for the media server integration used
// for thumbnail-sheet fallback and chapter push.
type MediaServer struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Backend contains configuration for the optional remote audio detection
// backend. When enabled but unreachable, the audio phase is skipped rather
// than failed.
type Backend struct {
	Enabled        bool   `toml:"enabled"`
	URL            string `toml:"url"`
	WindowSeconds  int    `toml:"window_secs"`
	TimeoutSeconds int    `toml:"timeout_secs"`
}

// Audio contains tuning for the local audio detectors and PCM extraction.
type Audio struct {
	Enabled               bool    `toml:"enabled"`
	SampleRate            int     `toml:"sample_rate"`
	ChunkSeconds          int     `toml:"chunk_secs"`
	BellLowHz             float64 `toml:"bell_low_hz"`
	BellHighHz            float64 `toml:"bell_high_hz"`
	BellOnsetRatio        float64 `toml:"bell_onset_ratio"`
	BellMinGapMs          int     `toml:"bell_min_gap_ms"`
	MusicHistorySeconds   int     `toml:"music_history_secs"`
	MusicSustainWindows   int     `toml:"music_sustain_windows"`
	MusicScoreThreshold   float64 `toml:"music_score_threshold"`
	MusicCooldownSeconds  int     `toml:"music_cooldown_secs"`
	ExtractTimeoutSeconds int     `toml:"extract_timeout_secs"`
}

// Visual contains tuning for the frame-difference detector.
type Visual struct {
	FrameRate          float64 `toml:"frame_rate"`
	FrameWidth         int     `toml:"frame_width"`
	FrameHeight        int     `toml:"frame_height"`
	SceneThreshold     float64 `toml:"scene_threshold"`
	ThumbnailThreshold float64 `toml:"thumbnail_threshold"`
	DarkBrightness     float64 `toml:"dark_brightness"`
	WeightMAD          float64 `toml:"weight_mad"`
	WeightSSIM         float64 `toml:"weight_ssim"`
	WeightEdge         float64 `toml:"weight_edge"`
	WeightBrightness   float64 `toml:"weight_brightness"`
}

// Analysis contains run-level orchestration settings.
type Analysis struct {
	TimeoutSeconds      int    `toml:"timeout_secs"`
	FFmpegBinary        string `toml:"ffmpeg_binary"`
	FFprobeBinary       string `toml:"ffprobe_binary"`
	AudioMergeSeconds   int    `toml:"audio_merge_secs"`
	VisualMergeSeconds  int    `toml:"visual_merge_secs"`
	ThumbMergeSeconds   int    `toml:"thumbnail_merge_secs"`
	BellMinClusterSize  int    `toml:"bell_min_cluster"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the analyzer.
//
// Configuration sections by subsystem:
//   - Paths: state directory (database + lock), logs, path mapping
//   - MediaServer: thumbnail fallback and chapter push collaborator
//   - Backend: optional remote audio detection service
//   - Audio: PCM extraction and bell/music detector thresholds
//   - Visual: frame extraction and scene detector thresholds
//   - Analysis: run timeout, binaries, clustering windows
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	MediaServer MediaServer `toml:"media_server"`
	Backend     Backend     `toml:"backend"`
	Audio       Audio       `toml:"audio"`
	Visual      Visual      `toml:"visual"`
	Analysis    Analysis    `toml:"analysis"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/titantron/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("titantron.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the analyzer needs at startup.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the sqlite database location inside the state dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "titantron.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "titantron.lock")
}

// MapMediaPath rewrites a server-side path to the local mount point using the
// configured prefix mapping. Paths outside the mapping are returned unchanged.
func (c *Config) MapMediaPath(serverPath string) string {
	from := strings.TrimSpace(c.Paths.MediaPathFrom)
	to := strings.TrimSpace(c.Paths.MediaPathTo)
	if from == "" || to == "" {
		return serverPath
	}
	if serverPath == from {
		return to
	}
	prefix := strings.TrimSuffix(from, "/") + "/"
	if strings.HasPrefix(serverPath, prefix) {
		return filepath.Join(to, strings.TrimPrefix(serverPath, prefix))
	}
	return serverPath
}

// HasPathMapping reports whether the server-to-local path mapping is set.
func (c *Config) HasPathMapping() bool {
	return strings.TrimSpace(c.Paths.MediaPathFrom) != "" && strings.TrimSpace(c.Paths.MediaPathTo) != ""
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
