package preflight

import (
	"context"

	"titantron/internal/config"
	"titantron/internal/services/backend"
	"titantron/internal/services/mediaserver"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable checks for the given config. Checks run
// only when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckBinary("ffmpeg", cfg.Analysis.FFmpegBinary))
	results = append(results, CheckBinary("ffprobe", cfg.Analysis.FFprobeBinary))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.HasPathMapping() {
		results = append(results, CheckDirectoryAccess("Media mount", cfg.Paths.MediaPathTo))
	}
	if cfg.MediaServer.Enabled {
		results = append(results, CheckMediaServer(ctx, mediaserver.NewClient(cfg, nil)))
	}
	if cfg.Backend.Enabled {
		results = append(results, CheckBackend(ctx, backend.NewClient(cfg, nil)))
	}

	return results
}

// AllPassed reports whether every check in the set passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
