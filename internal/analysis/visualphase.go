package analysis

import (
	"context"
	"errors"
	"log/slog"

	"titantron/internal/detect"
	"titantron/internal/detect/visual"
	"titantron/internal/logging"
	"titantron/internal/media/frames"
	"titantron/internal/services"
	"titantron/internal/store"
)

// runVisual produces clustered visual boundaries. When the source file is not
// readable locally it falls back to the media server's trickplay thumbnails;
// if neither source exists the phase is skipped, not failed. Decode and
// transport errors are returned to the caller, which records them in the run
// summary and still executes the audio phase.
func (s *Service) runVisual(ctx context.Context, logger *slog.Logger, video *store.Video, localPath string, fileOK bool, progress *progressSink) (detections []detect.Detection, skipped bool, err error) {
	if !fileOK {
		logger.Info("source file not readable locally, trying thumbnail fallback",
			logging.String("server_path", video.ServerPath))
		detections, err = s.visualFromTrickplay(ctx, video, progress)
		switch {
		case err == nil:
			return detections, false, nil
		case errors.Is(err, services.ErrConfiguration) || errors.Is(err, services.ErrNotFound):
			logger.Info("visual phase skipped, no decodable source", logging.Error(err))
			return nil, true, nil
		default:
			return nil, false, err
		}
	}

	progress.beginPhase(ctx, store.StatusRunningVisual, 1/s.cfg.Visual.FrameRate, "extracting frames")
	comparer := visual.New(s.visualConfig(s.cfg.Visual.SceneThreshold))
	extractor := frames.New(frames.Options{
		Binary: s.cfg.Analysis.FFmpegBinary,
		Rate:   s.cfg.Visual.FrameRate,
		Width:  s.cfg.Visual.FrameWidth,
		Height: s.cfg.Visual.FrameHeight,
	}, s.exec)

	err = extractor.Extract(ctx, localPath, func(frame frames.Frame) error {
		comparer.Push(frame)
		progress.step(ctx)
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	merged := detect.Cluster(comparer.Detections(), s.visualPolicy(s.cfg.Analysis.VisualMergeSeconds))
	logger.Info("visual phase finished",
		logging.Int("raw_detections", len(comparer.Detections())),
		logging.Int("merged_detections", len(merged)))
	return merged, false, nil
}

func (s *Service) visualConfig(threshold float64) visual.Config {
	return visual.Config{
		Width:            s.cfg.Visual.FrameWidth,
		Height:           s.cfg.Visual.FrameHeight,
		Threshold:        threshold,
		DarkBrightness:   s.cfg.Visual.DarkBrightness,
		WeightMAD:        s.cfg.Visual.WeightMAD,
		WeightSSIM:       s.cfg.Visual.WeightSSIM,
		WeightEdge:       s.cfg.Visual.WeightEdge,
		WeightBrightness: s.cfg.Visual.WeightBrightness,
	}
}

func (s *Service) visualPolicy(mergeSeconds int) detect.PolicyFunc {
	window := int64(mergeSeconds) * detect.TicksPerSecond
	return func(detect.Kind) detect.MergePolicy {
		return detect.MergePolicy{WindowTicks: window}
	}
}
