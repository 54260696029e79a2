package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"titantron/internal/detect"
	"titantron/internal/detect/bell"
	"titantron/internal/detect/music"
	"titantron/internal/logging"
	"titantron/internal/media/audio"
	"titantron/internal/media/ffprobe"
	"titantron/internal/media/pcm"
	"titantron/internal/services"
	"titantron/internal/store"
)

// Audio skip reasons persisted with the run. The "error:" prefix marks skips
// caused by an extraction or detector failure rather than configuration.
const (
	SkipAudioDisabled      = "audio_disabled"
	SkipNoPathMapping      = "no_path_mapping"
	SkipBackendUnavailable = "backend_unavailable"
	skipErrorPrefix        = "error:"
)

func skipError(err error) string {
	return skipErrorPrefix + err.Error()
}

// runAudio produces clustered audio events, an optional diagnostic spectrum,
// and a skip reason. Audio problems downgrade to a skip so the visual results
// still land; only a run timeout escalates to a hard failure.
func (s *Service) runAudio(ctx context.Context, logger *slog.Logger, localPath string, fileOK bool, probe *ffprobe.Result, progress *progressSink) ([]detect.Detection, []detect.SpectrumPoint, string, error) {
	secsPerStep := float64(s.cfg.Audio.ChunkSeconds)
	if s.backendActive() {
		secsPerStep = float64(s.cfg.Backend.WindowSeconds)
	}
	progress.beginPhase(ctx, store.StatusRunningAudio, secsPerStep, "analyzing audio")

	if !s.cfg.Audio.Enabled {
		return nil, nil, SkipAudioDisabled, nil
	}
	if !fileOK {
		return nil, nil, SkipNoPathMapping, nil
	}

	selection := audio.Select(probe.AudioStreams())
	if !selection.Found() {
		return nil, nil, skipError(errors.New("no usable audio stream")), nil
	}

	var (
		detections []detect.Detection
		spectrum   []detect.SpectrumPoint
		err        error
	)
	if s.backendActive() {
		if reason := s.probeBackend(ctx, logger); reason != "" {
			return nil, nil, reason, nil
		}
		detections, spectrum, err = s.classifyRemote(ctx, localPath, selection.Position, progress)
	} else {
		detections, err = s.detectLocal(ctx, localPath, selection.Position, progress)
	}
	if err != nil {
		if services.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, nil, "", err
		}
		logger.Warn("audio phase skipped after error", logging.Error(err))
		return nil, nil, skipError(err), nil
	}

	merged := detect.Cluster(detections, s.audioPolicy())
	logger.Info("audio phase finished",
		logging.Int("raw_detections", len(detections)),
		logging.Int("merged_detections", len(merged)))
	return merged, spectrum, "", nil
}

// probeBackend returns a skip reason when the backend cannot serve the run.
func (s *Service) probeBackend(ctx context.Context, logger *slog.Logger) string {
	status, err := s.backend.Health(ctx)
	if err != nil {
		logger.Warn("audio backend unreachable", logging.Error(err))
		return SkipBackendUnavailable
	}
	if !status.Available || !status.ModelLoaded {
		logger.Warn("audio backend not ready",
			logging.Bool("available", status.Available),
			logging.Bool("model_loaded", status.ModelLoaded))
		return SkipBackendUnavailable
	}
	return ""
}

// detectLocal streams PCM once through both local detectors.
func (s *Service) detectLocal(ctx context.Context, path string, streamPosition int, progress *progressSink) ([]detect.Detection, error) {
	cfg := s.cfg.Audio
	bellDetector := bell.New(bell.Config{
		SampleRate: cfg.SampleRate,
		LowHz:      cfg.BellLowHz,
		HighHz:     cfg.BellHighHz,
		OnsetRatio: cfg.BellOnsetRatio,
		MinGapTicks: detect.TicksFromDuration(
			time.Duration(cfg.BellMinGapMs) * time.Millisecond),
	})
	musicDetector := music.New(music.Config{
		SampleRate:     cfg.SampleRate,
		HistoryWindows: cfg.MusicHistorySeconds,
		SustainWindows: cfg.MusicSustainWindows,
		ScoreThreshold: cfg.MusicScoreThreshold,
		CooldownTicks:  int64(cfg.MusicCooldownSeconds) * detect.TicksPerSecond,
	})

	extractor := pcm.New(pcm.Options{
		Binary:         s.cfg.Analysis.FFmpegBinary,
		SampleRate:     cfg.SampleRate,
		ChunkSeconds:   cfg.ChunkSeconds,
		StreamPosition: streamPosition,
		Timeout:        time.Duration(cfg.ExtractTimeoutSeconds) * time.Second,
	}, s.exec)

	err := extractor.Extract(ctx, path, func(chunk pcm.Chunk) error {
		bellDetector.Process(chunk)
		musicDetector.Process(chunk)
		progress.step(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return append(bellDetector.Detections(), musicDetector.Detections()...), nil
}

// classifyRemote streams PCM windows to the backend and rebases the returned
// detections and spectrum points onto the stream timeline. Each window's
// spectrum is window-relative on the wire; the concatenation of the rebased
// windows forms the full diagnostic series for the recording.
func (s *Service) classifyRemote(ctx context.Context, path string, streamPosition int, progress *progressSink) ([]detect.Detection, []detect.SpectrumPoint, error) {
	extractor := pcm.New(pcm.Options{
		Binary:         s.cfg.Analysis.FFmpegBinary,
		SampleRate:     s.cfg.Audio.SampleRate,
		ChunkSeconds:   s.cfg.Backend.WindowSeconds,
		StreamPosition: streamPosition,
		Timeout:        time.Duration(s.cfg.Audio.ExtractTimeoutSeconds) * time.Second,
	}, s.exec)

	var (
		detections []detect.Detection
		spectrum   []detect.SpectrumPoint
	)
	err := extractor.Extract(ctx, path, func(chunk pcm.Chunk) error {
		result, err := s.backend.Classify(ctx, encodeS16LE(chunk.Samples))
		if err != nil {
			return fmt.Errorf("classify window at %ds: %w",
				chunk.StartTicks/detect.TicksPerSecond, err)
		}
		for _, d := range result.Detections {
			d.TimestampTicks += chunk.StartTicks
			detections = append(detections, d)
		}
		offset := float64(chunk.StartTicks) / float64(detect.TicksPerSecond)
		for _, p := range result.Spectrum {
			p.T += offset
			spectrum = append(spectrum, p)
		}
		progress.step(ctx)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return detections, spectrum, nil
}

func (s *Service) audioPolicy() detect.PolicyFunc {
	window := int64(s.cfg.Analysis.AudioMergeSeconds) * detect.TicksPerSecond
	minBellCluster := s.cfg.Analysis.BellMinClusterSize
	return func(kind detect.Kind) detect.MergePolicy {
		policy := detect.MergePolicy{WindowTicks: window}
		if kind == detect.KindBell {
			policy.MinClusterSize = minBellCluster
			policy.BoostPerMember = bellClusterBoost
		}
		return policy
	}
}

// encodeS16LE converts float samples back to the little-endian 16-bit wire
// format the backend consumes.
func encodeS16LE(samples []float64) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		out[2*i] = byte(v)
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}
