package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"titantron/internal/config"
	"titantron/internal/detect"
	"titantron/internal/logging"
	"titantron/internal/media"
	"titantron/internal/media/ffprobe"
	"titantron/internal/services"
	"titantron/internal/services/backend"
	"titantron/internal/services/mediaserver"
	"titantron/internal/store"
)

// bellClusterBoost is the per-member confidence boost applied to bell
// clusters that reach the configured minimum size.
const bellClusterBoost = 0.05

// Deps carries the service collaborators. Nil fields get working defaults;
// Backend and MediaServer stay nil when the integration is disabled.
type Deps struct {
	Executor    media.Executor
	Backend     *backend.Client
	MediaServer *mediaserver.Client
	Tracker     *Tracker
}

// Service orchestrates analysis runs: one run per video at a time, each run
// covering the requested phases and persisting results as it goes.
type Service struct {
	cfg         *config.Config
	store       *store.Store
	logger      *slog.Logger
	exec        media.Executor
	backend     *backend.Client
	mediaServer *mediaserver.Client
	tracker     *Tracker

	mu       sync.Mutex
	inflight map[int64]string
	batch    batchState

	wg sync.WaitGroup
}

// NewService constructs the orchestrator.
func NewService(cfg *config.Config, st *store.Store, logger *slog.Logger, deps Deps) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Executor == nil {
		deps.Executor = media.CommandExecutor{}
	}
	if deps.Tracker == nil {
		deps.Tracker = NewTracker(0)
	}
	return &Service{
		cfg:         cfg,
		store:       st,
		logger:      logging.NewComponentLogger(logger, "analysis"),
		exec:        deps.Executor,
		backend:     deps.Backend,
		mediaServer: deps.MediaServer,
		tracker:     deps.Tracker,
		inflight:    make(map[int64]string),
	}
}

// Tracker exposes the live progress tracker.
func (s *Service) Tracker() *Tracker {
	return s.tracker
}

// Wait blocks until all background runs started by this service finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Start launches an analysis run in the background and returns its run ID.
// A video with a run already in flight is rejected with ErrConflict.
func (s *Service) Start(ctx context.Context, videoID int64, phase store.Phase) (string, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return "", err
	}
	runID := uuid.NewString()
	if err := s.reserve(videoID, runID); err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(videoID)
		s.execute(context.Background(), video, runID, phase)
	}()
	return runID, nil
}

// Run performs an analysis run synchronously. It applies the same in-flight
// conflict guard as Start.
func (s *Service) Run(ctx context.Context, videoID int64, phase store.Phase) (*store.AnalysisRun, error) {
	video, err := s.store.GetVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	if err := s.reserve(videoID, runID); err != nil {
		return nil, err
	}
	defer s.release(videoID)

	s.execute(ctx, video, runID, phase)
	return s.store.GetRun(ctx, videoID)
}

func (s *Service) reserve(videoID int64, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, busy := s.inflight[videoID]; busy {
		return services.Wrap(services.ErrConflict, "analysis", "start",
			fmt.Sprintf("video %d already analyzing (run %s)", videoID, existing), nil)
	}
	s.inflight[videoID] = runID
	return nil
}

func (s *Service) release(videoID int64) {
	s.mu.Lock()
	delete(s.inflight, videoID)
	s.mu.Unlock()
}

// execute drives one run to a terminal state. Errors end up in the run row
// and the tracker; callers inspect those rather than a return value.
func (s *Service) execute(ctx context.Context, video *store.Video, runID string, phase store.Phase) {
	logger := s.logger.With(
		logging.Int64(logging.FieldVideoID, video.ID),
		logging.String(logging.FieldRunID, runID),
		logging.String(logging.FieldPhase, string(phase)),
	)

	timeout := time.Duration(s.cfg.Analysis.TimeoutSeconds) * time.Second
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info("analysis run starting", logging.String("title", video.Title))
	err := s.run(runCtx, logger, video, runID, phase)
	if err == nil {
		logger.Info("analysis run completed")
		return
	}

	message := err.Error()
	if services.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		message = fmt.Sprintf("analysis timed out after %ds", s.cfg.Analysis.TimeoutSeconds)
	}
	logger.Error("analysis run failed", logging.Error(err))

	// The failure must land in the run row even when the run context is
	// already dead.
	storeCtx, storeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer storeCancel()
	if markErr := s.store.MarkFailed(storeCtx, video.ID, message); markErr != nil {
		logger.Error("failed to record run failure", logging.Error(markErr))
	}
	s.tracker.Update(Snapshot{
		VideoID: video.ID,
		RunID:   runID,
		Phase:   phase,
		Status:  store.StatusFailed,
		Message: message,
	})
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, video *store.Video, runID string, phase store.Phase) error {
	localPath := s.cfg.MapMediaPath(video.ServerPath)
	fileOK := fileReadable(localPath)

	var probe *ffprobe.Result
	durationTicks := video.DurationTicks
	if fileOK {
		result, err := ffprobe.Inspect(ctx, s.cfg.Analysis.FFprobeBinary, localPath)
		if err != nil {
			// Record the run before failing it so the failure is visible in
			// the store, not just the log.
			if _, beginErr := s.store.BeginRun(ctx, video.ID, runID, phase, 0); beginErr != nil {
				return beginErr
			}
			return err
		}
		probe = &result
		if ticks := result.DurationTicks(); ticks > 0 {
			durationTicks = ticks
		}
	}

	durationSecs := int(durationTicks / detect.TicksPerSecond)
	if _, err := s.store.BeginRun(ctx, video.ID, runID, phase, durationSecs); err != nil {
		return err
	}
	if durationTicks > 0 && durationTicks != video.DurationTicks {
		if err := s.store.UpdateVideoDuration(ctx, video.ID, durationTicks); err != nil {
			return err
		}
	}

	progress := &progressSink{svc: s, videoID: video.ID, runID: runID, phase: phase, durationSecs: durationSecs}

	visualCount := -1
	visualSkipped := false
	visualNote := ""
	if phase.IncludesVisual() {
		detections, skipped, err := s.runVisual(ctx, logger, video, localPath, fileOK, progress)
		switch {
		case err == nil:
			visualSkipped = skipped
			if !skipped {
				if err := s.store.UpsertVisual(ctx, video.ID, detections); err != nil {
					return err
				}
				visualCount = len(detections)
			}
		case services.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil:
			return err
		default:
			// A broken visual source must not cost the caller the audio phase
			// it asked for; the failure is recorded in the summary instead.
			logger.Warn("visual phase failed, continuing", logging.Error(err))
			visualNote = fmt.Sprintf("visual failed: %v", err)
		}
	}

	audioCount := -1
	skipReason := ""
	if phase.IncludesAudio() {
		detections, spectrum, reason, err := s.runAudio(ctx, logger, localPath, fileOK, probe, progress)
		if err != nil {
			return err
		}
		skipReason = reason
		if err := s.store.UpsertAudio(ctx, video.ID, detections, spectrum, reason); err != nil {
			return err
		}
		if reason == "" {
			audioCount = len(detections)
		}
	}

	message := summaryMessage(visualCount, visualSkipped, visualNote, audioCount, skipReason)
	if err := s.store.MarkCompleted(ctx, video.ID, message); err != nil {
		return err
	}
	s.tracker.Update(Snapshot{
		VideoID:    video.ID,
		RunID:      runID,
		Phase:      phase,
		Status:     store.StatusCompleted,
		Progress:   durationSecs,
		TotalSteps: durationSecs,
		Message:    message,
	})
	return nil
}

func (s *Service) backendActive() bool {
	return s.backend != nil && s.cfg.Backend.Enabled
}

func summaryMessage(visualCount int, visualSkipped bool, visualNote string, audioCount int, skipReason string) string {
	parts := make([]string, 0, 2)
	switch {
	case visualCount >= 0:
		parts = append(parts, fmt.Sprintf("%d visual boundaries", visualCount))
	case visualNote != "":
		parts = append(parts, visualNote)
	case visualSkipped:
		parts = append(parts, "visual skipped (no source)")
	}
	switch {
	case audioCount >= 0:
		parts = append(parts, fmt.Sprintf("%d audio events", audioCount))
	case skipReason != "":
		parts = append(parts, fmt.Sprintf("audio skipped (%s)", skipReason))
	}
	if len(parts) == 0 {
		return "analysis complete"
	}
	return "analysis complete: " + strings.Join(parts, ", ")
}

func fileReadable(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// progressSink reports per-phase progress as seconds of media processed. The
// tracker sees every step; run-row writes happen only when the whole-second
// value changes, which keeps write volume bounded.
type progressSink struct {
	svc          *Service
	videoID      int64
	runID        string
	phase        store.Phase
	durationSecs int

	status      store.RunStatus
	totalSecs   int
	secsPerStep float64
	steps       int
	message     string
	lastStored  int
}

// beginPhase resets the counters for the next phase. secsPerStep is how many
// seconds of media one unit of work covers; the phase total is the media
// duration, or zero while the total is unknown.
func (p *progressSink) beginPhase(ctx context.Context, status store.RunStatus, secsPerStep float64, message string) {
	p.status = status
	p.totalSecs = p.durationSecs
	p.secsPerStep = secsPerStep
	p.steps = 0
	p.message = message
	p.lastStored = -1
	p.flush(ctx)
}

// step advances the counter by one unit of work.
func (p *progressSink) step(ctx context.Context) {
	p.steps++
	p.flush(ctx)
}

func (p *progressSink) seconds() int {
	secs := int(float64(p.steps) * p.secsPerStep)
	if p.totalSecs > 0 && secs > p.totalSecs {
		secs = p.totalSecs
	}
	return secs
}

func (p *progressSink) flush(ctx context.Context) {
	secs := p.seconds()
	p.svc.tracker.Update(Snapshot{
		VideoID:    p.videoID,
		RunID:      p.runID,
		Phase:      p.phase,
		Status:     p.status,
		Progress:   secs,
		TotalSteps: p.totalSecs,
		Message:    p.message,
	})
	if secs == p.lastStored {
		return
	}
	p.lastStored = secs
	if err := p.svc.store.UpdateRunProgress(ctx, p.videoID, p.status, secs, p.totalSecs, p.message); err != nil {
		p.svc.logger.Warn("progress update failed", logging.Error(err))
	}
}
