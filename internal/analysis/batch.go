package analysis

import (
	"context"
	"fmt"

	"titantron/internal/logging"
	"titantron/internal/services"
	"titantron/internal/store"
)

// BatchStatus is the aggregate view of a library batch.
type BatchStatus struct {
	Running        bool
	LibraryID      int64
	Phase          store.Phase
	Total          int
	Processed      int
	Failed         int
	CurrentVideoID int64
	CurrentTitle   string
	Message        string
}

type batchState struct {
	status BatchStatus
}

// StartBatch analyzes every unanalyzed video in a library, sequentially, in
// the background. It returns the number of videos queued. Only one batch may
// run at a time; per-video failures are recorded on their runs and do not
// stop the batch.
func (s *Service) StartBatch(ctx context.Context, libraryID int64, phase store.Phase) (int, error) {
	videos, err := s.store.ListUnanalyzedByLibrary(ctx, libraryID)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	if s.batch.status.Running {
		s.mu.Unlock()
		return 0, services.Wrap(services.ErrConflict, "analysis", "batch",
			fmt.Sprintf("batch already running for library %d", s.batch.status.LibraryID), nil)
	}
	s.batch.status = BatchStatus{
		Running:   true,
		LibraryID: libraryID,
		Phase:     phase,
		Total:     len(videos),
		Message:   "batch starting",
	}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runBatch(context.Background(), libraryID, phase, videos)
	}()
	return len(videos), nil
}

// BatchStatus returns the current batch snapshot.
func (s *Service) BatchStatus() BatchStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batch.status
}

func (s *Service) runBatch(ctx context.Context, libraryID int64, phase store.Phase, videos []*store.Video) {
	logger := s.logger.With(logging.Int64(logging.FieldLibraryID, libraryID))
	logger.Info("batch starting", logging.Int("videos", len(videos)))

	failed := 0
	for processed, video := range videos {
		s.updateBatch(func(status *BatchStatus) {
			status.Processed = processed
			status.Failed = failed
			status.CurrentVideoID = video.ID
			status.CurrentTitle = video.Title
			status.Message = fmt.Sprintf("analyzing %q (%d of %d)", video.Title, processed+1, len(videos))
		})

		run, err := s.Run(ctx, video.ID, phase)
		switch {
		case err != nil:
			failed++
			logger.Error("batch video failed to start",
				logging.Int64(logging.FieldVideoID, video.ID),
				logging.Error(err))
		case run.Status == store.StatusFailed:
			failed++
			logger.Warn("batch video failed",
				logging.Int64(logging.FieldVideoID, video.ID),
				logging.String("error", run.Error))
		}
	}

	message := fmt.Sprintf("batch complete: %d analyzed, %d failed", len(videos)-failed, failed)
	s.updateBatch(func(status *BatchStatus) {
		status.Running = false
		status.Processed = len(videos)
		status.Failed = failed
		status.CurrentVideoID = 0
		status.CurrentTitle = ""
		status.Message = message
	})
	logger.Info("batch finished",
		logging.Int("analyzed", len(videos)-failed),
		logging.Int("failed", failed))
}

func (s *Service) updateBatch(apply func(*BatchStatus)) {
	s.mu.Lock()
	apply(&s.batch.status)
	s.mu.Unlock()
}
