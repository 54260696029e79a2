package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"titantron/internal/detect"
	"titantron/internal/services"
)

// BeginRun records a new run for a video, replacing any previous run row.
// Fields belonging to phases outside the requested one are preserved so a
// visual-only re-run keeps earlier audio detections and vice versa. The run
// starts in the status of its first phase; totalSteps is the seconds of media
// that phase will process, or zero when unknown.
func (s *Store) BeginRun(ctx context.Context, videoID int64, runID string, phase Phase, totalSteps int) (*AnalysisRun, error) {
	if _, err := s.GetVideo(ctx, videoID); err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	visualReset := ""
	if phase.IncludesVisual() {
		visualReset = ", visual_json = NULL"
	}
	audioReset := ""
	if phase.IncludesAudio() {
		audioReset = ", audio_json = NULL, audio_spectrum_json = NULL, audio_skip_reason = ''"
	}

	query := fmt.Sprintf(
		`INSERT INTO analysis_runs (
            video_id, run_id, phase, status, progress, total_steps,
            message, error, created_at, completed_at
        ) VALUES (?, ?, ?, ?, 0, ?, '', '', ?, NULL)
        ON CONFLICT(video_id) DO UPDATE SET
            run_id = excluded.run_id,
            phase = excluded.phase,
            status = excluded.status,
            progress = 0,
            total_steps = excluded.total_steps,
            message = '',
            error = '',
            created_at = excluded.created_at,
            completed_at = NULL%s%s`,
		visualReset,
		audioReset,
	)

	initial := StatusRunningVisual
	if !phase.IncludesVisual() {
		initial = StatusRunningAudio
	}
	if _, err := s.db.ExecContext(ctx, query, videoID, runID, string(phase), string(initial), totalSteps, now); err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}
	return s.GetRun(ctx, videoID)
}

// UpdateRunProgress stores the current phase status, the seconds of media
// processed so far, the phase total, and the latest message for a run.
func (s *Store) UpdateRunProgress(ctx context.Context, videoID int64, status RunStatus, progress, totalSteps int, message string) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE analysis_runs SET status = ?, progress = ?, total_steps = ?, message = ? WHERE video_id = ?`,
		string(status),
		progress,
		totalSteps,
		message,
		videoID,
	)
	if err != nil {
		return fmt.Errorf("update run progress: %w", err)
	}
	return nil
}

// UpsertVisual persists visual-phase detections without touching audio fields.
func (s *Store) UpsertVisual(ctx context.Context, videoID int64, detections []detect.Detection) error {
	payload, err := marshalDetections(detections)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE analysis_runs SET visual_json = ? WHERE video_id = ?`,
		payload,
		videoID,
	)
	if err != nil {
		return fmt.Errorf("upsert visual detections: %w", err)
	}
	return nil
}

// UpsertAudio persists audio-phase detections, optional per-window spectrum,
// and the skip reason when the phase was skipped. Visual fields are untouched.
func (s *Store) UpsertAudio(ctx context.Context, videoID int64, detections []detect.Detection, spectrum []detect.SpectrumPoint, skipReason string) error {
	payload, err := marshalDetections(detections)
	if err != nil {
		return err
	}
	var spectrumJSON any
	if len(spectrum) > 0 {
		encoded, err := json.Marshal(spectrum)
		if err != nil {
			return fmt.Errorf("marshal audio spectrum: %w", err)
		}
		spectrumJSON = string(encoded)
	}
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE analysis_runs SET audio_json = ?, audio_spectrum_json = ?, audio_skip_reason = ? WHERE video_id = ?`,
		payload,
		spectrumJSON,
		skipReason,
		videoID,
	)
	if err != nil {
		return fmt.Errorf("upsert audio detections: %w", err)
	}
	return nil
}

// MarkCompleted transitions the run to completed with a summary message.
func (s *Store) MarkCompleted(ctx context.Context, videoID int64, message string) error {
	return s.finishRun(ctx, videoID, StatusCompleted, message, "")
}

// MarkFailed transitions the run to failed with the error detail.
func (s *Store) MarkFailed(ctx context.Context, videoID int64, errMsg string) error {
	return s.finishRun(ctx, videoID, StatusFailed, "", errMsg)
}

func (s *Store) finishRun(ctx context.Context, videoID int64, status RunStatus, message, errMsg string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE analysis_runs SET status = ?, message = ?, error = ?, completed_at = ? WHERE video_id = ?`,
		string(status),
		message,
		errMsg,
		now,
		videoID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "store", "finish run", fmt.Sprintf("no run for video %d", videoID), nil)
	}
	return nil
}

// GetRun fetches the latest analysis run for a video. Missing rows map to
// services.ErrNotFound.
func (s *Store) GetRun(ctx context.Context, videoID int64) (*AnalysisRun, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, video_id, run_id, phase, status, progress, total_steps,
            message, error, visual_json, audio_json, audio_spectrum_json,
            audio_skip_reason, created_at, completed_at
        FROM analysis_runs WHERE video_id = ?`,
		videoID,
	)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "store", "get run", fmt.Sprintf("no run for video %d", videoID), nil)
		}
		return nil, fmt.Errorf("get run for video %d: %w", videoID, err)
	}
	return run, nil
}

func scanRun(row rowScanner) (*AnalysisRun, error) {
	var (
		run          AnalysisRun
		phase        string
		status       string
		visualJSON   sql.NullString
		audioJSON    sql.NullString
		spectrumJSON sql.NullString
		createdAt    string
		completedAt  sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&run.VideoID,
		&run.RunID,
		&phase,
		&status,
		&run.Progress,
		&run.TotalSteps,
		&run.Message,
		&run.Error,
		&visualJSON,
		&audioJSON,
		&spectrumJSON,
		&run.AudioSkipReason,
		&createdAt,
		&completedAt,
	); err != nil {
		return nil, err
	}
	run.Phase = Phase(phase)
	run.Status = RunStatus(status)
	run.CreatedAt = parseTimestamp(createdAt)
	if completedAt.Valid {
		ts := parseTimestamp(completedAt.String)
		run.CompletedAt = &ts
	}

	var err error
	if run.Visual, err = unmarshalDetections(visualJSON); err != nil {
		return nil, fmt.Errorf("decode visual detections: %w", err)
	}
	if run.Audio, err = unmarshalDetections(audioJSON); err != nil {
		return nil, fmt.Errorf("decode audio detections: %w", err)
	}
	if spectrumJSON.Valid && spectrumJSON.String != "" {
		if err := json.Unmarshal([]byte(spectrumJSON.String), &run.AudioSpectrum); err != nil {
			return nil, fmt.Errorf("decode audio spectrum: %w", err)
		}
	}
	return &run, nil
}

func marshalDetections(detections []detect.Detection) (any, error) {
	if detections == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(detections)
	if err != nil {
		return nil, fmt.Errorf("marshal detections: %w", err)
	}
	return string(encoded), nil
}

func unmarshalDetections(value sql.NullString) ([]detect.Detection, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	var detections []detect.Detection
	if err := json.Unmarshal([]byte(value.String), &detections); err != nil {
		return nil, err
	}
	return detections, nil
}
