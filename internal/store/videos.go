package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"titantron/internal/services"
)

// AddVideo inserts a video record and returns it with its assigned id.
func (s *Store) AddVideo(ctx context.Context, video Video) (*Video, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO videos (
            library_id, title, remote_item_id, server_path, duration_ticks,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		video.LibraryID,
		video.Title,
		video.RemoteItemID,
		video.ServerPath,
		video.DurationTicks,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetVideo(ctx, id)
}

// GetVideo fetches a video by id. Missing rows map to services.ErrNotFound.
func (s *Store) GetVideo(ctx context.Context, id int64) (*Video, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, library_id, title, remote_item_id, server_path,
            duration_ticks, created_at, updated_at
        FROM videos WHERE id = ?`,
		id,
	)
	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.Wrap(services.ErrNotFound, "store", "get video", fmt.Sprintf("video %d", id), nil)
		}
		return nil, fmt.Errorf("get video %d: %w", id, err)
	}
	return video, nil
}

// UpdateVideoDuration records the probed duration for a video.
func (s *Store) UpdateVideoDuration(ctx context.Context, id int64, durationTicks int64) error {
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE videos SET duration_ticks = ?, updated_at = ? WHERE id = ?`,
		durationTicks,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update video duration: %w", err)
	}
	return nil
}

// ListVideosByLibrary returns all videos registered for a library, ordered by id.
func (s *Store) ListVideosByLibrary(ctx context.Context, libraryID int64) ([]*Video, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, library_id, title, remote_item_id, server_path,
            duration_ticks, created_at, updated_at
        FROM videos WHERE library_id = ? ORDER BY id`,
		libraryID,
	)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()
	return collectVideos(rows)
}

// ListUnanalyzedByLibrary returns library videos whose latest run is missing
// or not completed. Batch analysis resumes from this set.
func (s *Store) ListUnanalyzedByLibrary(ctx context.Context, libraryID int64) ([]*Video, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT v.id, v.library_id, v.title, v.remote_item_id, v.server_path,
            v.duration_ticks, v.created_at, v.updated_at
        FROM videos v
        LEFT JOIN analysis_runs r ON r.video_id = v.id
        WHERE v.library_id = ? AND (r.status IS NULL OR r.status != ?)
        ORDER BY v.id`,
		libraryID,
		StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("list unanalyzed videos: %w", err)
	}
	defer rows.Close()
	return collectVideos(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*Video, error) {
	var (
		video     Video
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&video.ID,
		&video.LibraryID,
		&video.Title,
		&video.RemoteItemID,
		&video.ServerPath,
		&video.DurationTicks,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	video.CreatedAt = parseTimestamp(createdAt)
	video.UpdatedAt = parseTimestamp(updatedAt)
	return &video, nil
}

func collectVideos(rows *sql.Rows) ([]*Video, error) {
	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	return videos, nil
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
