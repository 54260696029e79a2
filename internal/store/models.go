package store

import (
	"strings"
	"time"

	"titantron/internal/detect"
)

// RunStatus represents the lifecycle of an analysis run.
type RunStatus string

const (
	StatusPending       RunStatus = "pending"
	StatusRunningVisual RunStatus = "running_visual"
	StatusRunningAudio  RunStatus = "running_audio"
	StatusCompleted     RunStatus = "completed"
	StatusFailed        RunStatus = "failed"
)

// Phase selects which detector families an analysis run executes.
type Phase string

const (
	PhaseBoth   Phase = "both"
	PhaseVisual Phase = "visual"
	PhaseAudio  Phase = "audio"
)

// ParsePhase normalizes a user-supplied phase string.
func ParsePhase(value string) (Phase, bool) {
	switch Phase(strings.ToLower(strings.TrimSpace(value))) {
	case PhaseBoth, "":
		return PhaseBoth, true
	case PhaseVisual:
		return PhaseVisual, true
	case PhaseAudio:
		return PhaseAudio, true
	default:
		return "", false
	}
}

// IncludesVisual reports whether the phase runs the visual detector.
func (p Phase) IncludesVisual() bool { return p == PhaseBoth || p == PhaseVisual }

// IncludesAudio reports whether the phase runs the audio detectors.
func (p Phase) IncludesAudio() bool { return p == PhaseBoth || p == PhaseAudio }

// Video represents a registered recording, either synced from the media
// server or added directly from a local file.
type Video struct {
	ID            int64
	LibraryID     int64
	Title         string
	RemoteItemID  string
	ServerPath    string
	DurationTicks int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AnalysisRun is the persisted state of the most recent analysis of a video.
// Progress and TotalSteps count seconds of media processed in the current
// phase; TotalSteps stays zero while the remaining work is unknown.
type AnalysisRun struct {
	ID              int64
	VideoID         int64
	RunID           string
	Phase           Phase
	Status          RunStatus
	Progress        int
	TotalSteps      int
	Message         string
	Error           string
	Visual          []detect.Detection
	Audio           []detect.Detection
	AudioSpectrum   []detect.SpectrumPoint
	AudioSkipReason string
	CreatedAt       time.Time
	CompletedAt     *time.Time
}

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Running reports whether a phase is actively executing.
func (s RunStatus) Running() bool {
	return s == StatusRunningVisual || s == StatusRunningAudio
}

// Terminal reports whether the run has reached a final status.
func (r *AnalysisRun) Terminal() bool {
	return r.Status.Terminal()
}
