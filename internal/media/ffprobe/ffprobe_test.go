package ffprobe

import (
	"testing"

	"titantron/internal/detect"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video"},
			{CodecType: "audio", Index: 1},
			{CodecType: "audio", Index: 2},
		},
		Format: Format{
			Duration: "123.45",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if got := result.AudioStreams(); len(got) != 2 || got[0].Index != 1 {
		t.Fatalf("unexpected audio streams: %+v", got)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if want := detect.TicksFromSeconds(123.45); result.DurationTicks() != want {
		t.Fatalf("unexpected duration ticks: %d, want %d", result.DurationTicks(), want)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
		},
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.DurationTicks() != 0 {
		t.Fatalf("expected 0 ticks, got %d", result.DurationTicks())
	}
}
