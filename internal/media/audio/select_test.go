package audio

import (
	"testing"

	"titantron/internal/media/ffprobe"
)

func TestSelectNoAudio(t *testing.T) {
	sel := Select([]ffprobe.Stream{{CodecType: "video"}})
	if sel.Found() {
		t.Fatalf("expected no selection, got %+v", sel)
	}
}

func TestSelectPrefersDefaultTrack(t *testing.T) {
	sel := Select([]ffprobe.Stream{
		{CodecType: "video", Index: 0},
		{CodecType: "audio", Index: 1, Channels: 6},
		{CodecType: "audio", Index: 2, Channels: 2, Disposition: map[string]int{"default": 1}},
	})
	if sel.Position != 1 {
		t.Fatalf("expected default track at audio position 1, got %d", sel.Position)
	}
}

func TestSelectFallsBackToChannelCount(t *testing.T) {
	sel := Select([]ffprobe.Stream{
		{CodecType: "audio", Index: 1, Channels: 2},
		{CodecType: "audio", Index: 2, Channels: 6},
	})
	if sel.Position != 1 || sel.Stream.Index != 2 {
		t.Fatalf("expected 6ch track, got %+v", sel)
	}
}

func TestSelectAvoidsCommentary(t *testing.T) {
	sel := Select([]ffprobe.Stream{
		{CodecType: "audio", Index: 1, Channels: 2, Tags: map[string]string{"title": "Director Commentary"}},
		{CodecType: "audio", Index: 2, Channels: 2},
	})
	if sel.Position != 1 {
		t.Fatalf("expected commentary avoided, got %+v", sel)
	}
}

func TestSelectTiesGoToEarlierTrack(t *testing.T) {
	sel := Select([]ffprobe.Stream{
		{CodecType: "audio", Index: 1, Channels: 2},
		{CodecType: "audio", Index: 2, Channels: 2},
	})
	if sel.Position != 0 {
		t.Fatalf("expected first track on tie, got %+v", sel)
	}
}
