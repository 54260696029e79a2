package pcm

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"

	"titantron/internal/detect"
	"titantron/internal/media"
)

// fakeExecutor feeds canned bytes to the consumer instead of running ffmpeg.
type fakeExecutor struct {
	payload []byte
	args    []string
}

func (f *fakeExecutor) Stream(_ context.Context, _ string, args []string, consume func(io.Reader) error) error {
	f.args = args
	return consume(bytes.NewReader(f.payload))
}

var _ media.Executor = (*fakeExecutor)(nil)

func encodeS16LE(samples []int16) []byte {
	buf := new(bytes.Buffer)
	for _, s := range samples {
		_ = binary.Write(buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}

func TestExtractChunksAndTimestamps(t *testing.T) {
	const rate = 100
	// Two full 1s chunks plus a 0.5s partial that must be dropped.
	samples := make([]int16, rate*2+rate/2)
	for i := range samples {
		samples[i] = int16(i % 32)
	}
	exec := &fakeExecutor{payload: encodeS16LE(samples)}
	ex := New(Options{SampleRate: rate, ChunkSeconds: 1, StreamPosition: 0}, exec)

	var chunks []Chunk
	err := ex.Extract(context.Background(), "in.mkv", func(c Chunk) error {
		copied := make([]float64, len(c.Samples))
		copy(copied, c.Samples)
		chunks = append(chunks, Chunk{Samples: copied, StartTicks: c.StartTicks})
		return nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 full chunks, got %d", len(chunks))
	}
	if chunks[0].StartTicks != 0 || chunks[1].StartTicks != detect.TicksPerSecond {
		t.Fatalf("unexpected chunk timestamps: %d, %d", chunks[0].StartTicks, chunks[1].StartTicks)
	}
	if len(chunks[0].Samples) != rate {
		t.Fatalf("unexpected chunk size %d", len(chunks[0].Samples))
	}
}

func TestExtractDeliversLongPartialFinalChunk(t *testing.T) {
	const rate = 100
	// 1.5s of audio with 1s chunks: final 0.5s partial is dropped, but a
	// 5s-chunk config with 3s of audio keeps the 3s partial.
	samples := make([]int16, rate*3)
	exec := &fakeExecutor{payload: encodeS16LE(samples)}
	ex := New(Options{SampleRate: rate, ChunkSeconds: 5, StreamPosition: 0}, exec)

	var got []int
	err := ex.Extract(context.Background(), "in.mkv", func(c Chunk) error {
		got = append(got, len(c.Samples))
		return nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 1 || got[0] != rate*3 {
		t.Fatalf("expected one 3s partial chunk, got %v", got)
	}
}

func TestExtractStopsOnErrStop(t *testing.T) {
	const rate = 100
	samples := make([]int16, rate*10)
	exec := &fakeExecutor{payload: encodeS16LE(samples)}
	ex := New(Options{SampleRate: rate, ChunkSeconds: 1, StreamPosition: 0}, exec)

	calls := 0
	err := ex.Extract(context.Background(), "in.mkv", func(Chunk) error {
		calls++
		if calls == 2 {
			return ErrStop
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected extraction to stop after 2 chunks, got %d", calls)
	}
}

func TestExtractBuildsTrackMapping(t *testing.T) {
	exec := &fakeExecutor{}
	ex := New(Options{SampleRate: 100, ChunkSeconds: 1, StreamPosition: 2}, exec)
	_ = ex.Extract(context.Background(), "in.mkv", func(Chunk) error { return nil })

	joined := ""
	for i, arg := range exec.args {
		if arg == "-map" && i+1 < len(exec.args) {
			joined = exec.args[i+1]
		}
	}
	if joined != "0:a:2" {
		t.Fatalf("expected -map 0:a:2, got %q", joined)
	}
}

func TestSampleScaling(t *testing.T) {
	exec := &fakeExecutor{payload: encodeS16LE([]int16{-32768, 0, 32767, 0})}
	ex := New(Options{SampleRate: 4, ChunkSeconds: 1, StreamPosition: 0}, exec)

	var got []float64
	err := ex.Extract(context.Background(), "in.mkv", func(c Chunk) error {
		got = append(got, c.Samples...)
		return nil
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 4 || got[0] != -1 || got[2] < 0.999 {
		t.Fatalf("unexpected scaled samples: %v", got)
	}
}
