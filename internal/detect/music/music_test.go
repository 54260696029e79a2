package music

import (
	"math"
	"testing"

	"titantron/internal/detect"
	"titantron/internal/media/pcm"
)

const sampleRate = 22050

func testConfig() Config {
	return Config{
		SampleRate:     sampleRate,
		HistoryWindows: 15,
		SustainWindows: 3,
		ScoreThreshold: 0.9,
		CooldownTicks:  detect.TicksFromSeconds(30),
	}
}

func addNoise(samples []float64, startSec, endSec, amplitude float64) {
	state := uint64(7)
	start := int(startSec * sampleRate)
	end := int(endSec * sampleRate)
	if end > len(samples) {
		end = len(samples)
	}
	for i := start; i < end; i++ {
		state = state*6364136223846793005 + 1442695040888963407
		samples[i] += amplitude * (float64(int64(state>>33))/float64(1<<30) - 1)
	}
}

func addChord(samples []float64, startSec, endSec, amplitude float64) {
	start := int(startSec * sampleRate)
	end := int(endSec * sampleRate)
	if end > len(samples) {
		end = len(samples)
	}
	freqs := []float64{220, 277, 330}
	for i := start; i < end; i++ {
		for _, f := range freqs {
			samples[i] += amplitude * math.Sin(2*math.Pi*f*float64(i)/sampleRate)
		}
	}
}

func run(d *Detector, samples []float64, chunkSecs int) []detect.Detection {
	chunkLen := sampleRate * chunkSecs
	for start := 0; start < len(samples); start += chunkLen {
		end := start + chunkLen
		if end > len(samples) {
			end = len(samples)
		}
		d.Process(pcm.Chunk{
			Samples:    samples[start:end],
			StartTicks: int64(start) * detect.TicksPerSecond / sampleRate,
		})
	}
	return d.Detections()
}

func TestQuietCrowdProducesNoDetections(t *testing.T) {
	samples := make([]float64, sampleRate*20)
	addNoise(samples, 0, 20, 0.05)
	if got := run(New(testConfig()), samples, 1); len(got) != 0 {
		t.Fatalf("expected no detections on steady crowd noise, got %+v", got)
	}
}

func TestDetectsSustainedTonalOnset(t *testing.T) {
	samples := make([]float64, sampleRate*20)
	addNoise(samples, 0, 20, 0.05)
	addChord(samples, 8, 20, 0.1)

	got := run(New(testConfig()), samples, 1)
	if len(got) != 1 {
		t.Fatalf("expected exactly one music start, got %+v", got)
	}
	if delta := math.Abs(got[0].Seconds() - 8); delta > 1.5 {
		t.Fatalf("music start at %.2fs, want near 8s", got[0].Seconds())
	}
	if got[0].Kind != detect.KindMusicStart {
		t.Fatalf("unexpected kind %q", got[0].Kind)
	}
	if got[0].Confidence < 0.2 || got[0].Confidence > 0.85 {
		t.Fatalf("confidence %v out of range", got[0].Confidence)
	}
}

func TestLoudFlatBurstRejected(t *testing.T) {
	samples := make([]float64, sampleRate*20)
	addNoise(samples, 0, 20, 0.05)
	// Crowd pop: louder wideband noise, spectrally flat.
	addNoise(samples, 10, 16, 0.06)

	if got := run(New(testConfig()), samples, 1); len(got) != 0 {
		t.Fatalf("expected flat loud burst rejected, got %+v", got)
	}
}

func TestShortBlipFailsSustain(t *testing.T) {
	samples := make([]float64, sampleRate*20)
	addNoise(samples, 0, 20, 0.05)
	addChord(samples, 10, 12, 0.1) // only 2 windows, sustain needs 3

	if got := run(New(testConfig()), samples, 1); len(got) != 0 {
		t.Fatalf("expected short blip rejected, got %+v", got)
	}
}

func TestChunkingDoesNotChangeResults(t *testing.T) {
	samples := make([]float64, sampleRate*20)
	addNoise(samples, 0, 20, 0.05)
	addChord(samples, 9, 20, 0.1)

	whole := run(New(testConfig()), samples, 20)
	chunked := run(New(testConfig()), samples, 1)

	if len(whole) != len(chunked) {
		t.Fatalf("chunking changed detection count: %d vs %d", len(whole), len(chunked))
	}
	for i := range whole {
		if whole[i].TimestampTicks != chunked[i].TimestampTicks {
			t.Fatalf("chunking moved detection %d", i)
		}
	}
}
