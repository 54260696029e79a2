package dsp_test

import (
	"math"
	"testing"

	"titantron/internal/dsp"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
	}
	return out
}

func TestFlatnessSeparatesToneFromNoise(t *testing.T) {
	const sampleRate = 22050
	spec := dsp.NewSpectrum(2048)

	tone := sine(440, sampleRate, 2048)
	toneFlatness := dsp.Flatness(spec.Magnitudes(tone))

	// Deterministic wideband signal: alternating impulses approximate noise
	// closely enough for a flatness ordering check.
	noise := make([]float64, 2048)
	state := uint64(1)
	for i := range noise {
		state = state*6364136223846793005 + 1442695040888963407
		noise[i] = float64(int64(state>>33))/float64(1<<30) - 1
	}
	noiseFlatness := dsp.Flatness(spec.Magnitudes(noise))

	if toneFlatness >= noiseFlatness {
		t.Fatalf("expected tonal flatness (%.4f) below noise flatness (%.4f)", toneFlatness, noiseFlatness)
	}
	if toneFlatness < 0 || toneFlatness > 1 || noiseFlatness < 0 || noiseFlatness > 1 {
		t.Fatalf("flatness out of range: tone=%.4f noise=%.4f", toneFlatness, noiseFlatness)
	}
}

func TestBandFractionConcentratesAroundTone(t *testing.T) {
	const sampleRate = 22050
	spec := dsp.NewSpectrum(2048)
	mags := spec.Magnitudes(sine(3000, sampleRate, 2048))

	inBand := dsp.BandFraction(mags, spec.BinHz(sampleRate), 2000, 4500)
	if inBand < 0.9 {
		t.Fatalf("expected 3kHz tone energy concentrated in 2-4.5kHz band, got fraction %.4f", inBand)
	}
	outBand := dsp.BandFraction(mags, spec.BinHz(sampleRate), 100, 1000)
	if outBand > 0.1 {
		t.Fatalf("expected little 3kHz tone energy below 1kHz, got fraction %.4f", outBand)
	}
}

func TestBandpassPassesInBandAndRejectsOutOfBand(t *testing.T) {
	const sampleRate = 22050
	const n = sampleRate // one second

	inBand := dsp.NewBandpass(sampleRate, 2000, 4500, 2).Process(sine(3000, sampleRate, n))
	outOfBand := dsp.NewBandpass(sampleRate, 2000, 4500, 2).Process(sine(200, sampleRate, n))

	// Skip the transient at the start before measuring.
	passed := dsp.RMS(inBand[sampleRate/10:])
	rejected := dsp.RMS(outOfBand[sampleRate/10:])
	if passed < 10*rejected {
		t.Fatalf("expected in-band RMS (%.5f) well above out-of-band RMS (%.5f)", passed, rejected)
	}
}

func TestBandpassStatePersistsAcrossChunks(t *testing.T) {
	const sampleRate = 22050
	signal := sine(3000, sampleRate, sampleRate)

	whole := make([]float64, len(signal))
	copy(whole, signal)
	dsp.NewBandpass(sampleRate, 2000, 4500, 2).Process(whole)

	chunked := make([]float64, len(signal))
	copy(chunked, signal)
	bp := dsp.NewBandpass(sampleRate, 2000, 4500, 2)
	for start := 0; start < len(chunked); start += 1000 {
		end := start + 1000
		if end > len(chunked) {
			end = len(chunked)
		}
		bp.Process(chunked[start:end])
	}

	for i := range whole {
		if math.Abs(whole[i]-chunked[i]) > 1e-9 {
			t.Fatalf("chunked filtering diverged at sample %d: %.12f vs %.12f", i, whole[i], chunked[i])
		}
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []float64
		want float64
	}{
		{nil, 0},
		{[]float64{3}, 3},
		{[]float64{3, 1}, 2},
		{[]float64{5, 1, 3}, 3},
		{[]float64{4, 1, 3, 2}, 2.5},
	}
	for _, tc := range cases {
		if got := dsp.Median(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("Median(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFluxDBRespondsToSpectralChange(t *testing.T) {
	const sampleRate = 22050
	spec := dsp.NewSpectrum(1024)
	prevDB := make([]float64, spec.Bins())

	quiet := make([]float64, 1024)
	dsp.FluxDB(spec.Magnitudes(quiet), prevDB, true)

	steady := dsp.FluxDB(spec.Magnitudes(quiet), prevDB, false)
	onset := dsp.FluxDB(spec.Magnitudes(sine(3000, sampleRate, 1024)), prevDB, false)
	if onset <= steady {
		t.Fatalf("expected onset flux (%.2f) above steady flux (%.2f)", onset, steady)
	}
}
