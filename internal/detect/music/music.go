// Package music detects entrance-music starts in streamed PCM audio. Music
// shows up as a sustained jump in energy over the trailing baseline combined
// with a tonal (low spectral flatness) spectrum; crowd noise is loud but
// spectrally flat, so the flatness term suppresses it.
package music

import (
	"titantron/internal/detect"
	"titantron/internal/dsp"
	"titantron/internal/media/pcm"
)

const (
	flatnessFrame = 2048
	// minBaselineWindows is the warmup before scores are trusted.
	minBaselineWindows = 5
	baselineFloor      = 1e-4
)

// Config tunes the detector. All fields come from [audio] config.
type Config struct {
	SampleRate int
	// HistoryWindows is the trailing baseline length in 1 s windows.
	HistoryWindows int
	// SustainWindows is how many consecutive windows must score above the
	// threshold before a start is reported.
	SustainWindows int
	ScoreThreshold float64
	CooldownTicks  int64
}

// Detector consumes PCM chunks in order and accumulates music-start
// detections. Analysis runs on 1 s windows carried across chunk seams.
type Detector struct {
	cfg      Config
	spectrum *dsp.Spectrum

	pending     []float64
	startSample int64

	energyHistory []float64
	sustained     int
	sustainStart  int64
	sustainScore  float64
	lastHitTicks  int64

	detections []detect.Detection
}

// New constructs a streaming detector.
func New(cfg Config) *Detector {
	return &Detector{
		cfg:          cfg,
		spectrum:     dsp.NewSpectrum(flatnessFrame),
		lastHitTicks: -1 << 62,
	}
}

// Process consumes the next chunk. Chunks must arrive in stream order.
func (d *Detector) Process(chunk pcm.Chunk) {
	d.pending = append(d.pending, chunk.Samples...)
	windowLen := d.cfg.SampleRate
	for len(d.pending) >= windowLen {
		d.analyzeWindow(d.pending[:windowLen])
		d.pending = d.pending[windowLen:]
		d.startSample += int64(windowLen)
	}
}

func (d *Detector) analyzeWindow(window []float64) {
	windowTicks := d.startSample * detect.TicksPerSecond / int64(d.cfg.SampleRate)

	energy := dsp.RMS(window)
	flatness := d.meanFlatness(window)

	warm := len(d.energyHistory) >= minBaselineWindows
	baseline := dsp.Median(d.energyHistory)
	d.pushEnergy(energy)
	if !warm {
		return
	}
	if baseline < baselineFloor {
		baseline = baselineFloor
	}

	score := (energy / baseline) * (1 - flatness)
	if score <= d.cfg.ScoreThreshold {
		d.sustained = 0
		return
	}

	if d.sustained == 0 {
		d.sustainStart = windowTicks
		d.sustainScore = score
	} else if score > d.sustainScore {
		d.sustainScore = score
	}
	d.sustained++
	if d.sustained < d.cfg.SustainWindows {
		return
	}
	d.sustained = 0

	if d.sustainStart-d.lastHitTicks < d.cfg.CooldownTicks {
		return
	}
	d.lastHitTicks = d.sustainStart

	excess := d.sustainScore - d.cfg.ScoreThreshold
	confidence := detect.ClampConfidence(0.2+0.3*excess, 0.2, 0.85)
	d.detections = append(d.detections, detect.Detection{
		TimestampTicks: d.sustainStart,
		Confidence:     confidence,
		Kind:           detect.KindMusicStart,
	})
}

// meanFlatness averages spectral flatness over full frames inside the window.
func (d *Detector) meanFlatness(window []float64) float64 {
	frames := 0
	total := 0.0
	for start := 0; start+flatnessFrame <= len(window); start += flatnessFrame {
		mags := d.spectrum.Magnitudes(window[start : start+flatnessFrame])
		total += dsp.Flatness(mags)
		frames++
	}
	if frames == 0 {
		return 1 // treat too-short windows as maximally flat, never musical
	}
	return total / float64(frames)
}

func (d *Detector) pushEnergy(energy float64) {
	d.energyHistory = append(d.energyHistory, energy)
	if len(d.energyHistory) > d.cfg.HistoryWindows {
		d.energyHistory = d.energyHistory[len(d.energyHistory)-d.cfg.HistoryWindows:]
	}
}

// Detections returns all music starts found so far, in stream order.
func (d *Detector) Detections() []detect.Detection {
	return d.detections
}
