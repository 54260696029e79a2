// Package bell detects ring-bell strikes in streamed PCM audio. A bell
// registers as a sharp broadband onset concentrated in the 2-4.5 kHz band,
// so the detector gates spectral-flux onsets against a trailing baseline and
// verifies in-band energy before accepting a hit.
package bell

import (
	"math"

	"titantron/internal/detect"
	"titantron/internal/dsp"
	"titantron/internal/media/pcm"
)

const (
	frameSize = 1024
	hopSize   = 256
	// minBandFraction is the share of spectral energy that must fall inside
	// the bell band for an onset to count as a strike.
	minBandFraction = 0.25
	filterSections  = 2 // two cascaded biquads approximate a 4th-order filter
)

// Config tunes the detector. All fields come from [audio] config.
type Config struct {
	SampleRate int
	LowHz      float64
	HighHz     float64
	// OnsetRatio gates flux against the trailing median baseline.
	OnsetRatio float64
	// MinGapTicks debounces strikes; hits closer than this are dropped.
	MinGapTicks int64
}

// Detector consumes PCM chunks in order and accumulates bell detections.
// State (filter memory, analysis ring, flux history) carries across chunk
// seams so results match whole-signal processing.
type Detector struct {
	cfg Config

	bandpass *dsp.Bandpass
	spectrum *dsp.Spectrum
	binHz    float64

	prevDB     []float64
	firstFrame bool

	// filtered and raw hold unconsumed samples; startSample is the absolute
	// offset of index 0.
	filtered    []float64
	raw         []float64
	startSample int64

	fluxHistory []float64 // ~1 s trailing window
	historyCap  int

	lastHitTicks int64
	detections   []detect.Detection
}

// New constructs a streaming detector.
func New(cfg Config) *Detector {
	historyCap := cfg.SampleRate / hopSize
	if historyCap < 8 {
		historyCap = 8
	}
	spectrum := dsp.NewSpectrum(frameSize)
	return &Detector{
		cfg:          cfg,
		bandpass:     dsp.NewBandpass(cfg.SampleRate, cfg.LowHz, cfg.HighHz, filterSections),
		spectrum:     spectrum,
		binHz:        spectrum.BinHz(cfg.SampleRate),
		prevDB:       make([]float64, spectrum.Bins()),
		firstFrame:   true,
		historyCap:   historyCap,
		lastHitTicks: math.MinInt64 / 2,
	}
}

// Process consumes the next chunk. Chunks must arrive in stream order.
func (d *Detector) Process(chunk pcm.Chunk) {
	filtered := make([]float64, len(chunk.Samples))
	copy(filtered, chunk.Samples)
	d.bandpass.Process(filtered)

	d.filtered = append(d.filtered, filtered...)
	d.raw = append(d.raw, chunk.Samples...)

	for len(d.filtered) >= frameSize {
		d.analyzeFrame()
		d.filtered = d.filtered[hopSize:]
		d.raw = d.raw[hopSize:]
		d.startSample += hopSize
	}
}

func (d *Detector) analyzeFrame() {
	mags := d.spectrum.Magnitudes(d.filtered[:frameSize])
	flux := dsp.FluxDB(mags, d.prevDB, d.firstFrame)
	d.firstFrame = false

	warm := len(d.fluxHistory) >= d.historyCap/2
	baseline := dsp.Median(d.fluxHistory)
	d.pushFlux(flux)
	if !warm || baseline <= 0 {
		return
	}

	threshold := baseline * d.cfg.OnsetRatio
	if flux <= threshold {
		return
	}

	// Timestamp at the frame center.
	centerSample := d.startSample + frameSize/2
	ticks := centerSample * detect.TicksPerSecond / int64(d.cfg.SampleRate)
	if ticks-d.lastHitTicks < d.cfg.MinGapTicks {
		return
	}

	// Verify the onset actually lives in the bell band of the raw signal.
	rawMags := d.spectrum.Magnitudes(d.raw[:frameSize])
	bandFrac := dsp.BandFraction(rawMags, d.binHz, d.cfg.LowHz, d.cfg.HighHz)
	if bandFrac < minBandFraction {
		return
	}

	strength := flux / threshold // >= 1 at the gate
	d.lastHitTicks = ticks
	d.detections = append(d.detections, detect.Detection{
		TimestampTicks: ticks,
		Confidence:     confidence(strength, bandFrac),
		Kind:           detect.KindBell,
	})
}

// confidence grades a strike by how far the onset cleared the flux gate and
// how much of the frame's energy sits in the bell band. Both terms raise the
// score monotonically; the result stays within [0.1, 0.9].
func confidence(strength, bandFraction float64) float64 {
	return detect.ClampConfidence(
		0.1+0.3*(strength-1)+0.5*(bandFraction-minBandFraction), 0.1, 0.9)
}

func (d *Detector) pushFlux(flux float64) {
	d.fluxHistory = append(d.fluxHistory, flux)
	if len(d.fluxHistory) > d.historyCap {
		d.fluxHistory = d.fluxHistory[len(d.fluxHistory)-d.historyCap:]
	}
}

// Detections returns all strikes found so far, in stream order.
func (d *Detector) Detections() []detect.Detection {
	return d.detections
}
