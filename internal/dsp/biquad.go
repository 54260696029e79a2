package dsp

import "math"

// Biquad is a single second-order IIR filter section in transposed direct
// form II. Filter state persists across calls so chunked signals can be
// filtered without seam discontinuities.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
	s1, s2     float64
}

// Process filters samples in place and returns the same slice.
func (f *Biquad) Process(samples []float64) []float64 {
	b0, b1, b2, a1, a2 := f.b0, f.b1, f.b2, f.a1, f.a2
	s1, s2 := f.s1, f.s2
	for i, x := range samples {
		y := b0*x + s1
		s1 = b1*x - a1*y + s2
		s2 = b2*x - a2*y
		samples[i] = y
	}
	f.s1, f.s2 = s1, s2
	return samples
}

// Reset clears the filter state.
func (f *Biquad) Reset() {
	f.s1, f.s2 = 0, 0
}

// Bandpass is a cascade of biquad bandpass sections.
type Bandpass struct {
	sections []Biquad
}

// NewBandpass designs a bandpass filter passing [lowHz, highHz] at the given
// sample rate, built from cascaded constant-peak-gain biquad sections. Two
// sections approximate a fourth-order Butterworth response, which is steep
// enough to isolate the bell band.
func NewBandpass(sampleRate int, lowHz, highHz float64, sections int) *Bandpass {
	if sections < 1 {
		sections = 1
	}
	nyquist := float64(sampleRate) / 2
	if highHz >= nyquist {
		highHz = nyquist * 0.99
	}
	if lowHz <= 0 {
		lowHz = 1
	}
	center := math.Sqrt(lowHz * highHz)
	q := center / (highHz - lowHz)

	bp := &Bandpass{sections: make([]Biquad, sections)}
	for i := range bp.sections {
		bp.sections[i] = bandpassSection(float64(sampleRate), center, q)
	}
	return bp
}

func bandpassSection(sampleRate, centerHz, q float64) Biquad {
	w0 := 2 * math.Pi * centerHz / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	cosW0 := math.Cos(w0)
	a0 := 1 + alpha
	return Biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * cosW0 / a0,
		a2: (1 - alpha) / a0,
	}
}

// Process filters samples in place through every section and returns the
// same slice.
func (bp *Bandpass) Process(samples []float64) []float64 {
	for i := range bp.sections {
		bp.sections[i].Process(samples)
	}
	return samples
}

// Reset clears all section state.
func (bp *Bandpass) Reset() {
	for i := range bp.sections {
		bp.sections[i].Reset()
	}
}
