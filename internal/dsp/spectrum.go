package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Spectrum computes Hann-windowed magnitude spectra over fixed-size frames.
// It reuses its FFT plan and scratch buffers, so one Spectrum instance must
// not be shared across goroutines.
type Spectrum struct {
	n       int
	fft     *fourier.FFT
	scratch []float64
	coeffs  []complex128
	mags    []float64
}

// NewSpectrum returns a Spectrum for frames of n samples.
func NewSpectrum(n int) *Spectrum {
	return &Spectrum{
		n:       n,
		fft:     fourier.NewFFT(n),
		scratch: make([]float64, n),
		coeffs:  make([]complex128, n/2+1),
		mags:    make([]float64, n/2+1),
	}
}

// FrameSize returns the expected frame length.
func (s *Spectrum) FrameSize() int { return s.n }

// Bins returns the number of spectrum bins produced per frame.
func (s *Spectrum) Bins() int { return s.n/2 + 1 }

// Magnitudes computes the Hann-windowed magnitude spectrum of frame. The
// returned slice is owned by the Spectrum and is overwritten by the next call.
func (s *Spectrum) Magnitudes(frame []float64) []float64 {
	copy(s.scratch, frame)
	for i := len(frame); i < s.n; i++ {
		s.scratch[i] = 0
	}
	window.Hann(s.scratch)
	s.fft.Coefficients(s.coeffs, s.scratch)
	for i, c := range s.coeffs {
		s.mags[i] = cmplx.Abs(c)
	}
	return s.mags
}

// BinHz returns the frequency width of one spectrum bin at the given rate.
func (s *Spectrum) BinHz(sampleRate int) float64 {
	return float64(sampleRate) / float64(s.n)
}

// logFloor guards log operations against silent frames.
const logFloor = 1e-10

// Flatness computes the spectral flatness (Wiener entropy) of a magnitude
// spectrum: geometric mean over arithmetic mean. Low values indicate tonal
// content, values near one indicate noise.
func Flatness(mags []float64) float64 {
	if len(mags) == 0 {
		return 1
	}
	logSum := 0.0
	sum := 0.0
	for _, m := range mags {
		if m < logFloor {
			m = logFloor
		}
		logSum += math.Log(m)
		sum += m
	}
	mean := sum / float64(len(mags))
	if mean <= 0 {
		return 1
	}
	return math.Exp(logSum/float64(len(mags))) / mean
}

// BandFraction returns the fraction of total spectral energy that falls in
// [lowHz, highHz]. Returns zero for an empty or silent spectrum.
func BandFraction(mags []float64, binHz, lowHz, highHz float64) float64 {
	if len(mags) == 0 || binHz <= 0 || highHz <= lowHz {
		return 0
	}
	total := 0.0
	band := 0.0
	for i, m := range mags {
		energy := m * m
		total += energy
		hz := float64(i) * binHz
		if hz >= lowHz && hz <= highHz {
			band += energy
		}
	}
	if total <= 0 {
		return 0
	}
	return band / total
}

// FluxDB computes the positive spectral flux between two magnitude spectra in
// log-power (dB) space: the sum of positive per-bin dB increases. prevDB is
// updated in place with the current frame's dB values for the next call.
func FluxDB(mags, prevDB []float64, first bool) float64 {
	flux := 0.0
	for i, m := range mags {
		if m < logFloor {
			m = logFloor
		}
		db := 10 * math.Log10(m)
		if !first {
			if rise := db - prevDB[i]; rise > 0 {
				flux += rise
			}
		}
		prevDB[i] = db
	}
	if first {
		return 0
	}
	return flux
}
