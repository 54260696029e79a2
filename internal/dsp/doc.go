// Package dsp provides the small set of signal-processing primitives the
// audio detectors share: windowed magnitude spectra, spectral flatness,
// band-energy measurement, streaming bandpass filtering, and order statistics.
package dsp
