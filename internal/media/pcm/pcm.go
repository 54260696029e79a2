// Package pcm extracts mono PCM audio from a container via ffmpeg and
// streams it to the audio detectors in fixed-length chunks.
package pcm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"titantron/internal/detect"
	"titantron/internal/media"
)

// Chunk is one contiguous block of decoded samples.
type Chunk struct {
	// Samples are mono float64 values in [-1, 1].
	Samples []float64
	// StartTicks is the timestamp of Samples[0].
	StartTicks int64
}

// ErrStop can be returned by a chunk callback to end extraction early
// without reporting failure.
var ErrStop = errors.New("pcm: stop requested")

// Options configures an extraction.
type Options struct {
	Binary string
	// SampleRate of the decoded mono stream, in Hz.
	SampleRate int
	// ChunkSeconds is the callback granularity.
	ChunkSeconds int
	// StreamPosition selects the audio track as ffmpeg's 0:a:<n>. Negative
	// means the container default.
	StreamPosition int
	// Timeout bounds the whole extraction independent of the run deadline.
	Timeout time.Duration
}

// Extractor decodes audio through an injected executor.
type Extractor struct {
	exec media.Executor
	opts Options
}

// New constructs an extractor. A nil executor runs real subprocesses.
func New(opts Options, exec media.Executor) *Extractor {
	if exec == nil {
		exec = media.CommandExecutor{}
	}
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "ffmpeg"
	}
	return &Extractor{exec: exec, opts: opts}
}

// Extract decodes path and invokes onChunk for every full chunk in order.
// A trailing partial chunk shorter than one second is dropped; longer
// partials are delivered. onChunk returning ErrStop ends extraction cleanly.
func (e *Extractor) Extract(ctx context.Context, path string, onChunk func(Chunk) error) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("pcm extract: empty path")
	}
	if e.opts.SampleRate <= 0 || e.opts.ChunkSeconds <= 0 {
		return fmt.Errorf("pcm extract: invalid sample rate %d or chunk seconds %d", e.opts.SampleRate, e.opts.ChunkSeconds)
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	mapSpec := "0:a:0"
	if e.opts.StreamPosition >= 0 {
		mapSpec = "0:a:" + strconv.Itoa(e.opts.StreamPosition)
	}
	args := []string{
		"-v", "error", "-nostdin",
		"-i", path,
		"-map", mapSpec,
		"-ac", "1",
		"-ar", strconv.Itoa(e.opts.SampleRate),
		"-f", "s16le",
		"-",
	}

	err := e.exec.Stream(ctx, e.opts.Binary, args, func(stdout io.Reader) error {
		return e.consume(stdout, onChunk)
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func (e *Extractor) consume(stdout io.Reader, onChunk func(Chunk) error) error {
	chunkSamples := e.opts.SampleRate * e.opts.ChunkSeconds
	buf := make([]byte, chunkSamples*2)
	samples := make([]float64, chunkSamples)

	var startTicks int64
	ticksPerChunk := int64(e.opts.ChunkSeconds) * detect.TicksPerSecond

	for {
		n, err := io.ReadFull(stdout, buf)
		if n > 0 {
			// s16le frames only; a trailing odd byte is discarded.
			count := n / 2
			if count >= e.opts.SampleRate { // drop partials under one second
				decodeS16LE(buf[:count*2], samples[:count])
				if cbErr := onChunk(Chunk{Samples: samples[:count], StartTicks: startTicks}); cbErr != nil {
					return cbErr
				}
			}
			startTicks += ticksPerChunk
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read pcm stream: %w", err)
		}
	}
}

func decodeS16LE(src []byte, dst []float64) {
	for i := range dst {
		sample := int16(uint16(src[2*i]) | uint16(src[2*i+1])<<8)
		dst[i] = float64(sample) / 32768
	}
}
