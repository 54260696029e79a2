// Package frames extracts downscaled raw RGB frames from a container via
// ffmpeg for the visual detector.
package frames

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"titantron/internal/detect"
	"titantron/internal/media"
)

// Frame is one raw rgb24 frame with its presentation timestamp.
type Frame struct {
	// RGB holds width*height*3 bytes in row-major order.
	RGB []byte
	// Index is the zero-based frame number in the sampled stream.
	Index int
	// TimestampTicks is Index divided by the sampling rate.
	TimestampTicks int64
}

// ErrStop can be returned by a frame callback to end extraction early
// without reporting failure.
var ErrStop = errors.New("frames: stop requested")

// Options configures frame extraction.
type Options struct {
	Binary string
	// Rate is the sampling frame rate in frames per second (may be < 1).
	Rate   float64
	Width  int
	Height int
}

// Extractor streams frames through an injected executor.
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

// Extract decodes path and invokes onFrame for every sampled frame in order.
// The RGB slice is reused between calls; callbacks must copy what they keep.
func (e *Extractor) Extract(ctx context.Context, path string, onFrame func(Frame) error) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("frames extract: empty path")
	}
	if e.opts.Rate <= 0 || e.opts.Width <= 0 || e.opts.Height <= 0 {
		return fmt.Errorf("frames extract: invalid geometry %dx%d at %.3f fps", e.opts.Width, e.opts.Height, e.opts.Rate)
	}

	filter := fmt.Sprintf("fps=%g,scale=%d:%d", e.opts.Rate, e.opts.Width, e.opts.Height)
	args := []string{
		"-v", "error", "-nostdin",
		"-i", path,
		"-vf", filter,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	}

	err := e.exec.Stream(ctx, e.opts.Binary, args, func(stdout io.Reader) error {
		return e.consume(stdout, onFrame)
	})
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func (e *Extractor) consume(stdout io.Reader, onFrame func(Frame) error) error {
	frameBytes := e.opts.Width * e.opts.Height * 3
	buf := make([]byte, frameBytes)
	ticksPerFrame := float64(detect.TicksPerSecond) / e.opts.Rate

	index := 0
	for {
		_, err := io.ReadFull(stdout, buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Truncated trailing frames are discarded.
				return nil
			}
			return fmt.Errorf("read frame stream: %w", err)
		}
		frame := Frame{
			RGB:            buf,
			Index:          index,
			TimestampTicks: int64(float64(index) * ticksPerFrame),
		}
		if cbErr := onFrame(frame); cbErr != nil {
			return cbErr
		}
		index++
	}
}
