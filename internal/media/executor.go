package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"titantron/internal/services"
)

// Executor abstracts running a subprocess whose stdout is a binary stream.
// Implementations must drain stderr concurrently so ffmpeg cannot stall on a
// full pipe, and surface its tail when the process exits non-zero.
type Executor interface {
	Stream(ctx context.Context, binary string, args []string, consume func(io.Reader) error) error
}

// stderrTailLimit bounds how much diagnostic output is kept for errors.
const stderrTailLimit = 4096

// CommandExecutor runs real subprocesses via os/exec.
type CommandExecutor struct{}

func (CommandExecutor) Stream(ctx context.Context, binary string, args []string, consume func(io.Reader) error) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "media", "start", binary, err)
	}

	tail := newTailBuffer(stderrTailLimit)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(tail, stderr)
	}()

	consumeErr := consume(stdout)
	if consumeErr != nil {
		// The consumer gave up; stop the producer rather than draining what
		// could be hours of remaining output.
		_ = cmd.Process.Kill()
	}
	// Drain any remainder so Wait does not block on the pipe.
	_, _ = io.Copy(io.Discard, stdout)
	wg.Wait()

	waitErr := cmd.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, "media", "stream", binary, ctxErr)
		}
		return ctxErr
	}
	if consumeErr != nil {
		return consumeErr
	}
	if waitErr != nil {
		detail := strings.TrimSpace(tail.String())
		if detail != "" {
			return services.Wrap(services.ErrExternalTool, "media", "stream", fmt.Sprintf("%s: %s", binary, detail), waitErr)
		}
		return services.Wrap(services.ErrExternalTool, "media", "stream", binary, waitErr)
	}
	return nil
}

// tailBuffer keeps only the last limit bytes written to it.
type tailBuffer struct {
	limit int
	data  []byte
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	if len(b.data) > b.limit {
		b.data = b.data[len(b.data)-b.limit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return string(b.data)
}
