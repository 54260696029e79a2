package media

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"titantron/internal/services"
)

func TestStreamDeadlineMapsToTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := CommandExecutor{}.Stream(ctx, "sleep", []string{"5"}, func(r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	})
	if !services.IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestStreamStopsProducerWhenConsumerQuits(t *testing.T) {
	stop := errors.New("enough")
	start := time.Now()

	// yes writes forever; the stream must end as soon as the consumer does.
	err := CommandExecutor{}.Stream(context.Background(), "yes", nil, func(r io.Reader) error {
		line, err := bufio.NewReader(r).ReadString('\n')
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) != "y" {
			t.Errorf("unexpected line %q", line)
		}
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected consumer error surfaced, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("stream did not stop promptly: %v", elapsed)
	}
}

func TestStreamSurfacesStderrOnFailure(t *testing.T) {
	err := CommandExecutor{}.Stream(context.Background(), "sh", []string{"-c", "echo oops >&2; exit 3"}, func(r io.Reader) error {
		_, err := io.Copy(io.Discard, r)
		return err
	})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Fatalf("stderr tail missing from error: %v", err)
	}
}
