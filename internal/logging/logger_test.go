package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"titantron/internal/logging"
	"titantron/internal/services"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := t.TempDir() + "/out.log"
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", slog.Int64(logging.FieldVideoID, 7))
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := services.WithVideoID(context.Background(), 42)
	ctx = services.WithPhase(ctx, "audio")
	ctx = services.WithRequestID(ctx, "run-abc")

	logging.WithContext(ctx, logger).Info("processing")

	out := buf.String()
	for _, want := range []string{`"video_id":42`, `"phase":"audio"`, `"run_id":"run-abc"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in output, got %s", want, out)
		}
	}
}

func TestConsoleHandlerPullsComponentPrefix(t *testing.T) {
	path := t.TempDir() + "/console.log"
	logger, err := logging.New(logging.Options{Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logging.NewComponentLogger(logger, "analysis").Info("run started", logging.Int64("video_id", 3))
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected no-op logger to be disabled at all levels")
	}
}
