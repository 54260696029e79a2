package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"titantron/internal/config"
	"titantron/internal/services/backend"
	"titantron/internal/services/mediaserver"
)

func TestCheckBinary(t *testing.T) {
	if result := CheckBinary("shell", "sh"); !result.Passed {
		t.Fatalf("expected sh on PATH, got %+v", result)
	}
	if result := CheckBinary("bogus", "titantron-no-such-binary"); result.Passed {
		t.Fatalf("expected missing binary to fail, got %+v", result)
	}
	if result := CheckBinary("empty", ""); result.Passed {
		t.Fatalf("expected unconfigured binary to fail, got %+v", result)
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryAccess("tmp", dir); !result.Passed {
		t.Fatalf("expected temp dir to pass, got %+v", result)
	}
	if result := CheckDirectoryAccess("missing", filepath.Join(dir, "nope")); result.Passed {
		t.Fatalf("expected missing dir to fail, got %+v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("file", file); result.Passed {
		t.Fatalf("expected plain file to fail, got %+v", result)
	}
}

func TestCheckMediaServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.MediaServer.Enabled = true
	cfg.MediaServer.URL = server.URL

	if result := CheckMediaServer(context.Background(), mediaserver.NewClient(&cfg, nil)); !result.Passed {
		t.Fatalf("expected reachable server to pass, got %+v", result)
	}

	cfg.MediaServer.URL = "http://127.0.0.1:1"
	if result := CheckMediaServer(context.Background(), mediaserver.NewClient(&cfg, nil)); result.Passed {
		t.Fatalf("expected unreachable server to fail, got %+v", result)
	}
}

func TestCheckBackendModelStates(t *testing.T) {
	loaded := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"available": true, "model_loaded": loaded})
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Backend.Enabled = true
	cfg.Backend.URL = server.URL
	client := backend.NewClient(&cfg, nil)

	if result := CheckBackend(context.Background(), client); !result.Passed {
		t.Fatalf("expected loaded backend to pass, got %+v", result)
	}
	loaded = false
	if result := CheckBackend(context.Background(), client); result.Passed {
		t.Fatalf("expected unloaded model to fail, got %+v", result)
	}
}

func TestAllPassed(t *testing.T) {
	if AllPassed([]Result{{Passed: true}, {Passed: false}}) {
		t.Fatal("expected mixed results to report failure")
	}
	if !AllPassed([]Result{{Passed: true}, {Passed: true}}) {
		t.Fatal("expected all-passing results to report success")
	}
}
