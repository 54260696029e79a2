package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"titantron/internal/services/backend"
	"titantron/internal/services/mediaserver"
)

const checkTimeout = 5 * time.Second

// CheckBinary verifies that an external binary resolves on PATH.
func CheckBinary(name, binary string) Result {
	if binary == "" {
		return Result{Name: name, Detail: "binary not configured"}
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found on PATH", binary)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMediaServer verifies media server connectivity.
func CheckMediaServer(ctx context.Context, client *mediaserver.Client) Result {
	const name = "Media server"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckBackend verifies that the audio backend is reachable and its model is
// loaded. An unreachable backend is a warning at analysis time (the audio
// phase skips), but preflight still surfaces it.
func CheckBackend(ctx context.Context, client *backend.Client) Result {
	const name = "Audio backend"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status, err := client.Health(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	switch {
	case !status.Available:
		return Result{Name: name, Detail: "service reports unavailable"}
	case !status.ModelLoaded:
		return Result{Name: name, Detail: "model not loaded"}
	default:
		return Result{Name: name, Passed: true, Detail: "reachable, model loaded"}
	}
}
