package main

import (
	"fmt"
	"strconv"

	"titantron/internal/detect"
	"titantron/internal/store"
)

func parseID(value, what string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, value)
	}
	return id, nil
}

func parsePhase(value string) (store.Phase, error) {
	phase, ok := store.ParsePhase(value)
	if !ok {
		return "", fmt.Errorf("invalid phase %q (expected both, visual, or audio)", value)
	}
	return phase, nil
}

// formatTicks renders a tick offset as h:mm:ss.s.
func formatTicks(ticks int64) string {
	totalTenths := ticks / (detect.TicksPerSecond / 10)
	tenths := totalTenths % 10
	totalSeconds := totalTenths / 10
	seconds := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600
	return fmt.Sprintf("%d:%02d:%02d.%d", hours, minutes, seconds, tenths)
}

func formatConfidence(confidence float64) string {
	return fmt.Sprintf("%.2f", confidence)
}
