package detect

import (
	"sort"
	"strings"
	"time"
)

// TicksPerSecond is the timestamp resolution used throughout the pipeline:
// 100ns ticks, matching the media server's runtime tick unit.
const TicksPerSecond int64 = 10_000_000

// Kind classifies a detection by the signal that produced it.
type Kind string

const (
	KindBell           Kind = "bell"
	KindMusicStart     Kind = "music_start"
	KindSceneChange    Kind = "scene_change"
	KindDarkFrame      Kind = "dark_frame"
	KindGraphicsChange Kind = "graphics_change"
)

var allKinds = []Kind{
	KindBell,
	KindMusicStart,
	KindSceneChange,
	KindDarkFrame,
	KindGraphicsChange,
}

var kindSet = func() map[Kind]struct{} {
	set := make(map[Kind]struct{}, len(allKinds))
	for _, kind := range allKinds {
		set[kind] = struct{}{}
	}
	return set
}()

// AllKinds returns the ordered list of known detection kinds.
func AllKinds() []Kind {
	cp := make([]Kind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	if _, ok := kindSet[normalized]; !ok {
		return "", false
	}
	return normalized, true
}

// Detection is a single candidate content-boundary event. It is a value type;
// lists of detections are persisted as a whole, never row by row.
type Detection struct {
	TimestampTicks int64   `json:"timestamp_ticks"`
	Confidence     float64 `json:"confidence"`
	Kind           Kind    `json:"kind"`
	// Label carries an optional sub-classification supplied by pluggable
	// detector backends. Local detectors leave it empty.
	Label string `json:"label,omitempty"`
}

// Seconds returns the detection offset as fractional seconds.
func (d Detection) Seconds() float64 {
	return float64(d.TimestampTicks) / float64(TicksPerSecond)
}

// SpectrumPoint is one sample of a backend's diagnostic score series: a
// second offset from the start of the recording and the score at that point.
type SpectrumPoint struct {
	T     float64 `json:"t"`
	Score float64 `json:"score"`
}

// TicksFromSeconds converts a second offset into ticks.
func TicksFromSeconds(seconds float64) int64 {
	return int64(seconds * float64(TicksPerSecond))
}

// TicksFromDuration converts a duration into ticks.
func TicksFromDuration(d time.Duration) int64 {
	return d.Nanoseconds() / 100
}

// ClampConfidence bounds a confidence value to [lo, hi] within [0, 1].
func ClampConfidence(value, lo, hi float64) float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > 1 {
		hi = 1
	}
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

// SortByTimestamp orders detections by timestamp ascending, in place.
func SortByTimestamp(detections []Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].TimestampTicks < detections[j].TimestampTicks
	})
}
