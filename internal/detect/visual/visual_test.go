package visual

import (
	"testing"

	"titantron/internal/detect"
	"titantron/internal/media/frames"
)

const (
	testW = 32
	testH = 18
)

func testConfig() Config {
	return Config{
		Width:            testW,
		Height:           testH,
		Threshold:        0.12,
		DarkBrightness:   15,
		WeightMAD:        0.45,
		WeightSSIM:       0.35,
		WeightEdge:       0.10,
		WeightBrightness: 0.10,
	}
}

func solidFrame(value byte, index int) frames.Frame {
	rgb := make([]byte, testW*testH*3)
	for i := range rgb {
		rgb[i] = value
	}
	return frames.Frame{RGB: rgb, Index: index, TimestampTicks: int64(index) * 2 * detect.TicksPerSecond}
}

// checkerFrame alternates bright and dark blocks so edge density is high.
func checkerFrame(index int, blockSize int) frames.Frame {
	rgb := make([]byte, testW*testH*3)
	for y := 0; y < testH; y++ {
		for x := 0; x < testW; x++ {
			v := byte(40)
			if (x/blockSize+y/blockSize)%2 == 0 {
				v = 220
			}
			i := (y*testW + x) * 3
			rgb[i], rgb[i+1], rgb[i+2] = v, v, v
		}
	}
	return frames.Frame{RGB: rgb, Index: index, TimestampTicks: int64(index) * 2 * detect.TicksPerSecond}
}

func TestStaticSceneProducesNoDetections(t *testing.T) {
	c := New(testConfig())
	for i := 0; i < 10; i++ {
		c.Push(solidFrame(128, i))
	}
	if got := c.Detections(); len(got) != 0 {
		t.Fatalf("expected no detections for static frames, got %+v", got)
	}
}

func TestHardCutDetectedAsSceneChange(t *testing.T) {
	c := New(testConfig())
	c.Push(solidFrame(200, 0))
	c.Push(solidFrame(200, 1))
	c.Push(solidFrame(60, 2)) // hard cut to a mid-brightness scene

	got := c.Detections()
	if len(got) != 1 {
		t.Fatalf("expected one detection, got %+v", got)
	}
	if got[0].Kind != detect.KindSceneChange {
		t.Fatalf("expected scene_change, got %q", got[0].Kind)
	}
	if got[0].TimestampTicks != 2*2*detect.TicksPerSecond {
		t.Fatalf("detection at wrong timestamp: %d", got[0].TimestampTicks)
	}
	if got[0].Confidence <= 0 || got[0].Confidence > 1 {
		t.Fatalf("confidence %v out of range", got[0].Confidence)
	}
}

func TestCutToBlackClassifiedAsDarkFrame(t *testing.T) {
	c := New(testConfig())
	c.Push(solidFrame(180, 0))
	c.Push(solidFrame(2, 1)) // cut to black

	got := c.Detections()
	if len(got) != 1 {
		t.Fatalf("expected one detection, got %+v", got)
	}
	if got[0].Kind != detect.KindDarkFrame {
		t.Fatalf("expected dark_frame, got %q", got[0].Kind)
	}
	if got[0].Confidence != 0.9 {
		t.Fatalf("dark frame confidence = %v, want 0.9", got[0].Confidence)
	}
}

func TestDarkFrameEmittedBelowCompositeThreshold(t *testing.T) {
	c := New(testConfig())
	c.Push(solidFrame(11, 0))
	c.Push(solidFrame(12, 1)) // still dark, near-zero composite

	got := c.Detections()
	if len(got) != 1 {
		t.Fatalf("expected a dark frame despite tiny composite, got %+v", got)
	}
	if got[0].Kind != detect.KindDarkFrame || got[0].Confidence != 0.9 {
		t.Fatalf("unexpected detection: %+v", got[0])
	}
}

// colorFrame fills the frame with one RGB color.
func colorFrame(r, g, b byte, index int) frames.Frame {
	rgb := make([]byte, testW*testH*3)
	for i := 0; i < len(rgb); i += 3 {
		rgb[i], rgb[i+1], rgb[i+2] = r, g, b
	}
	return frames.Frame{RGB: rgb, Index: index, TimestampTicks: int64(index) * 2 * detect.TicksPerSecond}
}

func TestEqualLumaColorCutDetected(t *testing.T) {
	c := New(testConfig())
	// Both frames have nearly identical luminance (~60), so only the RGB
	// difference can carry the cut.
	c.Push(colorFrame(200, 0, 0, 0))
	c.Push(colorFrame(0, 90, 61, 1))

	got := c.Detections()
	if len(got) != 1 || got[0].Kind != detect.KindSceneChange {
		t.Fatalf("expected color cut detected as scene change, got %+v", got)
	}
}

// gridFrame draws thin vertical lines over a flat background. Lines shift
// edge density a lot while moving few gray levels per pixel.
func gridFrame(index int, background, line byte) frames.Frame {
	rgb := make([]byte, testW*testH*3)
	for y := 0; y < testH; y++ {
		for x := 0; x < testW; x++ {
			v := background
			if x%3 == 0 {
				v = line
			}
			i := (y*testW + x) * 3
			rgb[i], rgb[i+1], rgb[i+2] = v, v, v
		}
	}
	return frames.Frame{RGB: rgb, Index: index, TimestampTicks: int64(index) * 2 * detect.TicksPerSecond}
}

func TestOverlaySwapClassifiedAsGraphicsChange(t *testing.T) {
	c := New(testConfig())
	c.Push(solidFrame(128, 0))
	c.Push(gridFrame(1, 128, 156)) // score graphic appears over a static shot

	got := c.Detections()
	if len(got) != 1 {
		t.Fatalf("expected one detection, got %+v", got)
	}
	if got[0].Kind != detect.KindGraphicsChange {
		t.Fatalf("expected graphics_change, got %q", got[0].Kind)
	}
}

func TestCheckerCutDetected(t *testing.T) {
	c := New(testConfig())
	c.Push(checkerFrame(0, 2))
	c.Push(solidFrame(128, 1))

	got := c.Detections()
	if len(got) != 1 || got[0].Kind != detect.KindSceneChange {
		t.Fatalf("expected scene change for checker cut, got %+v", got)
	}
}

func TestGradualDriftStaysBelowThreshold(t *testing.T) {
	c := New(testConfig())
	for i := 0; i < 20; i++ {
		c.Push(solidFrame(byte(100+i), i))
	}
	if got := c.Detections(); len(got) != 0 {
		t.Fatalf("expected slow drift ignored, got %+v", got)
	}
}
