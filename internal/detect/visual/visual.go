// Package visual detects content boundaries by comparing consecutive
// downscaled frames. Each frame is reduced to cached features (RGB plane,
// grayscale, mean brightness, edge density) and pairs are scored with a
// weighted composite of RGB mean absolute difference, structural
// dissimilarity, edge delta, and brightness delta.
package visual

import (
	"math"

	"titantron/internal/detect"
	"titantron/internal/media/frames"
)

// confidenceScale maps composite scores to confidence: a composite at or
// above this value is a certain boundary.
const confidenceScale = 0.25

// darkFrameConfidence is assigned to every dark-frame detection; a frame
// under the brightness floor is a boundary regardless of composite score.
const darkFrameConfidence = 0.9

// edge detection constants for the downscaled luminance plane.
const edgeGradientThreshold = 24.0

// edgeDeltaScale normalizes the raw edge-density delta; a delta at or above
// this value saturates the edge term.
const edgeDeltaScale = 0.3

// graphics-change gate: strong edge churn with an almost static picture
// (score overlays, lower-third swaps).
const (
	graphicsEdgeDelta = 0.5
	graphicsMaxMAD    = 0.05
)

// Config tunes the comparer. All fields come from [visual] config.
type Config struct {
	Width  int
	Height int
	// Threshold is the composite score above which a boundary is reported.
	Threshold float64
	// DarkBrightness classifies a boundary as a dark frame when the new
	// frame's mean luminance falls below it (0-255 scale).
	DarkBrightness   float64
	WeightMAD        float64
	WeightSSIM       float64
	WeightEdge       float64
	WeightBrightness float64
}

// features caches the per-frame measurements needed for pair scoring.
type features struct {
	rgb            []float64
	gray           []float64
	brightness     float64
	edgeDensity    float64
	timestampTicks int64
}

// Comparer scores consecutive frames and accumulates boundary detections.
type Comparer struct {
	cfg  Config
	prev *features

	detections []detect.Detection
}

// New constructs a comparer.
func New(cfg Config) *Comparer {
	return &Comparer{cfg: cfg}
}

// Push consumes the next frame in stream order. The frame's RGB buffer may
// be reused by the caller after Push returns. A dark frame is always a
// boundary; anything else must clear the composite threshold.
func (c *Comparer) Push(frame frames.Frame) {
	current := c.extract(frame)
	prev := c.prev
	c.prev = current
	if prev == nil {
		return
	}

	score, mad, edgeDelta := c.score(prev, current)
	isDark := current.brightness < c.cfg.DarkBrightness
	if !isDark && score <= c.cfg.Threshold {
		return
	}

	kind := detect.KindSceneChange
	confidence := detect.ClampConfidence(score/confidenceScale, 0, 1)
	switch {
	case isDark:
		kind = detect.KindDarkFrame
		confidence = darkFrameConfidence
	case edgeDelta > graphicsEdgeDelta && mad < graphicsMaxMAD:
		kind = detect.KindGraphicsChange
	}

	c.detections = append(c.detections, detect.Detection{
		TimestampTicks: current.timestampTicks,
		Confidence:     confidence,
		Kind:           kind,
	})
}

// Detections returns all boundaries found so far, in stream order.
func (c *Comparer) Detections() []detect.Detection {
	return c.detections
}

func (c *Comparer) extract(frame frames.Frame) *features {
	w, h := c.cfg.Width, c.cfg.Height
	rgb := make([]float64, w*h*3)
	gray := make([]float64, w*h)
	sum := 0.0
	for i := range gray {
		r := float64(frame.RGB[3*i])
		g := float64(frame.RGB[3*i+1])
		b := float64(frame.RGB[3*i+2])
		rgb[3*i], rgb[3*i+1], rgb[3*i+2] = r, g, b
		lum := 0.299*r + 0.587*g + 0.114*b
		gray[i] = lum
		sum += lum
	}
	return &features{
		rgb:            rgb,
		gray:           gray,
		brightness:     sum / float64(len(gray)),
		edgeDensity:    edgeDensity(gray, w, h),
		timestampTicks: frame.TimestampTicks,
	}
}

// score returns the weighted composite plus the raw MAD and the normalized
// edge delta used by the graphics-change gate.
func (c *Comparer) score(a, b *features) (composite, mad, edgeDelta float64) {
	mad = meanAbsDiff(a.rgb, b.rgb) / 255
	ssim := globalSSIM(a.gray, b.gray)
	structural := 1 - ssim
	edgeDelta = math.Min(1, math.Abs(a.edgeDensity-b.edgeDensity)/edgeDeltaScale)
	brightnessDelta := math.Abs(a.brightness-b.brightness) / 255

	composite = c.cfg.WeightMAD*mad +
		c.cfg.WeightSSIM*structural +
		c.cfg.WeightEdge*edgeDelta +
		c.cfg.WeightBrightness*brightnessDelta
	return composite, mad, edgeDelta
}

func meanAbsDiff(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(len(a))
}

// globalSSIM computes single-window SSIM over the whole frame. The frames
// are already tiny (160x90) so windowed SSIM adds cost without detection
// value at this scale.
func globalSSIM(a, b []float64) float64 {
	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var varA, varB, cov float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		varA += da * da
		varB += db * db
		cov += da * db
	}
	varA /= n
	varB /= n
	cov /= n

	const (
		c1 = 6.5025  // (0.01*255)^2
		c2 = 58.5225 // (0.03*255)^2
	)
	num := (2*meanA*meanB + c1) * (2*cov + c2)
	den := (meanA*meanA + meanB*meanB + c1) * (varA + varB + c2)
	return num / den
}

// edgeDensity is the fraction of pixels whose horizontal or vertical
// luminance gradient exceeds a fixed threshold.
func edgeDensity(gray []float64, w, h int) float64 {
	if w < 2 || h < 2 {
		return 0
	}
	edges := 0
	for y := 0; y < h-1; y++ {
		row := y * w
		for x := 0; x < w-1; x++ {
			i := row + x
			gx := math.Abs(gray[i+1] - gray[i])
			gy := math.Abs(gray[i+w] - gray[i])
			if gx > edgeGradientThreshold || gy > edgeGradientThreshold {
				edges++
			}
		}
	}
	return float64(edges) / float64((w-1)*(h-1))
}
