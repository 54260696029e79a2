// Package detect defines the detection value types shared by every detector
// and the clustering pass that merges near-duplicate detections into single
// confidence-boosted events.
package detect
