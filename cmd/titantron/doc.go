// Command titantron is the CLI for the content-boundary analyzer. It manages
// the video catalog, runs single and batch analyses, inspects stored
// detections, and pushes chapter markers to the media server.
package main
