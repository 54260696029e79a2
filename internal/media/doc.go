// Package media wraps the ffmpeg/ffprobe subprocess plumbing shared by the
// audio and frame extractors.
package media
