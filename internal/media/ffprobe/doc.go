// Package ffprobe shells out to ffprobe and decodes its JSON report. The
// analyzer uses it to validate inputs, estimate total work from the container
// duration, and pick the audio stream to extract.
package ffprobe
