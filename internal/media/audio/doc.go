// Package audio chooses which audio stream the PCM extractor decodes. Ring
// bells and entrance music live on the program feed, so selection favors the
// default-flagged track and falls back to channel count and container order.
package audio
