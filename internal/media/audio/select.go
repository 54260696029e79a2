package audio

import (
	"strings"

	"titantron/internal/media/ffprobe"
)

// Selection identifies the audio stream to decode for analysis.
type Selection struct {
	Stream ffprobe.Stream
	// Position is the zero-based index among audio streams, usable as
	// ffmpeg's "0:a:<n>" specifier. -1 when the container has no audio.
	Position int
}

// Found reports whether any audio stream was selected.
func (s Selection) Found() bool { return s.Position >= 0 }

// Select picks the program audio track. Preference order: the
// default-disposition track, then the track with the most channels, then
// container order. Commentary-titled tracks are avoided when an alternative
// exists.
func Select(streams []ffprobe.Stream) Selection {
	type candidate struct {
		stream     ffprobe.Stream
		position   int
		isDefault  bool
		commentary bool
	}

	var candidates []candidate
	position := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		candidates = append(candidates, candidate{
			stream:     stream,
			position:   position,
			isDefault:  stream.Disposition != nil && stream.Disposition["default"] == 1,
			commentary: isCommentary(stream),
		})
		position++
	}
	if len(candidates) == 0 {
		return Selection{Position: -1}
	}

	best := candidates[0]
	bestScore := score(best.isDefault, best.commentary, best.stream.Channels, best.position)
	for _, cand := range candidates[1:] {
		s := score(cand.isDefault, cand.commentary, cand.stream.Channels, cand.position)
		if s > bestScore {
			best = cand
			bestScore = s
		}
	}
	return Selection{Stream: best.stream, Position: best.position}
}

func score(isDefault, commentary bool, channels, position int) float64 {
	s := 0.0
	if isDefault {
		s += 100
	}
	if commentary {
		s -= 200
	}
	s += float64(channels) * 10
	// Earlier tracks win ties.
	s -= float64(position) * 0.1
	return s
}

func isCommentary(stream ffprobe.Stream) bool {
	if stream.Disposition != nil && stream.Disposition["comment"] == 1 {
		return true
	}
	if stream.Tags == nil {
		return false
	}
	for _, key := range []string{"title", "TITLE", "handler_name"} {
		if value, ok := stream.Tags[key]; ok && strings.Contains(strings.ToLower(value), "commentary") {
			return true
		}
	}
	return false
}
