package mediaserver

import (
	"fmt"

	"titantron/internal/detect"
)

var chapterNames = map[detect.Kind]string{
	detect.KindBell:           "Bell",
	detect.KindMusicStart:     "Entrance",
	detect.KindSceneChange:    "Segment",
	detect.KindDarkFrame:      "Fade",
	detect.KindGraphicsChange: "Graphic",
}

// BuildChapters converts final detections into ordered chapter markers. Each
// kind gets its own numbering so viewers can tell entrances from segment
// boundaries.
func BuildChapters(detections []detect.Detection) []Chapter {
	sorted := make([]detect.Detection, len(detections))
	copy(sorted, detections)
	detect.SortByTimestamp(sorted)

	counts := make(map[detect.Kind]int, len(chapterNames))
	chapters := make([]Chapter, 0, len(sorted))
	for _, d := range sorted {
		name, ok := chapterNames[d.Kind]
		if !ok {
			name = "Marker"
		}
		counts[d.Kind]++
		chapters = append(chapters, Chapter{
			StartPositionTicks: d.TimestampTicks,
			Name:               fmt.Sprintf("%s %d", name, counts[d.Kind]),
		})
	}
	return chapters
}
