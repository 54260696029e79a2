package analysis

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	xdraw "golang.org/x/image/draw"

	"titantron/internal/detect"
	"titantron/internal/detect/visual"
	"titantron/internal/media/frames"
	"titantron/internal/services"
	"titantron/internal/services/mediaserver"
	"titantron/internal/store"
)

// visualFromTrickplay runs the visual detector over the media server's
// pre-rendered trickplay thumbnails. Thumbnails are sparse (one every several
// seconds) so the comparer uses the dedicated thumbnail threshold and a wider
// merge window.
func (s *Service) visualFromTrickplay(ctx context.Context, video *store.Video, progress *progressSink) ([]detect.Detection, error) {
	if s.mediaServer == nil || !s.cfg.MediaServer.Enabled {
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "visual",
			"source file not readable and media server fallback disabled", nil)
	}
	if video.RemoteItemID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "analysis", "visual",
			fmt.Sprintf("video %d has no remote item id for thumbnail fallback", video.ID), nil)
	}

	item, err := s.mediaServer.ItemDetail(ctx, video.RemoteItemID)
	if err != nil {
		return nil, err
	}
	info, ok := bestTrickplay(item)
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "analysis", "visual",
			fmt.Sprintf("item %s has no trickplay thumbnails", video.RemoteItemID), nil)
	}

	progress.beginPhase(ctx, store.StatusRunningVisual, float64(info.IntervalMS)/1000, "comparing thumbnails")
	comparer := visual.New(s.visualConfig(s.cfg.Visual.ThumbnailThreshold))

	tilesPerSheet := info.TileWidth * info.TileHeight
	intervalTicks := int64(info.IntervalMS) * detect.TicksPerSecond / 1000

	thumbIndex := 0
	for sheet := 0; thumbIndex < info.ThumbnailCount; sheet++ {
		data, err := s.mediaServer.ThumbnailSheet(ctx, video.RemoteItemID, info.Width, sheet)
		if err != nil {
			return nil, err
		}
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode thumbnail sheet %d: %w", sheet, err)
		}

		for tile := 0; tile < tilesPerSheet && thumbIndex < info.ThumbnailCount; tile++ {
			col := tile % info.TileWidth
			row := tile / info.TileWidth
			src := image.Rect(
				col*info.Width, row*info.Height,
				(col+1)*info.Width, (row+1)*info.Height,
			)
			comparer.Push(s.frameFromTile(img, src, thumbIndex, int64(thumbIndex)*intervalTicks))
			thumbIndex++
			progress.step(ctx)
		}
	}

	return detect.Cluster(comparer.Detections(), s.visualPolicy(s.cfg.Analysis.ThumbMergeSeconds)), nil
}

// frameFromTile scales one trickplay tile down to the comparer geometry and
// flattens it to packed RGB.
func (s *Service) frameFromTile(sheet image.Image, src image.Rectangle, index int, ticks int64) frames.Frame {
	w, h := s.cfg.Visual.FrameWidth, s.cfg.Visual.FrameHeight
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), sheet, src, xdraw.Src, nil)

	rgb := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			offset := scaled.PixOffset(x, y)
			i := (y*w + x) * 3
			rgb[i] = scaled.Pix[offset]
			rgb[i+1] = scaled.Pix[offset+1]
			rgb[i+2] = scaled.Pix[offset+2]
		}
	}
	return frames.Frame{RGB: rgb, Index: index, TimestampTicks: ticks}
}

// bestTrickplay picks the highest-resolution thumbnail set across sources.
func bestTrickplay(item *mediaserver.Item) (mediaserver.TrickplayInfo, bool) {
	var best mediaserver.TrickplayInfo
	found := false
	for _, source := range item.Trickplay {
		for _, info := range source {
			if info.ThumbnailCount <= 0 || info.TileWidth <= 0 || info.TileHeight <= 0 {
				continue
			}
			if !found || info.Width > best.Width {
				best = info
				found = true
			}
		}
	}
	return best, found
}
