package quality

import (
	"log/slog"
	"time"

	"github.com/greenshift/greenshift/internal/stac"
)

// Scene is the per-acquisition quality summary derived from item metadata.
type Scene struct {
	ItemID string
	Date   time.Time

	// ValidRatio is the fraction of pixels that carry data (1 - nodata), 0-1.
	ValidRatio float64

	// Coverage is the fraction of the scene that is valid and clear of
	// clouds, cloud shadow and snow, 0-1.
	Coverage float64

	// CloudCover is the scene cloud cover percentage, 0-100.
	CloudCover float64

	// Vegetation is the vegetation-classified percentage, 0-100.
	Vegetation float64

	// BBox is the scene footprint, carried through for area conversion.
	BBox []float64
}

// Assess derives a quality summary per item. Items whose datetime cannot be
// parsed are skipped with a warning — a scene without a timestamp cannot be
// placed on the series anyway.
func Assess(items []stac.Item) []Scene {
	scenes := make([]Scene, 0, len(items))
	for _, it := range items {
		ts, err := it.Properties.Time()
		if err != nil {
			slog.Warn("quality: skipping item with unparseable datetime",
				"item", it.ID, "datetime", it.Properties.Datetime, "err", err)
			continue
		}

		valid := clamp01(1 - it.Properties.NoData/100)
		obscured := it.Properties.CloudCover + it.Properties.CloudShadow + it.Properties.SnowIce
		coverage := valid * clamp01(1-obscured/100)

		scenes = append(scenes, Scene{
			ItemID:     it.ID,
			Date:       ts,
			ValidRatio: valid,
			Coverage:   coverage,
			CloudCover: it.Properties.CloudCover,
			Vegetation: it.Properties.Vegetation,
			BBox:       it.BBox,
		})
	}
	return scenes
}

// Filter keeps scenes that meet both the validity and coverage thresholds.
func Filter(scenes []Scene, validityThreshold, coverageThreshold float64) []Scene {
	kept := make([]Scene, 0, len(scenes))
	for _, sc := range scenes {
		if sc.ValidRatio < validityThreshold {
			slog.Debug("quality: dropping scene below validity threshold",
				"item", sc.ItemID, "valid_ratio", sc.ValidRatio)
			continue
		}
		if sc.Coverage < coverageThreshold {
			slog.Debug("quality: dropping scene below coverage threshold",
				"item", sc.ItemID, "coverage", sc.Coverage)
			continue
		}
		kept = append(kept, sc)
	}
	slog.Info("quality: filtered scenes",
		"total", len(scenes), "kept", len(kept), "dropped", len(scenes)-len(kept))
	return kept
}

// clamp01 restricts v to the range [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
