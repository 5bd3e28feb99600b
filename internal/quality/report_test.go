package quality

import (
	"math"
	"testing"

	"github.com/greenshift/greenshift/internal/stac"
)

func item(id, datetime string, nodata, cloud, shadow float64) stac.Item {
	return stac.Item{
		ID: id,
		Properties: stac.Properties{
			Datetime:    datetime,
			NoData:      nodata,
			CloudCover:  cloud,
			CloudShadow: shadow,
		},
	}
}

func TestAssess_Ratios(t *testing.T) {
	items := []stac.Item{
		item("clean", "2020-06-03T18:49:21Z", 0, 0, 0),
		item("half-nodata", "2020-06-13T18:49:21Z", 50, 0, 0),
		item("cloudy", "2020-06-23T18:49:21Z", 10, 40, 10),
	}

	scenes := Assess(items)
	if len(scenes) != 3 {
		t.Fatalf("scenes: got %d, want 3", len(scenes))
	}

	tests := []struct {
		idx          int
		wantValid    float64
		wantCoverage float64
	}{
		{0, 1.0, 1.0},
		{1, 0.5, 0.5},
		// valid 0.9, clear 1-(40+10)/100 = 0.5 → coverage 0.45
		{2, 0.9, 0.45},
	}
	for _, tc := range tests {
		sc := scenes[tc.idx]
		if math.Abs(sc.ValidRatio-tc.wantValid) > 1e-12 {
			t.Errorf("%s: ValidRatio = %v, want %v", sc.ItemID, sc.ValidRatio, tc.wantValid)
		}
		if math.Abs(sc.Coverage-tc.wantCoverage) > 1e-12 {
			t.Errorf("%s: Coverage = %v, want %v", sc.ItemID, sc.Coverage, tc.wantCoverage)
		}
	}
}

func TestAssess_SkipsUnparseableDatetime(t *testing.T) {
	items := []stac.Item{
		item("good", "2020-06-03T18:49:21Z", 0, 0, 0),
		item("bad", "not-a-timestamp", 0, 0, 0),
	}
	scenes := Assess(items)
	if len(scenes) != 1 {
		t.Fatalf("scenes: got %d, want 1", len(scenes))
	}
	if scenes[0].ItemID != "good" {
		t.Errorf("kept scene: got %q, want %q", scenes[0].ItemID, "good")
	}
}

func TestAssess_ClampsExtremeValues(t *testing.T) {
	// Obscured percentages can sum past 100; coverage must not go negative.
	scenes := Assess([]stac.Item{item("overcast", "2020-07-01T00:00:00Z", 0, 90, 30)})
	if len(scenes) != 1 {
		t.Fatalf("scenes: got %d, want 1", len(scenes))
	}
	if scenes[0].Coverage != 0 {
		t.Errorf("Coverage = %v, want 0 (clamped)", scenes[0].Coverage)
	}
}

func TestFilter_Thresholds(t *testing.T) {
	scenes := []Scene{
		{ItemID: "keep", ValidRatio: 0.95, Coverage: 0.9},
		{ItemID: "low-validity", ValidRatio: 0.4, Coverage: 0.9},
		{ItemID: "low-coverage", ValidRatio: 0.95, Coverage: 0.3},
		{ItemID: "boundary", ValidRatio: 0.6, Coverage: 0.8},
	}

	kept := Filter(scenes, 0.6, 0.8)
	if len(kept) != 2 {
		t.Fatalf("kept: got %d, want 2", len(kept))
	}
	if kept[0].ItemID != "keep" || kept[1].ItemID != "boundary" {
		t.Errorf("kept scenes: got %q, %q", kept[0].ItemID, kept[1].ItemID)
	}
}

func TestFilter_Empty(t *testing.T) {
	if kept := Filter(nil, 0.6, 0.8); len(kept) != 0 {
		t.Errorf("kept: got %d, want 0", len(kept))
	}
}
