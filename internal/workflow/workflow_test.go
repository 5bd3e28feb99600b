package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/greenshift/greenshift/internal/config"
	"github.com/greenshift/greenshift/internal/series"
	"github.com/greenshift/greenshift/internal/stac"
)

// catalogServer serves a fixed item collection on /search.
func catalogServer(t *testing.T, items []stac.Item) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		col := stac.ItemCollection{Features: items, NumberMatched: len(items)}
		if err := json.NewEncoder(w).Encode(col); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
}

func testItem(day int, vegetation, nodata float64) stac.Item {
	return stac.Item{
		ID:   fmt.Sprintf("S2A_%02d", day),
		BBox: []float64{-122.6, 40.4, -121.9, 41.0},
		Properties: stac.Properties{
			Datetime:   fmt.Sprintf("2020-06-%02dT18:49:21Z", day),
			Vegetation: vegetation,
			NoData:     nodata,
		},
	}
}

func testConfig(t *testing.T, catalogURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Catalog: config.CatalogConfig{
			URL:        catalogURL,
			Collection: "sentinel-2-l2a",
			Timeout:    5 * time.Second,
			PageLimit:  100,
			MaxPages:   2,
		},
		Search: config.SearchConfig{
			BBox:                []float64{-122.6, 40.4, -121.9, 41.0},
			DateRange:           "2020-06-01/2020-06-30",
			CloudCoverThreshold: 20,
		},
		Filter:  config.FilterConfig{ValidityThreshold: 0.6, CoverageThreshold: 0.5},
		Extract: config.ExtractConfig{Value: config.ValuePercent, AggregateDaily: true},
		Output: config.OutputConfig{
			Directory:   dir,
			SeriesFile:  "series.csv",
			MetricsFile: "run.prom",
		},
	}
}

func TestRun_DetectsRegimeShift(t *testing.T) {
	// Four low-vegetation scenes, then four high ones, plus one scene that
	// the validity filter must drop.
	items := []stac.Item{
		testItem(1, 20, 0),
		testItem(4, 21, 0),
		testItem(7, 20, 0),
		testItem(10, 21, 0),
		testItem(13, 60, 0),
		testItem(16, 61, 0),
		testItem(19, 60, 0),
		testItem(22, 61, 0),
		testItem(25, 99, 80), // mostly nodata — filtered out
	}
	srv := catalogServer(t, items)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	now := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.ScenesMatched != 9 {
		t.Errorf("ScenesMatched = %d, want 9", res.ScenesMatched)
	}
	if res.ScenesKept != 8 {
		t.Errorf("ScenesKept = %d, want 8", res.ScenesKept)
	}
	if len(res.Series.Points) != 8 {
		t.Fatalf("series points = %d, want 8", len(res.Series.Points))
	}

	if res.Detection == nil {
		t.Fatalf("Detection = nil (skipped: %q)", res.DetectionSkipped)
	}
	if res.Detection.Split.Index != 4 {
		t.Errorf("Split.Index = %d, want 4", res.Detection.Split.Index)
	}
	if !res.Detection.Shift {
		t.Error("Shift = false, want true")
	}

	// Outputs must exist and the CSV must round-trip to the same series.
	wrote, err := os.Open(res.SeriesPath)
	if err != nil {
		t.Fatalf("open series output: %v", err)
	}
	defer wrote.Close()
	got, err := series.ReadCSV(wrote)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got.Points) != 8 {
		t.Errorf("csv points = %d, want 8", len(got.Points))
	}

	if res.MetricsPath != filepath.Join(cfg.Output.Directory, "run.prom") {
		t.Errorf("MetricsPath = %q", res.MetricsPath)
	}
	if _, err := os.Stat(res.MetricsPath); err != nil {
		t.Errorf("metrics file: %v", err)
	}
}

func TestRun_SkipsDetectionOnShortSeries(t *testing.T) {
	items := []stac.Item{
		testItem(1, 20, 0),
		testItem(11, 25, 0),
		testItem(21, 30, 0),
	}
	srv := catalogServer(t, items)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Detection != nil {
		t.Error("Detection non-nil for a 3-point series")
	}
	if res.DetectionSkipped == "" {
		t.Error("DetectionSkipped empty, want a reason")
	}
	// The series CSV is still written — a short series is data, not an error.
	if _, err := os.Stat(res.SeriesPath); err != nil {
		t.Errorf("series file: %v", err)
	}
}

func TestRun_SkipsDetectionOnConstantSeries(t *testing.T) {
	items := []stac.Item{
		testItem(1, 50, 0),
		testItem(8, 50, 0),
		testItem(15, 50, 0),
		testItem(22, 50, 0),
	}
	srv := catalogServer(t, items)
	defer srv.Close()

	r, err := New(testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Detection != nil {
		t.Error("Detection non-nil for a constant series")
	}
	if res.DetectionSkipped == "" {
		t.Error("DetectionSkipped empty, want a reason")
	}
}

func TestRun_SearchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r, err := New(testConfig(t, srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := r.Run(context.Background()); err == nil {
		t.Fatal("expected error when catalog returns 500, got nil")
	}
}
