package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Summary is the per-run measurement set written to the textfile.
type Summary struct {
	ScenesMatched int
	ScenesKept    int
	SeriesPoints  int
	Duration      time.Duration

	// HasDetection is false when the series was too short or degenerate;
	// the change-point gauges are omitted in that case.
	HasDetection  bool
	ChangeIndex   int
	SplitScore    float64
	BaselineScore float64
	Shift         bool
}

// WriteTextfile writes the summary to path in Prometheus text format,
// atomically via a temp file in the same directory.
func WriteTextfile(path string, s Summary) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("metrics: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families(s) {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metrics: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("metrics: rename into place: %w", err)
	}
	return nil
}

// families converts the summary into gauge metric families.
func families(s Summary) []*dto.MetricFamily {
	out := []*dto.MetricFamily{
		gauge("greenshift_scenes_matched", "Scenes returned by the STAC search.", float64(s.ScenesMatched)),
		gauge("greenshift_scenes_kept", "Scenes remaining after quality filtering.", float64(s.ScenesKept)),
		gauge("greenshift_series_points", "Observations in the extracted vegetation series.", float64(s.SeriesPoints)),
		gauge("greenshift_run_duration_seconds", "Wall-clock duration of the workflow run.", s.Duration.Seconds()),
	}
	if s.HasDetection {
		shift := 0.0
		if s.Shift {
			shift = 1
		}
		out = append(out,
			gauge("greenshift_change_point_index", "Best split index in the vegetation series.", float64(s.ChangeIndex)),
			gauge("greenshift_change_point_bic", "Two-segment BIC at the best split.", s.SplitScore),
			gauge("greenshift_no_split_bic", "Single-segment baseline BIC.", s.BaselineScore),
			gauge("greenshift_shift_detected", "1 when the split model beats the no-split baseline.", shift),
		)
	}
	return out
}

// gauge builds a single-sample gauge family.
func gauge(name, help string, value float64) *dto.MetricFamily {
	typ := dto.MetricType_GAUGE
	return &dto.MetricFamily{
		Name: &name,
		Help: &help,
		Type: &typ,
		Metric: []*dto.Metric{
			{Gauge: &dto.Gauge{Value: &value}},
		},
	}
}
