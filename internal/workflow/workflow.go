package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/greenshift/greenshift/internal/changepoint"
	"github.com/greenshift/greenshift/internal/config"
	"github.com/greenshift/greenshift/internal/metrics"
	"github.com/greenshift/greenshift/internal/quality"
	"github.com/greenshift/greenshift/internal/series"
	"github.com/greenshift/greenshift/internal/stac"
)

// Runner executes the pipeline for one configuration.
type Runner struct {
	cfg    *config.Config
	client *stac.Client
	now    func() time.Time // injectable for deterministic tests
}

// Result summarises one pipeline run.
type Result struct {
	ScenesMatched int
	ScenesKept    int
	Series        series.Series

	// Detection is nil when the extracted series could not be scored;
	// DetectionSkipped then carries the reason.
	Detection        *changepoint.Detection
	DetectionSkipped string

	SeriesPath  string
	MetricsPath string
	Duration    time.Duration
}

// New builds a Runner from the given configuration.
func New(cfg *config.Config) (*Runner, error) {
	client, err := stac.New(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("workflow: %w", err)
	}
	return &Runner{cfg: cfg, client: client, now: time.Now}, nil
}

// Search performs only the catalog search step. Used by the search command.
func (r *Runner) Search(ctx context.Context) ([]stac.Item, error) {
	req := searchRequest(r.cfg)
	slog.Info("workflow: searching catalog",
		"collection", r.cfg.Catalog.Collection,
		"bbox", r.cfg.Search.BBox,
		"datetime", r.cfg.Search.DateRange,
		"cloud_cover_lt", r.cfg.Search.CloudCoverThreshold,
	)
	items, err := r.client.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("workflow: search: %w", err)
	}
	return items, nil
}

// Run executes the full pipeline and writes the configured outputs.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := r.now()

	items, err := r.Search(ctx)
	if err != nil {
		return nil, err
	}

	scenes := quality.Assess(items)
	kept := quality.Filter(scenes, r.cfg.Filter.ValidityThreshold, r.cfg.Filter.CoverageThreshold)

	s := series.FromScenes(kept, series.Options{
		Area:           r.cfg.Extract.Value == config.ValueArea,
		AggregateDaily: r.cfg.Extract.AggregateDaily,
	})
	slog.Info("workflow: extracted series", "points", len(s.Points), "unit", s.Unit)

	res := &Result{
		ScenesMatched: len(items),
		ScenesKept:    len(kept),
		Series:        s,
	}

	det, err := changepoint.Detect(s.Values())
	switch {
	case err == nil:
		res.Detection = &det
		slog.Info("workflow: change-point detection",
			"index", det.Split.Index,
			"split_bic", det.Split.Score,
			"baseline_bic", det.Baseline,
			"shift", det.Shift,
		)
	case errors.Is(err, changepoint.ErrInsufficientData),
		errors.Is(err, changepoint.ErrDegenerateInput):
		res.DetectionSkipped = err.Error()
		slog.Warn("workflow: detection skipped", "reason", err)
	default:
		return nil, fmt.Errorf("workflow: detect: %w", err)
	}

	res.Duration = r.now().Sub(started)
	if err := r.writeOutputs(res); err != nil {
		return nil, err
	}

	slog.Info("workflow: run complete",
		"matched", res.ScenesMatched,
		"kept", res.ScenesKept,
		"duration", res.Duration,
	)
	return res, nil
}

// writeOutputs writes the series CSV and, when configured, the metrics textfile.
func (r *Runner) writeOutputs(res *Result) error {
	out := r.cfg.Output
	if err := os.MkdirAll(out.Directory, 0o755); err != nil {
		return fmt.Errorf("workflow: create output dir: %w", err)
	}

	seriesPath := filepath.Join(out.Directory, out.SeriesFile)
	f, err := os.Create(seriesPath)
	if err != nil {
		return fmt.Errorf("workflow: create series file: %w", err)
	}
	if err := series.WriteCSV(f, res.Series); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("workflow: close series file: %w", err)
	}
	res.SeriesPath = seriesPath
	slog.Info("workflow: wrote series", "path", seriesPath)

	if out.MetricsFile == "" {
		return nil
	}
	sum := metrics.Summary{
		ScenesMatched: res.ScenesMatched,
		ScenesKept:    res.ScenesKept,
		SeriesPoints:  len(res.Series.Points),
		Duration:      res.Duration,
	}
	if res.Detection != nil {
		sum.HasDetection = true
		sum.ChangeIndex = res.Detection.Split.Index
		sum.SplitScore = res.Detection.Split.Score
		sum.BaselineScore = res.Detection.Baseline
		sum.Shift = res.Detection.Shift
	}
	metricsPath := filepath.Join(out.Directory, out.MetricsFile)
	if err := metrics.WriteTextfile(metricsPath, sum); err != nil {
		return err
	}
	res.MetricsPath = metricsPath
	slog.Info("workflow: wrote metrics", "path", metricsPath)
	return nil
}

// searchRequest maps the configuration onto a STAC search body.
func searchRequest(cfg *config.Config) stac.SearchRequest {
	lt := cfg.Search.CloudCoverThreshold
	return stac.SearchRequest{
		Collections: []string{cfg.Catalog.Collection},
		BBox:        cfg.Search.BBox,
		Datetime:    cfg.Search.DateRange,
		Query:       map[string]stac.Range{"eo:cloud_cover": {LT: &lt}},
		Limit:       cfg.Catalog.PageLimit,
	}
}
