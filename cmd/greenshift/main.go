// Package main provides the CLI entrypoint for greenshift.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greenshift/greenshift/internal/changepoint"
	"github.com/greenshift/greenshift/internal/config"
	"github.com/greenshift/greenshift/internal/series"
	"github.com/greenshift/greenshift/internal/workflow"
)

var (
	configPath  string
	verbose     bool
	detectInput string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "greenshift",
		Short:         "Sentinel-2 vegetation monitoring and regime-shift detection",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "greenshift.yaml", "path to the workflow config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd(), newSearchCmd(), newDetectCmd(), newWatchCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute the full workflow: search, filter, extract, detect",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			runner, err := newRunner()
			if err != nil {
				return err
			}
			res, err := runner.Run(ctx)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search",
		Short: "Search the STAC catalog and print matched scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			runner, err := newRunner()
			if err != nil {
				return err
			}
			items, err := runner.Search(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "matched %d scenes\n", len(items))
			for _, it := range items {
				fmt.Fprintf(w, "%-40s  %s  cloud %5.1f%%  vegetation %5.1f%%\n",
					it.ID, it.Properties.Datetime,
					it.Properties.CloudCover, it.Properties.Vegetation)
			}
			return nil
		},
	}
}

func newDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run change-point detection over a series CSV",
		Long: "Reads a date,value CSV (as written by `greenshift run`), finds the\n" +
			"best single split by BIC and compares it against the no-split baseline.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if detectInput != "" && detectInput != "-" {
				f, err := os.Open(detectInput)
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			s, err := series.ReadCSV(in)
			if err != nil {
				return err
			}

			det, err := changepoint.Detect(s.Values())
			if err != nil {
				switch {
				case errors.Is(err, changepoint.ErrInsufficientData):
					return fmt.Errorf("series has %d points, need at least %d", len(s.Points), changepoint.MinLen)
				case errors.Is(err, changepoint.ErrDegenerateInput):
					return fmt.Errorf("series has no residual variance around the best split — nothing to score")
				default:
					return err
				}
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "points:        %d\n", len(s.Points))
			fmt.Fprintf(w, "change point:  index %d", det.Split.Index)
			if det.Split.Index < len(s.Points) {
				fmt.Fprintf(w, " (%s)", s.Points[det.Split.Index].Date.Format(series.DateLayout))
			}
			fmt.Fprintln(w)
			fmt.Fprintf(w, "split BIC:     %.6f\n", det.Split.Score)
			fmt.Fprintf(w, "baseline BIC:  %.6f\n", det.Baseline)
			fmt.Fprintf(w, "shift:         %v\n", det.Shift)
			return nil
		},
	}
	cmd.Flags().StringVarP(&detectInput, "input", "i", "", "series CSV path (default: stdin)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the workflow, then re-run whenever the config file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			runner, err := newRunner()
			if err != nil {
				return err
			}
			if res, err := runner.Run(ctx); err != nil {
				slog.Error("watch: initial run failed", "err", err)
			} else {
				printResult(cmd.OutOrStdout(), res)
			}

			return config.Watch(ctx, configPath, func(cfg *config.Config) {
				r, err := workflow.New(cfg)
				if err != nil {
					slog.Error("watch: rebuild failed — keeping previous runner", "err", err)
					return
				}
				res, err := r.Run(ctx)
				if err != nil {
					slog.Error("watch: run failed", "err", err)
					return
				}
				printResult(cmd.OutOrStdout(), res)
			})
		},
	}
}

// newRunner loads the config file and builds a workflow runner from it.
func newRunner() (*workflow.Runner, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return workflow.New(cfg)
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// printResult writes the human-readable run summary.
func printResult(w io.Writer, res *workflow.Result) {
	fmt.Fprintf(w, "scenes:   %d matched, %d kept\n", res.ScenesMatched, res.ScenesKept)
	fmt.Fprintf(w, "series:   %s → %s\n", res.Series.String(), res.SeriesPath)
	switch {
	case res.Detection != nil && res.Detection.Shift:
		date := ""
		if res.Detection.Split.Index < len(res.Series.Points) {
			date = " (" + res.Series.Points[res.Detection.Split.Index].Date.Format(series.DateLayout) + ")"
		}
		fmt.Fprintf(w, "shift:    detected at index %d%s — split BIC %.4f vs baseline %.4f\n",
			res.Detection.Split.Index, date, res.Detection.Split.Score, res.Detection.Baseline)
	case res.Detection != nil:
		fmt.Fprintf(w, "shift:    none — best split BIC %.4f does not beat baseline %.4f\n",
			res.Detection.Split.Score, res.Detection.Baseline)
	default:
		fmt.Fprintf(w, "shift:    not evaluated — %s\n", res.DetectionSkipped)
	}
	if res.MetricsPath != "" {
		fmt.Fprintf(w, "metrics:  %s\n", res.MetricsPath)
	}
}
