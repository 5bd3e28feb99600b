package changepoint

import (
	"errors"
	"fmt"
	"math"
)

// MinLen is the shortest series the scorer accepts. Four points is the
// minimum that lets both segments of at least one candidate split hold two
// points each; below that a single-point segment's zero variance would
// trivially dominate every comparison.
const MinLen = 4

// Model parameter counts used in the complexity penalty.
const (
	splitParams   = 3 // two segment means + one shared variance
	noSplitParams = 2 // one mean + one variance
)

// Sentinel errors. Callers branch with errors.Is.
var (
	// ErrInvalidSplit reports a candidate split index outside [1, n-1].
	ErrInvalidSplit = errors.New("split index out of range")

	// ErrInsufficientData reports a series shorter than MinLen.
	ErrInsufficientData = errors.New("series too short")

	// ErrDegenerateInput reports a zero total residual sum of squares:
	// both segments are constant and ln(0) is undefined.
	ErrDegenerateInput = errors.New("zero residual variance")
)

// Split is a candidate change point together with its BIC score.
type Split struct {
	// Index partitions the series into [0, Index) and [Index, n).
	Index int

	// Score is the two-segment BIC at Index. Lower is better.
	Score float64
}

// Detection is the outcome of comparing the best split against the
// single-segment baseline.
type Detection struct {
	Split Split

	// Baseline is the no-split BIC (k = 2) over the whole series.
	Baseline float64

	// Shift is true when the best split scores strictly below the baseline,
	// i.e. the two-regime model is preferred.
	Shift bool
}

// Score returns the two-segment BIC for splitting values at cp.
//
// The series is partitioned into values[:cp] and values[cp:], each segment
// fitted by its own mean, and the score is
//
//	n·ln(rss/n) + 3·ln(n)
//
// where rss is the pooled residual sum of squares. Returns ErrInvalidSplit
// when cp is outside [1, n-1], ErrInsufficientData when n < MinLen and
// ErrDegenerateInput when rss is exactly zero.
func Score(values []float64, cp int) (float64, error) {
	n := len(values)
	if n < MinLen {
		return 0, fmt.Errorf("changepoint: %d points, need %d: %w", n, MinLen, ErrInsufficientData)
	}
	if cp < 1 || cp > n-1 {
		return 0, fmt.Errorf("changepoint: split %d outside [1, %d]: %w", cp, n-1, ErrInvalidSplit)
	}

	rss := segmentRSS(values[:cp]) + segmentRSS(values[cp:])
	if rss == 0 {
		return 0, fmt.Errorf("changepoint: split %d: %w", cp, ErrDegenerateInput)
	}
	return bic(rss, n, splitParams), nil
}

// NoSplitScore returns the single-segment baseline BIC (k = 2) for the whole
// series. Same guards as Score: a constant series yields ErrDegenerateInput.
func NoSplitScore(values []float64) (float64, error) {
	n := len(values)
	if n < MinLen {
		return 0, fmt.Errorf("changepoint: %d points, need %d: %w", n, MinLen, ErrInsufficientData)
	}
	rss := segmentRSS(values)
	if rss == 0 {
		return 0, fmt.Errorf("changepoint: constant series: %w", ErrDegenerateInput)
	}
	return bic(rss, n, noSplitParams), nil
}

// BestSplit scans every candidate split in [1, n-1] and returns the one with
// the minimal score. Ties resolve to the smallest index: the scan is
// ascending and only a strictly lower score replaces the current best.
//
// A candidate with zero pooled residual would trivially dominate any finite
// score, so the first such candidate surfaces ErrDegenerateInput instead of
// a result.
func BestSplit(values []float64) (Split, error) {
	n := len(values)
	if n < MinLen {
		return Split{}, fmt.Errorf("changepoint: %d points, need %d: %w", n, MinLen, ErrInsufficientData)
	}

	best := Split{Index: -1, Score: math.Inf(1)}
	for cp := 1; cp <= n-1; cp++ {
		s, err := Score(values, cp)
		if err != nil {
			return Split{}, err
		}
		if s < best.Score {
			best = Split{Index: cp, Score: s}
		}
	}
	return best, nil
}

// Detect runs BestSplit and compares it against the no-split baseline,
// answering whether a single change point is justified at all.
func Detect(values []float64) (Detection, error) {
	split, err := BestSplit(values)
	if err != nil {
		return Detection{}, err
	}
	baseline, err := NoSplitScore(values)
	if err != nil {
		return Detection{}, err
	}
	return Detection{
		Split:    split,
		Baseline: baseline,
		Shift:    split.Score < baseline,
	}, nil
}

// bic is the shared fit-versus-complexity formula.
func bic(rss float64, n, k int) float64 {
	nf := float64(n)
	return nf*math.Log(rss/nf) + float64(k)*math.Log(nf)
}

// segmentRSS returns the residual sum of squares of values around their mean.
func segmentRSS(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var rss float64
	for _, v := range values {
		d := v - mean
		rss += d * d
	}
	return rss
}
