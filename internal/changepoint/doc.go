// Package changepoint locates a single mean-shift in a numeric time series
// using a Bayesian Information Criterion (BIC) comparison.
//
// score.go provides the pure Score function: given a series and a candidate
// split index it fits one mean per segment under a shared-variance assumption
// and returns n·ln(rss/n) + k·ln(n) with k = 3 (two means, one variance).
// Lower is better. BestSplit scans every candidate split and returns the
// lowest-index minimiser.
//
// BestSplit deliberately does not compare against the no-split model; callers
// that need to decide whether any split is justified use NoSplitScore (k = 2)
// or the Detect convenience, which performs that comparison.
//
// All functions are deterministic and allocation-free on the happy path.
package changepoint
