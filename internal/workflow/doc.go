// Package workflow runs the end-to-end vegetation monitoring pipeline:
// STAC search, scene quality assessment and filtering, vegetation series
// extraction, change-point detection, and output writing.
//
// Each run is a single pass — there is no scheduler. Detection failures that
// are properties of the data (series too short, zero residual variance) are
// reported on the Result rather than aborting the run, since a thin or flat
// series is a legitimate workshop outcome.
package workflow
