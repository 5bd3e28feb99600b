// Package quality assesses Sentinel-2 scene usability from STAC item
// metadata and filters out scenes that would distort the vegetation series.
//
// Two ratios are derived per scene, mirroring the workshop's SCL-based
// quality report: ValidRatio is the fraction of pixels carrying data at all,
// and Coverage is the fraction of the scene that is both valid and clear
// (not cloud, cloud shadow or snow). Filter keeps a scene only when both
// ratios meet their configured thresholds.
package quality
