// Package series builds the vegetation time series the change-point detector
// consumes.
//
// FromScenes turns quality-filtered scenes into dated observations — either
// the vegetation percentage as reported by the catalog, or an absolute area
// in km² using an equirectangular approximation of the scene footprint.
// Scenes sharing a calendar date are optionally averaged, matching the
// workshop's daily aggregation.
//
// The CSV form (date,value header plus RFC 3339 dates) is the toolkit's file
// surface: pipeline runs write it and the detect command reads it back.
package series
