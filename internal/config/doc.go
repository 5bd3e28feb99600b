// Package config loads and validates the greenshift workflow configuration.
//
// A single YAML file carries the catalog connection, the STAC search window,
// the scene quality thresholds, the series extraction options and the output
// locations — the Go equivalent of the workshop's search/load/filter
// parameter files. Load applies defaults before validation so a minimal file
// (catalog URL, bbox, date range) is enough to run.
//
// Watch re-loads the file on change via fsnotify; a failed reload keeps the
// previous configuration active. Fingerprint hashes the raw file bytes so
// watchers can ignore events that did not change the content.
package config
