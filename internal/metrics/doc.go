// Package metrics writes a run summary in Prometheus exposition text format,
// following the node-exporter textfile collector convention: a batch job
// drops a .prom file and a collector scrapes it later.
//
// The file is written atomically (temp file + rename) so a collector never
// observes a half-written summary.
package metrics
