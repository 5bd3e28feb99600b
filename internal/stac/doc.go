// Package stac is a minimal client for the STAC API item search endpoint.
//
// It covers exactly what the vegetation workflow needs: a POST /search with
// collection, bbox, datetime interval and an eo:cloud_cover upper bound,
// following rel="next" pagination links until the result set or the page
// budget is exhausted. Item properties are limited to the Sentinel-2 L2A
// fields consumed downstream (cloud cover, nodata, cloud shadow, snow/ice and
// vegetation percentages).
//
// The HTTP client is built once per catalog configuration; API-key and bearer
// authentication are injected by a RoundTripper so call sites stay plain.
package stac
