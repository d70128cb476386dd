// Package metrics records build, stage, page and sitemap metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics
// collection never requires nil checks at call sites. When a textfile path
// is configured the CLI swaps in a PrometheusRecorder and writes the
// registry to disk at the end of the build for the node_exporter textfile
// collector.
package metrics
