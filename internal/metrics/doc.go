// Package metrics provides observability hooks for build, pass, template,
// and watch metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics stay optional and the hot path carries no nil
// checks. PrometheusRecorder is wired in by the watch-mode status server when
// metrics are enabled in the global configuration.
package metrics
