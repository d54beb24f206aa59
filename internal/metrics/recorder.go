package metrics

import "time"

// ResultLabel enumerates pass result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
	ResultSkipped  ResultLabel = "skipped"
)

// Recorder defines observability hooks for build and pass metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder so injection stays optional.
type Recorder interface {
	ObservePassDuration(tool string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncPassResult(tool string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	ObserveTemplateFetchDuration(source string, d time.Duration, success bool)
	IncTemplateFetch(success bool)
	SetWatchedPaths(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePassDuration(string, time.Duration)                {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                       {}
func (NoopRecorder) IncPassResult(string, ResultLabel)                        {}
func (NoopRecorder) IncBuildOutcome(string)                                   {}
func (NoopRecorder) ObserveTemplateFetchDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncTemplateFetch(bool)                                    {}
func (NoopRecorder) SetWatchedPaths(int)                                      {}
