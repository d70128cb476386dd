package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for build, stage, page and sitemap
// metrics. All methods must be safe to call on the NoopRecorder.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	ObservePageRender(kind string, d time.Duration, success bool)
	AddIssues(source, severity string, n int)
	SetSitemap(urls, files int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)    {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncStageResult(string, ResultLabel)            {}
func (NoopRecorder) IncBuildOutcome(string)                        {}
func (NoopRecorder) ObservePageRender(string, time.Duration, bool) {}
func (NoopRecorder) AddIssues(string, string, int)                 {}
func (NoopRecorder) SetSitemap(int, int)                           {}
