package pipeline

import (
	"time"

	"git.home.luguber.info/inful/fundsite/internal/metrics"
)

// BuildObserver receives callbacks around stage execution and build lifecycle.
type BuildObserver interface {
	OnStageStart(stage StageName)
	OnStageComplete(stage StageName, duration time.Duration, result StageResult)
	OnBuildComplete(report *BuildReport)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnStageStart(_ StageName)                                    {}
func (NoopObserver) OnStageComplete(_ StageName, _ time.Duration, _ StageResult) {}
func (NoopObserver) OnBuildComplete(_ *BuildReport)                              {}

// RecorderObserver adapts metrics.Recorder into a BuildObserver.
type RecorderObserver struct{ Recorder metrics.Recorder }

func (r RecorderObserver) OnStageStart(_ StageName) {}

func (r RecorderObserver) OnStageComplete(stage StageName, d time.Duration, _ StageResult) {
	if r.Recorder != nil {
		r.Recorder.ObserveStageDuration(string(stage), d)
	}
}

func (r RecorderObserver) OnBuildComplete(report *BuildReport) {
	if r.Recorder == nil {
		return
	}
	r.Recorder.ObserveBuildDuration(report.End.Sub(report.Start))
	r.Recorder.IncBuildOutcome(string(report.Outcome))
	type key struct{ source, severity string }
	counts := make(map[key]int)
	for _, is := range report.Issues {
		counts[key{is.Source, string(is.Severity)}]++
	}
	for k, n := range counts {
		r.Recorder.AddIssues(k.source, k.severity, n)
	}
	r.Recorder.SetSitemap(report.SitemapURLs, report.SitemapFiles)
}
