package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	stageResults  *prom.CounterVec
	buildOutcome  *prom.CounterVec
	pageRender    *prom.HistogramVec
	pageResults   *prom.CounterVec
	issues        *prom.CounterVec
	sitemapURLs   prom.Gauge
	sitemapFiles  prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "fundsite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "fundsite",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fundsite",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fundsite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pageRender = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "fundsite",
			Name:      "page_render_duration_seconds",
			Help:      "Duration of rendering and writing one page",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"kind"})
		pr.pageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fundsite",
			Name:      "pages_total",
			Help:      "Rendered pages by kind and result",
		}, []string{"kind", "result"})
		pr.issues = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fundsite",
			Name:      "issues_total",
			Help:      "Validation and stage issues by source and severity",
		}, []string{"source", "severity"})
		pr.sitemapURLs = prom.NewGauge(prom.GaugeOpts{
			Namespace: "fundsite",
			Name:      "sitemap_urls",
			Help:      "URLs in the last generated sitemap set",
		})
		pr.sitemapFiles = prom.NewGauge(prom.GaugeOpts{
			Namespace: "fundsite",
			Name:      "sitemap_files",
			Help:      "URL set files in the last generated sitemap set",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome,
			pr.pageRender, pr.pageResults, pr.issues, pr.sitemapURLs, pr.sitemapFiles)
	})
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes the current metric values in the text exposition
// format for the node_exporter textfile collector. The write is atomic.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}
func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}
func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) ObservePageRender(kind string, d time.Duration, success bool) {
	if p == nil || p.pageRender == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
		p.pageRender.WithLabelValues(kind).Observe(d.Seconds())
	}
	p.pageResults.WithLabelValues(kind, res).Inc()
}

func (p *PrometheusRecorder) AddIssues(source, severity string, n int) {
	if p == nil || p.issues == nil || n <= 0 {
		return
	}
	p.issues.WithLabelValues(source, severity).Add(float64(n))
}

func (p *PrometheusRecorder) SetSitemap(urls, files int) {
	if p == nil || p.sitemapURLs == nil {
		return
	}
	p.sitemapURLs.Set(float64(urls))
	p.sitemapFiles.Set(float64(files))
}
