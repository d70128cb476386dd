package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var _ Recorder = NoopRecorder{}
var _ Recorder = (*PrometheusRecorder)(nil)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("render_all", time.Second)
	r.ObservePageRender("fund", time.Millisecond, true)
	r.AddIssues("html", "warning", 3)
	r.SetSitemap(10, 1)
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.ObserveStageDuration("x", time.Second)
	p.IncBuildOutcome("success")
	p.AddIssues("html", "error", 1)
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.ObservePageRender("fund", 3*time.Millisecond, true)
	pr.ObservePageRender("fund", time.Millisecond, false)
	pr.SetSitemap(42, 1)

	path := filepath.Join(t.TempDir(), "build-metrics.prom")
	if err := pr.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"fundsite_sitemap_urls 42",
		`fundsite_pages_total{kind="fund",result="failed"} 1`,
		`fundsite_pages_total{kind="fund",result="success"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
