package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fundsite/internal/config"
	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/manifest"
	"git.home.luguber.info/inful/fundsite/internal/notify"
	"git.home.luguber.info/inful/fundsite/internal/render"
	"git.home.luguber.info/inful/fundsite/internal/retry"
	"git.home.luguber.info/inful/fundsite/internal/routes"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
	"git.home.luguber.info/inful/fundsite/internal/validation"
)

const base = "https://funds.example.com"

var buildTime = time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)

const fundDesc = "A long-only global equity fund investing in large, profitable companies across developed markets."

func collections() content.Collections {
	return content.Collections{
		Funds: []content.Fund{
			{ID: "f1", Name: "Alpha Equity", Ticker: "ALPH", Status: content.StatusActive, ManagerID: "m1", Description: fundDesc,
				CategoryIDs: []string{"c1"}, TagIDs: []string{"t1"}, LegacySlugs: []string{"alpha-old"}, ExpenseRatio: 0.4, AUM: 1.2e9},
			{ID: "f2", Name: "Beta Income", Status: content.StatusActive, ManagerID: "m1", Description: fundDesc,
				CategoryIDs: []string{"c1"}},
			{ID: "f3", Name: "Gamma Growth", Status: content.StatusActive, ManagerID: "m2", Description: fundDesc,
				TagIDs: []string{"t1"}},
		},
		Categories:  []content.Category{{ID: "c1", Name: "Global Equity"}},
		Tags:        []content.Tag{{ID: "t1", Name: "Dividend"}},
		Managers:    []content.Manager{{ID: "m1", Name: "Acme Capital", Bio: "Founded in 1990."}, {ID: "m2", Name: "Borealis Partners"}},
		TeamMembers: []content.TeamMember{{ID: "tm1", Name: "Jane Doe", Role: "Editor", Bio: strings.Repeat("Covers equity funds. ", 6)}},
		Comparisons: []content.Comparison{{ID: "x1", FundAID: "f1", FundBID: "f2"}},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.Site.BaseURL = base
	cfg.Site.Name = "Fund Directory"
	cfg.Build.OutputDir = t.TempDir()
	cfg.Build.Workers = 4
	return cfg
}

func newTestBuilder(cfg *config.Config, opts ...Option) *Builder {
	cache := content.NewCache(content.Static{Data: collections()}, retry.DefaultPolicy()).
		WithClock(func() time.Time { return buildTime })
	opts = append([]Option{WithClock(func() time.Time { return buildTime })}, opts...)
	return NewBuilder(cfg, cache, opts...)
}

// wrapRenderer post-processes the default renderer's HTML.
func wrapRenderer(fn func(routes.Route, render.Result) (render.Result, error)) RendererFactory {
	return func(o render.Options) (render.Renderer, error) {
		site, err := render.NewSite(o)
		if err != nil {
			return nil, err
		}
		return render.Func(func(ctx context.Context, r routes.Route) (render.Result, error) {
			res, err := site.Render(ctx, r)
			if err != nil {
				return res, err
			}
			return fn(r, res)
		}), nil
	}
}

func issueCodes(l issue.List, sev issue.Severity) []issue.Code {
	var out []issue.Code
	for _, i := range l {
		if i.Severity == sev {
			out = append(out, i.Code)
		}
	}
	return out
}

type recordingPublisher struct{ events []notify.BuildCompleted }

func (p *recordingPublisher) PublishBuild(_ context.Context, ev notify.BuildCompleted) error {
	p.events = append(p.events, ev)
	return nil
}
func (p *recordingPublisher) Close() {}

func TestBuild_EndToEnd(t *testing.T) {
	cfg := testConfig(t)
	pub := &recordingPublisher{}
	report, err := newTestBuilder(cfg, WithPublisher(pub)).Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, issueCodes(report.Issues, issue.SeverityError))
	assert.Contains(t, []BuildOutcome{OutcomeSuccess, OutcomeWarning}, report.Outcome)

	root := cfg.Build.OutputDir
	for _, f := range append(validation.CriticalFiles, ReportJSONFile, ReportTextFile, validation.HTMLReportFile,
		"funds/alpha-equity/index.html", "funds/alpha-old/index.html", "compare/index.html") {
		assert.FileExists(t, filepath.Join(root, f))
	}

	assert.Equal(t, report.Routes, report.RenderedPages)
	assert.Zero(t, report.FailedPages)
	assert.Positive(t, report.SitemapURLs)
	assert.Equal(t, 1, report.SitemapFiles)
	for _, st := range Stages() {
		assert.Contains(t, report.StageDurations, string(st.Name))
	}

	m, err := manifest.Read(root)
	require.NoError(t, err)
	assert.Equal(t, report.BuildID, m.ID)
	assert.Equal(t, report.RenderedPages, m.Outputs.Pages)
	assert.Equal(t, report.SitemapURLs, m.Outputs.SitemapURLs)
	assert.Equal(t, []string{sitemap.SitemapFile}, m.Outputs.SitemapFiles)
	assert.Contains(t, m.Outputs.ArtifactHashes, sitemap.SitemapFile)
	assert.Contains(t, m.Outputs.ArtifactHashes, sitemap.RobotsFile)
	assert.Equal(t, 3, m.Inputs.Collections["funds"])
	assert.NotEmpty(t, m.Inputs.ContentHash)
	assert.Equal(t, report.ConfigHash, m.Inputs.ConfigHash)
	assert.Empty(t, m.Outputs.Failed)

	sm, err := os.ReadFile(filepath.Join(root, sitemap.SitemapFile))
	require.NoError(t, err)
	assert.Contains(t, string(sm), base+"/funds/alpha-equity")
	assert.NotContains(t, string(sm), "alpha-old")

	require.Len(t, pub.events, 1)
	assert.Equal(t, report.BuildID, pub.events[0].BuildID)
	assert.Equal(t, string(report.Outcome), pub.events[0].Outcome)
}

func TestBuild_RenderFailureRecordedInManifest(t *testing.T) {
	cfg := testConfig(t)
	boom := errors.New("template exploded")
	factory := wrapRenderer(func(r routes.Route, res render.Result) (render.Result, error) {
		if r.Path == "/funds/beta-income" {
			return render.Result{}, boom
		}
		return res, nil
	})

	report, err := newTestBuilder(cfg, WithRendererFactory(factory)).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, 1, report.FailedPages)
	assert.Equal(t, []issue.Code{issue.CodeRenderFailed}, issueCodes(report.Issues, issue.SeverityError))
	assert.NotContains(t, report.StageDurations, string(StageGenerateSitemaps))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageRenderAll, se.Stage)
	assert.Equal(t, []string{"/funds/beta-income"}, se.Contexts)

	m, err := manifest.Read(cfg.Build.OutputDir)
	require.NoError(t, err)
	assert.Equal(t, string(OutcomeFailed), m.Status)
	require.Len(t, m.Outputs.Failed, 1)
	assert.Equal(t, "/funds/beta-income", m.Outputs.Failed[0].Path)
	assert.Equal(t, string(routes.KindFund), m.Outputs.Failed[0].Kind)
	assert.Contains(t, m.Outputs.Failed[0].Error, "template exploded")

	assert.FileExists(t, filepath.Join(cfg.Build.OutputDir, ReportJSONFile))
	assert.NoFileExists(t, filepath.Join(cfg.Build.OutputDir, sitemap.SitemapFile))
}

func TestBuild_FundWithoutPrimaryEntityFailsHTMLValidation(t *testing.T) {
	cfg := testConfig(t)
	factory := wrapRenderer(func(r routes.Route, res render.Result) (render.Result, error) {
		if r.Path == "/funds/gamma-growth" {
			res.HTML = bytes.ReplaceAll(res.HTML, []byte(`"InvestmentFund"`), []byte(`"Thing"`))
		}
		return res, nil
	})

	report, err := newTestBuilder(cfg, WithRendererFactory(factory)).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, []issue.Code{issue.CodeMissingEntity}, issueCodes(report.Issues, issue.SeverityError))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageValidateHTML, se.Stage)
	require.Len(t, se.Contexts, 1)
	assert.Equal(t, "funds/gamma-growth/index.html", se.Contexts[0])
	assert.FileExists(t, filepath.Join(cfg.Build.OutputDir, validation.HTMLReportFile))
}

func TestBuild_SitemapExcludesUnlistablePagesOnDisk(t *testing.T) {
	cfg := testConfig(t)
	assets := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(assets, "widget"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "widget", "index.html"),
		[]byte(`<html><head><title>Widget</title><meta name="description" content="Embeddable widget"></head></html>`), 0o644))
	cfg.Build.AssetsDir = assets

	data := collections()
	data.Categories = append(data.Categories, content.Category{ID: "c9", Name: "Empty Bucket"})
	cache := content.NewCache(content.Static{Data: data}, retry.DefaultPolicy()).
		WithClock(func() time.Time { return buildTime })
	factory := wrapRenderer(func(_ routes.Route, res render.Result) (render.Result, error) {
		res.HTML = bytes.ReplaceAll(res.HTML, []byte(`<meta name="robots" content="noindex,follow">`), nil)
		return res, nil
	})

	report, err := NewBuilder(cfg, cache, WithClock(func() time.Time { return buildTime }), WithRendererFactory(factory)).
		Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, issueCodes(report.Issues, issue.SeverityError))
	assert.NotContains(t, issueCodes(report.Issues, issue.SeverityWarning), issue.CodeSitemapDrift)

	root := cfg.Build.OutputDir
	assert.FileExists(t, filepath.Join(root, "categories", "empty-bucket", "index.html"))
	assert.FileExists(t, filepath.Join(root, "widget", "index.html"))
	sm, err := os.ReadFile(filepath.Join(root, sitemap.SitemapFile))
	require.NoError(t, err)
	assert.NotContains(t, string(sm), "empty-bucket")
	assert.NotContains(t, string(sm), "/widget")
}

func TestBuild_ChunkedSitemap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sitemap.MaxURLsPerFile = 5

	report, err := newTestBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.Greater(t, report.SitemapFiles, 1)

	root := cfg.Build.OutputDir
	index, err := os.ReadFile(filepath.Join(root, sitemap.IndexFile))
	require.NoError(t, err)
	entry, err := os.ReadFile(filepath.Join(root, sitemap.SitemapFile))
	require.NoError(t, err)
	assert.Equal(t, index, entry)
	assert.FileExists(t, filepath.Join(root, "sitemap-1.xml"))

	m, err := manifest.Read(root)
	require.NoError(t, err)
	assert.Contains(t, m.Outputs.SitemapFiles, sitemap.IndexFile)
	assert.Contains(t, m.Outputs.SitemapFiles, "sitemap-1.xml")
	assert.Contains(t, m.Outputs.ArtifactHashes, "sitemap-1.xml")

	robots, err := os.ReadFile(filepath.Join(root, sitemap.RobotsFile))
	require.NoError(t, err)
	assert.Contains(t, string(robots), "Sitemap: "+base+"/"+sitemap.IndexFile)
}

func TestBuild_RebuildRemovesStaleOutput(t *testing.T) {
	cfg := testConfig(t)
	stale := filepath.Join(cfg.Build.OutputDir, "funds", "gone", "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(stale), 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("<html></html>"), 0o644))

	_, err := newTestBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
}

func TestBuild_MissingAssetsDirIsFatal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Build.AssetsDir = filepath.Join(t.TempDir(), "nope")

	report, err := newTestBuilder(cfg).Build(context.Background())
	require.Error(t, err)
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageAssetCheck, se.Stage)
	assert.Equal(t, OutcomeFailed, report.Outcome)
}

func TestBuild_CopiesAssets(t *testing.T) {
	cfg := testConfig(t)
	assets := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(assets, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "css", "site.css"), []byte("body{}"), 0o644))
	cfg.Build.AssetsDir = assets

	_, err := newTestBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Build.OutputDir, "css", "site.css"))
}

func TestBuild_StageOrderAndAbort(t *testing.T) {
	cfg := testConfig(t)
	var ran []StageName
	stage := func(name StageName, l issue.List, err error) StageDef {
		return StageDef{Name: name, Fn: func(context.Context, *BuildState) (issue.List, error) {
			ran = append(ran, name)
			return l, err
		}}
	}
	defs := []StageDef{
		stage(StageInit, nil, nil),
		stage(StageAssetCheck, issue.List{issue.Warnf(issue.CodeMissingFAQ, "/faq", "warn")}, nil),
		stage(StageRenderAll, issue.List{issue.Errorf(issue.CodeRenderFailed, "/funds/x", "boom")}, nil),
		stage(StageWriteManifest, nil, nil),
	}

	report, err := newTestBuilder(cfg, WithStages(defs)).Build(context.Background())
	require.Error(t, err)
	assert.Equal(t, []StageName{StageInit, StageAssetCheck, StageRenderAll}, ran)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Equal(t, 1, report.StageCounts[StageAssetCheck].Success)
	assert.Equal(t, 1, report.StageCounts[StageRenderAll].Fatal)
	require.Len(t, report.Issues, 2)
	assert.Equal(t, string(StageAssetCheck), report.Issues[0].Source)
}

func TestBuild_WarningsOnlyOutcome(t *testing.T) {
	cfg := testConfig(t)
	defs := []StageDef{{Name: StageInit, Fn: func(context.Context, *BuildState) (issue.List, error) {
		return issue.List{issue.Warnf(issue.CodeSitemapGap, "/funds/x", "repaired")}, nil
	}}}
	report, err := newTestBuilder(cfg, WithStages(defs)).Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarning, report.Outcome)
}

func TestBuild_Canceled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newTestBuilder(cfg).Build(ctx)
	require.Error(t, err)
	assert.True(t, IsCanceled(err))
	assert.Equal(t, OutcomeCanceled, report.Outcome)
	assert.Equal(t, 1, report.StageCounts[StageInit].Canceled)
}

func TestValidateTree_CleanBuild(t *testing.T) {
	cfg := testConfig(t)
	_, err := newTestBuilder(cfg).Build(context.Background())
	require.NoError(t, err)

	l, err := ValidateTree(context.Background(), ValidateOptions{Root: cfg.Build.OutputDir})
	require.NoError(t, err)
	assert.False(t, l.HasErrors(), "%v", l.Errors())
}

func TestValidateTree_MissingSitemap(t *testing.T) {
	_, err := ValidateTree(context.Background(), ValidateOptions{Root: t.TempDir()})
	require.Error(t, err)
}
