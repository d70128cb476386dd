package sitemap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/indexability"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

const base = "https://funds.example.com"

var buildDay = time.Date(2026, 3, 15, 13, 45, 0, 0, time.UTC)

const desc = "A diversified fund investing across developed equity markets worldwide."

func scenarioA() content.Collections {
	return content.Collections{
		Funds: []content.Fund{
			{ID: "f1", Name: "Alpha", Status: content.StatusActive, ManagerID: "m1", Description: desc, CategoryIDs: []string{"c1"},
				UpdatedAt: time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
			{ID: "f2", Name: "Beta", Status: content.StatusClosed, ManagerID: "m1", Description: desc, CategoryIDs: []string{"c1"}},
		},
		Categories: []content.Category{{ID: "c1", Name: "Populated"}, {ID: "c2", Name: "Empty"}},
		Managers:   []content.Manager{{ID: "m1", Name: "Acme"}},
	}
}

func input(c content.Collections) Input {
	snap := content.NewSnapshot(c, buildDay)
	set, _ := routes.Discover(snap)
	return Input{Snapshot: snap, Routes: set, Classifier: indexability.New(snap)}
}

func builder(root string) *Builder {
	return NewBuilder(Options{BaseURL: base, Root: root, Now: func() time.Time { return buildDay }})
}

func locs(urls []URL) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		out = append(out, u.Loc)
	}
	return out
}

func TestCollect_ScenarioA(t *testing.T) {
	got := locs(builder(t.TempDir()).Collect(input(scenarioA())))

	assert.Contains(t, got, base+"/categories/populated")
	assert.NotContains(t, got, base+"/categories/empty")
	for _, p := range []string{"/funds/alpha", "/funds/beta", "/funds/alpha/alternatives", "/funds/beta/alternatives"} {
		assert.Contains(t, got, base+p)
	}
	assert.Contains(t, got, base+"/")
	assert.Contains(t, got, base+"/faq")
	assert.Contains(t, got, base+"/managers/acme")
}

func TestCollect_Policy(t *testing.T) {
	urls := builder(t.TempDir()).Collect(input(scenarioA()))
	by := make(map[string]URL)
	for _, u := range urls {
		by[strings.TrimPrefix(u.Loc, base)] = u
	}

	home := by["/"]
	assert.Equal(t, Daily, home.ChangeFreq)
	assert.InDelta(t, 1.0, home.Priority, 1e-9)

	// active, completeness 3/8 -> 0.85
	alpha := by["/funds/alpha"]
	assert.Equal(t, Weekly, alpha.ChangeFreq)
	assert.InDelta(t, 0.85, alpha.Priority, 1e-9)
	assert.Equal(t, "2026-02-01", FormatDate(alpha.LastMod))

	beta := by["/funds/beta"]
	assert.InDelta(t, 0.80, beta.Priority, 1e-9)
	assert.Equal(t, "2026-03-15", FormatDate(beta.LastMod), "falls back to build date")

	assert.InDelta(t, 0.80, by["/funds/alpha/alternatives"].Priority, 1e-9)
	assert.InDelta(t, 0.70, by["/funds/beta/alternatives"].Priority, 1e-9)
	assert.InDelta(t, 0.75, by["/categories/populated"].Priority, 1e-9)
	assert.InDelta(t, 0.65, by["/managers/acme"].Priority, 1e-9)
	assert.Equal(t, Monthly, by["/managers/acme"].ChangeFreq)
}

func TestCollect_SkipsUnwrittenAndAliases(t *testing.T) {
	c := scenarioA()
	c.Funds[0].LegacySlugs = []string{"alpha-old"}
	in := input(c)
	in.Written = map[string]struct{}{"/": {}, "/funds/alpha": {}, "/funds/alpha-old": {}}

	got := locs(builder(t.TempDir()).Collect(in))
	assert.Equal(t, []string{base + "/", base + "/funds/alpha"}, got)
}

func TestNormalizeLoc(t *testing.T) {
	tests := map[string]string{
		"HTTPS://Funds.Example.com/funds/a/": "https://funds.example.com/funds/a",
		"https://funds.example.com":          "https://funds.example.com/",
		"https://funds.example.com/":         "https://funds.example.com/",
		"https://funds.example.com/a#frag":   "https://funds.example.com/a",
		"https://funds.example.com/a?x=1":    "https://funds.example.com/a?x=1",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLoc(in), in)
	}
	assert.Equal(t, NormalizeLoc("https://a.test/x/"), NormalizeLoc(NormalizeLoc("https://a.test/x/")), "idempotent")
}

func TestFormatPriority(t *testing.T) {
	assert.Equal(t, "1.0", FormatPriority(1))
	assert.Equal(t, "0.9", FormatPriority(0.85))
	assert.Equal(t, "0.8", FormatPriority(0.80))
	assert.Equal(t, "0.7", FormatPriority(0.65))
	assert.Equal(t, "1.0", FormatPriority(1.3))
	assert.Equal(t, "0.0", FormatPriority(-0.2))
}

func TestMergeFirstWins(t *testing.T) {
	a := []URL{{Loc: base + "/x", Priority: 0.9}}
	b := []URL{{Loc: base + "/x/", Priority: 0.5}, {Loc: base + "/y", Priority: 0.5}}
	got := Merge(a, b)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.9, got[0].Priority, 1e-9)
}

func TestChunk(t *testing.T) {
	urls := make([]URL, 7)
	chunks := Chunk(urls, 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[2], 1)
	assert.Len(t, Chunk(urls, 7), 1)
}

func TestRobots(t *testing.T) {
	got := Robots(base + "/sitemap.xml")
	assert.Equal(t, 3, strings.Count(got, "User-agent:"))
	assert.Contains(t, got, "User-agent: Googlebot\nAllow: /\nDisallow: /admin/\nDisallow: /auth/\nDisallow: /api/\nDisallow: /account/\n")
	assert.True(t, strings.HasSuffix(got, "\nSitemap: "+base+"/sitemap.xml\n"))
	assert.Equal(t, 1, strings.Count(got, "Sitemap:"))
}

func TestBuild_SingleFile(t *testing.T) {
	root := t.TempDir()
	res, err := builder(root).Build(context.Background(), input(scenarioA()))
	require.NoError(t, err)
	assert.False(t, res.Chunked)
	assert.Equal(t, SitemapFile, res.Entry)
	require.Len(t, res.Files, 1)

	data, err := os.ReadFile(filepath.Join(root, SitemapFile))
	require.NoError(t, err)
	got, isIndex, err := ParseLocs(data)
	require.NoError(t, err)
	assert.False(t, isIndex)
	assert.Equal(t, locs(res.URLs), got)
	assert.IsIncreasing(t, got)
	assert.Contains(t, string(data), "<lastmod>2026-03-15</lastmod>")
	assert.Contains(t, string(data), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)

	robots, err := os.ReadFile(filepath.Join(root, RobotsFile))
	require.NoError(t, err)
	assert.Contains(t, string(robots), "Sitemap: "+base+"/sitemap.xml")
}

func TestBuild_ScenarioB_Chunked(t *testing.T) {
	root := t.TempDir()
	b := builder(root)
	urls := make([]URL, 60001)
	for i := range urls {
		urls[i] = URL{Loc: fmt.Sprintf("%s/funds/f%06d", base, i), LastMod: buildDay, ChangeFreq: Weekly, Priority: 0.8}
	}
	res := &Result{URLs: urls}
	require.NoError(t, b.write(res))

	assert.True(t, res.Chunked)
	assert.Equal(t, IndexFile, res.Entry)
	require.Len(t, res.Files, 2)
	assert.Equal(t, 50000, res.Files[0].URLCount)
	assert.Equal(t, 1, res.Files[1].URLCount)

	for _, name := range []string{"sitemap-1.xml", "sitemap-2.xml", IndexFile, SitemapFile, RobotsFile} {
		_, err := os.Stat(filepath.Join(root, name))
		require.NoError(t, err, name)
	}
	index, err := os.ReadFile(filepath.Join(root, IndexFile))
	require.NoError(t, err)
	main, err := os.ReadFile(filepath.Join(root, SitemapFile))
	require.NoError(t, err)
	assert.Equal(t, index, main, "sitemap.xml equals the index byte-for-byte")

	children, isIndex, err := ParseLocs(index)
	require.NoError(t, err)
	assert.True(t, isIndex)
	assert.Equal(t, []string{base + "/sitemap-1.xml", base + "/sitemap-2.xml"}, children)

	robots, err := os.ReadFile(filepath.Join(root, RobotsFile))
	require.NoError(t, err)
	assert.Contains(t, string(robots), "Sitemap: "+base+"/sitemap-index.xml")
	assert.NotContains(t, string(robots), "/sitemap.xml")
}

func TestBuild_ShrinkingRemovesStaleChunks(t *testing.T) {
	root := t.TempDir()
	b := NewBuilder(Options{BaseURL: base, Root: root, MaxURLsPerFile: 5, Now: func() time.Time { return buildDay }})
	in := input(scenarioA())

	res, err := b.Build(context.Background(), in)
	require.NoError(t, err)
	require.True(t, res.Chunked)
	n := len(res.Files)
	require.Greater(t, n, 1)

	single := NewBuilder(Options{BaseURL: base, Root: root, Now: func() time.Time { return buildDay }})
	res, err = single.Build(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.Chunked)
	for i := 1; i <= n; i++ {
		_, err := os.Stat(filepath.Join(root, fmt.Sprintf("sitemap-%d.xml", i)))
		assert.True(t, os.IsNotExist(err))
	}
	_, err = os.Stat(filepath.Join(root, IndexFile))
	assert.True(t, os.IsNotExist(err))
}

func writePage(t *testing.T, root, path, canonical, robots string) {
	t.Helper()
	file := filepath.Join(root, filepath.FromSlash(strings.Trim(path, "/")), "index.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	html := `<html><head><title>x</title>`
	if canonical != "" {
		html += `<link rel="canonical" href="` + canonical + `">`
	}
	if robots != "" {
		html += `<meta name="robots" content="` + robots + `">`
	}
	html += `</head></html>`
	require.NoError(t, os.WriteFile(file, []byte(html), 0o644))
}

func TestAudit_ScenarioC(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "/funds/alpha", base+"/funds/alpha", "index,follow")
	writePage(t, root, "/funds/alpha-old", base+"/funds/beta", "index,follow")
	writePage(t, root, "/funds/hidden", base+"/funds/hidden", "noindex,follow")
	writePage(t, root, "/funds/bare", "", "")
	writePage(t, root, "/funds/stray", base+"/funds/stray", "")

	b := builder(root)
	covered := Keys([]URL{{Loc: base + "/funds/alpha"}})
	urls, issues, err := b.Audit(Input{}, covered)
	require.NoError(t, err)

	assert.Equal(t, []string{base + "/funds/stray"}, locs(urls))
	assert.Equal(t, Weekly, urls[0].ChangeFreq)
	assert.InDelta(t, 0.5, urls[0].Priority, 1e-9)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.CodeSitemapDrift, issues[0].Code)
	assert.Equal(t, issue.SeverityWarning, issues[0].Severity)
}

func TestAudit_SkipsDiscoveredRoutes(t *testing.T) {
	root := t.TempDir()
	// Rendered without a robots directive: only the route set keeps it out.
	writePage(t, root, "/categories/empty", base+"/categories/empty", "")
	writePage(t, root, "/widget", base+"/widget", "")

	in := input(scenarioA())
	_, ok := in.Routes.Lookup("/categories/empty")
	require.True(t, ok)
	require.False(t, in.Classifier.Decide(mustRoute(t, in, "/categories/empty")).Indexable)

	b := builder(root)
	urls, _, err := b.Audit(in, Keys(b.Collect(in)))
	require.NoError(t, err)
	assert.Equal(t, []string{base + "/widget"}, locs(urls))
}

func TestBuild_EmptyCategoryNeverListed(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "/categories/empty", base+"/categories/empty", "index,follow")
	writePage(t, root, "/assets/widget", "", "")

	b := NewBuilder(Options{BaseURL: base, Root: root, DiskAudit: true, Now: func() time.Time { return buildDay }})
	res, err := b.Build(context.Background(), input(scenarioA()))
	require.NoError(t, err)
	got := locs(res.URLs)
	assert.NotContains(t, got, base+"/categories/empty")
	assert.NotContains(t, got, base+"/assets/widget")
}

func mustRoute(t *testing.T, in Input, path string) routes.Route {
	t.Helper()
	r, ok := in.Routes.Lookup(path)
	require.True(t, ok, path)
	return r
}

func TestVerify_RepairsMissing(t *testing.T) {
	in := input(scenarioA())
	b := builder(t.TempDir())
	collected := b.Collect(in)

	var trimmed []URL
	for _, u := range collected {
		if u.Loc != base+"/categories/populated" {
			trimmed = append(trimmed, u)
		}
	}
	repaired, issues := b.Verify(in, trimmed)
	require.Len(t, issues, 1)
	assert.Equal(t, issue.CodeSitemapGap, issues[0].Code)
	assert.Contains(t, locs(repaired), base+"/categories/populated")
	last := repaired[len(repaired)-1]
	assert.InDelta(t, 0.7, last.Priority, 1e-9)

	_, none := b.Verify(in, collected)
	assert.Empty(t, none, "the unified collector leaves nothing to repair")
}

func TestBuild_ZeroURLsIsFatal(t *testing.T) {
	b := NewBuilder(Options{BaseURL: base, Root: t.TempDir()})
	in := input(content.Collections{})
	in.Written = map[string]struct{}{}
	_, err := b.Build(context.Background(), in)
	require.Error(t, err)
}

func TestBuild_Deterministic(t *testing.T) {
	run := func() ([]byte, []byte) {
		root := t.TempDir()
		_, err := builder(root).Build(context.Background(), input(scenarioA()))
		require.NoError(t, err)
		sm, err := os.ReadFile(filepath.Join(root, SitemapFile))
		require.NoError(t, err)
		rb, err := os.ReadFile(filepath.Join(root, RobotsFile))
		require.NoError(t, err)
		return sm, rb
	}
	sm1, rb1 := run()
	sm2, rb2 := run()
	assert.Equal(t, sm1, sm2)
	assert.Equal(t, rb1, rb2)
}
