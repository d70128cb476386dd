package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/manifest"
	"git.home.luguber.info/inful/fundsite/internal/routes"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
)

const base = "https://funds.example.com"

func faqLD(questions int) string {
	qs := make([]string, questions)
	for i := range qs {
		qs[i] = fmt.Sprintf(`{"@type":"Question","name":"Q%d","acceptedAnswer":{"@type":"Answer","text":"A"}}`, i)
	}
	return `{"@context":"https://schema.org","@type":"FAQPage","mainEntity":[` + strings.Join(qs, ",") + `]}`
}

func typeLD(t string) string {
	return `{"@context":"https://schema.org","@type":"` + t + `","name":"x"}`
}

type pageFixture struct {
	title     string
	desc      string
	canonical string
	ld        []string
	pad       int
}

func (p pageFixture) html() string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head>")
	if p.title != "" {
		b.WriteString("<title>" + p.title + "</title>")
	}
	if p.desc != "" {
		b.WriteString(`<meta name="description" content="` + p.desc + `">`)
	}
	if p.canonical != "" {
		b.WriteString(`<link rel="canonical" href="` + p.canonical + `">`)
	}
	for _, ld := range p.ld {
		b.WriteString(`<script type="application/ld+json">` + ld + `</script>`)
	}
	b.WriteString("</head><body><p>" + strings.Repeat("x", p.pad) + "</p></body></html>")
	return b.String()
}

func writePage(t *testing.T, root, path string, p pageFixture) {
	t.Helper()
	file := filepath.Join(root, "index.html")
	if path != "/" {
		file = filepath.Join(root, filepath.FromSlash(strings.Trim(path, "/")), "index.html")
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte(p.html()), 0o644))
}

func goodFund(path string) pageFixture {
	return pageFixture{
		title: "Alpha Fund", desc: "About alpha", canonical: base + path,
		ld:  []string{typeLD("InvestmentFund"), faqLD(6)},
		pad: 3200,
	}
}

func routesWithAlias(t *testing.T) *routes.Set {
	t.Helper()
	snap := content.NewSnapshot(content.Collections{
		Funds: []content.Fund{{ID: "f1", Name: "Alpha", Slug: "alpha", LegacySlugs: []string{"alpha-old"}}},
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	set, _ := routes.Discover(snap)
	r, ok := set.Lookup("/funds/alpha-old")
	require.True(t, ok)
	require.True(t, r.LegacyAlias)
	return set
}

func codes(l issue.List) []issue.Code {
	out := make([]issue.Code, 0, len(l))
	for _, i := range l {
		out = append(out, i.Code)
	}
	return out
}

func TestValidateHTML_CleanFundPage(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "/funds/alpha", goodFund("/funds/alpha"))

	report, l, err := ValidateHTML(HTMLOptions{Root: root})
	require.NoError(t, err)
	assert.Empty(t, l)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "fund", report.Results[0].Kind)
	assert.Equal(t, "/funds/alpha", report.Results[0].Path)
	assert.True(t, report.Results[0].Passed)
	assert.Equal(t, 1, report.Passed)
}

func TestValidateHTML_CanonicalOnForeignHost(t *testing.T) {
	root := t.TempDir()
	p := goodFund("/funds/alpha")
	p.canonical = "https://mirror.example.org/funds/alpha"
	writePage(t, root, "/funds/alpha", p)

	_, l, err := ValidateHTML(HTMLOptions{Root: root, BaseURL: base})
	require.NoError(t, err)
	assert.Equal(t, []issue.Code{issue.CodeCanonicalNotSelf}, codes(l))
	assert.False(t, l.HasErrors())

	_, l, err = ValidateHTML(HTMLOptions{Root: root, BaseURL: base + "/"})
	require.NoError(t, err)
	assert.Len(t, l, 1)

	writePage(t, root, "/funds/alpha", goodFund("/funds/alpha"))
	_, l, err = ValidateHTML(HTMLOptions{Root: root, BaseURL: "https://FUNDS.example.com"})
	require.NoError(t, err)
	assert.Empty(t, l, "host compares case-insensitively")
}

func TestValidateHTML_FundMissingPrimaryEntity(t *testing.T) {
	root := t.TempDir()
	p := goodFund("/funds/alpha")
	p.ld = []string{faqLD(6)}
	writePage(t, root, "/funds/alpha", p)

	report, l, err := ValidateHTML(HTMLOptions{Root: root})
	require.NoError(t, err)
	require.Len(t, l, 1)
	assert.Equal(t, issue.SeverityError, l[0].Severity)
	assert.Equal(t, issue.CodeMissingEntity, l[0].Code)
	assert.Equal(t, SourceHTML, l[0].Source)
	assert.Equal(t, 1, report.Errors)
	assert.Equal(t, 1, report.ByKind["fund"].Errors)
	assert.False(t, report.Results[0].Passed)
}

func TestValidateHTML_Findings(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		page  pageFixture
		want  []issue.Code
		error bool
	}{
		{
			name: "missing title and description",
			path: "/about",
			page: pageFixture{canonical: base + "/about", ld: []string{typeLD("WebPage")}, pad: 900},
			want: []issue.Code{issue.CodeMissingTitle, issue.CodeMissingDesc}, error: true,
		},
		{
			name: "thin rich page",
			path: "/managers/acme",
			page: pageFixture{title: "Acme", desc: "d", canonical: base + "/managers/acme", ld: []string{typeLD("Organization")}, pad: 100},
			want: []issue.Code{issue.CodeThinContent}, error: true,
		},
		{
			name: "thin ordinary page warns",
			path: "/tags/esg",
			page: pageFixture{title: "ESG", desc: "d", canonical: base + "/tags/esg", ld: []string{typeLD("CollectionPage")}, pad: 10},
			want: []issue.Code{issue.CodeThinContent},
		},
		{
			name: "comparison without faq",
			path: "/compare/a-vs-b",
			page: pageFixture{title: "A vs B", desc: "d", canonical: base + "/compare/a-vs-b", ld: []string{typeLD("WebPage")}, pad: 900},
			want: []issue.Code{issue.CodeMissingFAQ},
		},
		{
			name: "fund with short faq",
			path: "/funds/alpha",
			page: pageFixture{title: "A", desc: "d", canonical: base + "/funds/alpha", ld: []string{typeLD("InvestmentFund"), faqLD(3)}, pad: 3200},
			want: []issue.Code{issue.CodeFewFAQQuestions},
		},
		{
			name: "canonical elsewhere and no structured data",
			path: "/categories/equity",
			page: pageFixture{title: "E", desc: "d", canonical: base + "/categories/other", pad: 900},
			want: []issue.Code{issue.CodeCanonicalNotSelf, issue.CodeMissingSchema},
		},
		{
			name: "team member without person",
			path: "/team/jane",
			page: pageFixture{title: "Jane", desc: "d", canonical: base + "/team/jane", ld: []string{typeLD("WebPage")}, pad: 3200},
			want: []issue.Code{issue.CodeMissingEntity}, error: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writePage(t, root, tt.path, tt.page)
			_, l, err := ValidateHTML(HTMLOptions{Root: root})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, codes(l))
			assert.Equal(t, tt.error, l.HasErrors())
		})
	}
}

func TestValidateHTML_SkipsNotFoundAndAllowsAliases(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "404.html"), []byte("<html></html>"), 0o644))
	writePage(t, root, "/funds/alpha-old", goodFund("/funds/alpha"))

	set := routesWithAlias(t)
	report, l, err := ValidateHTML(HTMLOptions{Root: root, Routes: set, Now: func() time.Time { return time.Unix(0, 0) }})
	require.NoError(t, err)
	assert.Empty(t, l)
	assert.Equal(t, 1, report.Files)

	require.NoError(t, report.Write(root))
	data, err := os.ReadFile(filepath.Join(root, HTMLReportFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path": "/funds/alpha-old"`)
}

func TestValidateCanonicals(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "/", pageFixture{title: "Home", canonical: base + "/"})
	writePage(t, root, "/funds/alpha", goodFund("/funds/alpha/"))
	writePage(t, root, "/funds/beta", goodFund("/funds/alpha"))
	writePage(t, root, "/tags/esg", pageFixture{title: "ESG"})

	urls := []sitemap.URL{
		{Loc: base + "/"},
		{Loc: base + "/funds/alpha"},
		{Loc: base + "/funds/beta"},
		{Loc: base + "/funds/gone"},
		{Loc: base + "/tags/esg"},
	}
	data, err := sitemap.EncodeURLSet(urls)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, sitemap.SitemapFile), data, 0o644))

	l, err := ValidateCanonicals(root)
	require.NoError(t, err)
	got := map[string]issue.Issue{}
	for _, i := range l {
		got[i.Context] = i
	}
	require.Len(t, got, 3)
	assert.Equal(t, issue.CodeCanonicalMismatch, got[base+"/funds/beta"].Code)
	assert.Equal(t, issue.SeverityError, got[base+"/funds/beta"].Severity)
	assert.Equal(t, issue.CodeMissingPage, got[base+"/funds/gone"].Code)
	assert.Equal(t, issue.SeverityWarning, got[base+"/funds/gone"].Severity)
	assert.Equal(t, issue.CodeMissingCanonical, got[base+"/tags/esg"].Code)
	assert.Equal(t, issue.SeverityError, got[base+"/tags/esg"].Severity)
}

func TestValidateCanonicals_FollowsIndex(t *testing.T) {
	root := t.TempDir()
	writePage(t, root, "/funds/alpha", goodFund("/funds/alpha"))
	chunk, err := sitemap.EncodeURLSet([]sitemap.URL{{Loc: base + "/funds/alpha"}, {Loc: base + "/funds/missing"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "sitemap-1.xml"), chunk, 0o644))
	idx, err := sitemap.EncodeIndex(base, []sitemap.File{{Filename: "sitemap-1.xml", LastMod: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, sitemap.SitemapFile), idx, 0o644))

	locs, err := ReadSitemapLocs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{base + "/funds/alpha", base + "/funds/missing"}, locs)

	l, err := ValidateCanonicals(root)
	require.NoError(t, err)
	assert.Equal(t, []issue.Code{issue.CodeMissingPage}, codes(l))
}

func TestValidateCanonicals_MissingSitemapIsFatal(t *testing.T) {
	_, err := ValidateCanonicals(t.TempDir())
	require.Error(t, err)
}

func TestValidateURLShape(t *testing.T) {
	locs := []string{
		base + "/", base + "/funds", base + "/categories", base + "/tags", base + "/managers", base + "/compare",
		base + "/funds/alpha",
		base + "/alpha",
		base + "/funds/alpha/",
		base + "/funds/index.html",
		base + "/about",
	}
	l := ValidateURLShape(locs, map[string]routes.PageKind{"beta": routes.KindFund})
	assert.ElementsMatch(t, []issue.Code{
		issue.CodeUnprefixedSlug,
		issue.CodeDuplicateIndex,
		issue.CodeDuplicateIndex,
		issue.CodeMissingEssential,
	}, codes(l))
	for _, i := range l {
		if i.Code == issue.CodeMissingEssential {
			assert.Equal(t, "/faq", i.Context)
			assert.Equal(t, issue.SeverityWarning, i.Severity)
		}
	}

	bare := ValidateURLShape([]string{base + "/beta"}, map[string]routes.PageKind{"beta": routes.KindFund})
	assert.Contains(t, codes(bare), issue.CodeUnprefixedSlug)
}

func TestVerifyCriticalFiles(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"index.html", "404.html", sitemap.RobotsFile} {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte("x"), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest.FileName), nil, 0o644))
	idx, err := sitemap.EncodeIndex(base, []sitemap.File{{Filename: "sitemap-1.xml", LastMod: time.Now()}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, sitemap.SitemapFile), idx, 0o644))

	l := VerifyCriticalFiles(root)
	got := map[string]issue.Code{}
	for _, i := range l {
		got[i.Context] = i.Code
		assert.Equal(t, issue.SeverityError, i.Severity)
	}
	assert.Equal(t, map[string]issue.Code{
		manifest.FileName: issue.CodeMissingFile,
		"sitemap-1.xml":   issue.CodeMissingFile,
	}, got)
}
