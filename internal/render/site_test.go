package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fundsite/internal/content"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/indexability"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

const base = "https://funds.example.com"

func newSite(t *testing.T) (*Site, *routes.Set) {
	t.Helper()
	snap := content.NewSnapshot(content.Collections{
		Funds: []content.Fund{
			{ID: "f1", Name: "Alpha Equity", Ticker: "ALPH", Status: content.StatusActive, ManagerID: "m1",
				Description: "Alpha Equity invests in **large** global companies with durable earnings <growth>.",
				CategoryIDs: []string{"c1"}, TagIDs: []string{"t1"}, LegacySlugs: []string{"alpha-old"}, ExpenseRatio: 0.35, AUM: 2.5e9},
			{ID: "f2", Name: "Beta Bond", Status: content.StatusClosed, ManagerID: "m1", CategoryIDs: []string{"c1"}},
		},
		Categories:  []content.Category{{ID: "c1", Name: "Global Equity"}},
		Tags:        []content.Tag{{ID: "t1", Name: "Dividend"}},
		Managers:    []content.Manager{{ID: "m1", Name: "Acme Capital", Website: "https://acme.test", Bio: "Founded in 1990."}},
		TeamMembers: []content.TeamMember{{ID: "tm1", Name: "Jane Doe", Role: "Editor", Bio: "Covers equity funds."}},
		Comparisons: []content.Comparison{{ID: "x1", FundAID: "f1", FundBID: "f2"}},
	}, time.Now())
	set, _ := routes.Discover(snap)
	site, err := NewSite(Options{
		BaseURL:    base,
		SiteName:   "Fund Directory",
		Snapshot:   snap,
		Routes:     set,
		Classifier: indexability.New(snap),
		Now:        func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return site, set
}

func render(t *testing.T, site *Site, set *routes.Set, path string) Result {
	t.Helper()
	r, ok := set.Lookup(path)
	require.True(t, ok, path)
	res, err := site.Render(context.Background(), r)
	require.NoError(t, err)
	return res
}

func ldTypes(t *testing.T, res Result) []string {
	t.Helper()
	var out []string
	for _, raw := range res.SEO.StructuredData {
		var n struct {
			Type string `json:"@type"`
		}
		require.NoError(t, json.Unmarshal(raw, &n))
		out = append(out, n.Type)
	}
	return out
}

func TestSite_FundPage(t *testing.T) {
	site, set := newSite(t)
	res := render(t, site, set, "/funds/alpha-equity")
	html := string(res.HTML)

	assert.Equal(t, base+"/funds/alpha-equity", res.SEO.CanonicalURL)
	assert.Equal(t, indexability.RobotsIndex, res.SEO.Robots)
	assert.Equal(t, "Alpha Equity | Fund Directory", res.SEO.Title)
	assert.Contains(t, html, `<link rel="canonical" href="https://funds.example.com/funds/alpha-equity">`)
	assert.Contains(t, html, "<strong>large</strong>")
	assert.Equal(t, 1, strings.Count(html, "<title>"))
	assert.GreaterOrEqual(t, len(res.HTML), 3000)
	assert.Equal(t, []string{"InvestmentFund", "FAQPage", "BreadcrumbList"}, ldTypes(t, res))

	var faq struct {
		MainEntity []json.RawMessage `json:"mainEntity"`
	}
	require.NoError(t, json.Unmarshal(res.SEO.StructuredData[1], &faq))
	assert.GreaterOrEqual(t, len(faq.MainEntity), 5)
}

func TestSite_LegacyAliasCanonical(t *testing.T) {
	site, set := newSite(t)
	res := render(t, site, set, "/funds/alpha-old")
	assert.Equal(t, base+"/funds/alpha-equity", res.SEO.CanonicalURL)
	assert.Equal(t, indexability.RobotsNoIndex, res.SEO.Robots)
}

func TestSite_PrimaryEntities(t *testing.T) {
	site, set := newSite(t)
	assert.Contains(t, ldTypes(t, render(t, site, set, "/managers/acme-capital")), "Organization")
	assert.Contains(t, ldTypes(t, render(t, site, set, "/team/jane-doe")), "Person")
	assert.Contains(t, ldTypes(t, render(t, site, set, "/faq")), "FAQPage")
	assert.Contains(t, ldTypes(t, render(t, site, set, "/compare/alpha-equity-vs-beta-bond")), "FAQPage")
	assert.Contains(t, ldTypes(t, render(t, site, set, "/funds/alpha-equity/alternatives")), "FAQPage")
	assert.Equal(t, "WebSite", ldTypes(t, render(t, site, set, "/"))[0])
}

func TestSite_EveryRouteRenders(t *testing.T) {
	site, set := newSite(t)
	for _, r := range set.All() {
		res, err := site.Render(context.Background(), r)
		require.NoError(t, err, r.Path)
		assert.NotEmpty(t, res.SEO.Title, r.Path)
		assert.NotEmpty(t, res.SEO.Description, r.Path)
		assert.NotEmpty(t, res.SEO.StructuredData, r.Path)
		assert.GreaterOrEqual(t, len(res.HTML), 800, r.Path)
	}
}

func TestSite_NotFoundHasNoCanonical(t *testing.T) {
	site, _ := newSite(t)
	res, err := site.Render(context.Background(), routes.Route{Path: routes.NotFoundPath, Page: routes.NotFoundPage{}})
	require.NoError(t, err)
	assert.Empty(t, res.SEO.CanonicalURL)
	assert.NotContains(t, string(res.HTML), `rel="canonical"`)
	assert.Equal(t, indexability.RobotsNoIndex, res.SEO.Robots)
}

func TestSite_MissingRecordIsRenderError(t *testing.T) {
	site, _ := newSite(t)
	_, err := site.Render(context.Background(), routes.Route{Path: "/funds/ghost", Page: routes.FundPage{FundID: "ghost"}})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryRender))
}

func TestSite_CanceledContext(t *testing.T) {
	site, set := newSite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ := set.Lookup("/")
	_, err := site.Render(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}
