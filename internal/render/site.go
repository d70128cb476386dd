package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/content"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/indexability"
	"git.home.luguber.info/inful/fundsite/internal/markdown"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

const descriptionRunes = 160

// Options configures the default site renderer.
type Options struct {
	BaseURL         string
	SiteName        string
	SiteDescription string
	Snapshot        *content.Snapshot
	Routes          *routes.Set
	Classifier      *indexability.Classifier
	// Now is used for the copyright year. Defaults to time.Now.
	Now func() time.Time
}

// Site is the default Renderer: one html/template layout, page views built
// from the snapshot, schema.org JSON-LD per page kind.
type Site struct {
	opts        Options
	categories  map[string]*content.Category
	tags        map[string]*content.Tag
	members     map[string]*content.TeamMember
	comparisons map[string]*content.Comparison
}

var _ Renderer = (*Site)(nil)

// NewSite returns the default renderer.
func NewSite(o Options) (*Site, error) {
	if o.Snapshot == nil || o.Routes == nil || o.Classifier == nil {
		return nil, foundationerrors.InternalError("renderer requires snapshot, routes and classifier").Build()
	}
	if o.SiteName == "" {
		o.SiteName = "Fund Directory"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	s := &Site{
		opts:        o,
		categories:  make(map[string]*content.Category),
		tags:        make(map[string]*content.Tag),
		members:     make(map[string]*content.TeamMember),
		comparisons: make(map[string]*content.Comparison),
	}
	snap := o.Snapshot
	for i := range snap.Categories {
		s.categories[snap.Categories[i].ID] = &snap.Categories[i]
	}
	for i := range snap.Tags {
		s.tags[snap.Tags[i].ID] = &snap.Tags[i]
	}
	for i := range snap.TeamMembers {
		s.members[snap.TeamMembers[i].ID] = &snap.TeamMembers[i]
	}
	for i := range snap.Comparisons {
		s.comparisons[snap.Comparisons[i].ID] = &snap.Comparisons[i]
	}
	return s, nil
}

// Render implements Renderer.
func (s *Site) Render(ctx context.Context, r routes.Route) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	v, ld, err := s.build(r)
	if err != nil {
		return Result{}, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "render failed").
			WithContext("path", r.Path).
			WithContext("page_kind", string(r.Kind())).Build()
	}

	v.SiteName = s.opts.SiteName
	v.Nav = navLinks()
	v.Year = s.opts.Now().UTC().Year()
	v.SEO.Robots = s.opts.Classifier.Decide(r).Robots
	if _, notFound := r.Page.(routes.NotFoundPage); !notFound {
		v.SEO.CanonicalURL = s.canonical(r)
	}
	if v.SEO.Title == "" {
		v.SEO.Title = v.Heading + " | " + s.opts.SiteName
	}
	if len(v.Breadcrumbs) > 0 {
		ld = append(ld, ldBreadcrumbs(s.opts.BaseURL, v.Breadcrumbs))
	}
	raw, js, err := encodeLD(ld)
	if err != nil {
		return Result{}, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "encode structured data").
			WithContext("path", r.Path).Build()
	}
	v.SEO.StructuredData = raw
	v.JSONLD = js

	var buf bytes.Buffer
	if err := layout.Execute(&buf, v); err != nil {
		return Result{}, foundationerrors.WrapError(err, foundationerrors.CategoryRender, "execute layout").
			WithContext("path", r.Path).Build()
	}
	return Result{HTML: buf.Bytes(), SEO: v.SEO}, nil
}

// canonical is the page's own URL, except for legacy aliases which point at
// the fund's current path.
func (s *Site) canonical(r routes.Route) string {
	if r.LegacyAlias {
		if p, ok := s.opts.Routes.FundPath(r.ContentID); ok {
			return routes.AbsURL(s.opts.BaseURL, p)
		}
	}
	return routes.AbsURL(s.opts.BaseURL, r.Path)
}

func (s *Site) build(r routes.Route) (view, []ldNode, error) {
	switch p := r.Page.(type) {
	case routes.HomePage:
		v, ld := s.home()
		return v, ld, nil
	case routes.HubPage:
		v, ld := s.hub(p.Name)
		return v, ld, nil
	case routes.FundPage:
		return s.fund(p.FundID)
	case routes.FundAlternativesPage:
		return s.alternatives(p.FundID)
	case routes.CategoryPage:
		return s.category(p.CategoryID)
	case routes.TagPage:
		return s.tag(p.TagID)
	case routes.ManagerPage:
		return s.manager(p.ManagerID)
	case routes.TeamMemberPage:
		return s.teamMember(p.MemberID)
	case routes.ComparisonPage:
		return s.comparison(p)
	case routes.NotFoundPage:
		v := view{Heading: "Page not found", Lead: "The page you were looking for does not exist or has moved."}
		v.SEO.Title = "Page not found | " + s.opts.SiteName
		v.SEO.Description = "The requested page could not be found."
		v.Sections = []section{{Heading: "Where to next", Links: navLinks()}}
		return v, []ldNode{{"@context": schemaContext, "@type": "WebPage", "name": "Page not found"}}, nil
	default:
		return view{}, nil, fmt.Errorf("unsupported page type %T", r.Page)
	}
}

func navLinks() []link {
	return []link{
		{Label: "Funds", Href: "/funds"},
		{Label: "Categories", Href: "/categories"},
		{Label: "Tags", Href: "/tags"},
		{Label: "Managers", Href: "/managers"},
		{Label: "Compare", Href: "/compare"},
		{Label: "Team", Href: "/team"},
		{Label: "FAQ", Href: "/faq"},
	}
}

func describe(md, fallback string) string {
	if s := markdown.Summary(md, descriptionRunes); s != "" {
		return s
	}
	return fallback
}

func renderMarkdown(md string) (template.HTML, error) {
	if md == "" {
		return "", nil
	}
	out, err := markdown.ToHTML(md)
	if err != nil {
		return "", err
	}
	return template.HTML(out), nil // #nosec G203 -- goldmark output with raw HTML disabled
}
