package render

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

const maxAlternatives = 12

type hubInfo struct {
	heading string
	lead    string
	kind    routes.PageKind // listed kind, empty for static pages
	text    string
}

var hubs = map[string]hubInfo{
	"funds":      {heading: "All funds", lead: "Every fund profile in the directory.", kind: routes.KindFund},
	"categories": {heading: "Fund categories", lead: "Browse funds by strategy and asset class.", kind: routes.KindCategory},
	"tags":       {heading: "Fund tags", lead: "Browse funds by theme.", kind: routes.KindTag},
	"managers":   {heading: "Fund managers", lead: "The firms behind the funds in the directory.", kind: routes.KindManager},
	"team":       {heading: "Editorial team", lead: "The people who research and review every profile.", kind: routes.KindTeamMember},
	"compare":    {heading: "Fund comparisons", lead: "Head-to-head comparisons of similar funds.", kind: routes.KindComparison},
	"faq":        {heading: "Frequently asked questions", lead: "How the directory works and how to read a fund profile."},
	"about":      {heading: "About", lead: "An independent directory of investment funds.", text: "We publish structured, comparable profiles of investment funds and the firms that manage them. Profiles are built from the latest data supplied by managers and public filings, and every page is reviewed by our editorial team."},
	"methodology": {heading: "Methodology", lead: "How profiles are compiled and scored.", text: "Each profile is scored for data completeness across description, ticker, manager, categories, tags, inception date, expense ratio and assets under management. Profiles that fall below our quality bar remain reachable but are hidden from search engines until they are complete."},
	"contact":    {heading: "Contact", lead: "Get in touch with the editorial team.", text: "Corrections, data updates and general questions are welcome. Please include the address of the page you are writing about so we can respond quickly."},
	"privacy":    {heading: "Privacy", lead: "How we handle your data.", text: "The directory does not require an account. We collect only the minimum technical information needed to operate the site and never sell personal data."},
	"terms":      {heading: "Terms of use", lead: "The conditions that apply to using this site.", text: "All content is provided for information only and without warranty. You may link to any page; republishing profiles in bulk requires written permission."},
}

var faqHub = []qa{
	{"What is this directory?", "An independent reference of investment fund profiles, managers and head-to-head comparisons."},
	{"How often is the data updated?", "Profiles are rebuilt whenever the underlying data changes, and at least once a day."},
	{"Why are some funds hidden from search engines?", "Profiles that are incomplete or belong to closed or excluded funds stay reachable but are marked noindex until they meet our quality bar."},
	{"Is this investment advice?", "No. The directory is for information only. Read each fund's official documentation before investing."},
	{"How do I report an error?", "Use the contact page and include the address of the profile in question."},
}

func (s *Site) crumbs(trail ...link) []link {
	return append([]link{{Label: "Home", Href: "/"}}, trail...)
}

func (s *Site) pathOf(kind routes.PageKind, id string) string {
	for _, r := range s.opts.Routes.All() {
		if !r.LegacyAlias && r.Kind() == kind && r.ContentID == id {
			return r.Path
		}
	}
	return ""
}

// label names the record behind a route.
func (s *Site) label(r routes.Route) string {
	switch p := r.Page.(type) {
	case routes.FundPage:
		if f, ok := s.opts.Snapshot.Fund(p.FundID); ok {
			return f.Name
		}
	case routes.CategoryPage:
		if c, ok := s.categories[p.CategoryID]; ok {
			return c.Name
		}
	case routes.TagPage:
		if t, ok := s.tags[p.TagID]; ok {
			return t.Name
		}
	case routes.ManagerPage:
		if m, ok := s.opts.Snapshot.Manager(p.ManagerID); ok {
			return m.Name
		}
	case routes.TeamMemberPage:
		if m, ok := s.members[p.MemberID]; ok {
			return m.Name
		}
	case routes.ComparisonPage:
		return s.fundName(p.FundAID) + " vs " + s.fundName(p.FundBID)
	}
	return r.Path
}

func (s *Site) fundName(id string) string {
	if f, ok := s.opts.Snapshot.Fund(id); ok {
		return f.Name
	}
	return "Unknown fund"
}

func (s *Site) linksOf(kind routes.PageKind) []link {
	var out []link
	for _, r := range s.opts.Routes.All() {
		if r.LegacyAlias || r.Kind() != kind {
			continue
		}
		out = append(out, link{Label: s.label(r), Href: r.Path})
	}
	return out
}

func (s *Site) fundLinks(ids []string) []link {
	out := make([]link, 0, len(ids))
	for _, id := range ids {
		if p := s.pathOf(routes.KindFund, id); p != "" {
			out = append(out, link{Label: s.fundName(id), Href: p})
		}
	}
	return out
}

func (s *Site) home() (view, []ldNode) {
	v := view{
		Heading: s.opts.SiteName,
		Lead:    s.opts.SiteDescription,
	}
	v.SEO.Title = s.opts.SiteName
	v.SEO.Description = describe(s.opts.SiteDescription, "Independent profiles of investment funds, their managers and head-to-head comparisons.")
	funds := s.linksOf(routes.KindFund)
	if len(funds) > maxAlternatives {
		funds = funds[:maxAlternatives]
	}
	v.Sections = []section{
		{Heading: "Featured funds", Links: funds},
		{Heading: "Browse by category", Links: s.linksOf(routes.KindCategory)},
		{Heading: "Fund managers", Links: s.linksOf(routes.KindManager)},
	}
	return v, []ldNode{{
		"@context": schemaContext, "@type": "WebSite",
		"name": s.opts.SiteName, "url": s.opts.BaseURL + "/",
	}}
}

func (s *Site) hub(name string) (view, []ldNode) {
	info, ok := hubs[name]
	if !ok {
		info = hubInfo{heading: strings.ToUpper(name[:1]) + name[1:]}
	}
	v := view{Heading: info.heading, Lead: info.lead, Breadcrumbs: s.crumbs(link{Label: info.heading, Href: "/" + name})}
	v.SEO.Description = describe(info.lead+" "+info.text, info.heading)

	switch {
	case name == "faq":
		v.FAQ = faqHub
		return v, []ldNode{ldFAQ(faqHub)}
	case info.kind != "":
		links := s.linksOf(info.kind)
		v.Sections = []section{{Heading: info.heading, Links: links}}
		if len(links) == 0 {
			v.Sections[0].Text = "Nothing is listed here yet."
		}
		return v, []ldNode{
			{"@context": schemaContext, "@type": "CollectionPage", "name": info.heading, "description": info.lead},
			ldItemList(s.opts.BaseURL, links),
		}
	default:
		v.Sections = []section{{Heading: info.heading, Text: info.text}}
		return v, []ldNode{{"@context": schemaContext, "@type": "WebPage", "name": info.heading, "description": info.lead}}
	}
}

func statusLabel(st content.FundStatus) string {
	if st == "" {
		return "unknown"
	}
	return string(st)
}

func formatAUM(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1f bn", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1f m", v/1e6)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func (s *Site) fundFacts(f *content.Fund) []fact {
	facts := []fact{{"Status", statusLabel(f.Status)}}
	if f.Ticker != "" {
		facts = append(facts, fact{"Ticker", f.Ticker})
	}
	if m, ok := s.opts.Snapshot.Manager(f.ManagerID); ok {
		facts = append(facts, fact{"Manager", m.Name})
	}
	if f.InceptionDate != "" {
		facts = append(facts, fact{"Inception", f.InceptionDate})
	}
	if f.ExpenseRatio > 0 {
		facts = append(facts, fact{"Expense ratio", fmt.Sprintf("%.2f%%", f.ExpenseRatio)})
	}
	if f.AUM > 0 {
		facts = append(facts, fact{"Assets under management", formatAUM(f.AUM)})
	}
	completeness := s.opts.Classifier.Eligibility().FundCompleteness(*f)
	facts = append(facts, fact{"Data completeness", fmt.Sprintf("%.0f%%", completeness*100)})
	return facts
}

func (s *Site) fundFAQ(f *content.Fund) []qa {
	manager := "an undisclosed manager"
	if m, ok := s.opts.Snapshot.Manager(f.ManagerID); ok {
		manager = m.Name
	}
	expense := "The expense ratio has not been reported."
	if f.ExpenseRatio > 0 {
		expense = fmt.Sprintf("The reported expense ratio is %.2f%% per year.", f.ExpenseRatio)
	}
	var cats []string
	for _, id := range f.CategoryIDs {
		if c, ok := s.categories[id]; ok {
			cats = append(cats, c.Name)
		}
	}
	catAnswer := "It has not been assigned to a category yet."
	if len(cats) > 0 {
		catAnswer = f.Name + " is listed under " + strings.Join(cats, ", ") + "."
	}
	return []qa{
		{"What is " + f.Name + "?", describe(f.Description, f.Name+" is an investment fund listed in the directory.")},
		{"Who manages " + f.Name + "?", f.Name + " is managed by " + manager + "."},
		{"What does " + f.Name + " cost?", expense},
		{"Is " + f.Name + " open to new investors?", "The fund's current status is " + statusLabel(f.Status) + "."},
		{"Which categories does " + f.Name + " belong to?", catAnswer},
		{"What are the alternatives to " + f.Name + "?", "See the alternatives page for funds in the same categories."},
	}
}

func (s *Site) fund(id string) (view, []ldNode, error) {
	f, ok := s.opts.Snapshot.Fund(id)
	if !ok {
		return view{}, nil, fmt.Errorf("fund %q not found", id)
	}
	body, err := renderMarkdown(f.Description)
	if err != nil {
		return view{}, nil, err
	}
	self := s.pathOf(routes.KindFund, f.ID)
	v := view{
		Heading:     f.Name,
		Lead:        fmt.Sprintf("Fund profile, key facts and alternatives for %s.", f.Name),
		Body:        body,
		Facts:       s.fundFacts(f),
		FAQ:         s.fundFAQ(f),
		Breadcrumbs: s.crumbs(link{Label: "Funds", Href: "/funds"}, link{Label: f.Name, Href: self}),
	}
	v.SEO.Description = describe(f.Description, "Profile of "+f.Name+": key facts, manager and alternatives.")

	var catLinks, tagLinks []link
	for _, cid := range f.CategoryIDs {
		if p := s.pathOf(routes.KindCategory, cid); p != "" {
			catLinks = append(catLinks, link{Label: s.categories[cid].Name, Href: p})
		}
	}
	for _, tid := range f.TagIDs {
		if p := s.pathOf(routes.KindTag, tid); p != "" {
			tagLinks = append(tagLinks, link{Label: s.tags[tid].Name, Href: p})
		}
	}
	v.Sections = append(v.Sections,
		section{Heading: "Categories", Links: catLinks},
		section{Heading: "Tags", Links: tagLinks},
		section{Heading: "Alternatives", Links: []link{{Label: "Funds similar to " + f.Name, Href: self + "/alternatives"}}},
	)
	var cmp []link
	for _, r := range s.opts.Routes.ByKind(routes.KindComparison) {
		if p, ok := r.Page.(routes.ComparisonPage); ok && (p.FundAID == f.ID || p.FundBID == f.ID) {
			cmp = append(cmp, link{Label: s.label(r), Href: r.Path})
		}
	}
	if len(cmp) > 0 {
		v.Sections = append(v.Sections, section{Heading: "Comparisons", Links: cmp})
	}

	product := ldNode{
		"@context":    schemaContext,
		"@type":       "InvestmentFund",
		"name":        f.Name,
		"description": v.SEO.Description,
		"url":         routes.AbsURL(s.opts.BaseURL, self),
	}
	if f.Ticker != "" {
		product["tickerSymbol"] = f.Ticker
	}
	if m, ok := s.opts.Snapshot.Manager(f.ManagerID); ok {
		product["provider"] = ldNode{"@type": "Organization", "name": m.Name}
	}
	if f.ExpenseRatio > 0 {
		product["feesAndCommissionsSpecification"] = fmt.Sprintf("Expense ratio %.2f%%", f.ExpenseRatio)
	}
	return v, []ldNode{product, ldFAQ(v.FAQ)}, nil
}

func (s *Site) alternatives(id string) (view, []ldNode, error) {
	f, ok := s.opts.Snapshot.Fund(id)
	if !ok {
		return view{}, nil, fmt.Errorf("fund %q not found", id)
	}
	seen := map[string]bool{f.ID: true}
	var ids []string
	collect := func(candidates []string) {
		for _, cid := range candidates {
			if len(ids) >= maxAlternatives || seen[cid] {
				continue
			}
			seen[cid] = true
			ids = append(ids, cid)
		}
	}
	for _, cat := range f.CategoryIDs {
		collect(s.opts.Snapshot.FundsInCategory(cat))
	}
	collect(s.opts.Snapshot.FundsByManager(f.ManagerID))
	links := s.fundLinks(ids)

	self := s.pathOf(routes.KindFund, f.ID)
	v := view{
		Heading: "Alternatives to " + f.Name,
		Lead:    fmt.Sprintf("Funds that share a category or manager with %s.", f.Name),
		Breadcrumbs: s.crumbs(link{Label: "Funds", Href: "/funds"}, link{Label: f.Name, Href: self},
			link{Label: "Alternatives", Href: self + "/alternatives"}),
		Sections: []section{{Heading: "Similar funds", Links: links}},
		FAQ: []qa{
			{"How are alternatives to " + f.Name + " chosen?", "We list funds that share a category with " + f.Name + ", followed by other funds from the same manager."},
			{"Are the alternatives ranked?", "No. Funds are listed in directory order; compare key facts on each profile before deciding."},
		},
	}
	if len(links) == 0 {
		v.Sections[0].Text = "No similar funds are listed yet."
	}
	v.SEO.Description = fmt.Sprintf("Alternatives to %s: %d similar funds by category and manager.", f.Name, len(links))
	return v, []ldNode{ldItemList(s.opts.BaseURL, links), ldFAQ(v.FAQ)}, nil
}

func (s *Site) category(id string) (view, []ldNode, error) {
	c, ok := s.categories[id]
	if !ok {
		return view{}, nil, fmt.Errorf("category %q not found", id)
	}
	body, err := renderMarkdown(c.Description)
	if err != nil {
		return view{}, nil, err
	}
	links := s.fundLinks(s.opts.Snapshot.FundsInCategory(id))
	v := view{
		Heading:     c.Name,
		Lead:        fmt.Sprintf("%d funds in the %s category.", len(links), c.Name),
		Body:        body,
		Breadcrumbs: s.crumbs(link{Label: "Categories", Href: "/categories"}, link{Label: c.Name, Href: s.pathOf(routes.KindCategory, id)}),
		Sections:    []section{{Heading: "Funds", Links: links}},
	}
	v.SEO.Description = describe(c.Description, fmt.Sprintf("Browse %d funds in the %s category.", len(links), c.Name))
	return v, []ldNode{
		{"@context": schemaContext, "@type": "CollectionPage", "name": c.Name, "description": v.SEO.Description},
		ldItemList(s.opts.BaseURL, links),
	}, nil
}

func (s *Site) tag(id string) (view, []ldNode, error) {
	t, ok := s.tags[id]
	if !ok {
		return view{}, nil, fmt.Errorf("tag %q not found", id)
	}
	links := s.fundLinks(s.opts.Snapshot.FundsWithTag(id))
	v := view{
		Heading:     t.Name,
		Lead:        fmt.Sprintf("%d funds tagged %s.", len(links), t.Name),
		Breadcrumbs: s.crumbs(link{Label: "Tags", Href: "/tags"}, link{Label: t.Name, Href: s.pathOf(routes.KindTag, id)}),
		Sections:    []section{{Heading: "Funds", Links: links}},
	}
	v.SEO.Description = fmt.Sprintf("Browse %d funds tagged %s.", len(links), t.Name)
	return v, []ldNode{
		{"@context": schemaContext, "@type": "CollectionPage", "name": t.Name, "description": v.SEO.Description},
		ldItemList(s.opts.BaseURL, links),
	}, nil
}

func (s *Site) manager(id string) (view, []ldNode, error) {
	m, ok := s.opts.Snapshot.Manager(id)
	if !ok {
		return view{}, nil, fmt.Errorf("manager %q not found", id)
	}
	body, err := renderMarkdown(m.Bio)
	if err != nil {
		return view{}, nil, err
	}
	links := s.fundLinks(s.opts.Snapshot.FundsByManager(id))
	v := view{
		Heading:     m.Name,
		Lead:        fmt.Sprintf("%s manages %d funds in the directory.", m.Name, len(links)),
		Body:        body,
		Facts:       []fact{{"Funds listed", fmt.Sprint(len(links))}},
		Breadcrumbs: s.crumbs(link{Label: "Managers", Href: "/managers"}, link{Label: m.Name, Href: s.pathOf(routes.KindManager, id)}),
		Sections:    []section{{Heading: "Funds managed by " + m.Name, Links: links}},
	}
	if m.Website != "" {
		v.Facts = append(v.Facts, fact{"Website", m.Website})
	}
	v.SEO.Description = describe(m.Bio, fmt.Sprintf("%s: fund manager profile and the %d funds it manages.", m.Name, len(links)))
	org := ldNode{"@context": schemaContext, "@type": "Organization", "name": m.Name, "description": v.SEO.Description}
	if m.Website != "" {
		org["url"] = m.Website
	}
	return v, []ldNode{org, ldItemList(s.opts.BaseURL, links)}, nil
}

func (s *Site) teamMember(id string) (view, []ldNode, error) {
	m, ok := s.members[id]
	if !ok {
		return view{}, nil, fmt.Errorf("team member %q not found", id)
	}
	body, err := renderMarkdown(m.Bio)
	if err != nil {
		return view{}, nil, err
	}
	v := view{
		Heading:     m.Name,
		Lead:        m.Role,
		Body:        body,
		Breadcrumbs: s.crumbs(link{Label: "Team", Href: "/team"}, link{Label: m.Name, Href: s.pathOf(routes.KindTeamMember, id)}),
		Sections: []section{{
			Heading: "Editorial standards",
			Text:    "Every profile " + m.Name + " contributes to is checked against our methodology and reviewed by a second editor before publication.",
		}},
	}
	if m.Role != "" {
		v.Facts = []fact{{"Role", m.Role}}
	}
	v.SEO.Description = describe(m.Bio, m.Name+", "+m.Role+" at "+s.opts.SiteName+".")
	person := ldNode{"@context": schemaContext, "@type": "Person", "name": m.Name, "description": v.SEO.Description,
		"worksFor": ldNode{"@type": "Organization", "name": s.opts.SiteName}}
	if m.Role != "" {
		person["jobTitle"] = m.Role
	}
	return v, []ldNode{person}, nil
}

func (s *Site) comparison(p routes.ComparisonPage) (view, []ldNode, error) {
	if _, ok := s.comparisons[p.ComparisonID]; !ok {
		return view{}, nil, fmt.Errorf("comparison %q not found", p.ComparisonID)
	}
	a, b := s.fundName(p.FundAID), s.fundName(p.FundBID)
	heading := a + " vs " + b
	v := view{
		Heading:     heading,
		Lead:        fmt.Sprintf("A side-by-side comparison of %s and %s.", a, b),
		Breadcrumbs: s.crumbs(link{Label: "Compare", Href: "/compare"}, link{Label: heading, Href: s.pathOf(routes.KindComparison, p.ComparisonID)}),
	}
	side := func(id string) section {
		f, ok := s.opts.Snapshot.Fund(id)
		if !ok {
			return section{Heading: "Unknown fund", Text: "This fund is no longer listed."}
		}
		var parts []string
		for _, ft := range s.fundFacts(f) {
			parts = append(parts, ft.Label+": "+ft.Value)
		}
		sec := section{Heading: f.Name, Text: strings.Join(parts, "; ") + "."}
		if path := s.pathOf(routes.KindFund, id); path != "" {
			sec.Links = []link{{Label: "Full profile of " + f.Name, Href: path}}
		}
		return sec
	}
	v.Sections = []section{side(p.FundAID), side(p.FundBID)}
	v.FAQ = []qa{
		{"What is the difference between " + a + " and " + b + "?", "The key facts above list status, manager, costs and size for each fund side by side."},
		{"Which is cheaper, " + a + " or " + b + "?", "Compare the expense ratios shown for each fund; lower ongoing costs compound over time."},
		{"Can I hold both " + a + " and " + b + "?", "Yes, but check how much their holdings overlap before combining them in a portfolio."},
	}
	v.SEO.Description = fmt.Sprintf("Compare %s and %s: status, manager, costs and size side by side.", a, b)
	return v, []ldNode{
		{"@context": schemaContext, "@type": "WebPage", "name": heading, "description": v.SEO.Description},
		ldFAQ(v.FAQ),
	}, nil
}
