package routes

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/slug"
)

// Set is an ordered, path-unique collection of routes. It is built once per
// build and never mutated afterwards.
type Set struct {
	routes []Route
	byPath map[string]int
	// fundSlugs maps fund id to its canonical slug.
	fundSlugs map[string]string
	owners    map[string]string
}

// All returns the routes in emission order. The slice must not be modified.
func (s *Set) All() []Route { return s.routes }

// Len returns the number of routes.
func (s *Set) Len() int { return len(s.routes) }

// Lookup returns the route at path.
func (s *Set) Lookup(path string) (Route, bool) {
	i, ok := s.byPath[path]
	if !ok {
		return Route{}, false
	}
	return s.routes[i], true
}

// FundPath returns the canonical path of a fund, if it has one.
func (s *Set) FundPath(fundID string) (string, bool) {
	sl, ok := s.fundSlugs[fundID]
	if !ok {
		return "", false
	}
	return PrefixFunds + "/" + sl, true
}

// ByKind returns the routes of one kind, in emission order.
func (s *Set) ByKind(kind PageKind) []Route {
	var out []Route
	for _, r := range s.routes {
		if r.Kind() == kind {
			out = append(out, r)
		}
	}
	return out
}

// CountByKind tallies routes per page kind.
func (s *Set) CountByKind() map[PageKind]int {
	out := make(map[PageKind]int)
	for _, r := range s.routes {
		out[r.Kind()]++
	}
	return out
}

// ContentSlugs returns the slug of every non-alias content route (fund,
// category, tag, manager, team member).
func (s *Set) ContentSlugs() map[string]PageKind {
	out := make(map[string]PageKind)
	for _, r := range s.routes {
		if r.LegacyAlias {
			continue
		}
		switch r.Kind() {
		case KindFund, KindCategory, KindTag, KindManager, KindTeamMember:
			if sl := r.Param("slug"); sl != "" {
				if _, seen := out[sl]; !seen {
					out[sl] = r.Kind()
				}
			}
		}
	}
	return out
}

func newSet() *Set {
	return &Set{byPath: make(map[string]int), fundSlugs: make(map[string]string), owners: make(map[string]string)}
}

// add inserts r unless its path is taken, in which case a collision warning
// naming both records is returned and r is dropped.
func (s *Set) add(r Route, owner string) (issue.Issue, bool) {
	if prev, taken := s.owners[r.Path]; taken {
		return issue.Warnf(issue.CodeSlugCollision, r.Path,
			"%s collides with %s; keeping the first", owner, prev), false
	}
	s.owners[r.Path] = owner
	s.byPath[r.Path] = len(s.routes)
	s.routes = append(s.routes, r)
	return issue.Issue{}, true
}

// recordSlug picks the explicit slug when set, the name otherwise.
func recordSlug(explicit, name string) string {
	if explicit != "" {
		if s := slug.Make(explicit); s != "" {
			return s
		}
	}
	return slug.Make(name)
}

// Discover enumerates every page for snap. Static routes come first, then
// one route per record per type. Slug collisions are resolved first-wins and
// reported as warnings, as are records whose slug is empty.
func Discover(snap *content.Snapshot) (*Set, issue.List) {
	set := newSet()
	var issues issue.List

	add := func(r Route, owner string) bool {
		is, ok := set.add(r, owner)
		if !ok {
			issues.Add(is)
		}
		return ok
	}
	emptySlug := func(kind PageKind, id string) {
		issues.Add(issue.Warnf(issue.CodeEmptySlug, string(kind)+":"+id, "record has no usable slug; page not emitted"))
	}

	add(Route{Path: "/", Page: HomePage{}}, "static:home")
	for _, n := range hubNames {
		add(Route{Path: "/" + n, Page: HubPage{Name: n}, Params: map[string]string{"name": n}}, "static:"+n)
	}

	for _, f := range snap.Funds {
		sl := recordSlug(f.Slug, f.Name)
		if sl == "" {
			emptySlug(KindFund, f.ID)
			continue
		}
		if _, dup := set.fundSlugs[f.ID]; dup {
			issues.Add(issue.Warnf(issue.CodeDuplicateID, "fund:"+f.ID,
				"fund id %s appears more than once; keeping the first record", f.ID))
			continue
		}
		owner := "fund:" + f.ID
		if !add(Route{Path: PrefixFunds + "/" + sl, Page: FundPage{FundID: f.ID}, ContentID: f.ID, Params: map[string]string{"slug": sl}}, owner) {
			continue
		}
		set.fundSlugs[f.ID] = sl
		add(Route{Path: PrefixFunds + "/" + sl + "/alternatives", Page: FundAlternativesPage{FundID: f.ID}, ContentID: f.ID,
			Params: map[string]string{"slug": sl}}, owner)
	}
	// Legacy aliases come after every canonical fund path so a current slug
	// always wins over an old one.
	aliased := make(map[string]struct{}, len(set.fundSlugs))
	for _, f := range snap.Funds {
		canonical, ok := set.fundSlugs[f.ID]
		if !ok {
			continue
		}
		if _, done := aliased[f.ID]; done {
			continue
		}
		aliased[f.ID] = struct{}{}
		for _, legacy := range f.LegacySlugs {
			sl := slug.Make(legacy)
			if sl == "" || sl == canonical {
				continue
			}
			add(Route{Path: PrefixFunds + "/" + sl, Page: FundPage{FundID: f.ID}, ContentID: f.ID, LegacyAlias: true,
				Params: map[string]string{"slug": sl, "canonical_slug": canonical}}, "fund-alias:"+f.ID)
		}
	}

	for _, c := range snap.Categories {
		sl := recordSlug(c.Slug, c.Name)
		if sl == "" {
			emptySlug(KindCategory, c.ID)
			continue
		}
		add(Route{Path: PrefixCategories + "/" + sl, Page: CategoryPage{CategoryID: c.ID}, ContentID: c.ID,
			Params: map[string]string{"slug": sl}}, "category:"+c.ID)
	}
	for _, t := range snap.Tags {
		sl := recordSlug(t.Slug, t.Name)
		if sl == "" {
			emptySlug(KindTag, t.ID)
			continue
		}
		add(Route{Path: PrefixTags + "/" + sl, Page: TagPage{TagID: t.ID}, ContentID: t.ID,
			Params: map[string]string{"slug": sl}}, "tag:"+t.ID)
	}
	for _, m := range snap.Managers {
		sl := recordSlug(m.Slug, m.Name)
		if sl == "" {
			emptySlug(KindManager, m.ID)
			continue
		}
		add(Route{Path: PrefixManagers + "/" + sl, Page: ManagerPage{ManagerID: m.ID}, ContentID: m.ID,
			Params: map[string]string{"slug": sl}}, "manager:"+m.ID)
	}
	for _, m := range snap.TeamMembers {
		sl := recordSlug(m.Slug, m.Name)
		if sl == "" {
			emptySlug(KindTeamMember, m.ID)
			continue
		}
		add(Route{Path: PrefixTeam + "/" + sl, Page: TeamMemberPage{MemberID: m.ID}, ContentID: m.ID,
			Params: map[string]string{"slug": sl}}, "team:"+m.ID)
	}
	for _, c := range snap.Comparisons {
		sl := comparisonSlug(set, c)
		if sl == "" {
			emptySlug(KindComparison, c.ID)
			continue
		}
		add(Route{Path: PrefixCompare + "/" + sl, Page: ComparisonPage{ComparisonID: c.ID, FundAID: c.FundAID, FundBID: c.FundBID},
			ContentID: c.ID, Params: map[string]string{"slug": sl}}, "comparison:"+c.ID)
	}

	for _, is := range issues {
		slog.Warn("Route discovery", slog.String("code", string(is.Code)), logfields.Path(is.Context), slog.String("detail", is.Message))
	}
	slog.Debug("Routes discovered", logfields.Count(set.Len()), slog.Int("issues", len(issues)))
	return set, issues
}

// comparisonSlug is "{slugA}-vs-{slugB}" from the members' canonical fund
// slugs; a comparison referencing a fund without a page falls back to its id.
func comparisonSlug(set *Set, c content.Comparison) string {
	a, okA := set.fundSlugs[c.FundAID]
	b, okB := set.fundSlugs[c.FundBID]
	if okA && okB {
		return fmt.Sprintf("%s-vs-%s", a, b)
	}
	return slug.Make(c.ID)
}
