package sitemap

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/indexability"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

// Input is everything candidate collection and verification read.
type Input struct {
	Snapshot   *content.Snapshot
	Routes     *routes.Set
	Classifier *indexability.Classifier
	// Written holds the route paths actually emitted to disk. Nil means all routes.
	Written map[string]struct{}
}

func (in Input) written(path string) bool {
	if in.Written == nil {
		return true
	}
	_, ok := in.Written[path]
	return ok
}

func (in Input) known(path string) bool {
	if in.Routes == nil {
		return false
	}
	_, ok := in.Routes.Lookup(path)
	return ok
}

type hubPolicy struct {
	freq     ChangeFreq
	priority int // hundredths
}

var hubTable = map[string]hubPolicy{
	"funds":       {Daily, 90},
	"categories":  {Weekly, 80},
	"managers":    {Weekly, 70},
	"compare":     {Weekly, 70},
	"tags":        {Weekly, 60},
	"faq":         {Monthly, 60},
	"team":        {Monthly, 50},
	"about":       {Monthly, 50},
	"methodology": {Monthly, 50},
	"contact":     {Yearly, 30},
	"privacy":     {Yearly, 20},
	"terms":       {Yearly, 20},
}

type lookups struct {
	categories  map[string]content.Category
	tags        map[string]content.Tag
	members     map[string]content.TeamMember
	comparisons map[string]content.Comparison
}

func newLookups(s *content.Snapshot) lookups {
	l := lookups{
		categories:  make(map[string]content.Category, len(s.Categories)),
		tags:        make(map[string]content.Tag, len(s.Tags)),
		members:     make(map[string]content.TeamMember, len(s.TeamMembers)),
		comparisons: make(map[string]content.Comparison, len(s.Comparisons)),
	}
	for _, c := range s.Categories {
		l.categories[c.ID] = c
	}
	for _, t := range s.Tags {
		l.tags[t.ID] = t
	}
	for _, m := range s.TeamMembers {
		l.members[m.ID] = m
	}
	for _, c := range s.Comparisons {
		l.comparisons[c.ID] = c
	}
	return l
}

func lastmod(updated, buildDate time.Time) time.Time {
	if updated.IsZero() {
		return buildDate
	}
	return updated
}

func mk(loc string, mod time.Time, freq ChangeFreq, hundredths int) URL {
	return URL{Loc: loc, LastMod: mod, ChangeFreq: freq, Priority: float64(hundredths) / 100}
}

// Collect is the single authoritative candidate collector: one URL per route
// that was written to disk, is not a legacy alias, and is classified
// indexable, with changefreq and priority from the page-type policy.
func (b *Builder) Collect(in Input) []URL {
	snap := in.Snapshot
	lk := newLookups(snap)
	eligibility := in.Classifier.Eligibility()
	buildDate := b.buildDate()

	var out []URL
	for _, r := range in.Routes.All() {
		if r.LegacyAlias || !in.written(r.Path) {
			continue
		}
		if !in.Classifier.Decide(r).Indexable {
			continue
		}
		loc := routes.AbsURL(b.opts.BaseURL, r.Path)

		switch p := r.Page.(type) {
		case routes.HomePage:
			out = append(out, mk(loc, buildDate, Daily, 100))
		case routes.HubPage:
			pol, ok := hubTable[p.Name]
			if !ok {
				pol = hubPolicy{Monthly, 50}
			}
			out = append(out, mk(loc, buildDate, pol.freq, pol.priority))
		case routes.FundPage:
			f, _ := snap.Fund(p.FundID)
			prio := 80
			if f.Status == content.StatusActive {
				prio += 5
			}
			c := eligibility.FundCompleteness(*f)
			if c >= 0.5 {
				prio += 5
			}
			if c >= 0.9 {
				prio += 5
			}
			out = append(out, mk(loc, lastmod(f.UpdatedAt, buildDate), Weekly, prio))
		case routes.FundAlternativesPage:
			f, _ := snap.Fund(p.FundID)
			prio := 70
			if f.Status == content.StatusActive {
				prio += 10
			}
			out = append(out, mk(loc, lastmod(f.UpdatedAt, buildDate), Weekly, prio))
		case routes.CategoryPage:
			prio := 75
			if len(snap.FundsInCategory(p.CategoryID)) >= 5 {
				prio += 5
			}
			out = append(out, mk(loc, lastmod(lk.categories[p.CategoryID].UpdatedAt, buildDate), Weekly, prio))
		case routes.TagPage:
			out = append(out, mk(loc, lastmod(lk.tags[p.TagID].UpdatedAt, buildDate), Weekly, 70))
		case routes.ManagerPage:
			m, _ := snap.Manager(p.ManagerID)
			prio := 65
			if len(snap.FundsByManager(p.ManagerID)) >= 3 {
				prio += 10
			}
			if strings.TrimSpace(m.Bio) != "" {
				prio += 5
			}
			out = append(out, mk(loc, lastmod(m.UpdatedAt, buildDate), Monthly, prio))
		case routes.ComparisonPage:
			prio := 80
			a, okA := snap.Fund(p.FundAID)
			bf, okB := snap.Fund(p.FundBID)
			if okA && okB && a.Status == content.StatusActive && bf.Status == content.StatusActive {
				prio += 5
			}
			out = append(out, mk(loc, lastmod(lk.comparisons[p.ComparisonID].UpdatedAt, buildDate), Monthly, prio))
		case routes.TeamMemberPage:
			out = append(out, mk(loc, lastmod(lk.members[p.MemberID].UpdatedAt, buildDate), Monthly, 50))
		}
	}
	return out
}
