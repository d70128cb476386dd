package sitemap

import (
	"log/slog"

	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

// Verify recomputes the expected category, tag and manager URLs directly from
// the snapshot and classifier and appends any that urls lacks at weekly/0.7,
// reporting each as a repaired gap.
func (b *Builder) Verify(in Input, urls []URL) ([]URL, issue.List) {
	have := Keys(urls)
	buildDate := b.buildDate()
	var issues issue.List

	expect := func(kind routes.PageKind, id string, decide func(string) bool) {
		if !decide(id) {
			return
		}
		for _, r := range in.Routes.ByKind(kind) {
			if r.LegacyAlias || r.ContentID != id || !in.written(r.Path) {
				continue
			}
			loc := routes.AbsURL(b.opts.BaseURL, r.Path)
			if _, ok := have[NormalizeLoc(loc)]; ok {
				return
			}
			urls = append(urls, URL{Loc: loc, LastMod: buildDate, ChangeFreq: Weekly, Priority: 0.7})
			have[NormalizeLoc(loc)] = struct{}{}
			issues.Add(issue.Warnf(issue.CodeSitemapGap, loc, "expected %s URL missing from collected set; appended", kind))
			slog.Warn("Sitemap gap repaired", logfields.URL(loc), logfields.PageKind(string(kind)))
			return
		}
	}

	c := in.Classifier
	for _, cat := range in.Snapshot.Categories {
		expect(routes.KindCategory, cat.ID, func(id string) bool { return c.Category(id).Indexable })
	}
	for _, t := range in.Snapshot.Tags {
		expect(routes.KindTag, t.ID, func(id string) bool { return c.Tag(id).Indexable })
	}
	for _, m := range in.Snapshot.Managers {
		expect(routes.KindManager, m.ID, func(id string) bool { return c.Manager(id).Indexable })
	}
	return urls, issues
}
