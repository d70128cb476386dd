package validation

import (
	"strings"

	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/routes"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
)

// SourceURLShape names the URL-shape validator in issues.
const SourceURLShape = "url_shape"

// EssentialPaths must be advertised in every sitemap set.
var EssentialPaths = []string{"/", "/funds", "/categories", "/tags", "/managers", "/compare", "/faq"}

var slugPrefixes = map[string]routes.PageKind{
	routes.PrefixFunds:      routes.KindFund,
	routes.PrefixCategories: routes.KindCategory,
	routes.PrefixTags:       routes.KindTag,
	routes.PrefixManagers:   routes.KindManager,
	routes.PrefixTeam:       routes.KindTeamMember,
}

// SlugsFromLocs collects the content slugs that appear beneath a content
// prefix (/funds/{slug}, /tags/{slug}, ...).
func SlugsFromLocs(locs []string) map[string]routes.PageKind {
	out := make(map[string]routes.PageKind)
	for _, loc := range locs {
		segs := strings.Split(strings.Trim(locPath(loc), "/"), "/")
		if len(segs) != 2 {
			continue
		}
		if kind, ok := slugPrefixes["/"+segs[0]]; ok && segs[1] != "" {
			if _, seen := out[segs[1]]; !seen {
				out[segs[1]] = kind
			}
		}
	}
	return out
}

// ValidateURLShape checks sitemap locs for duplicate index entries, content
// slugs exposed as bare top-level paths, and missing essential paths. Known
// content slugs are derived from locs and merged with extra (which may be nil).
func ValidateURLShape(locs []string, extra map[string]routes.PageKind) issue.List {
	slugs := SlugsFromLocs(locs)
	for s, k := range extra {
		if _, ok := slugs[s]; !ok {
			slugs[s] = k
		}
	}

	var l issue.List
	seen := make(map[string]struct{}, len(locs))
	paths := make(map[string]struct{}, len(locs))
	for _, loc := range locs {
		p := locPath(loc)
		if strings.HasSuffix(p, "/index") || strings.HasSuffix(p, "/index.html") {
			l.Add(issue.Errorf(issue.CodeDuplicateIndex, loc, "sitemap entry addresses an index document directly"))
		}
		key := sitemap.NormalizeLoc(loc)
		if _, dup := seen[key]; dup {
			l.Add(issue.Errorf(issue.CodeDuplicateIndex, loc, "duplicate sitemap entry after normalization"))
		}
		seen[key] = struct{}{}

		trimmed := strings.TrimRight(p, "/")
		if trimmed == "" {
			trimmed = "/"
		}
		paths[trimmed] = struct{}{}

		if segs := strings.Split(strings.Trim(trimmed, "/"), "/"); len(segs) == 1 && segs[0] != "" && !routes.IsStaticPath(trimmed) {
			if kind, ok := slugs[segs[0]]; ok {
				l.Add(issue.Errorf(issue.CodeUnprefixedSlug, loc, "%s slug %q must only appear beneath its prefix", kind, segs[0]))
			}
		}
	}
	for _, e := range EssentialPaths {
		if _, ok := paths[e]; !ok {
			l.Add(issue.Warnf(issue.CodeMissingEssential, e, "essential path missing from sitemap"))
		}
	}
	return l.WithSource(SourceURLShape)
}
