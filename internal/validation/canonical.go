package validation

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/fundsite/internal/emit"
	"git.home.luguber.info/inful/fundsite/internal/htmlmeta"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
)

// SourceCanonical names the canonical consistency validator in issues.
const SourceCanonical = "canonical"

// ValidateCanonicals checks that every advertised sitemap URL maps to a page
// whose canonical link is that same URL after normalization.
func ValidateCanonicals(root string) (issue.List, error) {
	locs, err := ReadSitemapLocs(root)
	if err != nil {
		return nil, err
	}
	return CheckCanonicals(root, locs), nil
}

// CheckCanonicals validates locs against the pages below root.
func CheckCanonicals(root string, locs []string) issue.List {
	var l issue.List
	for _, loc := range locs {
		file := emit.OutputFile(root, locPath(loc))
		if _, err := os.Stat(file); err != nil {
			l.Add(issue.Warnf(issue.CodeMissingPage, loc, "no page on disk at %s", file))
			continue
		}
		meta, err := htmlmeta.ExtractFile(file)
		if err != nil {
			l.Add(issue.Warnf(issue.CodeUnreadable, file, "cannot read page: %v", err))
			continue
		}
		if meta.Canonical == "" {
			l.Add(issue.Errorf(issue.CodeMissingCanonical, loc, "page advertised in sitemap has no canonical link"))
			continue
		}
		if sitemap.NormalizeLoc(meta.Canonical) != sitemap.NormalizeLoc(loc) {
			l.Add(issue.Errorf(issue.CodeCanonicalMismatch, loc, "canonical %s differs from sitemap URL", meta.Canonical))
		}
	}
	l = l.WithSource(SourceCanonical)
	errs, warns := l.Counts()
	slog.Info("Canonical consistency checked", logfields.Count(len(locs)), slog.Int("errors", errs), slog.Int("warnings", warns))
	return l
}
