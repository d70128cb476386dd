package sitemap

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/htmlmeta"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

// PathForFile maps an index document below root back to its route path.
func PathForFile(root, file string) (string, bool) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "index.html" {
		return "/", true
	}
	if !strings.HasSuffix(rel, "/index.html") || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return "/" + strings.TrimSuffix(rel, "/index.html"), true
}

// Audit walks the output tree for index documents not covered by covered
// (a set of normalized locs). Documents at a discovered route are skipped:
// collection already decided them. A document without a self canonical, or
// with a noindex robots directive, is skipped too. Any other uncovered
// document is returned at weekly/0.5 and reported as drift.
func (b *Builder) Audit(in Input, covered map[string]struct{}) ([]URL, issue.List, error) {
	var files []string
	err := filepath.WalkDir(b.opts.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == "index.html" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to walk output tree").
			Fatal().WithContext("root", b.opts.Root).Build()
	}
	sort.Strings(files)

	buildDate := b.buildDate()
	var (
		out    []URL
		issues issue.List
	)
	for _, file := range files {
		p, ok := PathForFile(b.opts.Root, file)
		if !ok {
			continue
		}
		if in.known(p) {
			continue
		}
		self := routes.AbsURL(b.opts.BaseURL, p)
		key := NormalizeLoc(self)
		if _, done := covered[key]; done {
			continue
		}
		meta, err := htmlmeta.ExtractFile(file)
		if err != nil {
			issues.Add(issue.Warnf(issue.CodeUnreadable, file, "cannot read document during sitemap audit: %v", err))
			continue
		}
		if meta.Canonical == "" {
			slog.Debug("Sitemap audit: no canonical; excluded", logfields.Path(p))
			continue
		}
		if NormalizeLoc(meta.Canonical) != key {
			slog.Debug("Sitemap audit: canonical points elsewhere; excluded", logfields.Path(p), logfields.URL(meta.Canonical))
			continue
		}
		if meta.NoIndex() {
			slog.Debug("Sitemap audit: noindex page excluded", logfields.Path(p))
			continue
		}
		out = append(out, URL{Loc: self, LastMod: buildDate, ChangeFreq: Weekly, Priority: 0.5})
		issues.Add(issue.Warnf(issue.CodeSitemapDrift, self, "page on disk was not collected from content; added from disk audit"))
		slog.Warn("Sitemap drift: page found on disk only", logfields.Path(p))
	}
	return out, issues, nil
}
