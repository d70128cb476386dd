package validation

import (
	"net/url"
	"os"
	"path"
	"path/filepath"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
)

// ReadSitemapLocs returns every page loc in the emitted sitemap set, following
// the index to its chunk files when sitemap.xml is an index.
func ReadSitemapLocs(root string) ([]string, error) {
	locs, isIndex, err := readLocs(filepath.Join(root, sitemap.SitemapFile))
	if err != nil {
		return nil, err
	}
	if !isIndex {
		return locs, nil
	}
	var out []string
	for _, child := range locs {
		name := path.Base(locPath(child))
		pages, _, err := readLocs(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		out = append(out, pages...)
	}
	return out, nil
}

func readLocs(file string) ([]string, bool, error) {
	data, err := os.ReadFile(filepath.Clean(file))
	if err != nil {
		return nil, false, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot read sitemap").
			Fatal().WithContext("file", file).Build()
	}
	locs, isIndex, err := sitemap.ParseLocs(data)
	if err != nil {
		return nil, false, foundationerrors.WrapError(err, foundationerrors.CategoryValidation, "invalid sitemap XML").
			Fatal().WithContext("file", file).Build()
	}
	return locs, isIndex, nil
}

// locPath returns the path component of loc, "/" when empty.
func locPath(loc string) string {
	u, err := url.Parse(loc)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
