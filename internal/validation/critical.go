package validation

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/manifest"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
)

// SourceCritical names the critical-file check in issues.
const SourceCritical = "critical_files"

// CriticalFiles are the files a deployable output root must contain.
var CriticalFiles = []string{"index.html", "404.html", sitemap.SitemapFile, sitemap.RobotsFile, manifest.FileName}

// VerifyCriticalFiles reports every missing or empty critical file, plus any
// chunk file a sitemap index references but that is absent.
func VerifyCriticalFiles(root string) issue.List {
	var l issue.List
	for _, name := range CriticalFiles {
		fi, err := os.Stat(filepath.Join(root, name))
		switch {
		case err != nil:
			l.Add(issue.Errorf(issue.CodeMissingFile, name, "critical file missing"))
		case fi.Size() == 0:
			l.Add(issue.Errorf(issue.CodeMissingFile, name, "critical file is empty"))
		}
	}
	if locs, isIndex, err := readLocs(filepath.Join(root, sitemap.SitemapFile)); err == nil && isIndex {
		for _, loc := range locs {
			name := filepath.Base(locPath(loc))
			if _, err := os.Stat(filepath.Join(root, name)); err != nil {
				l.Add(issue.Errorf(issue.CodeMissingFile, name, "sitemap chunk referenced by the index is missing"))
			}
		}
	}
	return l.WithSource(SourceCritical)
}
