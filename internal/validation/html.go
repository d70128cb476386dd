package validation

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/fsutil"
	"git.home.luguber.info/inful/fundsite/internal/htmlmeta"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/routes"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
)

// SourceHTML names the HTML structural validator in issues.
const SourceHTML = "html"

// HTMLReportFile is written to the output root after HTML validation.
const HTMLReportFile = "html-validation-report.json"

// Default size thresholds in bytes.
const (
	DefaultRichMinBytes = 3000
	DefaultMinBytes     = 800
)

// HTMLOptions configures ValidateHTML.
type HTMLOptions struct {
	Root         string
	RichMinBytes int
	MinBytes     int
	// BaseURL, when set, makes the self-canonical check compare scheme and
	// host as well as the path.
	BaseURL string
	// Routes, when set, identifies legacy alias pages whose canonical
	// deliberately points elsewhere.
	Routes *routes.Set
	Now    func() time.Time
}

// FileResult is the outcome for one document.
type FileResult struct {
	File   string          `json:"file"`
	Path   string          `json:"path"`
	Kind   string          `json:"kind"`
	Bytes  int             `json:"bytes"`
	Passed bool            `json:"passed"`
	Checks map[string]bool `json:"checks"`
	Issues []issue.Issue   `json:"issues,omitempty"`
}

// KindStats aggregates results per inferred page kind.
type KindStats struct {
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}

// HTMLReport is the persisted result of an HTML validation pass.
type HTMLReport struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Files       int                  `json:"files"`
	Passed      int                  `json:"passed"`
	Errors      int                  `json:"errors"`
	Warnings    int                  `json:"warnings"`
	ByKind      map[string]KindStats `json:"by_kind"`
	Results     []FileResult         `json:"results"`
}

// Write persists the report as HTMLReportFile below root.
func (r *HTMLReport) Write(root string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "encode html report").Build()
	}
	return fsutil.WriteFileAtomic(filepath.Join(root, HTMLReportFile), data, 0o644)
}

const kindOther = "other"

var richKinds = map[string]bool{
	string(routes.KindFund):       true,
	string(routes.KindManager):    true,
	string(routes.KindTeamMember): true,
}

// ValidateHTML checks every emitted *.html document below opts.Root except the
// 404 page.
func ValidateHTML(opts HTMLOptions) (*HTMLReport, issue.List, error) {
	if opts.RichMinBytes <= 0 {
		opts.RichMinBytes = DefaultRichMinBytes
	}
	if opts.MinBytes <= 0 {
		opts.MinBytes = DefaultMinBytes
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	var files []string
	err := filepath.WalkDir(opts.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		rel, err := filepath.Rel(opts.Root, p)
		if err != nil {
			return err
		}
		if filepath.ToSlash(rel) == strings.TrimPrefix(routes.NotFoundPath, "/") {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "walk output directory").
			WithContext("root", opts.Root).Build()
	}
	sort.Strings(files)

	report := &HTMLReport{GeneratedAt: now().UTC(), ByKind: make(map[string]KindStats)}
	var all issue.List
	for _, rel := range files {
		res := checkFile(opts, rel)
		l := issue.List(res.Issues).WithSource(SourceHTML)
		res.Issues = l
		errs, warns := l.Counts()
		res.Passed = errs == 0

		report.Files++
		if res.Passed {
			report.Passed++
		}
		report.Errors += errs
		report.Warnings += warns
		ks := report.ByKind[res.Kind]
		ks.Files++
		ks.Errors += errs
		ks.Warnings += warns
		report.ByKind[res.Kind] = ks
		report.Results = append(report.Results, res)
		all.Add(l...)
	}
	slog.Info("HTML validation complete",
		logfields.Count(report.Files),
		slog.Int("errors", report.Errors),
		slog.Int("warnings", report.Warnings))
	return report, all, nil
}

func checkFile(opts HTMLOptions, rel string) FileResult {
	p := pathForFile(rel)
	kind := inferKind(p)
	res := FileResult{File: rel, Path: p, Kind: kind, Checks: make(map[string]bool)}

	meta, err := htmlmeta.ExtractFile(filepath.Join(opts.Root, filepath.FromSlash(rel)))
	if err != nil {
		res.Issues = append(res.Issues, issue.Errorf(issue.CodeUnreadable, rel, "cannot parse document: %v", err))
		return res
	}
	res.Bytes = meta.Size
	add := func(check string, ok bool, fail issue.Issue) {
		res.Checks[check] = ok
		if !ok {
			res.Issues = append(res.Issues, fail)
		}
	}

	titles := 0
	for _, t := range meta.Titles {
		if strings.TrimSpace(t) != "" {
			titles++
		}
	}
	add("title", titles > 0, issue.Errorf(issue.CodeMissingTitle, rel, "document has no non-empty <title>"))
	if titles > 1 {
		add("single_title", false, issue.Errorf(issue.CodeMultipleTitles, rel, "document has %d titles", titles))
	}
	add("description", strings.TrimSpace(meta.Description) != "",
		issue.Errorf(issue.CodeMissingDesc, rel, "document has no meta description"))

	alias := false
	if opts.Routes != nil {
		if r, ok := opts.Routes.Lookup(p); ok {
			alias = r.LegacyAlias
		}
	}
	add("canonical", meta.Canonical != "", issue.Warnf(issue.CodeMissingCanonical, rel, "document has no canonical link"))
	if meta.Canonical != "" && !alias {
		add("canonical_self", selfCanonical(opts.BaseURL, meta.Canonical, p), issue.Warnf(issue.CodeCanonicalNotSelf, rel, "canonical %s does not reference this page", meta.Canonical))
	}

	valid := false
	for _, b := range meta.JSONLD {
		if b.Valid {
			valid = true
			break
		}
	}
	add("structured_data", valid, issue.Warnf(issue.CodeMissingSchema, rel, "document has no valid JSON-LD block"))

	if richKinds[kind] {
		add("size", meta.Size >= opts.RichMinBytes,
			issue.Errorf(issue.CodeThinContent, rel, "%s page is %d bytes, below %d", kind, meta.Size, opts.RichMinBytes))
	} else {
		add("size", meta.Size >= opts.MinBytes,
			issue.Warnf(issue.CodeThinContent, rel, "page is %d bytes, below %d", meta.Size, opts.MinBytes))
	}

	hasFAQ := meta.HasType("FAQPage")
	if faqBearing(kind, p) {
		add("faq", hasFAQ, issue.Warnf(issue.CodeMissingFAQ, rel, "page has no FAQPage structured data"))
	}

	switch routes.PageKind(kind) {
	case routes.KindFund:
		add("primary_entity", meta.HasType("FinancialProduct", "InvestmentFund"),
			issue.Errorf(issue.CodeMissingEntity, rel, "fund page lacks FinancialProduct or InvestmentFund structured data"))
		if hasFAQ {
			add("faq_questions", meta.FAQQuestions() >= 5,
				issue.Warnf(issue.CodeFewFAQQuestions, rel, "fund FAQ has %d questions, want at least 5", meta.FAQQuestions()))
		}
	case routes.KindManager:
		add("primary_entity", meta.HasType("Organization"),
			issue.Errorf(issue.CodeMissingEntity, rel, "manager page lacks Organization structured data"))
	case routes.KindTeamMember:
		add("primary_entity", meta.HasType("Person"),
			issue.Errorf(issue.CodeMissingEntity, rel, "team member page lacks Person structured data"))
	}
	return res
}

func selfCanonical(baseURL, canonical, p string) bool {
	got := sitemap.NormalizeLoc(canonical)
	if baseURL == "" {
		return locPath(got) == p
	}
	return got == sitemap.NormalizeLoc(routes.AbsURL(strings.TrimRight(baseURL, "/"), p))
}

// pathForFile maps an output-relative file back to its route path.
func pathForFile(rel string) string {
	switch {
	case rel == "index.html":
		return "/"
	case strings.HasSuffix(rel, "/index.html"):
		return "/" + strings.TrimSuffix(rel, "/index.html")
	default:
		return "/" + rel
	}
}

func inferKind(p string) string {
	if p == "/" {
		return string(routes.KindHome)
	}
	segs := strings.Split(strings.Trim(p, "/"), "/")
	switch len(segs) {
	case 1:
		if routes.IsStaticPath(p) {
			return string(routes.KindHub)
		}
	case 2:
		switch "/" + segs[0] {
		case routes.PrefixFunds:
			return string(routes.KindFund)
		case routes.PrefixCategories:
			return string(routes.KindCategory)
		case routes.PrefixTags:
			return string(routes.KindTag)
		case routes.PrefixManagers:
			return string(routes.KindManager)
		case routes.PrefixTeam:
			return string(routes.KindTeamMember)
		case routes.PrefixCompare:
			return string(routes.KindComparison)
		}
	case 3:
		if "/"+segs[0] == routes.PrefixFunds && segs[2] == "alternatives" {
			return string(routes.KindFundAlternatives)
		}
	}
	return kindOther
}

func faqBearing(kind, p string) bool {
	switch routes.PageKind(kind) {
	case routes.KindFund, routes.KindFundAlternatives, routes.KindComparison:
		return true
	}
	return p == "/faq"
}
