package pipeline

import (
	"context"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/routes"
	"git.home.luguber.info/inful/fundsite/internal/validation"
)

// ValidateOptions configures ValidateTree.
type ValidateOptions struct {
	Root         string
	RichMinBytes int
	MinBytes     int
	// BaseURL enables the host check of self canonicals; empty checks paths only.
	BaseURL string
	// Routes enables alias detection in the HTML validator; nil skips it.
	Routes *routes.Set
	Now    func() time.Time
}

// ValidateTree runs the post-build validators against an existing output
// tree without rebuilding it. Issues from every validator are returned; the
// error is set only when a validator could not run at all.
func ValidateTree(ctx context.Context, o ValidateOptions) (issue.List, error) {
	var all issue.List

	locs, err := validation.ReadSitemapLocs(o.Root)
	if err != nil {
		return nil, err
	}
	var extra map[string]routes.PageKind
	if o.Routes != nil {
		extra = o.Routes.ContentSlugs()
	}
	all = append(all, validation.ValidateURLShape(locs, extra)...)
	all = append(all, validation.CheckCanonicals(o.Root, locs)...)
	all = append(all, validation.VerifyCriticalFiles(o.Root)...)
	if err := ctx.Err(); err != nil {
		return all, err
	}

	report, l, err := validation.ValidateHTML(validation.HTMLOptions{
		Root:         o.Root,
		RichMinBytes: o.RichMinBytes,
		MinBytes:     o.MinBytes,
		BaseURL:      o.BaseURL,
		Routes:       o.Routes,
		Now:          o.Now,
	})
	if err != nil {
		return all, err
	}
	all = append(all, l...)
	if err := report.Write(o.Root); err != nil {
		return all, err
	}
	return all, nil
}
