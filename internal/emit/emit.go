// Package emit renders routes through a Renderer and writes the documents to
// the output tree.
package emit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/fsutil"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/metrics"
	"git.home.luguber.info/inful/fundsite/internal/render"
	"git.home.luguber.info/inful/fundsite/internal/routes"
)

// Page is a successfully written document.
type Page struct {
	Route routes.Route
	File  string // absolute path on disk
	SEO   render.SEO
	Bytes int
}

// Failure is a route whose rendering failed.
type Failure struct {
	Route routes.Route
	Err   error
}

// Result is the outcome of one Emit call. Pages and Failures keep route order.
type Result struct {
	Pages    []Page
	Failures []Failure
	Issues   issue.List
}

// Written reports whether path was written.
func (r *Result) Written(path string) bool {
	for _, p := range r.Pages {
		if p.Route.Path == path {
			return true
		}
	}
	return false
}

// WrittenPaths returns the set of route paths written to disk.
func (r *Result) WrittenPaths() map[string]struct{} {
	out := make(map[string]struct{}, len(r.Pages))
	for _, p := range r.Pages {
		out[p.Route.Path] = struct{}{}
	}
	return out
}

// Emitter writes rendered routes below an output root.
type Emitter struct {
	root     string
	renderer render.Renderer
	workers  int
	recorder metrics.Recorder
}

// New returns an Emitter. workers <= 0 means one worker per CPU.
func New(root string, renderer render.Renderer, workers int) *Emitter {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Emitter{root: root, renderer: renderer, workers: workers, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder.
func (e *Emitter) WithRecorder(r metrics.Recorder) *Emitter {
	if r != nil {
		e.recorder = r
	}
	return e
}

// OutputFile maps a route path to its file below root: "/" is index.html,
// a path ending in .html is written as-is, anything else is {path}/index.html.
func OutputFile(root, path string) string {
	clean := strings.Trim(path, "/")
	if clean == "" {
		return filepath.Join(root, "index.html")
	}
	if strings.HasSuffix(clean, ".html") {
		return filepath.Join(root, filepath.FromSlash(clean))
	}
	return filepath.Join(root, filepath.FromSlash(clean), "index.html")
}

type outcome struct {
	page    *Page
	failure *Failure
	issues  issue.List
}

// Emit renders and writes every route with bounded parallelism. A render
// failure is recorded as an error issue and the remaining routes proceed; a
// write failure or cancellation aborts and is returned.
func (e *Emitter) Emit(ctx context.Context, rs []routes.Route) (*Result, error) {
	outcomes := make([]outcome, len(rs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range rs {
		i, r := i, rs[i]
		g.Go(func() error {
			o, err := e.emitOne(gctx, r)
			if err != nil {
				return err
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{}
	for _, o := range outcomes {
		switch {
		case o.page != nil:
			res.Pages = append(res.Pages, *o.page)
		case o.failure != nil:
			res.Failures = append(res.Failures, *o.failure)
		}
		res.Issues = append(res.Issues, o.issues...)
	}
	slog.Info("Pages emitted",
		logfields.Count(len(res.Pages)),
		slog.Int("failed", len(res.Failures)),
		slog.Int("workers", e.workers))
	return res, nil
}

func (e *Emitter) emitOne(ctx context.Context, r routes.Route) (outcome, error) {
	if err := ctx.Err(); err != nil {
		return outcome{}, err
	}
	t0 := time.Now()
	kind := string(r.Kind())
	out, err := e.renderer.Render(ctx, r)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return outcome{}, err
		}
		e.recorder.ObservePageRender(kind, time.Since(t0), false)
		slog.Error("Render failed", logfields.Path(r.Path), logfields.PageKind(kind), logfields.Error(err))
		return outcome{
			failure: &Failure{Route: r, Err: err},
			issues:  issue.List{issue.Errorf(issue.CodeRenderFailed, r.Path, "render failed: %v", err)},
		}, nil
	}

	file := OutputFile(e.root, r.Path)
	if err := fsutil.WriteFileAtomic(file, out.HTML, 0o644); err != nil {
		return outcome{}, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to write page").
			Fatal().WithContext("path", r.Path).WithContext("file", file).Build()
	}
	e.recorder.ObservePageRender(kind, time.Since(t0), true)
	slog.Debug("Page written", logfields.Path(r.Path), logfields.PageKind(kind), logfields.File(file))
	return outcome{
		page:   &Page{Route: r, File: file, SEO: out.SEO, Bytes: len(out.HTML)},
		issues: structure(r, out),
	}, nil
}

// structure performs the cheap per-page checks available right after
// rendering. The post-build validators do the thorough pass.
func structure(r routes.Route, out render.Result) issue.List {
	var l issue.List
	if strings.TrimSpace(out.SEO.Title) == "" || !bytes.Contains(out.HTML, []byte("<title")) {
		l.Add(issue.Warnf(issue.CodePageStructure, r.Path, "rendered page has no title"))
	}
	if _, notFound := r.Page.(routes.NotFoundPage); !notFound && out.SEO.CanonicalURL == "" {
		l.Add(issue.Warnf(issue.CodePageStructure, r.Path, "rendered page reports no canonical URL"))
	}
	if len(out.SEO.StructuredData) == 0 {
		l.Add(issue.Warnf(issue.CodePageStructure, r.Path, "rendered page reports no structured data"))
	}
	return l
}
