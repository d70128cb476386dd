package pipeline

import (
	"time"

	"git.home.luguber.info/inful/fundsite/internal/config"
	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/emit"
	"git.home.luguber.info/inful/fundsite/internal/indexability"
	"git.home.luguber.info/inful/fundsite/internal/manifest"
	"git.home.luguber.info/inful/fundsite/internal/metrics"
	"git.home.luguber.info/inful/fundsite/internal/render"
	"git.home.luguber.info/inful/fundsite/internal/routes"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
)

// RendererFactory builds the page renderer once the snapshot, routes and
// classifier are known.
type RendererFactory func(render.Options) (render.Renderer, error)

// DefaultRenderer returns the built-in html/template renderer.
func DefaultRenderer(o render.Options) (render.Renderer, error) { return render.NewSite(o) }

// BuildState is the explicit context threaded through every stage. Stages
// populate it in order; later stages read what earlier ones produced.
type BuildState struct {
	Config   *config.Config
	Root     string
	Cache    *content.Cache
	Recorder metrics.Recorder
	Now      func() time.Time

	Snapshot   *content.Snapshot
	Routes     *routes.Set
	Classifier *indexability.Classifier
	Renderer   render.Renderer

	Emitted     *emit.Result
	Sitemap     *sitemap.Result
	SitemapLocs []string

	Manifest *manifest.BuildManifest
	Report   *BuildReport

	sourceName  string
	contentDir  string
	eligibility content.Eligibility
	newRenderer RendererFactory
	gate        Gate
	observer    BuildObserver
}
