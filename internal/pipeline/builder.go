package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/config"
	"git.home.luguber.info/inful/fundsite/internal/content"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/manifest"
	"git.home.luguber.info/inful/fundsite/internal/metrics"
	"git.home.luguber.info/inful/fundsite/internal/notify"
	"git.home.luguber.info/inful/fundsite/internal/observability"
	"git.home.luguber.info/inful/fundsite/internal/version"
)

// textfileWriter is implemented by recorders that can export a Prometheus
// textfile (metrics.PrometheusRecorder).
type textfileWriter interface {
	WriteTextfile(path string) error
}

// Builder runs the full build pipeline against one configuration.
type Builder struct {
	cfg         *config.Config
	cache       *content.Cache
	recorder    metrics.Recorder
	observer    BuildObserver
	publisher   notify.Publisher
	newRenderer RendererFactory
	eligibility content.Eligibility
	now         func() time.Time
	contentDir  string
	sourceName  string
	trigger     string
	stages      []StageDef
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder sets the metrics recorder. Stage and build observations are
// routed through a RecorderObserver unless WithObserver is also given.
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithObserver overrides the build observer.
func WithObserver(o BuildObserver) Option { return func(b *Builder) { b.observer = o } }

// WithPublisher sets where build-completed events go.
func WithPublisher(p notify.Publisher) Option { return func(b *Builder) { b.publisher = p } }

// WithRendererFactory replaces the default html/template renderer.
func WithRendererFactory(f RendererFactory) Option { return func(b *Builder) { b.newRenderer = f } }

// WithEligibility overrides the fund eligibility predicate.
func WithEligibility(e content.Eligibility) Option { return func(b *Builder) { b.eligibility = e } }

// WithClock overrides time.Now for reproducible builds.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// WithContentDir names the directory whose git revision is recorded in the manifest.
func WithContentDir(dir string) Option { return func(b *Builder) { b.contentDir = dir } }

// WithSourceName records the content source name in the manifest.
func WithSourceName(name string) Option { return func(b *Builder) { b.sourceName = name } }

// WithTrigger labels builds started by the daemon ("interval", "watch").
func WithTrigger(t string) Option { return func(b *Builder) { b.trigger = t } }

// WithStages replaces the stage list. Used by tests.
func WithStages(defs []StageDef) Option { return func(b *Builder) { b.stages = defs } }

// NewBuilder returns a Builder for cfg reading content through cache.
func NewBuilder(cfg *config.Config, cache *content.Cache, opts ...Option) *Builder {
	b := &Builder{
		cfg:         cfg,
		cache:       cache,
		recorder:    metrics.NoopRecorder{},
		publisher:   notify.Noop{},
		newRenderer: DefaultRenderer,
		now:         time.Now,
		sourceName:  string(cfg.Content.Source),
	}
	for _, o := range opts {
		o(b)
	}
	if b.observer == nil {
		b.observer = RecorderObserver{Recorder: b.recorder}
	}
	if b.stages == nil {
		b.stages = Stages()
	}
	return b
}

// Build runs every stage and always returns a report, persisted to the output
// root. The error is the stage error that aborted the build, if any.
func (b *Builder) Build(ctx context.Context) (*BuildReport, error) {
	start := b.now()
	b.cache.Reset()

	m := manifest.New(version.Version, start)
	report := newBuildReport(m.ID, start)
	report.ConfigHash = b.cfg.Snapshot()

	ctx = observability.WithBuildID(ctx, m.ID)
	if b.trigger != "" {
		ctx = observability.WithTrigger(ctx, b.trigger)
	}

	bs := &BuildState{
		Config:      b.cfg,
		Root:        b.cfg.Build.OutputDir,
		Cache:       b.cache,
		Recorder:    b.recorder,
		Now:         b.now,
		Manifest:    m,
		Report:      report,
		sourceName:  b.sourceName,
		contentDir:  b.contentDir,
		eligibility: b.eligibility,
		newRenderer: b.newRenderer,
		observer:    b.observer,
	}

	observability.InfoContext(ctx, "Build started", logfields.Path(bs.Root))
	err := runStages(ctx, bs, b.stages)
	report.Finish(b.now())

	if perr := report.Persist(bs.Root); perr != nil {
		observability.WarnContext(ctx, "Cannot persist build report", logfields.Error(perr))
	}
	b.observer.OnBuildComplete(report)
	b.writeTextfile(ctx)
	b.publish(ctx, report)

	attrs := []slog.Attr{
		slog.String("outcome", string(report.Outcome)),
		logfields.DurationMS(float64(report.End.Sub(report.Start).Milliseconds())),
		slog.Int("rendered", report.RenderedPages),
		slog.Int("sitemap_urls", report.SitemapURLs),
	}
	if err != nil {
		observability.ErrorContext(ctx, "Build failed", append(attrs, logfields.Error(err))...)
		return report, err
	}
	observability.InfoContext(ctx, "Build completed", attrs...)
	return report, nil
}

func (b *Builder) writeTextfile(ctx context.Context) {
	path := b.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	w, ok := b.recorder.(textfileWriter)
	if !ok {
		return
	}
	if err := w.WriteTextfile(path); err != nil {
		observability.WarnContext(ctx, "Cannot write metrics textfile", logfields.File(path), logfields.Error(err))
	}
}

func (b *Builder) publish(ctx context.Context, r *BuildReport) {
	errs, warns := r.Issues.Counts()
	ev := notify.BuildCompleted{
		BuildID:     r.BuildID,
		Outcome:     string(r.Outcome),
		OutputDir:   b.cfg.Build.OutputDir,
		Pages:       r.RenderedPages,
		SitemapURLs: r.SitemapURLs,
		Errors:      errs,
		Warnings:    warns,
		DurationMS:  r.End.Sub(r.Start).Milliseconds(),
		Trigger:     b.trigger,
		Timestamp:   r.End.UTC(),
	}
	// A canceled build's context is done; publish on a fresh deadline.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := b.publisher.PublishBuild(pctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		observability.WarnContext(ctx, "Cannot publish build event", logfields.Error(err))
	}
}
