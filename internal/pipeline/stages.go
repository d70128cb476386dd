package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/emit"
	"git.home.luguber.info/inful/fundsite/internal/fsutil"
	"git.home.luguber.info/inful/fundsite/internal/git"
	"git.home.luguber.info/inful/fundsite/internal/indexability"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/manifest"
	"git.home.luguber.info/inful/fundsite/internal/render"
	"git.home.luguber.info/inful/fundsite/internal/routes"
	"git.home.luguber.info/inful/fundsite/internal/sitemap"
	"git.home.luguber.info/inful/fundsite/internal/validation"
)

// Stages returns the build pipeline in execution order.
func Stages() []StageDef {
	return NewPipeline().
		Add(StageInit, stageInit).
		Add(StageAssetCheck, stageAssetCheck).
		Add(StageRenderAll, stageRenderAll).
		Add(StageWriteManifest, stageWriteManifest).
		Add(StageGenerate404, stageGenerate404).
		Add(StageGenerateSitemaps, stageGenerateSitemaps).
		Add(StageValidateSitemapURLs, stageValidateSitemapURLs).
		Add(StageValidateCanonicals, stageValidateCanonicals).
		Add(StageVerifyCriticalFiles, stageVerifyCriticalFiles).
		Add(StageValidateHTML, stageValidateHTML).
		Build()
}

func stageInit(ctx context.Context, bs *BuildState) (issue.List, error) {
	if bs.Config.Build.CleanOutput() {
		if err := cleanOutput(bs.Root); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(bs.Root, 0o750); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot create output directory").
			Fatal().WithContext("path", bs.Root).Build()
	}

	snap, err := bs.Cache.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	bs.Snapshot = snap

	set, issues := routes.Discover(snap)
	bs.Routes = set
	bs.Report.Routes = set.Len()

	opts := []indexability.Option{
		indexability.WithRemovedTeamMembers(bs.Config.Team.RemovedIDs),
		indexability.WithMinBioLength(bs.Config.Team.MinBioLength),
	}
	if bs.eligibility != nil {
		opts = append(opts, indexability.WithEligibility(bs.eligibility))
	}
	bs.Classifier = indexability.New(snap, opts...)

	r, err := bs.newRenderer(render.Options{
		BaseURL:         bs.Config.Site.BaseURL,
		SiteName:        bs.Config.Site.Name,
		SiteDescription: bs.Config.Site.Description,
		Snapshot:        snap,
		Routes:          set,
		Classifier:      bs.Classifier,
		Now:             bs.Now,
	})
	if err != nil {
		return nil, err
	}
	bs.Renderer = r

	if err := bs.Manifest.SetInputs(bs.sourceName, snap); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryInternal, "cannot hash content snapshot").Build()
	}
	bs.Manifest.Inputs.ConfigHash = bs.Report.ConfigHash
	if bs.contentDir != "" {
		bs.Manifest.Revision = git.Lookup(bs.contentDir)
	}

	counts := set.CountByKind()
	attrs := make([]any, 0, len(counts)+1)
	attrs = append(attrs, logfields.Count(set.Len()))
	for _, k := range routes.AllKinds {
		if n := counts[k]; n > 0 {
			attrs = append(attrs, slog.Int(string(k), n))
		}
	}
	slog.Info("Routes discovered", attrs...)
	return issues, nil
}

// cleanOutput removes the contents of root but keeps root itself.
func cleanOutput(root string) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot read output directory").
			Fatal().WithContext("path", root).Build()
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot clean output directory").
				Fatal().WithContext("path", filepath.Join(root, e.Name())).Build()
		}
	}
	return nil
}

func stageAssetCheck(_ context.Context, bs *BuildState) (issue.List, error) {
	dir := bs.Config.Build.AssetsDir
	if dir == "" {
		return nil, nil
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil, foundationerrors.FileSystemError("assets directory is missing").
			WithContext("path", dir).Build()
	}
	n, err := fsutil.CopyTree(dir, bs.Root)
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot copy assets").
			Fatal().WithContext("path", dir).Build()
	}
	slog.Info("Assets copied", logfields.Path(dir), logfields.Count(n))
	return nil, nil
}

func stageRenderAll(ctx context.Context, bs *BuildState) (issue.List, error) {
	em := emit.New(bs.Root, bs.Renderer, bs.Config.Build.Workers).WithRecorder(bs.Recorder)
	res, err := em.Emit(ctx, bs.Routes.All())
	if err != nil {
		return nil, err
	}
	bs.Emitted = res
	bs.Report.RenderedPages = len(res.Pages)
	bs.Report.FailedPages = len(res.Failures)
	if len(res.Failures) > 0 {
		// The gate aborts after this stage; persist the failure list first.
		fillManifestOutputs(bs)
		bs.Manifest.Status = string(OutcomeFailed)
		if err := bs.Manifest.Write(bs.Root); err != nil {
			slog.Warn("Cannot write manifest for failed render", logfields.Error(err))
		}
	}
	return res.Issues, nil
}

func fillManifestOutputs(bs *BuildState) {
	out := &bs.Manifest.Outputs
	out.Pages = len(bs.Emitted.Pages)
	out.PagesByKind = make(map[string]int)
	out.Routes = make([]string, 0, len(bs.Emitted.Pages))
	for _, p := range bs.Emitted.Pages {
		out.PagesByKind[string(p.Route.Kind())]++
		out.Routes = append(out.Routes, p.Route.Path)
	}
	out.Failed = nil
	for _, f := range bs.Emitted.Failures {
		out.Failed = append(out.Failed, manifest.FailedRoute{Path: f.Route.Path, Kind: string(f.Route.Kind()), Error: f.Err.Error()})
	}
	bs.Manifest.Duration = bs.Now().Sub(bs.Report.Start).Milliseconds()
}

func stageWriteManifest(_ context.Context, bs *BuildState) (issue.List, error) {
	fillManifestOutputs(bs)
	bs.Manifest.Status = "rendered"
	if err := bs.Manifest.Write(bs.Root); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot write build manifest").
			Fatal().WithContext("path", bs.Root).Build()
	}
	return nil, nil
}

func stageGenerate404(ctx context.Context, bs *BuildState) (issue.List, error) {
	nf := routes.Route{Path: routes.NotFoundPath, Page: routes.NotFoundPage{}}
	res, err := emit.New(bs.Root, bs.Renderer, 1).WithRecorder(bs.Recorder).Emit(ctx, []routes.Route{nf})
	if err != nil {
		return nil, err
	}
	return res.Issues, nil
}

func stageGenerateSitemaps(ctx context.Context, bs *BuildState) (issue.List, error) {
	b := sitemap.NewBuilder(sitemap.Options{
		BaseURL:        bs.Config.Site.BaseURL,
		Root:           bs.Root,
		MaxURLsPerFile: bs.Config.Sitemap.MaxURLsPerFile,
		DiskAudit:      bs.Config.Sitemap.DiskAuditEnabled(),
		VerifyPass:     bs.Config.Sitemap.VerifyPassEnabled(),
		Now:            bs.Now,
	})
	res, err := b.Build(ctx, sitemap.Input{
		Snapshot:   bs.Snapshot,
		Routes:     bs.Routes,
		Classifier: bs.Classifier,
		Written:    bs.Emitted.WrittenPaths(),
	})
	if err != nil {
		return nil, err
	}
	bs.Sitemap = res
	bs.Report.SitemapURLs = len(res.URLs)
	bs.Report.SitemapFiles = len(res.Files)

	files := []string{sitemap.SitemapFile}
	if res.Chunked {
		files = append(files, sitemap.IndexFile)
		for _, f := range res.Files {
			files = append(files, f.Filename)
		}
	}
	sort.Strings(files)
	hashes, err := manifest.HashFiles(bs.Root, append(files, sitemap.RobotsFile))
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot hash sitemap files").Fatal().Build()
	}
	bs.Manifest.Outputs.SitemapURLs = len(res.URLs)
	bs.Manifest.Outputs.SitemapFiles = files
	bs.Manifest.Outputs.ArtifactHashes = hashes
	bs.Manifest.Duration = bs.Now().Sub(bs.Report.Start).Milliseconds()
	if err := bs.Manifest.Write(bs.Root); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot update build manifest").
			Fatal().WithContext("path", bs.Root).Build()
	}
	return res.Issues, nil
}

func stageValidateSitemapURLs(_ context.Context, bs *BuildState) (issue.List, error) {
	locs, err := validation.ReadSitemapLocs(bs.Root)
	if err != nil {
		return nil, err
	}
	bs.SitemapLocs = locs
	return validation.ValidateURLShape(locs, bs.Routes.ContentSlugs()), nil
}

func stageValidateCanonicals(_ context.Context, bs *BuildState) (issue.List, error) {
	return validation.CheckCanonicals(bs.Root, bs.SitemapLocs), nil
}

func stageVerifyCriticalFiles(_ context.Context, bs *BuildState) (issue.List, error) {
	return validation.VerifyCriticalFiles(bs.Root), nil
}

func stageValidateHTML(_ context.Context, bs *BuildState) (issue.List, error) {
	report, l, err := validation.ValidateHTML(validation.HTMLOptions{
		Root:         bs.Root,
		RichMinBytes: bs.Config.Validation.RichMinBytes,
		MinBytes:     bs.Config.Validation.MinBytes,
		BaseURL:      bs.Config.Site.BaseURL,
		Routes:       bs.Routes,
		Now:          bs.Now,
	})
	if err != nil {
		return nil, err
	}
	if err := report.Write(bs.Root); err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot write HTML validation report").
			Fatal().WithContext("path", bs.Root).Build()
	}
	return l, nil
}
