package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/fsutil"
	"git.home.luguber.info/inful/fundsite/internal/issue"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// Output file names.
const (
	SitemapFile = "sitemap.xml"
	IndexFile   = "sitemap-index.xml"
	RobotsFile  = "robots.txt"
)

var chunkName = regexp.MustCompile(`^sitemap-\d+\.xml$`)

// Options configures a Builder.
type Options struct {
	BaseURL        string
	Root           string
	MaxURLsPerFile int
	DiskAudit      bool
	VerifyPass     bool
	// Now supplies the build date. Defaults to time.Now.
	Now func() time.Time
}

// Builder produces the sitemap set for one build.
type Builder struct {
	opts Options
}

// NewBuilder returns a Builder.
func NewBuilder(o Options) *Builder {
	if o.MaxURLsPerFile <= 0 || o.MaxURLsPerFile > MaxURLsPerFile {
		o.MaxURLsPerFile = MaxURLsPerFile
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return &Builder{opts: o}
}

func (b *Builder) buildDate() time.Time {
	t := b.opts.Now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Result describes the emitted sitemap set.
type Result struct {
	URLs    []URL
	Files   []File
	Chunked bool
	// Entry is the file robots.txt advertises.
	Entry  string
	Issues issue.List
}

// Build runs collection, audit, merge, verification, ordering, chunking, and
// writes the sitemap files and robots.txt below the output root.
func (b *Builder) Build(ctx context.Context, in Input) (*Result, error) {
	collected := b.Collect(in)
	slog.Debug("Sitemap candidates collected", logfields.Count(len(collected)))

	res := &Result{}
	var audited []URL
	if b.opts.DiskAudit {
		var (
			auditIssues issue.List
			err         error
		)
		audited, auditIssues, err = b.Audit(in, Keys(collected))
		if err != nil {
			return nil, err
		}
		res.Issues.Add(auditIssues...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	urls := Merge(collected, audited)
	if b.opts.VerifyPass {
		var repaired issue.List
		urls, repaired = b.Verify(in, urls)
		res.Issues.Add(repaired...)
	}
	if len(urls) == 0 {
		return nil, foundationerrors.NewError(foundationerrors.CategorySitemap, "no sitemap URLs collected").Fatal().
			WithContext("root", b.opts.Root).Build()
	}
	Sort(urls)
	res.URLs = urls

	if err := b.write(res); err != nil {
		return nil, err
	}
	slog.Info("Sitemaps generated",
		logfields.Count(len(urls)),
		slog.Int("files", len(res.Files)),
		slog.Bool("chunked", res.Chunked))
	return res, nil
}

func (b *Builder) write(res *Result) error {
	buildDate := b.buildDate()
	chunks := Chunk(res.URLs, b.opts.MaxURLsPerFile)
	if err := b.removeStaleChunks(len(chunks)); err != nil {
		return err
	}

	if len(chunks) == 1 {
		data, err := EncodeURLSet(chunks[0])
		if err != nil {
			return b.writeError(err, SitemapFile)
		}
		if err := b.put(SitemapFile, data); err != nil {
			return err
		}
		res.Files = []File{{Filename: SitemapFile, URLCount: len(chunks[0]), LastMod: buildDate}}
		res.Entry = SitemapFile
		_ = os.Remove(filepath.Join(b.opts.Root, IndexFile))
	} else {
		for i, chunk := range chunks {
			name := fmt.Sprintf("sitemap-%d.xml", i+1)
			data, err := EncodeURLSet(chunk)
			if err != nil {
				return b.writeError(err, name)
			}
			if err := b.put(name, data); err != nil {
				return err
			}
			res.Files = append(res.Files, File{Filename: name, URLCount: len(chunk), LastMod: buildDate})
		}
		index, err := EncodeIndex(b.opts.BaseURL, res.Files)
		if err != nil {
			return b.writeError(err, IndexFile)
		}
		if err := b.put(IndexFile, index); err != nil {
			return err
		}
		// sitemap.xml is overwritten with the index content byte-for-byte.
		if err := b.put(SitemapFile, index); err != nil {
			return err
		}
		res.Chunked = true
		res.Entry = IndexFile
	}

	robots := Robots(b.opts.BaseURL + "/" + res.Entry)
	return b.put(RobotsFile, []byte(robots))
}

// removeStaleChunks deletes sitemap-N.xml files left by an earlier build
// that produced more chunks than this one.
func (b *Builder) removeStaleChunks(keep int) error {
	entries, err := os.ReadDir(b.opts.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return b.writeError(err, b.opts.Root)
	}
	for _, e := range entries {
		if e.IsDir() || !chunkName.MatchString(e.Name()) {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(e.Name(), "sitemap-%d.xml", &n); err == nil && keep > 1 && n <= keep {
			continue
		}
		if err := os.Remove(filepath.Join(b.opts.Root, e.Name())); err != nil {
			return b.writeError(err, e.Name())
		}
	}
	return nil
}

func (b *Builder) put(name string, data []byte) error {
	if err := fsutil.WriteFileAtomic(filepath.Join(b.opts.Root, name), data, 0o644); err != nil {
		return b.writeError(err, name)
	}
	return nil
}

func (b *Builder) writeError(err error, name string) error {
	return foundationerrors.WrapError(err, foundationerrors.CategorySitemap, "failed to write sitemap output").
		Fatal().WithContext("file", name).Build()
}
