package content

import (
	"context"
	"log/slog"
	"sync"
	"time"

	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
	"git.home.luguber.info/inful/fundsite/internal/retry"
)

// Source is the content source adapter: typed accessors per collection.
// Implementations classify permanent failures with RetryNever so the loader
// does not retry them.
type Source interface {
	Name() string
	Funds(ctx context.Context) ([]Fund, error)
	Categories(ctx context.Context) ([]Category, error)
	Tags(ctx context.Context) ([]Tag, error)
	Managers(ctx context.Context) ([]Manager, error)
	TeamMembers(ctx context.Context) ([]TeamMember, error)
	Comparisons(ctx context.Context) ([]Comparison, error)
}

// Retryable is the retry classifier used for source calls: classified errors
// follow their retry hint, unclassified errors are assumed transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if ce, ok := foundationerrors.AsClassified(err); ok {
		return ce.CanRetry()
	}
	return true
}

// Fetch reads every collection from src, each accessor wrapped in the retry policy.
func Fetch(ctx context.Context, src Source, policy retry.Policy) (Collections, error) {
	var c Collections
	steps := []struct {
		op string
		fn func(context.Context) error
	}{
		{"funds", func(ctx context.Context) (err error) { c.Funds, err = src.Funds(ctx); return }},
		{"categories", func(ctx context.Context) (err error) { c.Categories, err = src.Categories(ctx); return }},
		{"tags", func(ctx context.Context) (err error) { c.Tags, err = src.Tags(ctx); return }},
		{"managers", func(ctx context.Context) (err error) { c.Managers, err = src.Managers(ctx); return }},
		{"team_members", func(ctx context.Context) (err error) { c.TeamMembers, err = src.TeamMembers(ctx); return }},
		{"comparisons", func(ctx context.Context) (err error) { c.Comparisons, err = src.Comparisons(ctx); return }},
	}
	for _, st := range steps {
		op := src.Name() + "." + st.op
		if err := retry.Do(ctx, policy, op, Retryable, st.fn); err != nil {
			return Collections{}, foundationerrors.WrapError(err, foundationerrors.CategoryContent, "content fetch failed").
				Fatal().WithContext("operation", op).Build()
		}
	}
	return c, nil
}

// Cache holds the snapshot for one build. It is owned by the build state,
// never shared process-wide, and can be reset between runs.
type Cache struct {
	src    Source
	policy retry.Policy
	now    func() time.Time

	mu   sync.Mutex
	snap *Snapshot
}

// NewCache wraps src with a single-fetch cache.
func NewCache(src Source, policy retry.Policy) *Cache {
	return &Cache{src: src, policy: policy, now: time.Now}
}

// WithClock overrides the clock used for FetchedAt.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Snapshot returns the cached snapshot, fetching it on first use.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap != nil {
		return c.snap, nil
	}
	t0 := time.Now()
	cols, err := Fetch(ctx, c.src, c.policy)
	if err != nil {
		return nil, err
	}
	c.snap = NewSnapshot(cols, c.now())
	slog.Info("Content snapshot loaded",
		logfields.Source(c.src.Name()),
		logfields.Count(len(cols.Funds)),
		logfields.DurationMS(float64(time.Since(t0).Milliseconds())))
	return c.snap, nil
}

// Reset drops the cached snapshot so the next call fetches again.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

// Static is an in-memory Source over fixed collections. Useful for tests and
// for sources that decode a whole document at once.
type Static struct {
	Label string
	Data  Collections
}

func (s Static) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}
func (s Static) Funds(context.Context) ([]Fund, error)             { return s.Data.Funds, nil }
func (s Static) Categories(context.Context) ([]Category, error)    { return s.Data.Categories, nil }
func (s Static) Tags(context.Context) ([]Tag, error)               { return s.Data.Tags, nil }
func (s Static) Managers(context.Context) ([]Manager, error)       { return s.Data.Managers, nil }
func (s Static) TeamMembers(context.Context) ([]TeamMember, error) { return s.Data.TeamMembers, nil }
func (s Static) Comparisons(context.Context) ([]Comparison, error) { return s.Data.Comparisons, nil }
