package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fundsite/internal/config"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func TestSnapshotIndexes(t *testing.T) {
	snap := NewSnapshot(Collections{
		Funds: []Fund{
			{ID: "f1", ManagerID: "m1", CategoryIDs: []string{"c1", "c1"}, TagIDs: []string{"t1"}},
			{ID: "f2", ManagerID: "m1", CategoryIDs: []string{"c1"}},
			{ID: "f1", ManagerID: "m2"}, // duplicate id ignored
		},
		Managers: []Manager{{ID: "m1", Name: "Acme"}},
	}, time.Time{})

	assert.Equal(t, []string{"f1", "f2"}, snap.FundsInCategory("c1"))
	assert.Equal(t, []string{"f1"}, snap.FundsWithTag("t1"))
	assert.Equal(t, []string{"f1", "f2"}, snap.FundsByManager("m1"))
	assert.Empty(t, snap.FundsByManager("m2"))
	assert.Empty(t, snap.FundsInCategory("missing"))

	f, ok := snap.Fund("f2")
	require.True(t, ok)
	assert.Equal(t, "m1", f.ManagerID)
	m, ok := snap.Manager("m1")
	require.True(t, ok)
	assert.Equal(t, "Acme", m.Name)
	assert.Equal(t, 3, snap.Counts()["funds"])
}

func TestDefaultEligibility(t *testing.T) {
	e := NewDefaultEligibility()
	good := Fund{Name: "Alpha", ManagerID: "m1", Description: "A diversified fund investing across global equity markets.", Status: StatusActive}
	assert.True(t, e.FundEligible(good))

	short := good
	short.Description = "Too short."
	assert.False(t, e.FundEligible(short))

	excluded := good
	excluded.Excluded = true
	assert.False(t, e.FundEligible(excluded))

	liquidated := good
	liquidated.Status = StatusLiquidated
	assert.False(t, e.FundEligible(liquidated))

	noManager := good
	noManager.ManagerID = ""
	assert.False(t, e.FundEligible(noManager))

	assert.InDelta(t, 2.0/8.0, e.FundCompleteness(good), 1e-9)
	full := good
	full.Ticker, full.CategoryIDs, full.TagIDs = "ALP", []string{"c"}, []string{"t"}
	full.InceptionDate, full.ExpenseRatio, full.AUM = "2001-01-01", 0.1, 1e9
	assert.InDelta(t, 1.0, e.FundCompleteness(full), 1e-9)
}

type flakySource struct {
	Static
	failures int
	calls    int
	err      error
}

func (f *flakySource) Funds(ctx context.Context) ([]Fund, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return f.Static.Funds(ctx)
}

func TestFetch_RetriesTransientErrors(t *testing.T) {
	src := &flakySource{Static: Static{Data: Collections{Funds: []Fund{{ID: "f1"}}}}, failures: 2, err: errors.New("timeout")}
	cols, err := Fetch(context.Background(), src, fastPolicy())
	require.NoError(t, err)
	assert.Len(t, cols.Funds, 1)
	assert.Equal(t, 3, src.calls)
}

func TestFetch_DoesNotRetryPermanentErrors(t *testing.T) {
	permanent := foundationerrors.ContentError("snapshot missing").Build()
	src := &flakySource{failures: 10, err: permanent}
	_, err := Fetch(context.Background(), src, fastPolicy())
	require.Error(t, err)
	assert.Equal(t, 1, src.calls)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryContent))
}

type countingSource struct {
	Static
	funds int
}

func (c *countingSource) Funds(ctx context.Context) ([]Fund, error) {
	c.funds++
	return c.Static.Funds(ctx)
}

func TestCache_FetchesOnceUntilReset(t *testing.T) {
	src := &countingSource{Static: Static{Data: Collections{Funds: []Fund{{ID: "f1"}}}}}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	cache := NewCache(src, fastPolicy()).WithClock(func() time.Time { return fixed })

	a, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	b, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, src.funds)
	assert.Equal(t, fixed, a.FetchedAt)

	cache.Reset()
	c, err := cache.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, src.funds)
}
