package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/fundsite/internal/config"
	"git.home.luguber.info/inful/fundsite/internal/content"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 2)
}

func TestSource_FetchWithRetry(t *testing.T) {
	var fundCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/funds", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		if fundCalls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"f1","name":"Alpha","status":"active","category_ids":["c1"]}]`))
	})
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"c1","name":"Equity"}]`))
	})
	for _, p := range []string{"/api/tags", "/api/managers", "/api/team_members", "/api/comparisons"} {
		mux.HandleFunc(p, func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`[]`)) })
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	src := New(srv.URL+"/api/", WithToken("secret"), WithTimeout(time.Second))
	cols, err := content.Fetch(context.Background(), src, fastPolicy())
	require.NoError(t, err)
	assert.EqualValues(t, 2, fundCalls.Load())
	require.Len(t, cols.Funds, 1)
	assert.Equal(t, content.StatusActive, cols.Funds[0].Status)
	assert.Equal(t, []string{"c1"}, cols.Funds[0].CategoryIDs)
	require.Len(t, cols.Categories, 1)
}

func TestSource_ClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := content.Fetch(context.Background(), New(srv.URL), fastPolicy())
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryContent))
}

func TestSource_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Funds(context.Background())
	require.Error(t, err)
	ce, ok := foundationerrors.AsClassified(err)
	require.True(t, ok)
	assert.False(t, ce.CanRetry())
}
