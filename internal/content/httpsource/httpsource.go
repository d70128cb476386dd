// Package httpsource reads content collections from a JSON HTTP API.
//
// Each collection is served at {base}/{collection} (funds, categories, tags,
// managers, team_members, comparisons) as a JSON array.
package httpsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/fundsite/internal/content"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
)

const maxBodyBytes = 64 << 20

// Source fetches collections over HTTP.
type Source struct {
	base    string
	token   string
	timeout time.Duration
	client  *http.Client
}

// Option configures a Source.
type Option func(*Source)

// WithToken sets a bearer token sent on every request.
func WithToken(token string) Option { return func(s *Source) { s.token = token } }

// WithTimeout bounds each collection request.
func WithTimeout(d time.Duration) Option { return func(s *Source) { s.timeout = d } }

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option { return func(s *Source) { s.client = c } }

// New returns a Source for the API rooted at base.
func New(base string, opts ...Option) *Source {
	s := &Source{
		base:    strings.TrimRight(base, "/"),
		timeout: 10 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: s.timeout}
	}
	return s
}

var _ content.Source = (*Source)(nil)

func (s *Source) Name() string { return "http" }

func (s *Source) Funds(ctx context.Context) ([]content.Fund, error) {
	var out []content.Fund
	return out, s.get(ctx, "funds", &out)
}

func (s *Source) Categories(ctx context.Context) ([]content.Category, error) {
	var out []content.Category
	return out, s.get(ctx, "categories", &out)
}

func (s *Source) Tags(ctx context.Context) ([]content.Tag, error) {
	var out []content.Tag
	return out, s.get(ctx, "tags", &out)
}

func (s *Source) Managers(ctx context.Context) ([]content.Manager, error) {
	var out []content.Manager
	return out, s.get(ctx, "managers", &out)
}

func (s *Source) TeamMembers(ctx context.Context) ([]content.TeamMember, error) {
	var out []content.TeamMember
	return out, s.get(ctx, "team_members", &out)
}

func (s *Source) Comparisons(ctx context.Context) ([]content.Comparison, error) {
	var out []content.Comparison
	return out, s.get(ctx, "comparisons", &out)
}

func (s *Source) get(ctx context.Context, collection string, into any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	url := s.base + "/" + collection
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid content API request").
			WithContext("url", url).Build()
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return foundationerrors.NetworkError("content API request failed").WithCause(err).
			WithContext("url", url).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		b := foundationerrors.NewError(foundationerrors.CategoryContent, fmt.Sprintf("content API returned %d", resp.StatusCode)).
			WithContext("url", url).
			WithContext("status", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			b = b.Retryable()
		}
		return b.Build()
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(into); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryContent, "invalid content API response").
			WithContext("url", url).Build()
	}
	return nil
}
