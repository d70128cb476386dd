// Package render defines the page rendering boundary used by the build and
// ships a default html/template implementation.
package render

import (
	"context"
	"encoding/json"

	"git.home.luguber.info/inful/fundsite/internal/routes"
)

// SEO is the search metadata a renderer reports for a page.
type SEO struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	CanonicalURL   string            `json:"canonical_url"`
	Robots         string            `json:"robots"`
	StructuredData []json.RawMessage `json:"structured_data,omitempty"`
}

// Result is a rendered page.
type Result struct {
	HTML []byte
	SEO  SEO
}

// Renderer turns a route into a complete HTML document.
type Renderer interface {
	Render(ctx context.Context, r routes.Route) (Result, error)
}

// Func adapts a function to Renderer.
type Func func(ctx context.Context, r routes.Route) (Result, error)

func (f Func) Render(ctx context.Context, r routes.Route) (Result, error) { return f(ctx, r) }
