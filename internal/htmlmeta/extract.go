// Package htmlmeta reads the search-relevant metadata (title, description,
// canonical link, robots directive, JSON-LD blocks) from rendered pages.
package htmlmeta

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/fundsite/internal/foundation/errors"
)

// Meta is the metadata of one HTML document.
type Meta struct {
	Titles         []string
	Description    string
	HasDescription bool
	Canonical      string
	CanonicalCount int
	Robots         string
	JSONLD         []Block
	Size           int
}

// Block is one application/ld+json script.
type Block struct {
	Valid bool
	// Types are the @type values of the top-level nodes, including @graph members.
	Types []string
	// Questions counts Question entities in FAQPage mainEntity lists.
	Questions int
}

// Title returns the first non-empty title or "".
func (m *Meta) Title() string {
	for _, t := range m.Titles {
		if t != "" {
			return t
		}
	}
	return ""
}

// NoIndex reports whether the robots meta directive contains noindex.
func (m *Meta) NoIndex() bool {
	return strings.Contains(strings.ToLower(m.Robots), "noindex")
}

// HasType reports whether any JSON-LD block declares one of types.
func (m *Meta) HasType(types ...string) bool {
	for _, b := range m.JSONLD {
		for _, have := range b.Types {
			for _, want := range types {
				if have == want {
					return true
				}
			}
		}
	}
	return false
}

// FAQQuestions returns the total number of Question entities across FAQPage blocks.
func (m *Meta) FAQQuestions() int {
	n := 0
	for _, b := range m.JSONLD {
		n += b.Questions
	}
	return n
}

// ExtractFile reads and extracts metadata from an HTML file.
func ExtractFile(path string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read HTML file").
			WithContext("html_path", path).Build()
	}
	return Extract(data)
}

// Extract parses an HTML document.
func Extract(data []byte) (*Meta, error) {
	m, err := ExtractFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	m.Size = len(data)
	return m, nil
}

// ExtractFromReader parses an HTML document from r. Size is left zero.
func ExtractFromReader(r io.Reader) (*Meta, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to parse HTML").Build()
	}
	m := &Meta{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			visit(n, m)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return m, nil
}

func visit(n *html.Node, m *Meta) {
	switch n.Data {
	case "title":
		m.Titles = append(m.Titles, strings.TrimSpace(textOf(n)))
	case "meta":
		switch strings.ToLower(getAttr(n, "name")) {
		case "description":
			if !m.HasDescription {
				m.Description = strings.TrimSpace(getAttr(n, "content"))
				m.HasDescription = true
			}
		case "robots":
			if m.Robots == "" {
				m.Robots = strings.TrimSpace(getAttr(n, "content"))
			}
		}
	case "link":
		if hasToken(getAttr(n, "rel"), "canonical") {
			m.CanonicalCount++
			if m.Canonical == "" {
				m.Canonical = strings.TrimSpace(getAttr(n, "href"))
			}
		}
	case "script":
		if strings.EqualFold(strings.TrimSpace(getAttr(n, "type")), "application/ld+json") {
			m.JSONLD = append(m.JSONLD, parseBlock(textOf(n)))
		}
	}
}

func parseBlock(raw string) Block {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Block{}
	}
	b := Block{Valid: true}
	var nodes []map[string]any
	switch t := v.(type) {
	case map[string]any:
		nodes = append(nodes, t)
	case []any:
		for _, e := range t {
			if obj, ok := e.(map[string]any); ok {
				nodes = append(nodes, obj)
			}
		}
	}
	for _, n := range nodes {
		if graph, ok := n["@graph"].([]any); ok {
			for _, e := range graph {
				if obj, ok := e.(map[string]any); ok {
					nodes = append(nodes, obj)
				}
			}
		}
	}
	for _, n := range nodes {
		types := typesOf(n)
		b.Types = append(b.Types, types...)
		if contains(types, "FAQPage") {
			b.Questions += countQuestions(n["mainEntity"])
		}
	}
	return b
}

func countQuestions(v any) int {
	switch t := v.(type) {
	case []any:
		n := 0
		for _, e := range t {
			if obj, ok := e.(map[string]any); ok && contains(typesOf(obj), "Question") {
				n++
			}
		}
		return n
	case map[string]any:
		if contains(typesOf(t), "Question") {
			return 1
		}
	}
	return 0
}

func typesOf(n map[string]any) []string {
	switch t := n["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

func hasToken(attr, token string) bool {
	for _, f := range strings.Fields(attr) {
		if strings.EqualFold(f, token) {
			return true
		}
	}
	return false
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}
