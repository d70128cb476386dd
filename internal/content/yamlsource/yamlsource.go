// Package yamlsource reads a content snapshot from a single YAML document.
package yamlsource

import (
	"context"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/fundsite/internal/content"
	foundationerrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
)

// Source decodes the snapshot file once and serves every accessor from it.
type Source struct {
	path string

	once sync.Once
	data content.Collections
	err  error
}

// New returns a Source reading path.
func New(path string) *Source { return &Source{path: path} }

func (s *Source) Name() string { return "yaml" }

func (s *Source) load() (content.Collections, error) {
	s.once.Do(func() {
		s.data, s.err = Decode(s.path)
	})
	return s.data, s.err
}

// Decode reads and parses a snapshot file.
func Decode(path string) (content.Collections, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return content.Collections{}, foundationerrors.WrapError(err, foundationerrors.CategoryContent, "cannot read content snapshot").
			Fatal().WithContext("path", path).Build()
	}
	var c content.Collections
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return content.Collections{}, foundationerrors.WrapError(err, foundationerrors.CategoryContent, "invalid content snapshot").
			Fatal().WithContext("path", path).Build()
	}
	return c, nil
}

func (s *Source) Funds(context.Context) ([]content.Fund, error) {
	c, err := s.load()
	return c.Funds, err
}

func (s *Source) Categories(context.Context) ([]content.Category, error) {
	c, err := s.load()
	return c.Categories, err
}

func (s *Source) Tags(context.Context) ([]content.Tag, error) {
	c, err := s.load()
	return c.Tags, err
}

func (s *Source) Managers(context.Context) ([]content.Manager, error) {
	c, err := s.load()
	return c.Managers, err
}

func (s *Source) TeamMembers(context.Context) ([]content.TeamMember, error) {
	c, err := s.load()
	return c.TeamMembers, err
}

func (s *Source) Comparisons(context.Context) ([]content.Comparison, error) {
	c, err := s.load()
	return c.Comparisons, err
}
