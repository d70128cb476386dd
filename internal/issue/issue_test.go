package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListCountsAndFilters(t *testing.T) {
	var l List
	l.Add(
		Warnf(CodeMissingCanonical, "/b", "no canonical"),
		Errorf(CodeCanonicalMismatch, "/a", "want %s got %s", "x", "y"),
		Warnf(CodeMissingPage, "/c", "missing"),
	)

	assert.True(t, l.HasErrors())
	e, w := l.Counts()
	assert.Equal(t, 1, e)
	assert.Equal(t, 2, w)
	assert.Len(t, l.Errors(), 1)
	assert.Len(t, l.Warnings(), 2)
	assert.Equal(t, "want x got y", l.Errors()[0].Message)

	sorted := l.Sorted()
	assert.Equal(t, CodeCanonicalMismatch, sorted[0].Code)
	assert.Equal(t, "/b", sorted[1].Context)
	assert.Equal(t, CodeMissingCanonical, l[0].Code, "Sorted must not reorder the receiver")
}

func TestWithSource(t *testing.T) {
	l := List{Warnf(CodeMissingPage, "/x", "m"), {Severity: SeverityError, Code: CodeThinContent, Source: "html"}}
	out := l.WithSource("canonical")
	assert.Equal(t, "canonical", out[0].Source)
	assert.Equal(t, "html", out[1].Source)
	assert.Empty(t, l[0].Source)
}

func TestEmptyList(t *testing.T) {
	var l List
	assert.False(t, l.HasErrors())
	assert.Empty(t, l.Errors())
}

func TestString(t *testing.T) {
	assert.Equal(t, "error [MISSING_TITLE] /x: no title", Errorf(CodeMissingTitle, "/x", "no title").String())
	assert.Equal(t, "warning [SITEMAP_GAP_REPAIRED] gap", Warnf(CodeSitemapGap, "", "gap").String())
}
