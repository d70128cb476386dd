package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTML(t *testing.T) {
	out, err := ToHTML("Invests in **large** caps.\n\n- one\n- two\n")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>large</strong>")
	assert.Contains(t, out, "<li>one</li>")
}

func TestToHTML_DropsRawHTML(t *testing.T) {
	out, err := ToHTML("<script>alert(1)</script>\n\nText")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func TestPlainText(t *testing.T) {
	got := PlainText("# Heading\n\nSome *emphasis* and [a link](https://x.test).\nNext line.")
	assert.Equal(t, "Heading Some emphasis and a link. Next line.", got)
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "short text", Summary("short text", 50))
	assert.Equal(t, "alpha beta…", Summary("alpha beta gamma delta", 14))
}
