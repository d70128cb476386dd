// Package markdown converts the markdown fields of content records (fund
// descriptions, manager and team member bios) to HTML and plain text.
package markdown

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough))

// ToHTML renders src to HTML. Raw HTML in src is not passed through.
func ToHTML(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// PlainText returns the visible text of src with markup removed and
// whitespace collapsed.
func PlainText(src string) string {
	body := []byte(src)
	root := md.Parser().Parse(text.NewReader(body))

	var b strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			if n.Type() == gmast.TypeBlock {
				b.WriteByte(' ')
			}
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Text:
			b.Write(node.Segment.Value(body))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(node.Value)
		}
		return gmast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// Summary is PlainText cut to at most maxRunes runes on a word boundary, with
// an ellipsis when shortened.
func Summary(src string, maxRunes int) string {
	s := PlainText(src)
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:maxRunes-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
