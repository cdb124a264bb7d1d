// Package markdown wraps the goldmark converter used for all free-text
// content fields. Rendering is pure text-in, text-out; callers decide which
// fields pass through it.
package markdown

import (
	"bytes"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// The converter configuration never changes and goldmark.Markdown is safe
// to share; per-call state lives in the parse itself.
var (
	converter     goldmark.Markdown
	converterOnce sync.Once
)

func getConverter() goldmark.Markdown {
	converterOnce.Do(func() {
		converter = goldmark.New()
	})
	return converter
}

// Render converts markdown to HTML. Invalid input cannot fail the request:
// conversion errors fall back to the raw source.
func Render(src string) string {
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := getConverter().Convert([]byte(src), &buf); err != nil {
		return src
	}
	return buf.String()
}

// Strip reduces markdown to plain text: headings, emphasis, and link
// targets are dropped, leaving the visible words separated by single
// spaces.
func Strip(src string) string {
	if src == "" {
		return ""
	}
	source := []byte(src)
	doc := getConverter().Parser().Parse(text.NewReader(source))
	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			out = append(out, string(t.Segment.Value(source)))
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(strings.Join(out, " ")), " ")
}

// Excerpt returns the plain text of the first block of a markdown
// document.
func Excerpt(src string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(src), "\n\n")
	return Strip(first)
}
