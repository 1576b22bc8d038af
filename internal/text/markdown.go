package text

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// StripMarkdown returns the readable text of a markdown document. Link
// targets, images and raw HTML are dropped; code is kept as text. Headings
// and list items end with a period so the engine pauses after them.
func StripMarkdown(src string) string {
	source := []byte(src)
	doc := markdown.Parser().Parse(gmtext.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML, *ast.Image:
			return ast.WalkSkipChildren, nil

		case *ast.Text:
			if entering {
				b.Write(n.Segment.Value(source))
				if n.SoftLineBreak() || n.HardLineBreak() {
					b.WriteByte(' ')
				}
			}

		case *ast.String:
			if entering {
				b.Write(n.Value)
			}

		case *ast.AutoLink:
			if entering {
				b.Write(n.Label(source))
			}

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					b.Write(seg.Value(source))
					b.WriteByte(' ')
				}
			}
			return ast.WalkSkipChildren, nil

		case *ast.Heading, *ast.ListItem:
			if !entering {
				endSentence(&b)
			}
		}

		if !entering && n.Type() == ast.TypeBlock {
			b.WriteByte('\n')
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// endSentence adds a period unless the text already ends in punctuation.
func endSentence(b *strings.Builder) {
	s := strings.TrimRight(b.String(), " \n")
	if s == "" {
		return
	}
	b.Reset()
	b.WriteString(s)
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		return
	}
	b.WriteByte('.')
}
