// Package markdown renders journal entries. Raw HTML in the source is not
// passed through (goldmark's default), so output is safe to embed.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.Typographer,
			&frontmatter.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithHardWraps(),
			goldmarkhtml.WithXHTML(),
		),
	)

	return &Parser{
		md: md,
	}
}

// Render converts markdown to HTML. Front matter, if any, is dropped.
func (p *Parser) Render(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	err := p.md.Convert(source, &buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderWithFrontmatter converts markdown to HTML and decodes the YAML front
// matter into meta. meta is left untouched when the source has none.
func (p *Parser) RenderWithFrontmatter(source []byte, meta any) ([]byte, error) {
	context := parser.NewContext()
	var buf bytes.Buffer

	err := p.md.Convert(source, &buf, parser.WithContext(context))
	if err != nil {
		return nil, err
	}

	data := frontmatter.Get(context)
	if data != nil {
		err = data.Decode(meta)
		if err != nil {
			return nil, fmt.Errorf("invalid front matter: %w", err)
		}
	}

	return buf.Bytes(), nil
}
