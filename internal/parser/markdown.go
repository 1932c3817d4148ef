package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings and
// paragraphs become plain lines, so "## Lesson 1: Intro" reads the same as
// "Lesson 1: Intro" in a text file. Soft line breaks inside a paragraph
// are kept.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (string, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var lines []string
	collectBlocks(doc, src, &lines)
	return joinLines(lines), nil
}

func collectBlocks(n ast.Node, src []byte, lines *[]string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			var buf bytes.Buffer
			writeInline(&buf, c, src)
			*lines = append(*lines, strings.Split(buf.String(), "\n")...)
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			segs := c.Lines()
			for i := 0; i < segs.Len(); i++ {
				seg := segs.At(i)
				*lines = append(*lines, strings.TrimRight(string(seg.Value(src)), "\r\n"))
			}
		case *ast.ThematicBreak:
		default:
			// Lists, list items and blockquotes nest further blocks.
			collectBlocks(c, src, lines)
		}
	}
}

func writeInline(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.URL(src))
		default:
			writeInline(buf, c, src)
		}
	}
}
