package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Block elements in <body> become lines and
// <br> breaks a line.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			lines = append(lines, strings.Join(strings.Fields(n.Data), " "))
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "nav", "footer", "head", "template", "noscript":
				return
			case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li", "td", "th", "blockquote", "pre", "dt", "dd", "figcaption":
				lines = append(lines, strings.Split(textContent(n), "\n")...)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return joinLines(lines), nil
}

// textContent flattens an element's text. <br> breaks a line and <pre>
// keeps its own line breaks; other whitespace runs collapse to one space.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(n *html.Node, pre bool)
	extract = func(n *html.Node, pre bool) {
		switch {
		case n.Type == html.TextNode && pre:
			buf.WriteString(n.Data)
		case n.Type == html.TextNode:
			buf.WriteString(strings.ReplaceAll(n.Data, "\n", " "))
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte('\n')
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		case n.Type == html.ElementNode && n.Data == "pre":
			pre = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c, pre)
		}
	}
	extract(n, false)

	lines := strings.Split(buf.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
