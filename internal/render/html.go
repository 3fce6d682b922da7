// Package render converts message content into text a terminal can show:
// HTML bodies into plain text for quoting and display, plus small width
// helpers for list and status lines.
package render

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// HTMLToText parses an HTML body and emits readable plain text. Block
// elements become paragraph breaks, list items get a dash, blockquotes a
// "> " prefix, and style/script subtrees are dropped entirely.
func HTMLToText(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	var quoteDepth int

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text := collapseSpaces(n.Data)
			if strings.TrimSpace(text) == "" {
				return
			}
			if quoteDepth > 0 {
				prefix := strings.Repeat("> ", minInt(quoteDepth, 3))
				lines := strings.Split(text, "\n")
				for i, ln := range lines {
					if i > 0 {
						b.WriteByte('\n')
					}
					b.WriteString(prefix)
					b.WriteString(strings.TrimRightFunc(ln, unicode.IsSpace))
				}
			} else {
				b.WriteString(text)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			tag := strings.ToLower(n.Data)
			switch tag {
			case "head", "style", "script", "title", "meta", "link":
				// Skip entire subtree
				return
			case "br":
				b.WriteByte('\n')
			case "hr":
				b.WriteString("\n-----\n")
				return
			case "p", "div", "section", "tr":
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					visit(c)
				}
				b.WriteByte('\n')
				if tag == "p" {
					b.WriteByte('\n')
				}
				return
			case "h1", "h2", "h3", "h4", "h5", "h6":
				var inner strings.Builder
				collectText(&inner, n)
				if t := strings.TrimSpace(inner.String()); t != "" {
					b.WriteString(t)
					b.WriteString("\n\n")
				}
				return
			case "ul", "ol":
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && strings.ToLower(c.Data) == "li" {
						b.WriteString("- ")
						for li := c.FirstChild; li != nil; li = li.NextSibling {
							visit(li)
						}
						b.WriteByte('\n')
					}
				}
				b.WriteByte('\n')
				return
			case "blockquote":
				quoteDepth++
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					visit(c)
				}
				quoteDepth--
				b.WriteByte('\n')
				return
			case "a":
				// Keep the link label only; URLs add noise inside a quote
				var inner strings.Builder
				collectText(&inner, n)
				b.WriteString(strings.TrimSpace(inner.String()))
				return
			case "img":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)

	return strings.TrimSpace(NormalizeNewlines(b.String())), nil
}

// collectText flattens a subtree into plain text, honoring br and p breaks.
func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(collapseSpaces(n.Data))
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch tag {
		case "br":
			b.WriteByte('\n')
		case "p":
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				collectText(b, c)
			}
			b.WriteString("\n\n")
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

// NormalizeNewlines converts CRLF and lone CR to LF and collapses runs of
// blank lines down to one.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}

// collapseSpaces squeezes runs of spaces and tabs that HTML treats as a
// single separator, leaving newlines alone.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == '\n' {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return b.String()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
