package document

import (
	"strings"
	"unicode/utf8"

	"github.com/gompdf/gompage/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

// IsBlock reports whether n is a block-level element
func IsBlock(n *html.Node) bool {
	if n == nil || n.Type != xhtml.ElementNode {
		return false
	}
	switch strings.ToLower(n.Data) {
	case "div", "p", "h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "table", "thead", "tbody", "tfoot",
		"tr", "td", "th", "header", "footer", "section", "article",
		"form", "fieldset", "hr", "blockquote", "address", "main",
		"nav", "aside", "pre", "figure", "figcaption", "dl", "dt", "dd":
		return true
	}
	return false
}

// IsAtom reports whether n occupies a single position and has no
// addressable content.
func IsAtom(n *html.Node) bool {
	if n == nil || n.Type != xhtml.ElementNode {
		return false
	}
	if IsMarker(n) {
		return true
	}
	switch strings.ToLower(n.Data) {
	case "hr", "img", "br":
		return true
	}
	return false
}

// IsTextblock reports whether n is a block holding only inline content
func IsTextblock(n *html.Node) bool {
	if !IsBlock(n) || IsAtom(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsBlock(c) {
			return false
		}
	}
	return true
}

// ContentType maps an element to the editor's node type name
func ContentType(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == xhtml.TextNode {
		return "text"
	}
	if IsMarker(n) {
		return MarkerType
	}
	switch tag := strings.ToLower(n.Data); tag {
	case "p":
		return "paragraph"
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return "heading"
	case "blockquote":
		return "blockquote"
	case "ul":
		return "bulletList"
	case "ol":
		return "orderedList"
	case "li":
		return "listItem"
	case "pre":
		return "codeBlock"
	case "hr":
		return "horizontalRule"
	case "img":
		return "image"
	case "table":
		return "table"
	case "br":
		return "hardBreak"
	default:
		return tag
	}
}

// nodeSize returns the number of positions n occupies
func nodeSize(n *html.Node) int {
	switch n.Type {
	case xhtml.TextNode:
		return utf8.RuneCountInString(n.Data)
	case xhtml.ElementNode:
		if IsAtom(n) {
			return 1
		}
		if IsBlock(n) {
			return contentSize(n) + 2
		}
		return contentSize(n)
	}
	return 0
}

// contentSize returns the summed size of n's children
func contentSize(n *html.Node) int {
	size := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		size += nodeSize(c)
	}
	return size
}

// NodeSize exposes nodeSize for callers outside the package
func NodeSize(n *html.Node) int {
	if n == nil {
		return 0
	}
	return nodeSize(n)
}
