package layout

import (
	"strconv"
	"strings"

	"github.com/gompdf/gompage/internal/document"
	"github.com/gompdf/gompage/internal/parser/html"
	"github.com/gompdf/gompage/internal/style"
	xhtml "golang.org/x/net/html"
)

// BlockBox represents a block-level box in the layout. X, Y, Width and
// Height describe the border box.
type BlockBox struct {
	Node          *html.Node
	Style         style.ComputedStyle
	X             float64
	Y             float64
	Width         float64
	Height        float64
	MarginTop     float64
	MarginRight   float64
	MarginBottom  float64
	MarginLeft    float64
	PaddingTop    float64
	PaddingRight  float64
	PaddingBottom float64
	PaddingLeft   float64
	BorderTop     float64
	BorderBottom  float64
	FontSize      float64
	Children      []Box

	// Top-level bookkeeping
	Pos        int
	Extent     float64
	Marker     bool
	BreakAfter bool
}

// NewBlockBox creates a new block box for an element
func NewBlockBox(node *html.Node, computedStyle style.ComputedStyle) *BlockBox {
	return &BlockBox{
		Node:  node,
		Style: computedStyle,
	}
}

func (b *BlockBox) GetX() float64       { return b.X }
func (b *BlockBox) GetY() float64       { return b.Y }
func (b *BlockBox) GetWidth() float64   { return b.Width }
func (b *BlockBox) GetHeight() float64  { return b.Height }
func (b *BlockBox) GetNode() *html.Node { return b.Node }

// Translate moves the box and all its descendants
func (b *BlockBox) Translate(dx, dy float64) {
	b.X += dx
	b.Y += dy
	for _, c := range b.Children {
		c.Translate(dx, dy)
	}
}

// layoutBlock lays n out with its border box at (x+margin-left, 0). The
// caller positions it vertically with Translate once margins are known.
func (r *renderer) layoutBlock(n *html.Node, x, width float64) *BlockBox {
	st := r.style(n)
	b := NewBlockBox(n, st)
	b.FontSize = r.fontSize(n)
	b.BreakAfter = breaksAfter(st)
	b.X = x
	b.Width = width

	if document.IsMarker(n) {
		b.Marker = true
		return b
	}
	if strings.TrimSpace(st.Get("display")) == "none" {
		return b
	}

	fs := b.FontSize
	b.MarginTop = parseLength(st.Get("margin-top"), width, fs, 0)
	b.MarginRight = parseLength(st.Get("margin-right"), width, fs, 0)
	b.MarginBottom = parseLength(st.Get("margin-bottom"), width, fs, 0)
	b.MarginLeft = parseLength(st.Get("margin-left"), width, fs, 0)
	b.PaddingTop = parseLength(st.Get("padding-top"), width, fs, 0)
	b.PaddingRight = parseLength(st.Get("padding-right"), width, fs, 0)
	b.PaddingBottom = parseLength(st.Get("padding-bottom"), width, fs, 0)
	b.PaddingLeft = parseLength(st.Get("padding-left"), width, fs, 0)
	b.BorderTop = parseLength(st.Get("border-top-width"), width, fs, 0)
	b.BorderBottom = parseLength(st.Get("border-bottom-width"), width, fs, 0)

	b.X = x + b.MarginLeft
	b.Width = max(0, width-b.MarginLeft-b.MarginRight)
	if v, ok := st.Specified("width"); ok {
		if w := parseLength(v, width, fs, -1); w >= 0 {
			b.Width = w + b.PaddingLeft + b.PaddingRight
		}
	}

	contentX := b.X + b.PaddingLeft
	contentW := max(0, b.Width-b.PaddingLeft-b.PaddingRight)
	contentY := b.BorderTop + b.PaddingTop

	var contentH float64
	switch {
	case document.IsAtom(n):
		contentH = r.layoutAtom(b, contentX, contentY, contentW)
	case n.IsElement("table"):
		contentH = r.layoutTable(b, contentX, contentY, contentW)
	default:
		contentH = r.layoutFlow(b, contentX, contentY, contentW)
	}
	if v, ok := st.Specified("height"); ok {
		if h := parseLength(v, 0, fs, -1); h >= 0 {
			contentH = h
		}
	}
	if v, ok := st.Specified("min-height"); ok {
		contentH = max(contentH, parseLength(v, 0, fs, 0))
	}

	b.Height = b.BorderTop + b.PaddingTop + contentH + b.PaddingBottom + b.BorderBottom
	return b
}

func breaksAfter(st style.ComputedStyle) bool {
	switch strings.TrimSpace(st.Get("page-break-after")) {
	case "always", "page", "left", "right":
		return true
	}
	return false
}

// layoutFlow stacks the children of b: consecutive inline content forms
// anonymous line boxes, block children stack with collapsed sibling
// margins. It returns the content height.
func (r *renderer) layoutFlow(b *BlockBox, x, y, width float64) float64 {
	cursor := y
	pending := 0.0
	var run []*html.Node

	flush := func() {
		if len(run) == 0 {
			return
		}
		boxes, h := r.layoutInline(b.Node, run, x, cursor+pending, width)
		run = run[:0]
		if len(boxes) == 0 {
			return
		}
		b.Children = append(b.Children, boxes...)
		cursor += pending + h
		pending = 0
	}

	for c := b.Node.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == xhtml.TextNode:
			run = append(run, c)
		case c.Type != xhtml.ElementNode:
		case document.IsBlock(c) || document.IsMarker(c):
			flush()
			child := r.layoutBlock(c, x, width)
			if child.Marker {
				child.Translate(0, cursor)
			} else {
				gap := max(pending, child.MarginTop)
				child.Translate(0, cursor+gap)
				cursor += gap + child.Height
				pending = child.MarginBottom
			}
			b.Children = append(b.Children, child)
		default:
			run = append(run, c)
		}
	}
	flush()
	return cursor + pending - y
}

// layoutAtom sizes rules, images and breaks
func (r *renderer) layoutAtom(b *BlockBox, x, y, width float64) float64 {
	switch {
	case b.Node.IsElement("img"):
		img := r.layoutImage(b.Node, width)
		img.Translate(x, y)
		b.Children = append(b.Children, img)
		return img.Height
	case b.Node.IsElement("br"):
		return r.lineHeight(b.Node)
	}
	return 0
}

// layoutTable arranges rows top to bottom and cells left to right with
// equal column widths. Row height is the tallest cell.
func (r *renderer) layoutTable(b *BlockBox, x, y, width float64) float64 {
	spacing := 0.0
	if strings.TrimSpace(b.Style.Get("border-collapse")) != "collapse" {
		spacing = parseLength(b.Style.Get("border-spacing"), width, b.FontSize, 0)
	}

	rows := tableRows(b.Node)
	cols := 0
	for _, row := range rows {
		n := 0
		for _, cell := range tableCells(row) {
			n += colspan(cell)
		}
		cols = max(cols, n)
	}
	if cols == 0 {
		return 0
	}
	colW := max(0, (width-spacing*float64(cols+1))/float64(cols))

	cursor := y + spacing
	for _, row := range rows {
		rowBox := NewBlockBox(row, r.style(row))
		rowBox.X, rowBox.Y, rowBox.Width = x, cursor, width
		cellX := x + spacing
		rowH := 0.0
		for _, cell := range tableCells(row) {
			span := colspan(cell)
			w := colW*float64(span) + spacing*float64(span-1)
			cb := r.layoutBlock(cell, 0, w)
			cb.Translate(cellX-cb.X, cursor)
			rowBox.Children = append(rowBox.Children, cb)
			rowH = max(rowH, cb.Height)
			cellX += w + spacing
		}
		rowBox.Height = rowH
		b.Children = append(b.Children, rowBox)
		cursor += rowH + spacing
	}
	return cursor - y
}

func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.IsElement("tr"):
			rows = append(rows, c)
		case c.IsElement("thead", "tbody", "tfoot"):
			rows = append(rows, tableRows(c)...)
		}
	}
	return rows
}

func tableCells(row *html.Node) []*html.Node {
	var cells []*html.Node
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.IsElement("td", "th") {
			cells = append(cells, c)
		}
	}
	return cells
}

func colspan(cell *html.Node) int {
	v, ok := cell.GetAttr("colspan")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}
