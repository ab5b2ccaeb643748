package layout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gompdf/gompage/internal/parser/html"
	"github.com/gompdf/gompage/internal/style"
	"github.com/gompdf/gompage/internal/text"
	xhtml "golang.org/x/net/html"
)

// InlineBox is one positioned run of text on a line
type InlineBox struct {
	Node     *html.Node
	Style    style.ComputedStyle
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
	Text     string
}

func (b *InlineBox) GetX() float64       { return b.X }
func (b *InlineBox) GetY() float64       { return b.Y }
func (b *InlineBox) GetWidth() float64   { return b.Width }
func (b *InlineBox) GetHeight() float64  { return b.Height }
func (b *InlineBox) GetNode() *html.Node { return b.Node }

// Translate moves the box
func (b *InlineBox) Translate(dx, dy float64) {
	b.X += dx
	b.Y += dy
}

type token struct {
	text        string
	node        *html.Node
	style       style.ComputedStyle
	fs          float64
	lh          float64
	width       float64
	spaceWidth  float64
	spaceBefore bool
	brk         bool
	img         *ImageBox
}

func (t token) height() float64 {
	if t.img != nil {
		return t.img.Height
	}
	return t.lh
}

type placed struct {
	token
	x float64
}

// layoutInline wraps the inline nodes of container into lines starting at
// (x, y) and returns the positioned boxes and the total line height.
func (r *renderer) layoutInline(container *html.Node, nodes []*html.Node, x, y, width float64) ([]Box, float64) {
	cst := r.style(container)
	pre := strings.HasPrefix(strings.TrimSpace(cst.Get("white-space")), "pre")

	var tokens []token
	space := false
	for _, n := range nodes {
		r.collectTokens(n, pre, width, &space, &tokens)
	}
	if len(tokens) == 0 {
		return nil, 0
	}

	align := strings.ToLower(strings.TrimSpace(cst.Get("text-align")))
	if align == "" || align == "start" {
		if cst.Get("direction") == "rtl" || text.BaseDirection(joinTokens(tokens)) == text.RightToLeft {
			align = "right"
		}
	}

	var (
		boxes  []Box
		line   []placed
		lineW  float64
		cursor = y
	)
	emit := func(emptyHeight float64) {
		h := emptyHeight
		for _, p := range line {
			h = max(h, p.height())
		}
		offset := 0.0
		switch align {
		case "right", "end":
			offset = max(0, width-lineW)
		case "center":
			offset = max(0, (width-lineW)/2)
		}
		for _, p := range line {
			if p.img != nil {
				p.img.Translate(x+offset+p.x-p.img.X, cursor+h-p.img.Height-p.img.Y)
				boxes = append(boxes, p.img)
				continue
			}
			boxes = append(boxes, &InlineBox{
				Node:     p.node,
				Style:    p.style,
				X:        x + offset + p.x,
				Y:        cursor + (h-p.lh)/2,
				Width:    p.width,
				Height:   p.lh,
				FontSize: p.fs,
				Text:     p.text,
			})
		}
		cursor += h
		line = line[:0]
		lineW = 0
	}

	add := func(t token) {
		start := lineW
		if t.spaceBefore && len(line) > 0 {
			start += t.spaceWidth
		}
		if !pre && start+t.width > width && len(line) > 0 {
			emit(0)
			start = 0
		}
		line = append(line, placed{token: t, x: start})
		lineW = start + t.width
	}

	for _, t := range tokens {
		if t.brk {
			if len(line) == 0 {
				emit(t.lh)
			} else {
				emit(0)
			}
			continue
		}
		if pre || t.img != nil || t.width <= width {
			add(t)
			continue
		}
		measure := func(s string) float64 { return measureTextWidth(s, t.fs, t.style) }
		pieces := text.Wrap(t.text, width, measure)
		for i, piece := range pieces {
			p := t
			p.text = piece
			p.width = measure(piece)
			p.spaceBefore = i == 0 && t.spaceBefore
			add(p)
		}
	}
	if len(line) > 0 {
		emit(0)
	}
	return boxes, cursor - y
}

// collectTokens turns n into words, forced breaks and images. space
// carries a pending collapsible space between text nodes.
func (r *renderer) collectTokens(n *html.Node, pre bool, width float64, space *bool, out *[]token) {
	switch n.Type {
	case xhtml.TextNode:
		parent := n.Parent
		base := token{
			node:  parent,
			style: r.style(parent),
			fs:    r.fontSize(parent),
			lh:    r.lineHeight(parent),
		}
		base.spaceWidth = measureTextWidth(" ", base.fs, base.style)

		if pre {
			for i, seg := range strings.Split(n.Data, "\n") {
				if i > 0 {
					br := base
					br.brk = true
					*out = append(*out, br)
				}
				if seg = strings.ReplaceAll(seg, "\t", "    "); seg != "" {
					t := base
					t.text = seg
					t.width = measureTextWidth(seg, t.fs, t.style)
					*out = append(*out, t)
				}
			}
			return
		}

		first, _ := utf8.DecodeRuneInString(n.Data)
		last, _ := utf8.DecodeLastRuneInString(n.Data)
		if unicode.IsSpace(first) {
			*space = true
		}
		words := text.Words(text.Normalize(n.Data))
		for _, w := range words {
			t := base
			t.text = w
			t.width = measureTextWidth(w, t.fs, t.style)
			t.spaceBefore = *space
			*out = append(*out, t)
			*space = true
		}
		if len(words) > 0 {
			*space = unicode.IsSpace(last)
		}

	case xhtml.ElementNode:
		if strings.TrimSpace(r.style(n).Get("display")) == "none" {
			return
		}
		switch {
		case n.IsElement("br"):
			*out = append(*out, token{node: n, lh: r.lineHeight(n), brk: true})
			*space = false
			return
		case n.IsElement("img"):
			img := r.layoutImage(n, width)
			*out = append(*out, token{node: n, img: img, width: img.Width, spaceBefore: *space})
			*space = false
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			r.collectTokens(c, pre, width, space, out)
		}
	}
}

func joinTokens(tokens []token) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.text != "" {
			b.WriteString(t.text)
			b.WriteByte(' ')
		}
	}
	return b.String()
}
