package layout

import (
	"strconv"
	"strings"

	"github.com/gompdf/gompage/internal/parser/html"
	"github.com/gompdf/gompage/internal/style"
)

// ImageBox represents an <img> element laid out as a replaced element
type ImageBox struct {
	Node   *html.Node
	Style  style.ComputedStyle
	X      float64
	Y      float64
	Width  float64
	Height float64

	// Src is the attribute value, resolved by the exporter through the
	// same loader.
	Src string
}

func (b *ImageBox) GetX() float64       { return b.X }
func (b *ImageBox) GetY() float64       { return b.Y }
func (b *ImageBox) GetWidth() float64   { return b.Width }
func (b *ImageBox) GetHeight() float64  { return b.Height }
func (b *ImageBox) GetNode() *html.Node { return b.Node }

// Translate moves the box
func (b *ImageBox) Translate(dx, dy float64) {
	b.X += dx
	b.Y += dy
}

// layoutImage sizes an image from CSS, then the width/height attributes,
// then its intrinsic size, keeping the aspect ratio when only one side is
// given and scaling down to maxWidth. An image that cannot be sized has
// zero height.
func (r *renderer) layoutImage(n *html.Node, maxWidth float64) *ImageBox {
	st := r.style(n)
	fs := r.fontSize(n)
	src, _ := n.GetAttr("src")
	img := &ImageBox{Node: n, Style: st, Src: src}

	w := dimension(st, n, "width", maxWidth, fs)
	h := dimension(st, n, "height", 0, fs)

	if w < 0 || h < 0 {
		iw, ih := 0.0, 0.0
		if r.loader != nil && src != "" {
			size, err := r.loader.ImageSize(src)
			if err != nil {
				r.logger.Debug("image not sized", "src", truncate(src, 64), "error", err)
			} else {
				iw, ih = float64(size.Width), float64(size.Height)
			}
		}
		switch {
		case w < 0 && h < 0:
			w, h = iw, ih
		case w < 0 && ih > 0:
			w = h * iw / ih
		case h < 0 && iw > 0:
			h = w * ih / iw
		}
		w, h = max(w, 0), max(h, 0)
	}

	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}
	img.Width, img.Height = w, h
	return img
}

// dimension returns the CSS or attribute size of an image, or -1
func dimension(st style.ComputedStyle, n *html.Node, name string, container, fs float64) float64 {
	if v, ok := st.Specified(name); ok {
		if d := parseLength(v, container, fs, -1); d >= 0 {
			return d
		}
	}
	if v, ok := n.GetAttr(name); ok {
		if d, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64); err == nil && d >= 0 {
			return d
		}
	}
	return -1
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
