package pagination

import (
	"fmt"
	"strings"

	"github.com/gompdf/gompage/internal/layout"
)

// PageSize represents standard page sizes
type PageSize struct {
	Width  float64
	Height float64
	Name   string
}

// Standard page sizes in points (1/72 inch)
var (
	PageSizeA4     = PageSize{Width: 595.28, Height: 841.89, Name: "A4"}
	PageSizeLetter = PageSize{Width: 612.00, Height: 792.00, Name: "Letter"}
	PageSizeLegal  = PageSize{Width: 612.00, Height: 1008.00, Name: "Legal"}
	PageSizeA3     = PageSize{Width: 841.89, Height: 1190.55, Name: "A3"}
	PageSizeA5     = PageSize{Width: 419.53, Height: 595.28, Name: "A5"}
)

var pageSizes = []PageSize{PageSizeA4, PageSizeLetter, PageSizeLegal, PageSizeA3, PageSizeA5}

// LookupPageSize finds a standard size by name, ignoring case
func LookupPageSize(name string) (PageSize, error) {
	for _, s := range pageSizes {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return PageSize{}, fmt.Errorf("unknown page size %q", name)
}

// WidthPx returns the width in CSS pixels
func (s PageSize) WidthPx() float64 {
	return s.Width / 72 * 96
}

// HeightPx returns the height in CSS pixels
func (s PageSize) HeightPx() float64 {
	return s.Height / 72 * 96
}

// Margins represents page margins
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Page is one printed page. Boxes keep their view coordinates; Offset is
// the view y that maps to the top of the page.
type Page struct {
	Number int
	Offset float64
	Boxes  []layout.Box
}

// SplitPages distributes the drawable boxes of view over pages of the
// given content height. A box that would overflow the current page starts
// a new one unless it is the first box on it. Markers end the current page
// too, but a marker never leaves an empty page behind: one on a fresh page
// is ignored, and one whose page was already started by overflow claims
// that page instead of opening another.
func SplitPages(view *layout.View, pageHeight float64) []*Page {
	pages := []*Page{{Number: 1}}
	if view == nil {
		return pages
	}

	current := pages[0]
	fresh := true
	overflowed := 0
	newPage := func() {
		current = &Page{Number: len(pages) + 1}
		pages = append(pages, current)
		fresh = true
	}

	for i, block := range view.Blocks {
		last := i == len(view.Blocks)-1
		if block.Marker {
			switch {
			case overflowed > 0:
				overflowed--
			case !fresh && !last:
				newPage()
			}
			continue
		}

		var leaves []layout.Box
		collectLeaves(block, &leaves)
		for _, box := range leaves {
			if fresh {
				current.Offset = box.GetY()
				fresh = false
			} else if pageHeight > 0 && box.GetY()+box.GetHeight()-current.Offset > pageHeight && box.GetY() > current.Offset {
				newPage()
				overflowed++
				current.Offset = box.GetY()
				fresh = false
			}
			current.Boxes = append(current.Boxes, box)
		}
		if block.BreakAfter && !fresh && !last {
			newPage()
		}
	}
	return pages
}

// collectLeaves gathers the boxes the exporter draws: text runs, images
// and childless blocks such as rules.
func collectLeaves(box layout.Box, out *[]layout.Box) {
	switch b := box.(type) {
	case *layout.BlockBox:
		if len(b.Children) == 0 {
			if b.Height > 0 && !b.Marker {
				*out = append(*out, b)
			}
			return
		}
		for _, c := range b.Children {
			collectLeaves(c, out)
		}
	case *layout.InlineBox, *layout.ImageBox:
		*out = append(*out, b)
	}
}
