package pagination

import (
	"math"
	"testing"

	"github.com/gompdf/gompage/internal/layout"
)

func textBlock(y, h float64) *layout.BlockBox {
	return &layout.BlockBox{
		Y:      y,
		Height: h,
		Children: []layout.Box{
			&layout.InlineBox{Y: y, Height: h, Text: "x"},
		},
	}
}

func TestSplitPages(t *testing.T) {
	view := &layout.View{Blocks: []*layout.BlockBox{
		textBlock(0, 400),
		textBlock(400, 400),
		{Y: 800, Marker: true},
		textBlock(800, 100),
		textBlock(900, 700),
		textBlock(1600, 300),
	}}

	pages := SplitPages(view, 1000)
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	wantBoxes := []int{2, 2, 1}
	wantOffset := []float64{0, 800, 1600}
	for i, p := range pages {
		if p.Number != i+1 {
			t.Errorf("page %d: expected number %d, got %d", i, i+1, p.Number)
		}
		if len(p.Boxes) != wantBoxes[i] {
			t.Errorf("page %d: expected %d boxes, got %d", i, wantBoxes[i], len(p.Boxes))
		}
		if p.Offset != wantOffset[i] {
			t.Errorf("page %d: expected offset %v, got %v", i, wantOffset[i], p.Offset)
		}
	}
}

func TestSplitPages_OversizedBoxStaysOnFreshPage(t *testing.T) {
	view := &layout.View{Blocks: []*layout.BlockBox{textBlock(0, 2500)}}
	if got := len(SplitPages(view, 1000)); got != 1 {
		t.Errorf("expected 1 page, got %d", got)
	}
}

func TestSplitPages_TrailingMarker(t *testing.T) {
	view := &layout.View{Blocks: []*layout.BlockBox{textBlock(0, 10), {Y: 10, Marker: true}}}
	if got := len(SplitPages(view, 1000)); got != 1 {
		t.Errorf("expected no empty trailing page, got %d pages", got)
	}
	if got := len(SplitPages(nil, 1000)); got != 1 {
		t.Errorf("expected one page for a nil view, got %d", got)
	}
}

// lines builds a block of n stacked text lines of height h starting at y
func lines(y, h float64, n int) *layout.BlockBox {
	b := &layout.BlockBox{Y: y, Height: h * float64(n)}
	for i := 0; i < n; i++ {
		b.Children = append(b.Children, &layout.InlineBox{Y: y + h*float64(i), Height: h, Text: "x"})
	}
	return b
}

func TestSplitPages_TallBlockFollowsPlan(t *testing.T) {
	tall := lines(0, 100, 30)
	after := textBlock(3000, 20)
	nodes := []NodeHeightRecord{
		{Height: 3000, Top: 0, Position: 0, Size: 3},
		{Height: 20, Top: 3000, Position: 3, Size: 3},
	}
	plan := Plan(nodes, 500)
	if len(plan) != 6 {
		t.Fatalf("expected 6 breaks, got %+v", plan)
	}

	// Every break lands between the two blocks: the tall block cannot be
	// split and the following one starts past the last boundary.
	blocks := []*layout.BlockBox{tall}
	for _, b := range plan {
		if b.InsertPosition != 3 {
			t.Fatalf("expected every break at position 3, got %+v", b)
		}
		blocks = append(blocks, &layout.BlockBox{Y: 3000, Marker: true})
	}
	blocks = append(blocks, after)

	pages := SplitPages(&layout.View{Blocks: blocks}, 500)
	if len(pages) != len(plan)+1 {
		t.Fatalf("expected %d pages for %d breaks, got %d", len(plan)+1, len(plan), len(pages))
	}
	for _, p := range pages {
		if len(p.Boxes) == 0 {
			t.Errorf("page %d is empty", p.Number)
		}
	}
	if last := pages[len(pages)-1]; len(last.Boxes) != 1 || last.Offset != 3000 {
		t.Errorf("expected the following block alone on the last page, got %d boxes at %v", len(last.Boxes), last.Offset)
	}
}

func TestSplitPages_MarkerOnFreshPage(t *testing.T) {
	tests := []struct {
		name   string
		blocks []*layout.BlockBox
		want   int
	}{
		{"leading marker", []*layout.BlockBox{{Marker: true}, textBlock(0, 10)}, 1},
		{"adjacent markers", []*layout.BlockBox{textBlock(0, 10), {Y: 10, Marker: true}, {Y: 10, Marker: true}, textBlock(10, 10)}, 2},
		{"single oversized box", []*layout.BlockBox{textBlock(0, 2500), {Y: 2500, Marker: true}, {Y: 2500, Marker: true}, textBlock(2500, 10)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages := SplitPages(&layout.View{Blocks: tt.blocks}, 1000)
			if len(pages) != tt.want {
				t.Fatalf("expected %d pages, got %d", tt.want, len(pages))
			}
			for _, p := range pages {
				if len(p.Boxes) == 0 {
					t.Errorf("page %d is empty", p.Number)
				}
			}
		})
	}
}

func TestLookupPageSize(t *testing.T) {
	a4, err := LookupPageSize("a4")
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(a4.HeightPx()-DefaultPageHeight) > 1 {
		t.Errorf("expected A4 height close to %v px, got %v", DefaultPageHeight, a4.HeightPx())
	}
	if _, err := LookupPageSize("B7"); err == nil {
		t.Error("expected error for unknown size")
	}
}
