package pagination

import (
	"math"
	"reflect"
	"testing"
)

func records(hs ...float64) []NodeHeightRecord {
	var out []NodeHeightRecord
	top := 0.0
	for i, h := range hs {
		out = append(out, NodeHeightRecord{
			ContentType: "paragraph",
			Height:      h,
			Top:         top,
			Position:    i * 3,
			Size:        3,
		})
		top += h
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name       string
		heights    []float64
		pageHeight float64
		want       []Break
	}{
		{
			name:       "empty",
			pageHeight: DefaultPageHeight,
		},
		{
			name:       "fits on one page",
			heights:    []float64{100, 200, 300},
			pageHeight: DefaultPageHeight,
		},
		{
			name:       "bottom exactly on boundary",
			heights:    []float64{500, 623},
			pageHeight: DefaultPageHeight,
		},
		{
			name:       "single overflow",
			heights:    []float64{600, 600},
			pageHeight: DefaultPageHeight,
			want: []Break{
				{PageNumber: 1, BoundaryPixel: 1123, InsertPosition: 3, PrecedingNodeIndex: 0},
			},
		},
		{
			name:       "oversized first node",
			heights:    []float64{3000},
			pageHeight: DefaultPageHeight,
			want: []Break{
				{PageNumber: 1, BoundaryPixel: 1123, InsertPosition: 3, PrecedingNodeIndex: 0},
				{PageNumber: 2, BoundaryPixel: 2246, InsertPosition: 3, PrecedingNodeIndex: 0},
			},
		},
		{
			name:       "oversized node after content",
			heights:    []float64{100, 3000},
			pageHeight: DefaultPageHeight,
			want: []Break{
				{PageNumber: 1, BoundaryPixel: 1123, InsertPosition: 3, PrecedingNodeIndex: 0},
				{PageNumber: 2, BoundaryPixel: 2246, InsertPosition: 6, PrecedingNodeIndex: 1},
			},
		},
		{
			name:       "several pages",
			heights:    []float64{600, 600, 600, 600, 600},
			pageHeight: DefaultPageHeight,
			want: []Break{
				{PageNumber: 1, BoundaryPixel: 1123, InsertPosition: 3, PrecedingNodeIndex: 0},
				{PageNumber: 2, BoundaryPixel: 2246, InsertPosition: 9, PrecedingNodeIndex: 2},
			},
		},
		{
			name:       "zero page height",
			heights:    []float64{600, 600},
			pageHeight: 0,
		},
		{
			name:       "negative page height",
			heights:    []float64{600},
			pageHeight: -10,
		},
		{
			name:       "NaN page height",
			heights:    []float64{600},
			pageHeight: math.NaN(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(records(tt.heights...), tt.pageHeight)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d breaks, got %d (%+v)", len(tt.want), len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("break %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestPlan_Deterministic(t *testing.T) {
	nodes := records(250, 900, 40, 1500, 10, 700, 700)
	first := Plan(nodes, DefaultPageHeight)
	for i := 0; i < 10; i++ {
		if got := Plan(nodes, DefaultPageHeight); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d: expected %+v, got %+v", i, first, got)
		}
	}
}

func TestPlan_PageNumbersIncrease(t *testing.T) {
	got := Plan(records(400, 800, 1200, 50, 2600, 300), 1000)
	for i, b := range got {
		if b.PageNumber != i+1 {
			t.Errorf("break %d: expected page %d, got %d", i, i+1, b.PageNumber)
		}
		if want := float64(i+1) * 1000; b.BoundaryPixel != want {
			t.Errorf("break %d: expected boundary %v, got %v", i, want, b.BoundaryPixel)
		}
	}
}

func TestSamePlacement(t *testing.T) {
	a := []Break{{PageNumber: 1, PrecedingNodeIndex: 0, InsertPosition: 3}}
	shifted := []Break{{PageNumber: 1, PrecedingNodeIndex: 0, InsertPosition: 4}}
	moved := []Break{{PageNumber: 1, PrecedingNodeIndex: 1, InsertPosition: 3}}

	if !samePlacement(a, shifted) {
		t.Error("expected shifted positions to count as the same placement")
	}
	if samePlacement(a, moved) {
		t.Error("expected a different preceding node to differ")
	}
	if samePlacement(a, nil) {
		t.Error("expected different lengths to differ")
	}
	if !samePlacement(nil, nil) {
		t.Error("expected empty plans to match")
	}
}
