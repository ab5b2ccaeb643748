package pagination

import (
	"math"
	"testing"

	"github.com/gompdf/gompage/internal/document"
)

func TestCollect(t *testing.T) {
	doc, err := document.ParseHTML(`<body><p>ab</p><div data-type="page-break" data-page-number="1"></div><h1>c</h1><hr></body>`)
	if err != nil {
		t.Fatal(err)
	}
	// p@0 marker@4 h1@5 hr@8
	view := heights{0: 100, 4: 999, 5: 50}

	m := Collect(doc, view, 120)
	if len(m.NodeHeights) != 3 {
		t.Fatalf("expected 3 records, got %+v", m.NodeHeights)
	}

	want := []NodeHeightRecord{
		{ContentType: "paragraph", Height: 100, Top: 0, Position: 0, Size: 4},
		{ContentType: "heading", Height: 50, Top: 100, Position: 5, Size: 3},
		{ContentType: "horizontalRule", Height: 0, Top: 150, Position: 8, Size: 1},
	}
	for i := range want {
		if m.NodeHeights[i] != want[i] {
			t.Errorf("record %d: expected %+v, got %+v", i, want[i], m.NodeHeights[i])
		}
	}
	if m.ContentHeight != 150 {
		t.Errorf("expected content height 150, got %v", m.ContentHeight)
	}
	if m.PageCount != 2 || !m.IsOverflowing || m.OverflowAmount != 30 {
		t.Errorf("unexpected aggregates %+v", m)
	}
	if m.MeasuredAt.IsZero() {
		t.Error("expected MeasuredAt to be set")
	}
}

func TestCollect_MissingView(t *testing.T) {
	doc := paragraphs(t, 10, 20)
	m := Collect(doc, nil, DefaultPageHeight)
	if len(m.NodeHeights) != 2 {
		t.Fatalf("expected 2 records, got %d", len(m.NodeHeights))
	}
	if m.ContentHeight != 0 || m.PageCount != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
}

func TestCollect_InvalidHeights(t *testing.T) {
	doc := paragraphs(t, 0, 0, 0)
	view := heights{0: -5, 3: math.NaN(), 6: math.Inf(1)}
	m := Collect(doc, view, DefaultPageHeight)
	for i, r := range m.NodeHeights {
		if r.Height != 0 {
			t.Errorf("record %d: expected height 0, got %v", i, r.Height)
		}
	}
}

func TestCollect_Empty(t *testing.T) {
	for name, doc := range map[string]*document.Document{"nil": nil, "empty": paragraphs(t)} {
		t.Run(name, func(t *testing.T) {
			m := Collect(doc, heights{}, DefaultPageHeight)
			if m.ContentHeight != 0 || m.PageCount != 0 || len(m.NodeHeights) != 0 {
				t.Errorf("expected empty metrics, got %+v", m)
			}
			if got := Plan(m.NodeHeights, DefaultPageHeight); len(got) != 0 {
				t.Errorf("expected empty plan, got %+v", got)
			}
		})
	}
}
