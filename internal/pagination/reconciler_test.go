package pagination

import (
	"context"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/gompdf/gompage/internal/document"
)

func TestReconcile_AppliesPlan(t *testing.T) {
	doc := paragraphs(t, 600, 600, 600, 600, 600)
	r := NewReconciler(DetectPlan, nil)

	plan := Plan(measure(t, doc).NodeHeights, DefaultPageHeight)
	res, err := r.Reconcile(context.Background(), doc, plan, false)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if !res.Applied || res.Inserted != 2 || res.Removed != 0 || res.Failed != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if res.TransactionID == "" {
		t.Error("expected a transaction id")
	}

	markers := doc.Markers()
	want := []document.Marker{{Pos: 3, PageNumber: 1, BlocksBefore: 1}, {Pos: 10, PageNumber: 2, BlocksBefore: 3}}
	if !reflect.DeepEqual(markers, want) {
		t.Errorf("expected markers %+v, got %+v", want, markers)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	doc := paragraphs(t, 600, 600, 600, 600, 600)
	r := NewReconciler(DetectPlan, nil)
	ctx := context.Background()

	if _, err := r.Reconcile(ctx, doc, Plan(measure(t, doc).NodeHeights, DefaultPageHeight), false); err != nil {
		t.Fatal(err)
	}
	html, _ := doc.BodyHTML()
	version := doc.Version()

	// Markers shifted every position after them; the plan still matches.
	plan := Plan(measure(t, doc).NodeHeights, DefaultPageHeight)
	res, err := r.Reconcile(ctx, doc, plan, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied {
		t.Errorf("expected second pass to be skipped, got %+v", res)
	}
	if doc.Version() != version {
		t.Errorf("expected document untouched, version %d -> %d", version, doc.Version())
	}
	if after, _ := doc.BodyHTML(); after != html {
		t.Errorf("expected identical document, got %q", after)
	}
}

func TestReconcile_ReplacesExistingMarkers(t *testing.T) {
	for _, n := range []int{0, 1, 2, 5} {
		t.Run(strconv.Itoa(n), func(t *testing.T) {
			var b strings.Builder
			for i := 0; i < n; i++ {
				b.WriteString(`<p data-h="10">x</p><div data-type="page-break" data-page-number="` + strconv.Itoa(i+7) + `"></div>`)
			}
			b.WriteString(`<p data-h="600">x</p><p data-h="600">x</p>`)
			doc, err := document.ParseHTML("<body>" + b.String() + "</body>")
			if err != nil {
				t.Fatal(err)
			}

			r := NewReconciler(DetectPlan, nil)
			plan := Plan(measure(t, doc).NodeHeights, DefaultPageHeight)
			res, err := r.Reconcile(context.Background(), doc, plan, false)
			if err != nil {
				t.Fatal(err)
			}
			if res.Removed != n {
				t.Errorf("expected %d removed, got %d", n, res.Removed)
			}
			if res.Failed != 0 {
				t.Errorf("expected no failures, got %d", res.Failed)
			}
			if got := markerPages(doc); !reflect.DeepEqual(got, []int{1}) {
				t.Errorf("expected markers [1], got %v", got)
			}
			// The break goes before the last paragraph.
			markers := doc.Markers()
			if want := n*3 + 3; markers[0].Pos != want {
				t.Errorf("expected marker at %d, got %d", want, markers[0].Pos)
			}
		})
	}
}

func TestReconcile_InsertFailureIsolated(t *testing.T) {
	doc := paragraphs(t, 100, 100, 100)
	r := NewReconciler(DetectPlan, nil)
	plan := []Break{
		{PageNumber: 1, InsertPosition: 3, PrecedingNodeIndex: 0},
		{PageNumber: 2, InsertPosition: 4, PrecedingNodeIndex: 1},
		{PageNumber: 3, InsertPosition: 6, PrecedingNodeIndex: 1},
	}

	res, err := r.Reconcile(context.Background(), doc, plan, false)
	if err != nil {
		t.Fatalf("expected failures to be absorbed, got %v", err)
	}
	if res.Inserted != 2 || res.Failed != 1 {
		t.Errorf("expected 2 inserted and 1 failed, got %+v", res)
	}
	if got := markerPages(doc); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("expected markers [1 3], got %v", got)
	}
}

func TestReconcile_RestoresDeletedMarker(t *testing.T) {
	doc := paragraphs(t, 600, 600, 600, 600, 600)
	r := NewReconciler(DetectPlan, nil)
	ctx := context.Background()

	if _, err := r.Reconcile(ctx, doc, Plan(measure(t, doc).NodeHeights, DefaultPageHeight), false); err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Apply(func(tx *document.Tx) error {
		_, err := tx.Delete(3)
		return err
	}); err != nil {
		t.Fatal(err)
	}

	res, err := r.Reconcile(ctx, doc, Plan(measure(t, doc).NodeHeights, DefaultPageHeight), false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied {
		t.Fatal("expected the missing marker to be restored")
	}
	if got := markerPages(doc); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected markers [1 2], got %v", got)
	}
}

func TestReconcile_RestoresMovedMarker(t *testing.T) {
	doc := paragraphs(t, 600, 600, 600, 600, 600)
	r := NewReconciler(DetectPlan, nil)
	ctx := context.Background()

	if _, err := r.Reconcile(ctx, doc, Plan(measure(t, doc).NodeHeights, DefaultPageHeight), false); err != nil {
		t.Fatal(err)
	}
	// Move the first marker to the top of the document, keeping its page.
	if _, err := doc.Apply(func(tx *document.Tx) error {
		if _, err := tx.Delete(3); err != nil {
			return err
		}
		return tx.InsertMarker(0, 1)
	}); err != nil {
		t.Fatal(err)
	}
	if got := doc.Markers()[0]; got.Pos != 0 || got.PageNumber != 1 {
		t.Fatalf("expected moved marker at 0, got %+v", got)
	}

	res, err := r.Reconcile(ctx, doc, Plan(measure(t, doc).NodeHeights, DefaultPageHeight), false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied {
		t.Fatal("expected the moved marker to be put back")
	}
	var got []int
	for _, m := range doc.Markers() {
		got = append(got, m.Pos)
	}
	if !reflect.DeepEqual(got, []int{3, 10}) {
		t.Errorf("expected markers at [3 10], got %v", got)
	}
}

func TestReconcile_CountMode(t *testing.T) {
	doc := paragraphs(t, 600, 600, 600)
	r := NewReconciler(DetectCount, nil)
	ctx := context.Background()

	// Nothing applied yet and nothing planned: counts match.
	res, err := r.Reconcile(ctx, doc, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Applied {
		t.Errorf("expected empty plan to be skipped, got %+v", res)
	}

	first := []Break{{PageNumber: 1, InsertPosition: 3, PrecedingNodeIndex: 0}}
	if res, _ = r.Reconcile(ctx, doc, first, false); !res.Applied {
		t.Fatal("expected first plan to be applied")
	}

	moved := []Break{{PageNumber: 1, InsertPosition: 7, PrecedingNodeIndex: 1}}
	if res, _ = r.Reconcile(ctx, doc, moved, false); res.Applied {
		t.Error("expected same-count plan to be skipped in count mode")
	}
	if res, _ = r.Reconcile(ctx, doc, moved, true); !res.Applied || !res.Forced {
		t.Errorf("expected forced pass to apply, got %+v", res)
	}
	// Position 7 is the third paragraph before the old marker is removed.
	if got := doc.Markers(); len(got) != 1 || got[0].Pos != 6 {
		t.Errorf("expected one marker at 6, got %+v", got)
	}
	if got := r.LastApplied(); !reflect.DeepEqual(got, moved) {
		t.Errorf("expected last applied %+v, got %+v", moved, got)
	}
}

func TestReconcile_NilDocAndCancelled(t *testing.T) {
	r := NewReconciler("", nil)
	if res, err := r.Reconcile(context.Background(), nil, []Break{{PageNumber: 1}}, true); err != nil || res.Applied {
		t.Errorf("expected nil document to be a no-op, got %+v, %v", res, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	doc := paragraphs(t, 600, 600)
	if _, err := r.Reconcile(ctx, doc, Plan(measure(t, doc).NodeHeights, DefaultPageHeight), true); err == nil {
		t.Error("expected cancelled context to abort the pass")
	}
	if len(doc.Markers()) != 0 {
		t.Error("expected document untouched")
	}
}

func TestParseChangeDetection(t *testing.T) {
	for in, want := range map[string]ChangeDetection{"": DetectPlan, "plan": DetectPlan, "count": DetectCount} {
		got, err := ParseChangeDetection(in)
		if err != nil || got != want {
			t.Errorf("%q: expected %q, got %q (%v)", in, want, got, err)
		}
	}
	if _, err := ParseChangeDetection("length"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
