package pagination

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gompdf/gompage/internal/document"
)

func testOptions() Options {
	return Options{
		AutoInsert:   true,
		Debounce:     20 * time.Millisecond,
		InitialDelay: 5 * time.Millisecond,
	}
}

func TestPaginator_InsertsAfterStart(t *testing.T) {
	doc := paragraphs(t, 600, 600, 600, 600, 600)
	p := New(doc, attrHeights, testOptions())
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Stop)

	eventually(t, func() bool { return len(doc.Markers()) == 2 }, "markers to be inserted")

	m := p.Metrics()
	if m.PageCount != 3 || m.ContentHeight != 3000 {
		t.Errorf("unexpected metrics %+v", m)
	}
	if got := len(p.Breaks()); got != 2 {
		t.Errorf("expected 2 planned breaks, got %d", got)
	}

	// Settled: further passes are skipped and the markers stay put.
	time.Sleep(80 * time.Millisecond)
	if got := markerPages(doc); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected markers [1 2], got %v", got)
	}
	if s := p.Stats(); s.Reconciles != 1 || s.Measurements == 0 {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestPaginator_FollowsEdits(t *testing.T) {
	doc := paragraphs(t, 600, 600)
	p := New(doc, attrHeights, testOptions())
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Stop)
	eventually(t, func() bool { return len(doc.Markers()) == 1 }, "first marker")

	extra, err := document.ParseBlocks(`<p data-h="1200">x</p>`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := doc.Apply(func(tx *document.Tx) error {
		return tx.Insert(tx.Size(), extra[0])
	}); err != nil {
		t.Fatal(err)
	}
	eventually(t, func() bool { return len(doc.Markers()) == 2 }, "marker for the appended block")
	if got := markerPages(doc); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("expected markers [1 2], got %v", got)
	}
}

func TestPaginator_StopCancelsPending(t *testing.T) {
	doc := paragraphs(t, 600, 600)
	opts := testOptions()
	opts.Debounce = 50 * time.Millisecond
	opts.InitialDelay = time.Hour
	p := New(doc, attrHeights, opts)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := doc.Apply(func(tx *document.Tx) error { return tx.ReplaceText(0, "y") }); err != nil {
		t.Fatal(err)
	}
	p.Stop()
	p.Stop()

	time.Sleep(100 * time.Millisecond)
	if got := len(doc.Markers()); got != 0 {
		t.Errorf("expected no markers after Stop, got %d", got)
	}
	if got := doc.Subscribers(); got != 0 {
		t.Errorf("expected subscriptions released, got %d", got)
	}
	if err := p.Start(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("expected ErrStopped, got %v", err)
	}
}

func TestPaginator_ContextCancelStops(t *testing.T) {
	doc := paragraphs(t, 100)
	p := New(doc, attrHeights, testOptions())
	ctx, cancel := context.WithCancel(context.Background())
	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if doc.Subscribers() != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", doc.Subscribers())
	}
	cancel()
	eventually(t, func() bool { return doc.Subscribers() == 0 }, "unsubscribe on cancel")
}

func TestPaginator_RecalculateForces(t *testing.T) {
	doc := paragraphs(t, 600, 600)
	p := New(doc, attrHeights, testOptions())
	ctx := context.Background()

	res, err := p.Recalculate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied || res.Inserted != 1 {
		t.Fatalf("expected one marker inserted, got %+v", res)
	}

	res, err = p.Recalculate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Applied || !res.Forced || res.Removed != 1 || res.Inserted != 1 {
		t.Errorf("expected forced rewrite, got %+v", res)
	}
	if got := markerPages(doc); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("expected markers [1], got %v", got)
	}
}

func TestPaginator_RecalculateCancelsDebounce(t *testing.T) {
	doc := paragraphs(t, 600, 600)
	opts := testOptions()
	opts.Debounce = 40 * time.Millisecond
	opts.InitialDelay = time.Hour
	p := New(doc, attrHeights, opts)
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(p.Stop)

	p.measureAndSchedule()
	if !p.debouncer.Pending() {
		t.Fatal("expected a scheduled pass")
	}
	if _, err := p.Recalculate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := len(doc.Markers()); got != 1 {
		t.Errorf("expected 1 marker, got %d", got)
	}
}

func TestPaginator_MeasureOnly(t *testing.T) {
	doc := paragraphs(t, 600, 600)
	var calls atomic.Int64
	opts := testOptions()
	opts.AutoInsert = false
	opts.OnMetrics = func(m HeightMetrics) {
		calls.Add(1)
		if m.PageCount != 2 {
			t.Errorf("expected 2 pages, got %d", m.PageCount)
		}
	}
	p := New(doc, attrHeights, opts)

	if _, err := p.Recalculate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(doc.Markers()) != 0 {
		t.Error("expected no markers with auto insert off")
	}
	if len(p.Breaks()) != 1 {
		t.Errorf("expected a plan with 1 break, got %+v", p.Breaks())
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 metrics callback, got %d", calls.Load())
	}
}

func TestPaginator_NilDocument(t *testing.T) {
	p := New(nil, attrHeights, testOptions())
	if err := p.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if res, err := p.Recalculate(context.Background()); err != nil || res.Applied {
		t.Errorf("expected no-op, got %+v, %v", res, err)
	}
	if m := p.Measure(); m.PageCount != 0 {
		t.Errorf("expected empty metrics, got %+v", m)
	}
	p.Stop()
}

func TestOptions_Defaults(t *testing.T) {
	var o Options
	o.defaults()
	if o.PageHeight != DefaultPageHeight || o.Debounce != DefaultDebounce || o.InitialDelay != DefaultInitialDelay {
		t.Errorf("unexpected defaults %+v", o)
	}
	if o.ChangeDetection != DetectPlan || o.Logger == nil {
		t.Errorf("unexpected defaults %+v", o)
	}
}
