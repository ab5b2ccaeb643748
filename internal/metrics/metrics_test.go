package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveReconcile(t *testing.T) {
	Init()
	before := testutil.ToFloat64(markerOps.WithLabelValues("inserted"))

	ObserveReconcile(2, 3, 1, time.Millisecond)
	IncReconcile(ResultApplied)

	if got := testutil.ToFloat64(markerOps.WithLabelValues("inserted")) - before; got != 3 {
		t.Errorf("expected 3 inserted, got %v", got)
	}
	if got := testutil.ToFloat64(reconcilePasses.WithLabelValues(ResultApplied)); got < 1 {
		t.Errorf("expected applied pass to be counted, got %v", got)
	}
}

func TestWriteText(t *testing.T) {
	Init()
	Init()
	ObserveMeasurement(4, 4000)

	var buf bytes.Buffer
	if err := WriteText(&buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"gompage_page_count 4", "gompage_measurements_total", "# TYPE gompage_content_height_pixels gauge"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSnapshot(t *testing.T) {
	ObserveMeasurement(2, 1500)
	IncReconcile(ResultSkipped)

	snap, err := Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if got := snap["gompage_page_count"]; got != 2 {
		t.Errorf("expected page count 2, got %v", got)
	}
	if got := snap[`gompage_reconcile_passes_total{result="skipped"}`]; got < 1 {
		t.Errorf("expected skipped passes, got %v (%v)", got, snap)
	}
}
