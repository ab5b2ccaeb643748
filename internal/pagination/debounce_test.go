package pagination

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_Coalesces(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var runs, last atomic.Int64

	for i := 1; i <= 5; i++ {
		v := int64(i)
		d.Trigger(func() {
			runs.Add(1)
			last.Store(v)
		})
		time.Sleep(5 * time.Millisecond)
	}
	if !d.Pending() {
		t.Error("expected a pending task")
	}

	eventually(t, func() bool { return runs.Load() == 1 }, "debounced task to run")
	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
	if got := last.Load(); got != 5 {
		t.Errorf("expected the last task to win, got %d", got)
	}
	if d.Pending() {
		t.Error("expected nothing pending after the run")
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var runs atomic.Int64

	d.Trigger(func() { runs.Add(1) })
	if !d.Cancel() {
		t.Error("expected Cancel to report pending work")
	}
	if d.Cancel() {
		t.Error("expected second Cancel to report nothing pending")
	}

	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Errorf("expected cancelled task not to run, got %d runs", got)
	}
}
