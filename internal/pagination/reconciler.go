package pagination

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gompdf/gompage/internal/document"
	"github.com/gompdf/gompage/internal/metrics"
)

// ChangeDetection selects when a plan counts as changed
type ChangeDetection string

const (
	// DetectPlan reconciles when any break moves to another block or when
	// a marker in the document is missing, renumbered or no longer follows
	// the block the last applied plan put it after.
	DetectPlan ChangeDetection = "plan"
	// DetectCount reconciles only when the number of breaks changes.
	DetectCount ChangeDetection = "count"
)

// ParseChangeDetection validates a change detection name
func ParseChangeDetection(s string) (ChangeDetection, error) {
	switch ChangeDetection(s) {
	case DetectPlan, "":
		return DetectPlan, nil
	case DetectCount:
		return DetectCount, nil
	}
	return "", fmt.Errorf("unknown change detection %q (want plan or count)", s)
}

// Result describes one reconciliation pass
type Result struct {
	Applied       bool
	Forced        bool
	Removed       int
	Inserted      int
	Failed        int
	TransactionID string
}

// Reconciler rewrites a document's markers to match a plan. It remembers
// the last plan it applied; passes never interleave.
type Reconciler struct {
	mu     sync.Mutex
	detect ChangeDetection
	logger *slog.Logger
	last   []Break
}

// NewReconciler creates a reconciler. A nil logger uses slog.Default().
func NewReconciler(detect ChangeDetection, logger *slog.Logger) *Reconciler {
	if detect == "" {
		detect = DetectPlan
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{detect: detect, logger: logger}
}

// LastApplied returns a copy of the last applied plan
func (r *Reconciler) LastApplied() []Break {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.last)
}

// Reconcile makes doc's markers match plan. Unless force is set, a plan
// equal to the last applied one is skipped. All markers are removed last
// first, then the plan is inserted front to back, in one transaction. A
// marker that cannot be inserted is logged and skipped. The context is
// checked before the pass starts; a started pass runs to completion.
func (r *Reconciler) Reconcile(ctx context.Context, doc *document.Document, plan []Break, force bool) (Result, error) {
	if doc == nil {
		return Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing := doc.Markers()
	if !force && r.unchanged(plan, existing) {
		metrics.IncReconcile(metrics.ResultSkipped)
		return Result{}, nil
	}

	start := time.Now()
	res := Result{Applied: true, Forced: force}
	tx, err := doc.Apply(func(tx *document.Tx) error {
		removed, err := tx.RemoveMarkers()
		res.Removed = removed
		if err != nil {
			return err
		}
		for _, b := range plan {
			pos := tx.Map(b.InsertPosition)
			if err := tx.InsertMarker(pos, b.PageNumber); err != nil {
				res.Failed++
				r.logger.Warn("pagination: marker insert failed",
					"page", b.PageNumber,
					"position", b.InsertPosition,
					"mapped", pos,
					"error", err)
				continue
			}
			res.Inserted++
		}
		return nil
	})
	if tx != nil {
		res.TransactionID = tx.ID
	}
	if err != nil {
		return res, fmt.Errorf("reconcile markers: %w", err)
	}

	r.last = slices.Clone(plan)
	result := metrics.ResultApplied
	if force {
		result = metrics.ResultForced
	}
	metrics.IncReconcile(result)
	metrics.ObserveReconcile(res.Removed, res.Inserted, res.Failed, time.Since(start))

	r.logger.Debug("pagination: markers reconciled",
		"removed", res.Removed,
		"inserted", res.Inserted,
		"failed", res.Failed,
		"forced", force,
		"tx", res.TransactionID)
	return res, nil
}

// unchanged applies the configured change detection. Count mode compares
// break counts only; plan mode compares placements and also checks that
// the document still carries the markers last applied, each after the
// same block.
func (r *Reconciler) unchanged(plan []Break, existing []document.Marker) bool {
	if r.detect == DetectCount {
		return len(plan) == len(r.last)
	}
	if !samePlacement(plan, r.last) || len(existing) != len(r.last) {
		return false
	}
	for i, m := range existing {
		if m.PageNumber != r.last[i].PageNumber || m.BlocksBefore-1 != r.last[i].PrecedingNodeIndex {
			return false
		}
	}
	return true
}
