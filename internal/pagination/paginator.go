package pagination

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gompdf/gompage/internal/document"
	"github.com/gompdf/gompage/internal/metrics"
)

// Defaults for Options
const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultInitialDelay = 100 * time.Millisecond
)

// ErrStopped is returned by Start once the paginator has been stopped
var ErrStopped = errors.New("pagination: paginator stopped")

// RenderFunc produces the heights for the current state of a document
type RenderFunc func(doc *document.Document) (HeightSource, error)

// Options tunes a Paginator.
type Options struct {
	// PageHeight is the usable page height in px. Default: 1123 (A4).
	PageHeight float64
	// AutoInsert lets the paginator rewrite markers. When false it only
	// measures and plans.
	AutoInsert bool
	// Debounce is the quiet period before a scheduled reconcile. Default: 500ms.
	Debounce time.Duration
	// InitialDelay is the wait before the first measurement. Default: 100ms.
	InitialDelay time.Duration
	// ChangeDetection selects when a new plan is applied. Default: plan.
	ChangeDetection ChangeDetection
	// Logger overrides the default slog logger.
	Logger *slog.Logger
	// OnMetrics, when set, receives every measurement.
	OnMetrics func(HeightMetrics)
}

func (o *Options) defaults() {
	if o.PageHeight == 0 {
		o.PageHeight = DefaultPageHeight
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.InitialDelay <= 0 {
		o.InitialDelay = DefaultInitialDelay
	}
	if o.ChangeDetection == "" {
		o.ChangeDetection = DetectPlan
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Stats are point-in-time counters.
type Stats struct {
	Measurements   int64 `json:"measurements"`
	Reconciles     int64 `json:"reconciles"`
	Skipped        int64 `json:"skipped"`
	InsertFailures int64 `json:"insert_failures"`
	Errors         int64 `json:"errors"`
}

// Paginator keeps one document's page-break markers in line with its
// rendered height. It measures on every document change and reconciles
// markers once changes settle. It is safe for concurrent use.
type Paginator struct {
	doc    *document.Document
	render RenderFunc
	opts   Options

	reconciler *Reconciler
	debouncer  *Debouncer

	mu        sync.Mutex
	last      HeightMetrics
	plan      []Break
	started   bool
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc
	unsubs    []func()
	initTimer *time.Timer

	measurements   atomic.Int64
	reconciles     atomic.Int64
	skipped        atomic.Int64
	insertFailures atomic.Int64
	errors         atomic.Int64
}

// New creates a Paginator for doc. Call Start to begin watching it.
func New(doc *document.Document, render RenderFunc, opts Options) *Paginator {
	opts.defaults()
	return &Paginator{
		doc:        doc,
		render:     render,
		opts:       opts,
		reconciler: NewReconciler(opts.ChangeDetection, opts.Logger),
		debouncer:  NewDebouncer(opts.Debounce),
	}
}

// Options returns the effective options
func (p *Paginator) Options() Options {
	return p.opts
}

// Start subscribes to the document and schedules the first measurement.
// Cancelling ctx stops the paginator. Calling Start again while running
// does nothing.
func (p *Paginator) Start(ctx context.Context) error {
	if p.doc == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return nil
	}
	p.started = true
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.unsubs = append(p.unsubs,
		p.doc.Subscribe(document.EventUpdate, p.onEvent),
		p.doc.Subscribe(document.EventTransaction, p.onEvent),
	)
	p.initTimer = time.AfterFunc(p.opts.InitialDelay, func() {
		if p.isStopped() {
			return
		}
		p.measureAndSchedule()
	})

	go func(ctx context.Context) {
		<-ctx.Done()
		p.Stop()
	}(p.ctx)

	p.opts.Logger.Info("pagination: started",
		"page_height", p.opts.PageHeight,
		"debounce", p.opts.Debounce,
		"auto_insert", p.opts.AutoInsert,
		"detect", p.opts.ChangeDetection)
	return nil
}

// Stop unsubscribes from the document and drops pending work. A pass that
// is already mutating the document completes. Safe to call more than once.
func (p *Paginator) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
	if p.initTimer != nil {
		p.initTimer.Stop()
	}
	p.cancel()
	p.mu.Unlock()

	p.debouncer.Cancel()
	p.opts.Logger.Info("pagination: stopped")
}

func (p *Paginator) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Metrics returns the latest measurement
func (p *Paginator) Metrics() HeightMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	m := p.last
	m.NodeHeights = slices.Clone(m.NodeHeights)
	return m
}

// Breaks returns the latest plan
func (p *Paginator) Breaks() []Break {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.plan)
}

// Stats returns the current counters.
func (p *Paginator) Stats() Stats {
	return Stats{
		Measurements:   p.measurements.Load(),
		Reconciles:     p.reconciles.Load(),
		Skipped:        p.skipped.Load(),
		InsertFailures: p.insertFailures.Load(),
		Errors:         p.errors.Load(),
	}
}

// Measure renders the document, records its metrics and plans breaks
// without touching the document.
func (p *Paginator) Measure() HeightMetrics {
	p.measure()
	return p.Metrics()
}

// Recalculate drops any scheduled pass, measures again and rewrites every
// marker regardless of change detection. With AutoInsert off it only
// measures.
func (p *Paginator) Recalculate(ctx context.Context) (Result, error) {
	if p.doc == nil {
		return Result{}, nil
	}
	p.debouncer.Cancel()
	plan := p.measure()
	if !p.opts.AutoInsert {
		return Result{}, nil
	}
	return p.reconcile(ctx, plan, true)
}

// onEvent runs on the goroutine that applied the transaction, after the
// document lock is released. It never mutates the document itself.
func (p *Paginator) onEvent(ev document.Event) {
	p.opts.Logger.Debug("pagination: document event",
		"kind", ev.Kind.String(),
		"tx", transactionID(ev))
	p.measureAndSchedule()
}

func (p *Paginator) measureAndSchedule() {
	p.measure()
	if p.opts.AutoInsert && !p.isStopped() {
		p.debouncer.Trigger(p.scheduledReconcile)
	}
}

func (p *Paginator) scheduledReconcile() {
	p.mu.Lock()
	ctx := p.ctx
	plan := slices.Clone(p.plan)
	p.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := p.reconcile(ctx, plan, false); err != nil && !errors.Is(err, context.Canceled) {
		p.opts.Logger.Warn("pagination: scheduled reconcile failed", "error", err)
	}
}

func (p *Paginator) measure() []Break {
	if p.doc == nil {
		return nil
	}

	var view HeightSource
	if p.render != nil {
		v, err := p.render(p.doc)
		if err != nil {
			p.errors.Add(1)
			p.opts.Logger.Warn("pagination: render failed, measuring zero heights", "error", err)
		} else {
			view = v
		}
	}
	m := Collect(p.doc, view, p.opts.PageHeight)
	plan := Plan(m.NodeHeights, p.opts.PageHeight)

	p.mu.Lock()
	p.last = m
	p.plan = plan
	p.mu.Unlock()

	p.measurements.Add(1)
	metrics.ObserveMeasurement(m.PageCount, m.ContentHeight)
	if p.opts.OnMetrics != nil {
		p.opts.OnMetrics(m)
	}
	return slices.Clone(plan)
}

func (p *Paginator) reconcile(ctx context.Context, plan []Break, force bool) (Result, error) {
	res, err := p.reconciler.Reconcile(ctx, p.doc, plan, force)
	if err != nil {
		p.errors.Add(1)
		return res, err
	}
	if res.Applied {
		p.reconciles.Add(1)
	} else {
		p.skipped.Add(1)
	}
	p.insertFailures.Add(int64(res.Failed))
	return res, nil
}

func transactionID(ev document.Event) string {
	if ev.Transaction == nil {
		return ""
	}
	return ev.Transaction.ID
}
