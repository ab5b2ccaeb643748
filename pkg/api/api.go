// Package api is the public entry point: it wires a document to the layout
// engine, keeps its page-break markers current and exports it.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gompdf/gompage/internal/document"
	"github.com/gompdf/gompage/internal/layout"
	"github.com/gompdf/gompage/internal/pagination"
	"github.com/gompdf/gompage/internal/render/pdf"
	"github.com/gompdf/gompage/internal/res"
	"github.com/gompdf/gompage/internal/style"
)

type (
	Document      = document.Document
	HeightMetrics = pagination.HeightMetrics
	Break         = pagination.Break
	Result        = pagination.Result
	Stats         = pagination.Stats
)

// Paginator keeps one document's page-break markers current
type Paginator struct {
	doc     *document.Document
	options Options
	loader  *res.Loader
	engine  *layout.Engine
	logger  *slog.Logger
	inner   *pagination.Paginator
}

// New creates a paginator for doc with default options adjusted by opts
func New(doc *document.Document, opts ...Option) (*Paginator, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return NewWithOptions(doc, options)
}

// NewWithOptions creates a paginator for doc with the specified options
func NewWithOptions(doc *document.Document, options Options) (*Paginator, error) {
	detect, err := pagination.ParseChangeDetection(options.ChangeDetection)
	if err != nil {
		return nil, err
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	loader := res.NewLoader(options.BaseURL)
	for _, path := range options.ResourcePaths {
		loader.AddSearchPath(path)
	}

	engine := layout.NewEngine(loader, logger)
	engine.SetOptions(layout.Options{
		ContentWidth: options.ContentWidth,
		Medium:       style.MediaScreen,
		Debug:        options.Debug,
	})

	p := &Paginator{
		doc:     doc,
		options: options,
		loader:  loader,
		engine:  engine,
		logger:  logger,
	}
	p.inner = pagination.New(doc, p.render, pagination.Options{
		PageHeight:      options.PageHeight,
		AutoInsert:      options.AutoInsert,
		Debounce:        options.Debounce,
		InitialDelay:    options.InitialDelay,
		ChangeDetection: detect,
		Logger:          logger,
	})
	return p, nil
}

func (p *Paginator) render(doc *document.Document) (pagination.HeightSource, error) {
	v, err := p.engine.Render(doc)
	return v, err
}

// Document returns the paginated document
func (p *Paginator) Document() *document.Document { return p.doc }

// Options returns the options the paginator was built with
func (p *Paginator) Options() Options { return p.options }

// Start watches the document until Stop is called or ctx is cancelled
func (p *Paginator) Start(ctx context.Context) error { return p.inner.Start(ctx) }

// Stop stops watching the document
func (p *Paginator) Stop() { p.inner.Stop() }

// Recalculate measures now and rewrites the markers
func (p *Paginator) Recalculate(ctx context.Context) (Result, error) {
	return p.inner.Recalculate(ctx)
}

// Measure measures now without touching the document
func (p *Paginator) Measure() HeightMetrics { return p.inner.Measure() }

// Metrics returns the latest measurement
func (p *Paginator) Metrics() HeightMetrics { return p.inner.Metrics() }

// Breaks returns the latest plan
func (p *Paginator) Breaks() []Break { return p.inner.Breaks() }

// Stats returns the paginator's counters
func (p *Paginator) Stats() Stats { return p.inner.Stats() }

// Render lays the document out for screen
func (p *Paginator) Render() (*layout.View, error) {
	return p.engine.Render(p.doc)
}

func (p *Paginator) exporter() *pdf.Exporter {
	o := pdf.DefaultOptions()
	o.PageHeight = p.options.PageHeight
	o.ContentWidth = p.options.ContentWidth
	o.Margin = p.options.Margin
	o.Title = p.options.Title
	o.Author = p.options.Author
	o.Subject = p.options.Subject
	o.Keywords = p.options.Keywords
	o.DebugDrawBoxes = p.options.DebugDrawBoxes
	return pdf.NewExporter(o, p.loader, p.logger)
}

// ExportPDF writes the document as PDF and returns the page count
func (p *Paginator) ExportPDF(w io.Writer) (int, error) {
	pages, err := p.exporter().Export(p.doc, w)
	if err != nil {
		return 0, fmt.Errorf("failed to render PDF: %w", err)
	}
	return pages, nil
}

// ExportPDFFile writes the document as PDF to path
func (p *Paginator) ExportPDFFile(path string) (int, error) {
	pages, err := p.exporter().ExportFile(p.doc, path)
	if err != nil {
		return 0, fmt.Errorf("failed to render PDF: %w", err)
	}
	return pages, nil
}

// LoadFile parses an HTML or Markdown file, chosen by extension
func LoadFile(path string) (*document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		doc, err := document.ParseMarkdown(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Markdown: %w", err)
		}
		return doc, nil
	default:
		doc, err := document.ParseHTML(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse HTML: %w", err)
		}
		return doc, nil
	}
}

// Paginate measures doc once and writes its markers
func Paginate(ctx context.Context, doc *document.Document, opts ...Option) (Result, HeightMetrics, error) {
	p, err := New(doc, opts...)
	if err != nil {
		return Result{}, HeightMetrics{}, err
	}
	res, err := p.Recalculate(ctx)
	return res, p.Metrics(), err
}

// PaginateHTML paginates an HTML string and returns it with markers
func PaginateHTML(ctx context.Context, content string, opts ...Option) (string, HeightMetrics, error) {
	doc, err := document.ParseHTML(content)
	if err != nil {
		return "", HeightMetrics{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	_, m, err := Paginate(ctx, doc, opts...)
	if err != nil {
		return "", m, err
	}
	out, err := doc.HTML()
	return out, m, err
}

// AppendHTML parses fragment into blocks and appends them to doc in one
// transaction
func AppendHTML(doc *document.Document, fragment string) error {
	nodes, err := document.ParseBlocks(fragment)
	if err != nil {
		return fmt.Errorf("failed to parse fragment: %w", err)
	}
	_, err = doc.Apply(func(tx *document.Tx) error {
		for _, n := range nodes {
			if err := tx.Insert(tx.Size(), n); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}
