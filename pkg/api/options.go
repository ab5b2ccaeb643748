package api

import (
	"log/slog"
	"time"

	"github.com/gompdf/gompage/internal/pagination"
)

// Options represents configuration options for paginating a document
type Options struct {
	// Page dimensions in CSS pixels at 96 DPI
	PageHeight   float64
	ContentWidth float64

	// Marker reconciliation
	AutoInsert      bool
	Debounce        time.Duration
	InitialDelay    time.Duration
	ChangeDetection string

	// Debug raises layout logging to debug level
	Debug  bool
	Logger *slog.Logger

	// Resource resolution for images and stylesheets
	BaseURL       string
	ResourcePaths []string

	// PDF export
	Margin         float64
	DebugDrawBoxes bool
	Title          string
	Author         string
	Subject        string
	Keywords       string
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		// A4 at 96 DPI
		PageHeight:   pagination.DefaultPageHeight,
		ContentWidth: 794,

		AutoInsert:      true,
		Debounce:        pagination.DefaultDebounce,
		InitialDelay:    pagination.DefaultInitialDelay,
		ChangeDetection: string(pagination.DetectPlan),

		// Half an inch
		Margin: 48,
	}
}

// WithPageHeight sets the usable page height in px
func WithPageHeight(px float64) Option {
	return func(o *Options) {
		o.PageHeight = px
	}
}

// WithPageSize sets the page height from a standard page size
func WithPageSize(size pagination.PageSize) Option {
	return func(o *Options) {
		o.PageHeight = size.HeightPx()
	}
}

// WithPageSizeA4 sets the page size to A4
func WithPageSizeA4() Option {
	return WithPageSize(pagination.PageSizeA4)
}

// WithPageSizeLetter sets the page size to US Letter
func WithPageSizeLetter() Option {
	return WithPageSize(pagination.PageSizeLetter)
}

// WithPageSizeLegal sets the page size to US Legal
func WithPageSizeLegal() Option {
	return WithPageSize(pagination.PageSizeLegal)
}

// WithContentWidth sets the width blocks are laid out at, in px
func WithContentWidth(px float64) Option {
	return func(o *Options) {
		o.ContentWidth = px
	}
}

// WithAutoInsert enables or disables automatic marker rewriting
func WithAutoInsert(on bool) Option {
	return func(o *Options) {
		o.AutoInsert = on
	}
}

// WithDebounce sets the quiet period before markers are rewritten
func WithDebounce(d time.Duration) Option {
	return func(o *Options) {
		o.Debounce = d
	}
}

// WithInitialDelay sets the wait before the first measurement
func WithInitialDelay(d time.Duration) Option {
	return func(o *Options) {
		o.InitialDelay = d
	}
}

// WithChangeDetection selects "plan" or "count" change detection
func WithChangeDetection(mode string) Option {
	return func(o *Options) {
		o.ChangeDetection = mode
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithBaseURL sets the location relative resources resolve against
func WithBaseURL(base string) Option {
	return func(o *Options) {
		o.BaseURL = base
	}
}

// WithResourcePath adds a path to search for resources
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithMargin sets the PDF page margin in px
func WithMargin(px float64) Option {
	return func(o *Options) {
		o.Margin = px
	}
}

// WithTitle sets the document title
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}
