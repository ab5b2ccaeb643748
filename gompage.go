// Package gompage keeps page-break markers in rich-text documents in line
// with their rendered height.
package gompage

import (
	"github.com/gompdf/gompage/internal/document"
	"github.com/gompdf/gompage/internal/pagination"
	"github.com/gompdf/gompage/pkg/api"
)

type Paginator = api.Paginator
type Document = api.Document
type Options = api.Options
type Option = api.Option
type HeightMetrics = api.HeightMetrics
type Break = api.Break
type Result = api.Result

func New(doc *Document, opts ...Option) (*Paginator, error) { return api.New(doc, opts...) }
func NewWithOptions(doc *Document, options Options) (*Paginator, error) {
	return api.NewWithOptions(doc, options)
}
func DefaultOptions() Options { return api.DefaultOptions() }

var (
	ParseHTML     = document.ParseHTML
	ParseMarkdown = document.ParseMarkdown
	LoadFile      = api.LoadFile
	AppendHTML    = api.AppendHTML
	Paginate      = api.Paginate
	PaginateHTML  = api.PaginateHTML

	WithPageHeight      = api.WithPageHeight
	WithPageSize        = api.WithPageSize
	WithPageSizeA4      = api.WithPageSizeA4
	WithPageSizeLetter  = api.WithPageSizeLetter
	WithPageSizeLegal   = api.WithPageSizeLegal
	WithContentWidth    = api.WithContentWidth
	WithAutoInsert      = api.WithAutoInsert
	WithDebounce        = api.WithDebounce
	WithInitialDelay    = api.WithInitialDelay
	WithChangeDetection = api.WithChangeDetection
	WithDebug           = api.WithDebug
	WithLogger          = api.WithLogger
	WithBaseURL         = api.WithBaseURL
	WithResourcePath    = api.WithResourcePath
	WithMargin          = api.WithMargin
	WithTitle           = api.WithTitle
	WithAuthor          = api.WithAuthor
	WithSubject         = api.WithSubject
	WithKeywords        = api.WithKeywords
)

var (
	PageSizeA4     = pagination.PageSizeA4
	PageSizeLetter = pagination.PageSizeLetter
	PageSizeLegal  = pagination.PageSizeLegal
	PageSizeA3     = pagination.PageSizeA3
	PageSizeA5     = pagination.PageSizeA5
)

const (
	DefaultPageHeight = pagination.DefaultPageHeight
	DetectPlan        = string(pagination.DetectPlan)
	DetectCount       = string(pagination.DetectCount)
)
