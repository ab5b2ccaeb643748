// Package layout renders a document into block boxes and reports the pixel
// height of every top-level block. Text is wrapped with core PDF font
// metrics so that on-screen measurement and PDF export agree.
package layout

import (
	"log/slog"
	"strings"
	"sync"

	"codeberg.org/go-pdf/fpdf"
	"github.com/gompdf/gompage/internal/document"
	"github.com/gompdf/gompage/internal/parser/css"
	"github.com/gompdf/gompage/internal/parser/html"
	"github.com/gompdf/gompage/internal/res"
	"github.com/gompdf/gompage/internal/style"
	xhtml "golang.org/x/net/html"
)

// Singleton PDF instance for text measurement using go-pdf/fpdf metrics
var (
	measureOnce sync.Once
	measurePDF  *fpdf.Fpdf
	translate   func(string) string
	measureMu   sync.Mutex
)

var markerSheet = sync.OnceValue(func() *css.Stylesheet {
	sheet, _ := css.NewParser().ParseString(document.MarkerStylesheet)
	return sheet
})

func initMeasurePDF() {
	measurePDF = fpdf.New("P", "pt", "A4", "")
	measurePDF.SetFont("Helvetica", "", 12)
	translate = measurePDF.UnicodeTranslatorFromDescriptor("")
}

// measureTextWidth returns the advance width of text in px for a font of
// fontSize px.
func measureTextWidth(text string, fontSize float64, st style.ComputedStyle) float64 {
	if text == "" || fontSize <= 0 {
		return 0
	}
	measureOnce.Do(initMeasurePDF)
	measureMu.Lock()
	defer measureMu.Unlock()
	fam, sty := FontFromStyle(st)
	measurePDF.SetFont(fam, sty, fontSize)
	return measurePDF.GetStringWidth(translate(text))
}

// FontFromStyle maps CSS font properties to a core PDF font family and
// style string.
func FontFromStyle(st style.ComputedStyle) (string, string) {
	family := "Helvetica"
	if ff := st.Get("font-family"); strings.TrimSpace(ff) != "" {
		first := strings.Split(ff, ",")[0]
		first = strings.TrimSpace(strings.Trim(strings.TrimSpace(first), "'\""))
		switch strings.ToLower(first) {
		case "times", "times new roman", "serif", "georgia":
			family = "Times"
		case "courier", "courier new", "monospace", "menlo", "consolas":
			family = "Courier"
		}
	}
	styleStr := ""
	switch strings.TrimSpace(st.Get("font-weight")) {
	case "bold", "bolder", "600", "700", "800", "900":
		styleStr += "B"
	}
	switch strings.TrimSpace(st.Get("font-style")) {
	case "italic", "oblique":
		styleStr += "I"
	}
	return family, styleStr
}

// Options represents options for the layout engine
type Options struct {
	// ContentWidth is the width of the editing surface in px.
	ContentWidth float64
	// Medium selects @media rules: style.MediaScreen or style.MediaPrint.
	Medium string
	Debug  bool
}

// DefaultOptions lays out an A4 page width at 96 DPI for screen
func DefaultOptions() Options {
	return Options{
		ContentWidth: 794,
		Medium:       style.MediaScreen,
	}
}

// Engine lays documents out
type Engine struct {
	options Options
	loader  *res.Loader
	logger  *slog.Logger
}

// NewEngine creates a new layout engine. loader resolves image sources and
// may be nil, in which case images without CSS dimensions have no height.
func NewEngine(loader *res.Loader, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		options: DefaultOptions(),
		loader:  loader,
		logger:  logger,
	}
}

func (e *Engine) fetchStylesheet(href string) (string, error) {
	r, err := e.loader.LoadCSS(href)
	if err != nil {
		e.logger.Warn("layout: stylesheet not loaded", "href", href, "error", err)
		return "", err
	}
	return r.GetString(), nil
}

// SetOptions sets the options for the layout engine
func (e *Engine) SetOptions(options Options) {
	if options.ContentWidth <= 0 {
		options.ContentWidth = DefaultOptions().ContentWidth
	}
	if options.Medium == "" {
		options.Medium = style.MediaScreen
	}
	e.options = options
}

// Options returns the active options
func (e *Engine) Options() Options {
	return e.options
}

// Render lays out every top-level block of doc. A nil document renders an
// empty view.
func (e *Engine) Render(doc *document.Document) (*View, error) {
	view := &View{
		Width:  e.options.ContentWidth,
		Medium: e.options.Medium,
		byPos:  make(map[int]*BlockBox),
	}
	if doc == nil {
		return view, nil
	}

	doc.Read(func(root, body *html.Node) {
		se := style.NewStyleEngine()
		se.SetMedium(e.options.Medium)
		se.AddUserAgentStylesheet(markerSheet())
		if e.loader != nil {
			se.SetFetcher(e.fetchStylesheet)
		}
		se.AddDocumentStyles(root)

		r := &renderer{
			styles:    se.ComputeStyles(root),
			fontSizes: make(map[*html.Node]float64),
			loader:    e.loader,
			logger:    e.logger,
		}

		cursor := 0.0
		pending := 0.0
		var last *BlockBox
		pos := 0
		for c := body.FirstChild; c != nil; c = c.NextSibling {
			size := document.NodeSize(c)
			if c.Type != xhtml.ElementNode {
				pos += size
				continue
			}
			b := r.layoutBlock(c, 0, e.options.ContentWidth)
			b.Pos = pos
			pos += size

			if b.Marker {
				b.Translate(0, cursor)
			} else {
				gap := max(pending, b.MarginTop)
				b.Translate(0, cursor+gap)
				b.Extent = gap + b.Height
				cursor += b.Extent
				pending = b.MarginBottom
				last = b
			}
			view.Blocks = append(view.Blocks, b)
			view.byPos[b.Pos] = b
		}
		if last != nil {
			last.Extent += pending
		}
	})

	if e.options.Debug {
		e.logger.Debug("layout rendered",
			"blocks", len(view.Blocks),
			"height", view.ContentHeight(),
			"width", view.Width,
			"medium", view.Medium)
	}
	return view, nil
}

// View is the rendered representation of a document
type View struct {
	Width  float64
	Medium string
	Blocks []*BlockBox
	byPos  map[int]*BlockBox
}

// BlockHeight returns the vertical space the top-level block at pos takes,
// including its collapsed margins. Markers report 0.
func (v *View) BlockHeight(pos int) (float64, bool) {
	if v == nil {
		return 0, false
	}
	b, ok := v.byPos[pos]
	if !ok {
		return 0, false
	}
	return b.Extent, true
}

// Block returns the top-level box at pos
func (v *View) Block(pos int) (*BlockBox, bool) {
	if v == nil {
		return nil, false
	}
	b, ok := v.byPos[pos]
	return b, ok
}

// ContentHeight sums the extents of all top-level blocks
func (v *View) ContentHeight() float64 {
	if v == nil {
		return 0
	}
	total := 0.0
	for _, b := range v.Blocks {
		total += b.Extent
	}
	return total
}

// renderer holds the per-render state
type renderer struct {
	styles    map[*html.Node]style.ComputedStyle
	fontSizes map[*html.Node]float64
	loader    *res.Loader
	logger    *slog.Logger
}

func (r *renderer) style(n *html.Node) style.ComputedStyle {
	if st, ok := r.styles[n]; ok {
		return st
	}
	return style.ComputedStyle{}
}

// fontSize resolves the font size of element n in px
func (r *renderer) fontSize(n *html.Node) float64 {
	if n == nil || n.Type != xhtml.ElementNode {
		return defaultFontSize
	}
	if fs, ok := r.fontSizes[n]; ok {
		return fs
	}
	parent := defaultFontSize
	if n.Parent != nil && n.Parent.Type == xhtml.ElementNode {
		parent = r.fontSize(n.Parent)
	}
	fs := parent
	if v, ok := r.style(n).Specified("font-size"); ok {
		fs = parseFontSize(v, parent)
	}
	r.fontSizes[n] = fs
	return fs
}

func (r *renderer) lineHeight(n *html.Node) float64 {
	return parseLineHeight(r.style(n).Get("line-height"), r.fontSize(n))
}
