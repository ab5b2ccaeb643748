// Package pdf prints a paginated document with fpdf. Every page-break
// marker starts a new page, as does content that no longer fits.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/gompdf/gompage/internal/document"
	"github.com/gompdf/gompage/internal/layout"
	"github.com/gompdf/gompage/internal/pagination"
	"github.com/gompdf/gompage/internal/res"
	"github.com/gompdf/gompage/internal/style"
)

// ptPerPx converts CSS pixels to PDF points
const ptPerPx = 0.75

// Options contains options for exporting
type Options struct {
	// PageHeight is the content height of a page in px
	PageHeight float64
	// ContentWidth is the content width of a page in px
	ContentWidth float64
	// Margin surrounds the content on every side, in px
	Margin float64

	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string

	// DebugDrawBoxes outlines every drawn box
	DebugDrawBoxes bool
}

// DefaultOptions returns A4 content with a half-inch margin
func DefaultOptions() Options {
	return Options{
		PageHeight:   pagination.DefaultPageHeight,
		ContentWidth: layout.DefaultOptions().ContentWidth,
		Margin:       48,
		Creator:      "gompage",
	}
}

// Exporter writes documents as PDF
type Exporter struct {
	options Options
	loader  *res.Loader
	logger  *slog.Logger
	images  map[string]string
}

// NewExporter creates an exporter. loader resolves image sources and may
// be nil.
func NewExporter(options Options, loader *res.Loader, logger *slog.Logger) *Exporter {
	defaults := DefaultOptions()
	if options.PageHeight <= 0 {
		options.PageHeight = defaults.PageHeight
	}
	if options.ContentWidth <= 0 {
		options.ContentWidth = defaults.ContentWidth
	}
	if options.Margin < 0 {
		options.Margin = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{options: options, loader: loader, logger: logger}
}

// Export lays doc out for print and writes it to w. It returns the number
// of pages written.
func (e *Exporter) Export(doc *document.Document, w io.Writer) (int, error) {
	engine := layout.NewEngine(e.loader, e.logger)
	engine.SetOptions(layout.Options{
		ContentWidth: e.options.ContentWidth,
		Medium:       style.MediaPrint,
	})
	view, err := engine.Render(doc)
	if err != nil {
		return 0, fmt.Errorf("layout for print: %w", err)
	}
	return e.ExportView(view, w)
}

// ExportFile exports doc to path, creating its directory when needed
func (e *Exporter) ExportFile(doc *document.Document, path string) (int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	pages, err := e.Export(doc, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return pages, err
}

// ExportView writes an already rendered view
func (e *Exporter) ExportView(view *layout.View, w io.Writer) (int, error) {
	o := e.options
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size: fpdf.SizeType{
			Wd: (o.ContentWidth + 2*o.Margin) * ptPerPx,
			Ht: (o.PageHeight + 2*o.Margin) * ptPerPx,
		},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(o.Title, true)
	pdf.SetAuthor(o.Author, true)
	pdf.SetSubject(o.Subject, true)
	pdf.SetKeywords(o.Keywords, true)
	pdf.SetCreator(o.Creator, true)
	pdf.SetFont("Helvetica", "", 12)

	e.images = make(map[string]string)
	p := &painter{
		Exporter: e,
		pdf:      pdf,
		tr:       pdf.UnicodeTranslatorFromDescriptor(""),
	}

	pages := pagination.SplitPages(view, o.PageHeight)
	for _, page := range pages {
		pdf.AddPage()
		for _, box := range page.Boxes {
			p.paint(box, page.Offset)
		}
	}
	count := pdf.PageCount()
	e.logger.Debug("pdf exported", "pages", count)

	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write pdf: %w", err)
	}
	return count, nil
}

type painter struct {
	*Exporter
	pdf *fpdf.Fpdf
	tr  func(string) string
}

// x and y map view pixels to page points
func (p *painter) x(v float64) float64 { return (p.options.Margin + v) * ptPerPx }
func (p *painter) y(v, offset float64) float64 {
	return (p.options.Margin + v - offset) * ptPerPx
}

func (p *painter) paint(box layout.Box, offset float64) {
	switch b := box.(type) {
	case *layout.InlineBox:
		p.paintText(b, offset)
	case *layout.ImageBox:
		p.paintImage(b, offset)
	case *layout.BlockBox:
		p.paintBlock(b, offset)
	}
	if p.options.DebugDrawBoxes {
		p.pdf.SetDrawColor(200, 0, 0)
		p.pdf.SetLineWidth(0.5)
		p.pdf.Rect(p.x(box.GetX()), p.y(box.GetY(), offset), box.GetWidth()*ptPerPx, box.GetHeight()*ptPerPx, "D")
	}
}

// paintBlock draws a childless block: its background and top and bottom
// borders.
func (p *painter) paintBlock(b *layout.BlockBox, offset float64) {
	x, y := p.x(b.X), p.y(b.Y, offset)
	w, h := b.Width*ptPerPx, b.Height*ptPerPx

	if bg := b.Style.Get("background-color"); bg != "" {
		c := parseColor(bg)
		p.pdf.SetFillColor(c[0], c[1], c[2])
		p.pdf.Rect(x, y, w, h, "F")
	}

	c := parseColor(b.Style.Get("border-top-color"))
	p.pdf.SetDrawColor(c[0], c[1], c[2])
	if b.BorderTop > 0 {
		p.pdf.SetLineWidth(b.BorderTop * ptPerPx)
		p.pdf.Line(x, y, x+w, y)
	}
	if b.BorderBottom > 0 {
		p.pdf.SetLineWidth(b.BorderBottom * ptPerPx)
		p.pdf.Line(x, y+h, x+w, y+h)
	}
}

func (p *painter) paintText(b *layout.InlineBox, offset float64) {
	if strings.TrimSpace(b.Text) == "" {
		return
	}
	fam, sty := layout.FontFromStyle(b.Style)
	fs := b.FontSize
	if fs <= 0 {
		fs = 16
	}
	c := parseColor(b.Style.Get("color"))
	p.pdf.SetTextColor(c[0], c[1], c[2])
	p.pdf.SetFont(fam, sty, fs*ptPerPx)

	// Baseline sits at the ascent plus half the leading.
	ascent := 0.8 * fs
	leading := max(0, b.Height-fs)
	baseline := b.Y + leading/2 + ascent

	p.pdf.Text(p.x(b.X), p.y(baseline, offset), p.tr(b.Text))
}

func (p *painter) paintImage(b *layout.ImageBox, offset float64) {
	if p.loader == nil || b.Src == "" || b.Width <= 0 || b.Height <= 0 {
		return
	}
	name, ok := p.images[b.Src]
	if !ok {
		var err error
		name, err = p.registerImage(b.Src)
		if err != nil {
			p.logger.Warn("pdf: image skipped", "src", truncate(b.Src, 64), "error", err)
		}
		p.images[b.Src] = name
	}
	if name == "" {
		return
	}
	p.pdf.ImageOptions(name, p.x(b.X), p.y(b.Y, offset), b.Width*ptPerPx, b.Height*ptPerPx,
		false, fpdf.ImageOptions{}, 0, "")
}

// registerImage hands the image to fpdf. Formats fpdf cannot embed are
// decoded and re-encoded as PNG.
func (p *painter) registerImage(src string) (string, error) {
	r, err := p.loader.LoadImage(src)
	if err != nil {
		return "", err
	}
	name := "img" + strconv.Itoa(len(p.images))

	var typ string
	data := r.Data
	switch r.MimeType {
	case "image/png":
		typ = "PNG"
	case "image/jpeg":
		typ = "JPG"
	case "image/gif":
		typ = "GIF"
	default:
		img, _, err := image.Decode(bytes.NewReader(r.Data))
		if err != nil {
			return "", fmt.Errorf("decode image: %w", err)
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return "", fmt.Errorf("re-encode image: %w", err)
		}
		typ, data = "PNG", buf.Bytes()
	}

	p.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if err := p.pdf.Error(); err != nil {
		p.pdf.ClearError()
		return "", err
	}
	return name, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// parseColor parses a CSS color value
func parseColor(value string) [3]int {
	value = strings.ToLower(strings.TrimSpace(value))
	if strings.HasPrefix(value, "#") {
		if r, g, b, ok := parseHexColor(value); ok {
			return [3]int{r, g, b}
		}
	}

	var r, g, b int
	if _, err := fmt.Sscanf(strings.ReplaceAll(value, " ", ""), "rgb(%d,%d,%d)", &r, &g, &b); err == nil {
		return [3]int{r, g, b}
	}
	if c, ok := namedColors[value]; ok {
		return c
	}
	return [3]int{0, 0, 0}
}

var namedColors = map[string][3]int{
	"black": {0, 0, 0},
	"white": {255, 255, 255},
	"gray":  {128, 128, 128},
	"grey":  {128, 128, 128},
	"red":   {255, 0, 0},
	"green": {0, 128, 0},
	"blue":  {0, 0, 255},
}

// parseHexColor parses #RRGGBB or #RGB into r,g,b
func parseHexColor(s string) (int, int, int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
