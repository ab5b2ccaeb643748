package pagination

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gompdf/gompage/internal/document"
)

// heights maps block positions to pixel heights
type heights map[int]float64

func (h heights) BlockHeight(pos int) (float64, bool) {
	v, ok := h[pos]
	return v, ok
}

// attrHeights reads each block's height from its data-h attribute, so it
// stays correct while markers shift positions.
func attrHeights(doc *document.Document) (HeightSource, error) {
	h := heights{}
	for n, pos := range doc.Blocks() {
		if v, ok := n.GetAttr("data-h"); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, err
			}
			h[pos] = f
		}
	}
	return h, nil
}

// paragraphs builds a document of one-letter paragraphs with the given
// heights. Each paragraph has size 3.
func paragraphs(t *testing.T, hs ...float64) *document.Document {
	t.Helper()
	var b strings.Builder
	for _, h := range hs {
		b.WriteString(`<p data-h="` + strconv.FormatFloat(h, 'f', -1, 64) + `">x</p>`)
	}
	doc, err := document.ParseHTML("<html><body>" + b.String() + "</body></html>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func measure(t *testing.T, doc *document.Document) HeightMetrics {
	t.Helper()
	view, err := attrHeights(doc)
	if err != nil {
		t.Fatalf("heights: %v", err)
	}
	return Collect(doc, view, DefaultPageHeight)
}

func markerPages(doc *document.Document) []int {
	var pages []int
	for _, m := range doc.Markers() {
		pages = append(pages, m.PageNumber)
	}
	return pages
}

// eventually polls cond until it holds or the deadline passes
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting: %s", msg)
}
