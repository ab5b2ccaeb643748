package document

import (
	"fmt"
	"strconv"

	"github.com/gompdf/gompage/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

// Marker node attributes. A marker serialises as
//
//	<div data-type="page-break" data-page-number="2" class="page-break" contenteditable="false"></div>
const (
	MarkerType     = "pageBreak"
	MarkerTag      = "div"
	MarkerClass    = "page-break"
	AttrType       = "data-type"
	AttrTypeValue  = "page-break"
	AttrPageNumber = "data-page-number"
)

// MarkerStylesheet is the styling contract of the marker node: a visible
// separator while editing, a forced page break in print and hidden inside
// the metrics overlay.
const MarkerStylesheet = `
.page-break {
  display: block;
  height: 0;
  margin: 24px 0;
  border-top: 1px dashed #9ca3af;
  page-break-after: always;
  break-after: page;
  user-select: none;
}
@media print {
  .page-break { border: none; margin: 0; page-break-after: always; break-after: page; }
}
.metrics-overlay .page-break { display: none; }
`

// Marker is a page-break marker found in the document. BlocksBefore
// counts the non-marker blocks that precede it.
type Marker struct {
	Pos          int
	PageNumber   int
	BlocksBefore int
}

// NewMarker builds a detached marker node for the given page
func NewMarker(pageNumber int) *html.Node {
	return html.NewElement(MarkerTag,
		xhtml.Attribute{Key: AttrType, Val: AttrTypeValue},
		xhtml.Attribute{Key: AttrPageNumber, Val: strconv.Itoa(pageNumber)},
		xhtml.Attribute{Key: "class", Val: MarkerClass},
		xhtml.Attribute{Key: "contenteditable", Val: "false"},
	)
}

// IsMarker reports whether n is a page-break marker
func IsMarker(n *html.Node) bool {
	if n == nil || n.Type != xhtml.ElementNode {
		return false
	}
	v, ok := n.GetAttr(AttrType)
	return ok && v == AttrTypeValue
}

// MarkerPage returns the page number carried by a marker
func MarkerPage(n *html.Node) (int, bool) {
	if !IsMarker(n) {
		return 0, false
	}
	v, ok := n.GetAttr(AttrPageNumber)
	if !ok {
		return 0, false
	}
	page, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return page, true
}

// Markers returns the markers currently in the document, in order
func (d *Document) Markers() []Marker {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return markers(d.body)
}

// Markers returns the markers in the transaction's current document
func (tx *Tx) Markers() []Marker {
	return markers(tx.doc.body)
}

func markers(body *html.Node) []Marker {
	var out []Marker
	content := 0
	for n, pos := range blocks(body) {
		if !IsMarker(n) {
			content++
			continue
		}
		page, _ := MarkerPage(n)
		out = append(out, Marker{Pos: pos, PageNumber: page, BlocksBefore: content})
	}
	return out
}

// RemoveMarkers deletes every marker, last first, so that positions of
// markers not yet removed stay valid. It returns the number removed.
func (tx *Tx) RemoveMarkers() (int, error) {
	found := tx.Markers()
	for i := len(found) - 1; i >= 0; i-- {
		if _, err := tx.Delete(found[i].Pos); err != nil {
			return len(found) - 1 - i, fmt.Errorf("remove marker %d: %w", found[i].PageNumber, err)
		}
	}
	return len(found), nil
}

// InsertMarker inserts a marker for pageNumber at the top-level boundary pos
func (tx *Tx) InsertMarker(pos, pageNumber int) error {
	if err := tx.Insert(pos, NewMarker(pageNumber)); err != nil {
		return fmt.Errorf("insert marker for page %d: %w", pageNumber, err)
	}
	return nil
}
