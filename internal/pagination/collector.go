package pagination

import (
	"math"
	"time"

	"github.com/gompdf/gompage/internal/document"
)

// HeightSource reports the rendered height of the top-level block at a
// document position.
type HeightSource interface {
	BlockHeight(pos int) (float64, bool)
}

// Collect measures every top-level block of doc in document order.
// Markers are skipped. A missing source or an unknown block measures 0.
func Collect(doc *document.Document, view HeightSource, pageHeight float64) HeightMetrics {
	var records []NodeHeightRecord
	if doc != nil {
		top := 0.0
		for n, pos := range doc.Blocks() {
			if document.IsMarker(n) {
				continue
			}
			h := blockHeight(view, pos)
			records = append(records, NodeHeightRecord{
				ContentType: document.ContentType(n),
				Height:      h,
				Top:         top,
				Position:    pos,
				Size:        document.NodeSize(n),
			})
			top += h
		}
	}
	m := NewHeightMetrics(records, pageHeight)
	m.MeasuredAt = time.Now()
	return m
}

func blockHeight(view HeightSource, pos int) float64 {
	if view == nil {
		return 0
	}
	h, ok := view.BlockHeight(pos)
	if !ok || h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h
}
