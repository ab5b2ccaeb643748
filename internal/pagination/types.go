// Package pagination measures block heights, plans where page boundaries
// fall and keeps the document's page-break markers in line with the plan.
package pagination

import (
	"math"
	"time"
)

// DefaultPageHeight is an A4 page at 96 DPI in px
const DefaultPageHeight = 1123.0

// NodeHeightRecord is one measured top-level block
type NodeHeightRecord struct {
	ContentType string
	Height      float64
	Top         float64
	Position    int
	Size        int
}

// Bottom is the block's lower edge
func (r NodeHeightRecord) Bottom() float64 {
	return r.Top + r.Height
}

// HeightMetrics is one measurement pass. It is replaced wholesale by the
// next pass.
type HeightMetrics struct {
	ContentHeight  float64
	PageCount      int
	IsOverflowing  bool
	OverflowAmount float64
	NodeHeights    []NodeHeightRecord
	PageHeight     float64
	MeasuredAt     time.Time
}

// NewHeightMetrics derives the aggregates from records
func NewHeightMetrics(records []NodeHeightRecord, pageHeight float64) HeightMetrics {
	m := HeightMetrics{
		NodeHeights: records,
		PageHeight:  pageHeight,
	}
	if n := len(records); n > 0 {
		m.ContentHeight = records[n-1].Bottom()
	}
	if pageHeight > 0 {
		m.PageCount = int(math.Ceil(m.ContentHeight / pageHeight))
		m.IsOverflowing = m.ContentHeight > pageHeight
		m.OverflowAmount = max(0, m.ContentHeight-pageHeight)
	}
	return m
}

// Break is one planned page break. The marker goes right after node
// PrecedingNodeIndex (-1 for the document start) and closes PageNumber.
type Break struct {
	PageNumber         int
	BoundaryPixel      float64
	InsertPosition     int
	PrecedingNodeIndex int
}
