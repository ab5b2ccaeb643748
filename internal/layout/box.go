package layout

import (
	"github.com/gompdf/gompage/internal/parser/html"
)

// Box is a laid out rectangle. Coordinates are px on one continuous canvas
// whose origin is the top of the document content.
type Box interface {
	GetX() float64
	GetY() float64
	GetWidth() float64
	GetHeight() float64
	Translate(dx, dy float64)
	GetNode() *html.Node
}
