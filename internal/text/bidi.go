package text

import (
	"golang.org/x/text/unicode/bidi"
)

// Direction represents text direction
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
)

func (d Direction) String() string {
	if d == RightToLeft {
		return "rtl"
	}
	return "ltr"
}

// BaseDirection returns the direction of the first strong character in s,
// defaulting to left-to-right.
func BaseDirection(s string) Direction {
	for len(s) > 0 {
		p, size := bidi.LookupString(s)
		if size == 0 {
			break
		}
		switch p.Class() {
		case bidi.L:
			return LeftToRight
		case bidi.R, bidi.AL:
			return RightToLeft
		}
		s = s[size:]
	}
	return LeftToRight
}
