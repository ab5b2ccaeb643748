package pagination

import "math"

// Plan computes where page breaks fall for blocks laid out one after the
// other. A block whose bottom lies exactly on a page boundary does not
// break. The first break caused by a block goes before it, unless the
// block already starts at the top of the current page; further breaks
// caused by the same block go after it, since content is never split.
func Plan(nodes []NodeHeightRecord, pageHeight float64) []Break {
	if pageHeight <= 0 || math.IsNaN(pageHeight) || math.IsInf(pageHeight, 0) {
		return nil
	}

	var breaks []Break
	pageEnd := pageHeight
	pageNumber := 1
	for i, n := range nodes {
		bottom := n.Bottom()
		before := n.Top > pageEnd-pageHeight
		for bottom > pageEnd {
			b := Break{
				PageNumber:    pageNumber,
				BoundaryPixel: pageEnd,
			}
			if before {
				b.PrecedingNodeIndex = i - 1
				b.InsertPosition = n.Position
				before = false
			} else {
				b.PrecedingNodeIndex = i
				b.InsertPosition = n.Position + n.Size
			}
			breaks = append(breaks, b)
			pageNumber++
			pageEnd += pageHeight
		}
	}
	return breaks
}

// samePlacement reports whether two plans put the same pages after the
// same blocks. Positions are ignored since markers shift them.
func samePlacement(a, b []Break) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].PageNumber != b[i].PageNumber || a[i].PrecedingNodeIndex != b[i].PrecedingNodeIndex {
			return false
		}
	}
	return true
}
