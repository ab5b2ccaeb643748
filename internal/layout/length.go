package layout

import (
	"strconv"
	"strings"
)

const (
	defaultFontSize   = 16.0
	defaultLineHeight = 1.2
	pxPerPt           = 96.0 / 72.0
)

// parseLength resolves a CSS length to px. em is relative to fontSize and
// percentages to containerSize; anything unparsable yields defaultValue.
func parseLength(value string, containerSize, fontSize, defaultValue float64) float64 {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "auto", "normal", "none", "inherit", "initial":
		return defaultValue
	case "0":
		return 0
	}

	units := []struct {
		suffix string
		scale  func(n float64) float64
	}{
		{"%", func(n float64) float64 { return containerSize * n / 100 }},
		{"px", func(n float64) float64 { return n }},
		{"rem", func(n float64) float64 { return n * defaultFontSize }},
		{"em", func(n float64) float64 { return n * fontSize }},
		{"pt", func(n float64) float64 { return n * pxPerPt }},
		{"pc", func(n float64) float64 { return n * 16 }},
		{"in", func(n float64) float64 { return n * 96 }},
		{"cm", func(n float64) float64 { return n * 96 / 2.54 }},
		{"mm", func(n float64) float64 { return n * 96 / 25.4 }},
	}
	for _, u := range units {
		if num, ok := strings.CutSuffix(v, u.suffix); ok {
			n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil {
				return defaultValue
			}
			return u.scale(n)
		}
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

// parseFontSize resolves a font-size declaration against the parent size
func parseFontSize(value string, parent float64) float64 {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "xx-small":
		return 9
	case "x-small":
		return 10
	case "small":
		return 13
	case "medium":
		return defaultFontSize
	case "large":
		return 18
	case "x-large":
		return 24
	case "xx-large":
		return 32
	case "smaller":
		return parent / 1.2
	case "larger":
		return parent * 1.2
	}
	if fs := parseLength(value, parent, parent, parent); fs > 0 {
		return fs
	}
	return parent
}

// parseLineHeight resolves line-height: normal, a unitless multiplier or
// a length.
func parseLineHeight(value string, fontSize float64) float64 {
	v := strings.TrimSpace(value)
	if v == "" || v == "normal" {
		return defaultLineHeight * fontSize
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n * fontSize
	}
	return parseLength(v, fontSize, fontSize, defaultLineHeight*fontSize)
}
