// Package text prepares inline text for measurement: Unicode normalisation,
// whitespace collapsing and greedy line wrapping.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MeasureFunc returns the advance width of s in the caller's unit
type MeasureFunc func(s string) float64

// Normalize converts s to NFC and collapses runs of white space into a
// single space, the way HTML renders normal flow text.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Words splits normalised text into words
func Words(s string) []string {
	return strings.FieldsFunc(s, unicode.IsSpace)
}

// Wrap breaks text into lines no wider than maxWidth. A word wider than a
// whole line is split between runes. A maxWidth ≤ 0 disables wrapping.
func Wrap(text string, maxWidth float64, measure MeasureFunc) []string {
	words := Words(text)
	if len(words) == 0 {
		return nil
	}
	if maxWidth <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var lines []string
	line := ""
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if measure(candidate) <= maxWidth {
			line = candidate
			continue
		}
		if line != "" {
			lines = append(lines, line)
			line = ""
		}
		if measure(word) <= maxWidth {
			line = word
			continue
		}
		parts := splitWord(word, maxWidth, measure)
		lines = append(lines, parts[:len(parts)-1]...)
		line = parts[len(parts)-1]
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// splitWord cuts word into pieces that fit maxWidth, keeping at least one
// rune per piece.
func splitWord(word string, maxWidth float64, measure MeasureFunc) []string {
	var parts []string
	var cur []rune
	for _, r := range word {
		next := append(cur, r)
		if len(cur) > 0 && measure(string(next)) > maxWidth {
			parts = append(parts, string(cur))
			cur = []rune{r}
			continue
		}
		cur = next
	}
	return append(parts, string(cur))
}
