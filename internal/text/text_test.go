package text

import (
	"reflect"
	"testing"
	"unicode/utf8"
)

func runeWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello   world \n", "hello world"},
		{"a\tb\n\nc", "a b c"},
		{"", ""},
		{"é", "é"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width float64
		want  []string
	}{
		{"fits", "one two", 10, []string{"one two"}},
		{"breaks between words", "one two three", 7, []string{"one two", "three"}},
		{"long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word after short", "ab cdefgh", 4, []string{"ab", "cdef", "gh"}},
		{"empty", "   ", 10, nil},
		{"no limit", "a  b", 0, []string{"a b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.width, runeWidth)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestBaseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
	}{
		{"hello", LeftToRight},
		{"123 שלום", RightToLeft},
		{"مرحبا world", RightToLeft},
		{"", LeftToRight},
		{"42", LeftToRight},
	}
	for _, tt := range tests {
		if got := BaseDirection(tt.in); got != tt.want {
			t.Errorf("BaseDirection(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
