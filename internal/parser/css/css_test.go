package css

import (
	"testing"
)

func TestParse_RulesAndMedia(t *testing.T) {
	sheet, err := NewParser().ParseString(`
		/* base */
		@charset "utf-8";
		div   p, .note { margin: 0 ; color: red !important }
		@media print {
			.page-break { border: none; page-break-after: always; }
		}
		@page { size: A4; }
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sheet.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(sheet.Rules))
	}

	first := sheet.Rules[0]
	if len(first.Selectors) != 2 || first.Selectors[0] != "div p" || first.Selectors[1] != ".note" {
		t.Errorf("unexpected selectors %q", first.Selectors)
	}
	if len(first.Declarations) != 2 || !first.Declarations[1].Important || first.Declarations[1].Value != "red" {
		t.Errorf("unexpected declarations %+v", first.Declarations)
	}
	if !first.AppliesTo("screen") || !first.AppliesTo("print") {
		t.Errorf("rule outside @media should apply everywhere")
	}

	second := sheet.Rules[1]
	if second.AppliesTo("screen") || !second.AppliesTo("print") {
		t.Errorf("print rule applies to wrong media: %v", second.Media)
	}
}

func TestParseInline_DataURL(t *testing.T) {
	decls := ParseInline(`background: url(data:image/png;base64,AAAA); height: 10px`)
	if len(decls) != 2 {
		t.Fatalf("expected 2 declarations, got %d", len(decls))
	}
	if decls[0].Value != "url(data:image/png;base64,AAAA)" {
		t.Errorf("unexpected value %q", decls[0].Value)
	}
	if decls[1].Property != "height" || decls[1].Value != "10px" {
		t.Errorf("unexpected declaration %+v", decls[1])
	}
}

func TestParseMedia(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{" print", []string{"print"}},
		{" screen and (min-width: 10px), print", []string{"screen", "print"}},
		{" only screen", []string{"screen"}},
		{" (max-width: 600px)", nil},
	}
	for _, tt := range tests {
		got := parseMedia(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseMedia(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseMedia(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}
