// Package css parses the small subset of CSS the layout engine reads:
// style rules, @media blocks and inline style attributes.
package css

import (
	"io"
	"strings"
)

// Parser represents a CSS parser
type Parser struct{}

// Rule represents a CSS rule. Media is empty for rules outside an @media
// block.
type Rule struct {
	Selectors    []string
	Declarations []*Declaration
	Media        []string
}

// Declaration represents a CSS declaration (property-value pair)
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules []*Rule
}

// NewParser creates a new CSS parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses CSS from a string
func (p *Parser) ParseString(content string) (*Stylesheet, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses CSS from an io.Reader. Malformed rules are skipped.
func (p *Parser) Parse(r io.Reader) (*Stylesheet, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	sheet := &Stylesheet{}
	parseBlock(removeComments(string(content)), nil, sheet)
	return sheet, nil
}

// ParseInline parses the value of a style attribute
func ParseInline(style string) []*Declaration {
	return parseDeclarations(removeComments(style))
}

// AppliesTo reports whether the rule is active for the given medium
func (r *Rule) AppliesTo(medium string) bool {
	if len(r.Media) == 0 {
		return true
	}
	for _, m := range r.Media {
		if m == "all" || strings.EqualFold(m, medium) {
			return true
		}
	}
	return false
}

// parseBlock walks the rules in content, recursing into @media blocks
func parseBlock(content string, media []string, sheet *Stylesheet) {
	for {
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		open := strings.IndexAny(content, "{;")
		if open < 0 {
			return
		}
		prelude := strings.TrimSpace(content[:open])
		if content[open] == ';' {
			// @import, @charset and stray semicolons
			content = content[open+1:]
			continue
		}
		end := matchingBrace(content, open)
		if end < 0 {
			return
		}
		body := content[open+1 : end]
		content = content[end+1:]

		switch {
		case strings.HasPrefix(prelude, "@media"):
			parseBlock(body, parseMedia(strings.TrimPrefix(prelude, "@media")), sheet)
		case strings.HasPrefix(prelude, "@"):
			// @page, @font-face and friends carry nothing the layout reads
		default:
			selectors := parseSelectors(prelude)
			if len(selectors) == 0 {
				continue
			}
			sheet.Rules = append(sheet.Rules, &Rule{
				Selectors:    selectors,
				Declarations: parseDeclarations(body),
				Media:        media,
			})
		}
	}
}

// matchingBrace returns the index of the brace closing the one at open
func matchingBrace(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// parseMedia reduces a media query list to its media types
func parseMedia(query string) []string {
	var out []string
	for _, q := range strings.Split(query, ",") {
		fields := strings.Fields(strings.ToLower(q))
		for _, f := range fields {
			if f == "only" || f == "not" {
				continue
			}
			if !strings.HasPrefix(f, "(") {
				out = append(out, f)
			}
			break
		}
	}
	return out
}

// parseSelectors parses CSS selectors
func parseSelectors(selectorStr string) []string {
	selectors := strings.Split(selectorStr, ",")
	result := make([]string, 0, len(selectors))
	for _, selector := range selectors {
		selector = strings.Join(strings.Fields(selector), " ")
		if selector != "" {
			result = append(result, selector)
		}
	}
	return result
}

// parseDeclarations parses CSS declarations. Semicolons inside quotes or
// parentheses, as in url(data:...;base64,...), do not end a declaration.
func parseDeclarations(declarationsStr string) []*Declaration {
	var result []*Declaration
	for _, declStr := range splitTopLevel(declarationsStr, ';') {
		property, value, ok := strings.Cut(declStr, ":")
		if !ok {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" || value == "" {
			continue
		}

		important := false
		if v, found := strings.CutSuffix(value, "!important"); found {
			important = true
			value = strings.TrimSpace(v)
		}

		result = append(result, &Declaration{
			Property:  property,
			Value:     value,
			Important: important,
		})
	}
	return result
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// removeComments removes CSS comments
func removeComments(content string) string {
	var result strings.Builder
	i := 0
	for i < len(content) {
		if i+1 < len(content) && content[i] == '/' && content[i+1] == '*' {
			commentEnd := strings.Index(content[i+2:], "*/")
			if commentEnd == -1 {
				break
			}
			i += commentEnd + 4
		} else {
			result.WriteByte(content[i])
			i++
		}
	}
	return result.String()
}
