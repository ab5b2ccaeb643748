// Package style computes the cascaded style of every element: user agent
// rules, document stylesheets and inline style attributes, with
// inheritance for the text properties the layout reads.
package style

import (
	"strings"

	"github.com/gompdf/gompage/internal/parser/css"
	"github.com/gompdf/gompage/internal/parser/html"
	xhtml "golang.org/x/net/html"
)

// Specificity represents the specificity of a CSS selector
type Specificity struct {
	ID      int
	Class   int
	Element int
}

// StyleProperty represents a computed style property
type StyleProperty struct {
	Name        string
	Value       string
	Important   bool
	Source      Source
	Specificity Specificity
	order       int
}

// Source represents the source of a style property
type Source int

const (
	SourceInherited Source = iota
	SourceUserAgent
	SourceAuthor
	SourceInline
)

// Media types a StyleEngine can compute for
const (
	MediaScreen = "screen"
	MediaPrint  = "print"
)

// inherited lists the properties children take from their parent
var inherited = []string{
	"color", "direction", "font-family", "font-size", "font-style",
	"font-weight", "line-height", "text-align", "white-space",
}

// ComputedStyle represents the computed style for an element
type ComputedStyle map[string]StyleProperty

// Get returns the value of name, or "" when unset
func (s ComputedStyle) Get(name string) string {
	return s[name].Value
}

// Specified returns the value of name only when the element itself
// declared it.
func (s ComputedStyle) Specified(name string) (string, bool) {
	p, ok := s[name]
	if !ok || p.Source == SourceInherited {
		return "", false
	}
	return p.Value, true
}

// FetchFunc returns the text of the stylesheet an href refers to
type FetchFunc func(href string) (string, error)

// StyleEngine handles the CSS cascade and style computation
type StyleEngine struct {
	userAgentStyles []*css.Stylesheet
	authorStyles    []*css.Stylesheet
	medium          string
	fetch           FetchFunc
}

// NewStyleEngine creates a style engine computing for screen media
func NewStyleEngine() *StyleEngine {
	return &StyleEngine{
		userAgentStyles: []*css.Stylesheet{defaultUserAgentStyles()},
		medium:          MediaScreen,
	}
}

// SetMedium selects the media type used to filter @media rules
func (e *StyleEngine) SetMedium(medium string) {
	e.medium = medium
}

// Medium returns the active media type
func (e *StyleEngine) Medium() string {
	return e.medium
}

// SetFetcher sets how linked stylesheets are loaded. Without one,
// <link rel="stylesheet"> elements are ignored.
func (e *StyleEngine) SetFetcher(fetch FetchFunc) {
	e.fetch = fetch
}

// AddUserAgentStylesheet appends a sheet at user agent priority
func (e *StyleEngine) AddUserAgentStylesheet(stylesheet *css.Stylesheet) {
	e.userAgentStyles = append(e.userAgentStyles, stylesheet)
}

// AddStylesheet adds an author stylesheet to the style engine
func (e *StyleEngine) AddStylesheet(stylesheet *css.Stylesheet) {
	e.authorStyles = append(e.authorStyles, stylesheet)
}

// AddDocumentStyles adds the author stylesheets of the document under
// root in document order: <style> elements and, when a fetcher is set,
// linked stylesheets. Sheets that fail to load or parse are skipped.
func (e *StyleEngine) AddDocumentStyles(root *html.Node) {
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.IsElement("style"):
			e.addSource(html.TextContent(n))
			return
		case n.IsElement("link"):
			if href, ok := linkedStylesheet(n); ok && e.fetch != nil {
				if src, err := e.fetch(href); err == nil {
					e.addSource(src)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
}

func (e *StyleEngine) addSource(src string) {
	if sheet, err := css.NewParser().ParseString(src); err == nil {
		e.AddStylesheet(sheet)
	}
}

func linkedStylesheet(n *html.Node) (string, bool) {
	rel, _ := n.GetAttr("rel")
	href, ok := n.GetAttr("href")
	if !ok || href == "" {
		return "", false
	}
	for _, r := range strings.Fields(rel) {
		if strings.EqualFold(r, "stylesheet") {
			return href, true
		}
	}
	return "", false
}

// ComputeStyles computes styles for all elements under root
func (e *StyleEngine) ComputeStyles(root *html.Node) map[*html.Node]ComputedStyle {
	result := make(map[*html.Node]ComputedStyle)
	e.computeStylesRecursive(root, nil, result)
	return result
}

func (e *StyleEngine) computeStylesRecursive(node *html.Node, parent ComputedStyle, result map[*html.Node]ComputedStyle) {
	if node == nil {
		return
	}
	if node.Type == xhtml.ElementNode {
		style := e.computeStyleForElement(node)
		inherit(style, parent)
		result[node] = style
		parent = style
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		e.computeStylesRecursive(child, parent, result)
	}
}

func inherit(style, parent ComputedStyle) {
	if parent == nil {
		return
	}
	for _, name := range inherited {
		if _, ok := style[name]; ok {
			continue
		}
		if p, ok := parent[name]; ok {
			p.Source = SourceInherited
			style[name] = p
		}
	}
}

// computeStyleForElement computes the style for a single element
func (e *StyleEngine) computeStyleForElement(node *html.Node) ComputedStyle {
	style := make(ComputedStyle)
	order := 0
	for _, sheet := range e.userAgentStyles {
		e.applyStylesheet(style, node, sheet, SourceUserAgent, &order)
	}
	for _, sheet := range e.authorStyles {
		e.applyStylesheet(style, node, sheet, SourceAuthor, &order)
	}
	if v, ok := node.GetAttr("style"); ok {
		applyDeclarations(style, css.ParseInline(v), Specificity{ID: 1}, SourceInline, &order)
	}
	return style
}

func (e *StyleEngine) applyStylesheet(style ComputedStyle, node *html.Node, sheet *css.Stylesheet, source Source, order *int) {
	for _, rule := range sheet.Rules {
		if !rule.AppliesTo(e.medium) {
			continue
		}
		for _, selector := range rule.Selectors {
			if selectorMatches(node, selector) {
				applyDeclarations(style, rule.Declarations, calculateSpecificity(selector), source, order)
			}
		}
	}
}

// applyDeclarations applies each declaration that outranks the value
// already present: importance first, then origin, then specificity, then
// order of appearance.
func applyDeclarations(style ComputedStyle, declarations []*css.Declaration, specificity Specificity, source Source, order *int) {
	for _, decl := range declarations {
		*order++
		candidate := StyleProperty{
			Name:        decl.Property,
			Value:       decl.Value,
			Important:   decl.Important,
			Source:      source,
			Specificity: specificity,
			order:       *order,
		}
		for _, p := range expand(candidate) {
			if existing, ok := style[p.Name]; !ok || outranks(p, existing) {
				style[p.Name] = p
			}
		}
	}
}

func outranks(a, b StyleProperty) bool {
	if a.Important != b.Important {
		return a.Important
	}
	if a.Source != b.Source {
		return a.Source > b.Source
	}
	if c := compareSpecificity(a.Specificity, b.Specificity); c != 0 {
		return c > 0
	}
	return a.order > b.order
}

// selectorMatches checks if an element matches a descendant selector
func selectorMatches(node *html.Node, selector string) bool {
	parts := strings.Fields(strings.ReplaceAll(selector, ">", " "))
	if len(parts) == 0 || node == nil {
		return false
	}
	if !matchCompoundSelector(node, parts[len(parts)-1]) {
		return false
	}

	current := node.Parent
	for i := len(parts) - 2; i >= 0; i-- {
		found := false
		for anc := current; anc != nil; anc = anc.Parent {
			if anc.Type == xhtml.ElementNode && matchCompoundSelector(anc, parts[i]) {
				found = true
				current = anc.Parent
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrSelector
	pseudo  bool
}

type attrSelector struct {
	key, val string
	hasVal   bool
}

// parseCompound splits forms like tag#id.a.b[data-x="y"] into parts.
func parseCompound(sel string) (compound, bool) {
	var c compound
	i := 0
	for i < len(sel) && !strings.ContainsRune(".#[:", rune(sel[i])) {
		i++
	}
	c.tag = strings.ToLower(sel[:i])

	for i < len(sel) {
		switch sel[i] {
		case '#', '.':
			j := i + 1
			for j < len(sel) && !strings.ContainsRune(".#[:", rune(sel[j])) {
				j++
			}
			if sel[i] == '#' {
				c.id = sel[i+1 : j]
			} else {
				c.classes = append(c.classes, sel[i+1:j])
			}
			i = j
		case '[':
			end := strings.IndexByte(sel[i:], ']')
			if end < 0 {
				return c, false
			}
			body := sel[i+1 : i+end]
			a := attrSelector{key: body}
			if k, v, ok := strings.Cut(body, "="); ok {
				a = attrSelector{key: k, val: strings.Trim(v, `"'`), hasVal: true}
			}
			c.attrs = append(c.attrs, a)
			i += end + 1
		case ':':
			c.pseudo = true
			return c, true
		default:
			return c, false
		}
	}
	return c, true
}

// matchCompoundSelector matches a single compound selector against a node.
// Pseudo-classes never match.
func matchCompoundSelector(node *html.Node, sel string) bool {
	if node == nil || node.Type != xhtml.ElementNode || sel == "" {
		return false
	}
	c, ok := parseCompound(sel)
	if !ok || c.pseudo {
		return false
	}
	if c.tag != "" && c.tag != "*" && c.tag != strings.ToLower(node.Data) {
		return false
	}
	if c.id != "" {
		if id, _ := node.GetAttr("id"); id != c.id {
			return false
		}
	}
	for _, class := range c.classes {
		if !node.HasClass(class) {
			return false
		}
	}
	for _, a := range c.attrs {
		v, ok := node.GetAttr(a.key)
		if !ok || a.hasVal && v != a.val {
			return false
		}
	}
	return true
}

// calculateSpecificity calculates the specificity of a CSS selector
func calculateSpecificity(selector string) Specificity {
	var s Specificity
	for _, part := range strings.Fields(strings.ReplaceAll(selector, ">", " ")) {
		c, _ := parseCompound(part)
		if c.id != "" {
			s.ID++
		}
		s.Class += len(c.classes) + len(c.attrs)
		if c.pseudo {
			s.Class++
		}
		if c.tag != "" && c.tag != "*" {
			s.Element++
		}
	}
	return s
}

// compareSpecificity compares two specificities
func compareSpecificity(a, b Specificity) int {
	if a.ID != b.ID {
		return a.ID - b.ID
	}
	if a.Class != b.Class {
		return a.Class - b.Class
	}
	return a.Element - b.Element
}

// defaultUserAgentStyles returns the default user agent stylesheet
func defaultUserAgentStyles() *css.Stylesheet {
	stylesheet, _ := css.NewParser().ParseString(`
		body { margin: 8px; font-size: 16px; line-height: 1.2; font-family: Helvetica; }
		h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold; }
		h2 { font-size: 1.5em; margin: 0.75em 0; font-weight: bold; }
		h3 { font-size: 1.17em; margin: 0.83em 0; font-weight: bold; }
		h4 { margin: 1.12em 0; font-weight: bold; }
		h5 { font-size: 0.83em; margin: 1.5em 0; font-weight: bold; }
		h6 { font-size: 0.75em; margin: 1.67em 0; font-weight: bold; }
		p { margin: 1em 0; }
		blockquote { margin: 1em 40px; }
		ul, ol { margin: 1em 0; padding-left: 40px; }
		li { margin: 0; }
		pre { white-space: pre; margin: 1em 0; font-family: Courier; }
		code { font-family: Courier; }
		hr { margin: 0.5em 0; border-top: 1px solid #808080; }
		a { color: #0000EE; text-decoration: underline; }
		b, strong, th { font-weight: bold; }
		i, em { font-style: italic; }
		table { border-collapse: separate; border-spacing: 2px; }
		th, td { border: 1px solid #ddd; padding: 4px; }
		th { background-color: #f2f2f2; }
	`)
	return stylesheet
}
