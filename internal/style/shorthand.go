package style

import "strings"

var sides = [4]string{"top", "right", "bottom", "left"}

// expand splits the box shorthands the layout reads into their longhands
// and maps break-after onto page-break-after.
func expand(p StyleProperty) []StyleProperty {
	switch p.Name {
	case "margin", "padding":
		vals := boxValues(p.Value)
		out := make([]StyleProperty, 0, 5)
		out = append(out, p)
		for i, side := range sides {
			q := p
			q.Name = p.Name + "-" + side
			q.Value = vals[i]
			out = append(out, q)
		}
		return out
	case "border", "border-top", "border-bottom":
		width, color := borderWidth(p.Value), borderColor(p.Value)
		targets := []string{"top", "bottom"}
		if p.Name != "border" {
			targets = []string{strings.TrimPrefix(p.Name, "border-")}
		}
		out := []StyleProperty{p}
		for _, side := range targets {
			q := p
			q.Name = "border-" + side + "-width"
			q.Value = width
			out = append(out, q)
			if color != "" {
				c := p
				c.Name = "border-" + side + "-color"
				c.Value = color
				out = append(out, c)
			}
		}
		return out
	case "break-after", "break-before":
		q := p
		q.Name = "page-" + p.Name
		switch p.Value {
		case "page", "left", "right", "recto", "verso":
			q.Value = "always"
		}
		return []StyleProperty{p, q}
	}
	return []StyleProperty{p}
}

// boxValues applies the one-to-four value rule of box shorthands
func boxValues(v string) [4]string {
	f := strings.Fields(v)
	switch len(f) {
	case 1:
		return [4]string{f[0], f[0], f[0], f[0]}
	case 2:
		return [4]string{f[0], f[1], f[0], f[1]}
	case 3:
		return [4]string{f[0], f[1], f[2], f[1]}
	case 0:
		return [4]string{"0", "0", "0", "0"}
	default:
		return [4]string{f[0], f[1], f[2], f[3]}
	}
}

// borderWidth picks the width out of a border shorthand
func borderWidth(v string) string {
	for _, f := range strings.Fields(v) {
		switch f {
		case "none", "hidden":
			return "0"
		case "thin":
			return "1px"
		case "medium":
			return "3px"
		case "thick":
			return "5px"
		}
		if f[0] >= '0' && f[0] <= '9' || f[0] == '.' {
			return f
		}
	}
	return "3px"
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
	"thin": true, "medium": true, "thick": true,
}

// borderColor picks the color out of a border shorthand, or ""
func borderColor(v string) string {
	for _, f := range strings.Fields(v) {
		if borderStyles[f] || f[0] >= '0' && f[0] <= '9' || f[0] == '.' {
			continue
		}
		return f
	}
	return ""
}
