package dnaimport

import (
	"strings"

	"oasis/internal/dna"
)

// ParseStyle splits a CSS declaration list ("color: red; padding: 4px")
// into lower-cased property names and trimmed values. Semicolons inside
// parentheses (data URLs) do not split. Later declarations win.
func ParseStyle(s string) map[string]string {
	out := map[string]string{}
	depth, start := 0, 0
	flush := func(end int) {
		decl := s[start:end]
		start = end + 1
		i := strings.IndexByte(decl, ':')
		if i <= 0 {
			return
		}
		prop := strings.ToLower(strings.TrimSpace(decl[:i]))
		val := strings.TrimSpace(decl[i+1:])
		val = strings.TrimSpace(strings.TrimSuffix(val, "!important"))
		if prop != "" && val != "" {
			out[prop] = val
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			if depth == 0 {
				flush(i)
			}
		}
	}
	if start < len(s) {
		flush(len(s))
	}
	return out
}

// StylesFromDecls maps CSS properties onto the element style groups. Groups
// with no matching property stay nil.
func StylesFromDecls(d map[string]string) *dna.Styles {
	typo := dna.Typography{
		FontFamily:    d["font-family"],
		FontSize:      d["font-size"],
		FontWeight:    d["font-weight"],
		LineHeight:    d["line-height"],
		LetterSpacing: d["letter-spacing"],
		TextAlign:     d["text-align"],
		Color:         d["color"],
	}
	lay := dna.Layout{
		Display:        d["display"],
		Position:       d["position"],
		Width:          d["width"],
		Height:         d["height"],
		Margin:         d["margin"],
		Padding:        d["padding"],
		FlexDirection:  d["flex-direction"],
		JustifyContent: d["justify-content"],
		AlignItems:     d["align-items"],
		Gap:            d["gap"],
		WritingMode:    firstNonEmpty(d["writing-mode"], d["-webkit-writing-mode"]),
	}
	vis := dna.Visual{
		BackgroundColor: firstNonEmpty(d["background-color"], backgroundShorthandColor(d["background"])),
		BorderRadius:    d["border-radius"],
		Border:          d["border"],
		BoxShadow:       d["box-shadow"],
		Opacity:         d["opacity"],
		Overflow:        d["overflow"],
	}

	st := &dna.Styles{}
	if typo != (dna.Typography{}) {
		st.Typography = &typo
	}
	if lay != (dna.Layout{}) {
		st.Layout = &lay
	}
	if vis != (dna.Visual{}) {
		st.Visual = &vis
	}
	return st
}

// backgroundShorthandColor returns the background shorthand when it is a
// plain color. Images and gradients contribute nothing.
func backgroundShorthandColor(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "url(") || strings.Contains(v, "gradient(") {
		return ""
	}
	if dna.IsColor(v) {
		return v
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
