package dna

import (
	"strconv"
	"strings"
)

// IsColor reports whether v is a color the extractor records: an rgb()/rgba()
// function or a hex literal. Keywords such as "inherit" or "currentcolor" are
// not colors for this purpose.
func IsColor(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba(") ||
		(strings.HasPrefix(v, "#") && len(v) > 1)
}

// IsTransparent reports whether v is the fully transparent sentinel that
// computed styles use for "no background".
func IsTransparent(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "transparent" {
		return true
	}
	if !strings.HasPrefix(v, "rgba(") {
		return false
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(v, "rgba("), ")")
	parts := strings.FieldsFunc(inner, func(r rune) bool { return r == ',' || r == '/' || r == ' ' })
	if len(parts) != 4 {
		return false
	}
	alpha, ok := LeadingFloat(parts[3])
	return ok && alpha == 0
}

// LeadingFloat parses the numeric prefix of a CSS value ("12px" -> 12,
// "-1.5em" -> -1.5, "50%" -> 50). It reports false when no number leads.
func LeadingFloat(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	end := 0
	seenDigit, seenDot := false, false
scan:
	for end < len(v) {
		c := v[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot:
			seenDot = true
		case (c == '-' || c == '+') && end == 0:
		default:
			break scan
		}
		end++
	}
	if !seenDigit {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(v[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// PrimaryFontFamily returns the first family of a font-family list without
// surrounding quotes.
func PrimaryFontFamily(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.Trim(strings.TrimSpace(first), `"'`)
}

func isVerticalWriting(mode string) bool {
	mode = strings.ToLower(strings.TrimSpace(mode))
	return strings.HasPrefix(mode, "vertical") || strings.HasPrefix(mode, "tb") || mode == "sideways-rl" || mode == "sideways-lr"
}

func isNone(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || v == "none" || v == "normal"
}

func isZeroLength(v string) bool {
	f, ok := LeadingFloat(v)
	return !ok || f == 0
}
