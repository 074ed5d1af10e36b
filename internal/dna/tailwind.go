package dna

import (
	"regexp"
	"strings"
)

// BorderRadiusToTailwind maps a CSS border-radius to the Tailwind utility
// class generated code uses. The steps are fixed; cached components are
// compared against them.
func BorderRadiusToTailwind(value string) string {
	value = strings.TrimSpace(value)
	v, ok := LeadingFloat(value)
	if !ok {
		if value == "" {
			return "rounded-none"
		}
		return "rounded-[" + value + "]"
	}
	switch {
	case v <= 0:
		return "rounded-none"
	case v <= 2:
		return "rounded-sm"
	case v <= 4:
		return "rounded"
	case v <= 6:
		return "rounded-md"
	case v <= 8:
		return "rounded-lg"
	case v <= 12:
		return "rounded-xl"
	case v <= 16:
		return "rounded-2xl"
	case v <= 24:
		return "rounded-3xl"
	case v >= 9999:
		return "rounded-full"
	default:
		return "rounded-[" + firstToken(value) + "]"
	}
}

var (
	reColorFunc = regexp.MustCompile(`(?i)(rgba?|hsla?)\([^)]*\)|#[0-9a-f]{3,8}\b`)
	reLength    = regexp.MustCompile(`-?\d*\.?\d+(px)?`)
)

// ShadowToTailwind maps the first layer of a computed box-shadow to the
// closest Tailwind shadow utility, keyed on blur radius.
func ShadowToTailwind(value string) string {
	value = strings.TrimSpace(value)
	if isNone(value) {
		return "shadow-none"
	}
	if strings.Contains(strings.ToLower(value), "inset") {
		return "shadow-inner"
	}
	layer := firstShadowLayer(value)
	lengths := reLength.FindAllString(reColorFunc.ReplaceAllString(layer, " "), -1)
	blur := 0.0
	if len(lengths) >= 3 {
		blur, _ = LeadingFloat(lengths[2])
	}
	switch {
	case blur <= 2:
		return "shadow-sm"
	case blur <= 6:
		return "shadow"
	case blur <= 10:
		return "shadow-md"
	case blur <= 15:
		return "shadow-lg"
	case blur <= 25:
		return "shadow-xl"
	default:
		return "shadow-2xl"
	}
}

// firstShadowLayer splits on top-level commas only; commas inside rgba()
// belong to the color.
func firstShadowLayer(v string) string {
	depth := 0
	for i, r := range v {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				return v[:i]
			}
		}
	}
	return v
}

func firstToken(v string) string {
	if f := strings.Fields(v); len(f) > 0 {
		return f[0]
	}
	return v
}
