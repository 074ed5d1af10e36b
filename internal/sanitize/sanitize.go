// Package sanitize cleans generated component code and preview markup, and
// parses raw generation output into those two parts.
//
// Both halves are deliberately pattern based. They are best-effort filters
// over text whose shape is not guaranteed, kept behind two functions so the
// heuristics can be tested and replaced in isolation.
package sanitize

import (
	"regexp"
	"strings"
)

// DecorativePrefix marks a class list whose element may keep free positioning.
const DecorativePrefix = "decorative_"

var cmsPrefixes = []string{
	"wp-", "wpb_", "elementor", "et_pb_", "sqs-", "wix-", "shopify-",
	"hs-", "vc_", "jet-", "astra-", "divi-",
}

var trackingMarkers = []string{
	"googletagmanager", "google-analytics", "gtag(", "gtm.js", "gtm-",
	"fbq(", "connect.facebook.net", "datalayer", "hotjar", "clarity.ms",
	"analytics.js", "segment.com", "plausible.io", "matomo", "_paq",
}

var (
	reScript       = regexp.MustCompile(`(?is)<script\b[^>]*?(?:/>|>.*?</script\s*>)`)
	reNoscript     = regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript\s*>`)
	reImg          = regexp.MustCompile(`(?is)<img\b[^>]*>`)
	reOnePixel     = regexp.MustCompile(`(?i)\bwidth\s*=\s*["'{]?\s*1\s*["'}]?[^>]*\bheight\s*=\s*["'{]?\s*1\s*["'}]?|\bheight\s*=\s*["'{]?\s*1\s*["'}]?[^>]*\bwidth\s*=\s*["'{]?\s*1\s*["'}]?`)
	reTrackingLine = regexp.MustCompile(`(?m)^[ \t]*(?:window\.)?(?:gtag|fbq|dataLayer\.push|_paq\.push)\s*\(.*(?:\r?\n)?`)

	reIDAttr    = regexp.MustCompile("(?i)(\\s+|[\"'}])id\\s*=\\s*(?:\"[^\"]*\"|'[^']*'|\\{[^}]*\\}|[^\\s\"'=<>`{}/]+)")
	reClassAttr = regexp.MustCompile(`(\s*)\b(class|className)\s*=\s*(?:"([^"]*)"|'([^']*)'|\{\s*"([^"]*)"\s*\}|\{\s*'([^']*)'\s*\})`)
	reCoord     = regexp.MustCompile(`^-?(?:top|right|bottom|left|inset|inset-x|inset-y|start|end)-`)

	reOpenTag     = regexp.MustCompile(`<[a-zA-Z][^<>]*>`)
	reSpaceRun    = regexp.MustCompile(`\s+`)
	reBlankLines  = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)
	reTrailingGap = regexp.MustCompile(`\s+(/?>)$`)
)

// Sanitize cleans both parts of a generation result. It is total: the
// worst case is input returned with whatever cleanup matched.
func Sanitize(componentCode, previewHTML string) (string, string) {
	return cleanCode(componentCode), cleanMarkup(previewHTML)
}

func cleanCode(s string) string {
	s = stripTracking(s)
	s = mapOpenTags(s, stripIDs)
	s = rewriteClasses(s)
	return collapseBlankLines(s)
}

func cleanMarkup(s string) string {
	s = cleanCode(s)
	return reOpenTag.ReplaceAllStringFunc(s, func(tag string) string {
		tag = reSpaceRun.ReplaceAllString(tag, " ")
		return reTrailingGap.ReplaceAllString(tag, "$1")
	})
}

// stripIDs removes identifier attributes from one opening tag. A quote or
// brace that ends the previous attribute stays in place.
func stripIDs(tag string) string {
	return reIDAttr.ReplaceAllStringFunc(tag, func(attr string) string {
		if lead := attr[0]; lead == '"' || lead == '\'' || lead == '}' {
			return string(lead)
		}
		return ""
	})
}

// mapOpenTags applies fn to every opening tag in s. A tag runs from "<" plus
// a letter to the first ">" outside quotes and JSX braces, so arrow functions
// inside attribute expressions do not end it early. Text outside tags is
// copied untouched.
func mapOpenTags(s string, fn func(string) string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	for i < len(s) {
		lt := strings.IndexByte(s[i:], '<')
		if lt < 0 {
			break
		}
		start := i + lt
		end := -1
		if start+1 < len(s) && isASCIILetter(s[start+1]) {
			end = openTagEnd(s, start+1)
		}
		if end < 0 {
			b.WriteString(s[i : start+1])
			i = start + 1
			continue
		}
		b.WriteString(s[i:start])
		b.WriteString(fn(s[start : end+1]))
		i = end + 1
	}
	b.WriteString(s[i:])
	return b.String()
}

func openTagEnd(s string, from int) int {
	var quote byte
	depth := 0
	for j := from; j < len(s); j++ {
		c := s[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '{':
			depth++
		case c == '}':
			if depth > 0 {
				depth--
			}
		case c == '<' && depth == 0:
			return -1
		case c == '>' && depth == 0:
			return j
		}
	}
	return -1
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func stripTracking(s string) string {
	s = reScript.ReplaceAllStringFunc(s, func(block string) string {
		if isTracking(block) {
			return ""
		}
		return block
	})
	s = reNoscript.ReplaceAllString(s, "")
	s = reImg.ReplaceAllStringFunc(s, func(img string) string {
		low := strings.ToLower(img)
		if reOnePixel.MatchString(img) || strings.Contains(low, "facebook.com/tr") || strings.Contains(low, "pixel") {
			return ""
		}
		return img
	})
	return reTrackingLine.ReplaceAllString(s, "")
}

func isTracking(block string) bool {
	low := strings.ToLower(block)
	for _, m := range trackingMarkers {
		if strings.Contains(low, m) {
			return true
		}
	}
	return false
}

func rewriteClasses(s string) string {
	return reClassAttr.ReplaceAllStringFunc(s, func(attr string) string {
		idx := reClassAttr.FindStringSubmatchIndex(attr)
		lead, name := attr[idx[2]:idx[3]], attr[idx[4]:idx[5]]
		quotes := [][2]string{{`"`, `"`}, {`'`, `'`}, {`{"`, `"}`}, {`{'`, `'}`}}
		for g, q := range quotes {
			lo, hi := idx[6+2*g], idx[7+2*g]
			if lo < 0 {
				continue
			}
			cleaned := CleanClassList(attr[lo:hi])
			if cleaned == "" {
				return ""
			}
			return lead + name + "=" + q[0] + cleaned + q[1]
		}
		return attr
	})
}

// CleanClassList applies the class policy to one space-separated list:
// CMS vendor classes are dropped, tokens de-duplicated, and unless a token
// carries DecorativePrefix, absolute becomes relative and coordinate
// utilities are removed.
func CleanClassList(list string) string {
	tokens := strings.Fields(list)
	decorative := false
	for _, t := range tokens {
		if strings.HasPrefix(t, DecorativePrefix) {
			decorative = true
			break
		}
	}
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if hasCMSPrefix(t) {
			continue
		}
		if !decorative {
			variant, base := splitVariant(t)
			if reCoord.MatchString(base) {
				continue
			}
			if base == "absolute" {
				t = variant + "relative"
			}
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// splitVariant separates "md:hover:" from the utility. Colons inside an
// arbitrary value ("bg-[url(a:b)]") are not variant separators.
func splitVariant(token string) (string, string) {
	depth := 0
	cut := -1
	for i, r := range token {
		switch r {
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case ':':
			if depth == 0 {
				cut = i
			}
		}
	}
	if cut < 0 {
		return "", token
	}
	return token[:cut+1], token[cut+1:]
}

func hasCMSPrefix(token string) bool {
	low := strings.ToLower(token)
	for _, p := range cmsPrefixes {
		if strings.HasPrefix(low, p) {
			return true
		}
	}
	return false
}

func collapseBlankLines(s string) string {
	return reBlankLines.ReplaceAllString(s, "\n\n")
}
