// Package dnaimport builds element trees from sources other than a live
// browser: static HTML with inline styles and Figma node JSON.
package dnaimport

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// MaxTextRunes caps the text carried on a single element.
const MaxTextRunes = 200

var strict = bluemonday.StrictPolicy()

// CleanText strips markup, decodes entities, collapses whitespace and caps
// the result at MaxTextRunes.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxTextRunes {
		return s
	}
	r := []rune(s)
	return string(r[:MaxTextRunes])
}
