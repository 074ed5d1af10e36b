package dna

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"oasis/internal/util/jsonutil"
)

// Normalized is the hashed projection of a Summary: the four fact lists,
// sorted, without entry names. Names carry traversal ordinals and the
// derived keys carry selectors; neither is visually relevant.
type Normalized struct {
	Colors     []normColor      `json:"colors"`
	Typography []normTypography `json:"typography"`
	Layout     []LayoutEntry    `json:"layout"`
	Visual     []VisualEntry    `json:"visual"`
}

type normColor struct {
	CSS string `json:"css"`
}

type normTypography struct {
	FontFamily    string `json:"fontFamily"`
	FontSize      string `json:"fontSize"`
	FontWeight    string `json:"fontWeight"`
	LineHeight    string `json:"lineHeight"`
	LetterSpacing string `json:"letterSpacing"`
}

// Normalize projects and sorts s. Colors sort by CSS string, typography by
// family+size, layout and visual by tag. Ties are broken by the entry's
// canonical encoding so sibling permutations collapse to one order.
func Normalize(s Summary) Normalized {
	n := Normalized{
		Colors:     make([]normColor, 0, len(s.Colors)),
		Typography: make([]normTypography, 0, len(s.Typography)),
		Layout:     append([]LayoutEntry{}, s.Layout...),
		Visual:     append([]VisualEntry{}, s.Visual...),
	}
	for _, c := range s.Colors {
		n.Colors = append(n.Colors, normColor{CSS: c.CSS})
	}
	for _, t := range s.Typography {
		n.Typography = append(n.Typography, normTypography{
			FontFamily:    t.FontFamily,
			FontSize:      t.FontSize,
			FontWeight:    t.FontWeight,
			LineHeight:    t.LineHeight,
			LetterSpacing: t.LetterSpacing,
		})
	}
	sortByKey(n.Colors, func(c normColor) string { return c.CSS })
	sortByKey(n.Typography, func(t normTypography) string { return t.FontFamily + t.FontSize })
	sortByKey(n.Layout, func(l LayoutEntry) string { return l.Tag })
	sortByKey(n.Visual, func(v VisualEntry) string { return v.Tag })
	return n
}

func sortByKey[T any](list []T, key func(T) string) {
	tie := make([]string, len(list))
	for i := range list {
		b, _ := jsonutil.Canonical(list[i])
		tie[i] = string(b)
	}
	idx := make([]int, len(list))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := key(list[idx[a]]), key(list[idx[b]])
		if ka != kb {
			return ka < kb
		}
		return tie[idx[a]] < tie[idx[b]]
	})
	sorted := make([]T, len(list))
	for i, j := range idx {
		sorted[i] = list[j]
	}
	copy(list, sorted)
}

// Hash returns the lowercase hex SHA-256 of the canonical normalized summary
// of elements. Equal normalized summaries always share a digest.
func Hash(elements []Element) string {
	return HashSummary(Summarize(elements))
}

// HashSummary hashes an already computed summary.
func HashSummary(s Summary) string {
	b, err := jsonutil.Canonical(Normalize(s))
	if err != nil {
		// Only strings and slices of plain structs reach the encoder.
		panic("dna: canonical encoding failed: " + err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
