// Package colormap assigns semantic role names to the colors of an element
// tree and re-skins generated code from one palette to another.
package colormap

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"oasis/internal/dna"
)

// RoleMap maps a semantic role ("dna-primary", "dna-main") to "#RRGGBB".
type RoleMap map[string]string

var (
	textRoles = []string{"dna-primary", "dna-secondary", "dna-tertiary", "dna-muted", "dna-accent"}
	bgRoles   = []string{"dna-main", "dna-surface", "dna-card", "dna-overlay", "dna-bg-accent"}
)

func textRole(n int) string {
	if n < len(textRoles) {
		return textRoles[n]
	}
	return fmt.Sprintf("dna-text-%d", n+1)
}

func bgRole(n int) string {
	if n < len(bgRoles) {
		return bgRoles[n]
	}
	return fmt.Sprintf("dna-bg-%d", n+1)
}

// Extract walks the tree in pre-order and names each distinct text and
// background color by first appearance. The two channels count
// independently; colors that cannot be converted to hex are skipped.
func Extract(elements []dna.Element) RoleMap {
	out := RoleMap{}
	seenText := map[string]struct{}{}
	seenBg := map[string]struct{}{}
	dna.Walk(elements, func(el *dna.Element, _ int) bool {
		if c := el.Typo().Color; dna.IsColor(c) {
			if hex, ok := ToHex(c); ok {
				if _, dup := seenText[hex]; !dup {
					out[textRole(len(seenText))] = hex
					seenText[hex] = struct{}{}
				}
			}
		}
		if c := el.Vis().BackgroundColor; dna.IsColor(c) && !dna.IsTransparent(c) {
			if hex, ok := ToHex(c); ok {
				if _, dup := seenBg[hex]; !dup {
					out[bgRole(len(seenBg))] = hex
					seenBg[hex] = struct{}{}
				}
			}
		}
		return true
	})
	return out
}

// Roles returns the role names of m in sorted order.
func (m RoleMap) Roles() []string {
	roles := make([]string, 0, len(m))
	for r := range m {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// Hexes returns the distinct hex values of m ordered by role name.
func (m RoleMap) Hexes() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range m.Roles() {
		h := strings.ToUpper(m[r])
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// Equal reports whether both maps carry the same roles with the same hex
// values, ignoring case.
func Equal(a, b RoleMap) bool {
	if len(a) != len(b) {
		return false
	}
	for r, av := range a {
		bv, ok := b[r]
		if !ok || !strings.EqualFold(av, bv) {
			return false
		}
	}
	return true
}

// Remap replaces, case-insensitively, every literal occurrence of a source
// hex in code with the target hex for each role present in both maps with
// differing values. Replacement is a single pass, so a swap A->B, B->A does
// not cascade. Any identical hex substring in code is replaced too, whether
// or not it was written as a color.
func Remap(code string, source, target RoleMap) string {
	if len(source) == 0 || len(target) == 0 || code == "" {
		return code
	}
	replace := map[string]string{}
	for _, role := range source.Roles() {
		from, to := strings.TrimSpace(source[role]), strings.TrimSpace(target[role])
		if from == "" || to == "" || strings.EqualFold(from, to) {
			continue
		}
		key := strings.ToUpper(from)
		if _, ok := replace[key]; ok {
			// First role by name wins when two roles share a source hex.
			continue
		}
		replace[key] = to
	}
	if len(replace) == 0 {
		return code
	}
	keys := make([]string, 0, len(replace))
	for k := range replace {
		keys = append(keys, k)
	}
	// Longest first so #AABBCCDD is not shadowed by #AABBCC.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	re := regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
	return re.ReplaceAllStringFunc(code, func(m string) string {
		return replace[strings.ToUpper(m)]
	})
}

var reRGB = regexp.MustCompile(`(?i)^rgba?\(\s*([^)]*)\)$`)

// ToHex converts rgb()/rgba() (comma or space syntax, percent channels) and
// 3/6/8-digit hex literals to uppercase "#RRGGBB". Alpha is dropped.
func ToHex(css string) (string, bool) {
	css = strings.TrimSpace(css)
	if strings.HasPrefix(css, "#") {
		return hexLiteral(css[1:])
	}
	m := reRGB.FindStringSubmatch(css)
	if m == nil {
		return "", false
	}
	parts := strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) < 3 {
		return "", false
	}
	var rgb [3]int
	for i := 0; i < 3; i++ {
		v, ok := channel(parts[i])
		if !ok {
			return "", false
		}
		rgb[i] = v
	}
	return fmt.Sprintf("#%02X%02X%02X", rgb[0], rgb[1], rgb[2]), true
}

func channel(p string) (int, bool) {
	pct := strings.HasSuffix(p, "%")
	f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
	if err != nil {
		return 0, false
	}
	if pct {
		f = f * 255 / 100
	}
	return int(math.Max(0, math.Min(255, math.Round(f)))), true
}

func hexLiteral(h string) (string, bool) {
	for _, r := range h {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return "", false
		}
	}
	switch len(h) {
	case 3, 4:
		return strings.ToUpper("#" + strings.Repeat(h[0:1], 2) + strings.Repeat(h[1:2], 2) + strings.Repeat(h[2:3], 2)), true
	case 6, 8:
		return strings.ToUpper("#" + h[:6]), true
	}
	return "", false
}
