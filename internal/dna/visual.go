package dna

import (
	"sort"
	"strings"
)

// Limits bounds the derived lists. The defaults match what generated
// templates were built against; they are tunable, not invariants.
type Limits struct {
	RadiusTopN    int `json:"radiusTopN" yaml:"radius_top_n"`
	ShadowTopN    int `json:"shadowTopN" yaml:"shadow_top_n"`
	DecorativeCap int `json:"decorativeCap" yaml:"decorative_cap"`
	QuirkCap      int `json:"quirkCap" yaml:"quirk_cap"`
	SectionCap    int `json:"sectionCap" yaml:"section_cap"`
	ShellCap      int `json:"shellCap" yaml:"shell_cap"`
}

// DefaultLimits returns the standard caps.
func DefaultLimits() Limits {
	return Limits{
		RadiusTopN:    5,
		ShadowTopN:    3,
		DecorativeCap: 5,
		QuirkCap:      5,
		SectionCap:    5,
		ShellCap:      10,
	}
}

// withDefaults fills non-positive fields from DefaultLimits.
func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.RadiusTopN <= 0 {
		l.RadiusTopN = def.RadiusTopN
	}
	if l.ShadowTopN <= 0 {
		l.ShadowTopN = def.ShadowTopN
	}
	if l.DecorativeCap <= 0 {
		l.DecorativeCap = def.DecorativeCap
	}
	if l.QuirkCap <= 0 {
		l.QuirkCap = def.QuirkCap
	}
	if l.SectionCap <= 0 {
		l.SectionCap = def.SectionCap
	}
	if l.ShellCap <= 0 {
		l.ShellCap = def.ShellCap
	}
	return l
}

const (
	decorativeMinWidth  = 200
	decorativeMinRadius = 40
	decorativeMaxText   = 10
	quirkMinSpacing     = 2
	exampleCap          = 3
)

// RadiusStat is a border-radius value and how often it occurs.
type RadiusStat struct {
	Value         string   `json:"value"`
	TailwindClass string   `json:"tailwindClass"`
	Count         int      `json:"count"`
	Tags          []string `json:"tags"`
	Selectors     []string `json:"selectors"`
}

// ShadowStat is a box-shadow value and how often it occurs.
type ShadowStat struct {
	Value         string `json:"value"`
	TailwindClass string `json:"tailwindClass"`
	Count         int    `json:"count"`
}

// DecorativeShape is a large, strongly rounded, nearly text-free element:
// a blob, pill or circle used as decoration.
type DecorativeShape struct {
	Tag             string      `json:"tag"`
	Selector        string      `json:"selector"`
	Width           string      `json:"width"`
	Height          string      `json:"height"`
	BorderRadius    string      `json:"borderRadius"`
	TailwindClass   string      `json:"tailwindClass"`
	BackgroundColor string      `json:"backgroundColor"`
	BoundingBox     BoundingBox `json:"boundingBox"`
}

// Quirk kinds.
const (
	QuirkLetterSpacing   = "letter-spacing"
	QuirkVerticalWriting = "vertical-writing"
)

// TypographyQuirk is text with unusual tracking or vertical writing.
type TypographyQuirk struct {
	Kind          string `json:"kind"`
	Tag           string `json:"tag"`
	Selector      string `json:"selector"`
	LetterSpacing string `json:"letterSpacing,omitempty"`
	WritingMode   string `json:"writingMode,omitempty"`
	FontFamily    string `json:"fontFamily,omitempty"`
	Text          string `json:"text,omitempty"`
}

// DesignTokens are the flattened token values handed to generation.
type DesignTokens struct {
	BorderRadiusValues []string `json:"borderRadiusValues"`
	ShadowValues       []string `json:"shadowValues"`
	FontFamilies       []string `json:"fontFamilies"`
	HasVerticalWriting bool     `json:"hasVerticalWriting"`
	HasMixedFonts      bool     `json:"hasMixedFonts"`
}

// VisualKeys is the visual-identity token set of a tree.
type VisualKeys struct {
	DominantBorderRadius []RadiusStat      `json:"dominantBorderRadius"`
	TopShadows           []ShadowStat      `json:"topShadows"`
	DecorativeShapes     []DecorativeShape `json:"decorativeShapes"`
	TypographyQuirks     []TypographyQuirk `json:"typographyQuirks"`
	DesignTokens         DesignTokens      `json:"designTokens"`
}

// radiusAcc and shadowAcc accumulate counts during traversal; order records
// first-seen position so ties sort deterministically.
type radiusAcc struct {
	stat  RadiusStat
	order int
}

type shadowAcc struct {
	stat  ShadowStat
	order int
}

// AnalyzeVisualKeys derives visual-identity tokens with default limits.
func AnalyzeVisualKeys(elements []Element) VisualKeys {
	return AnalyzeVisualKeysWith(elements, DefaultLimits())
}

// AnalyzeVisualKeysWith derives visual-identity tokens in one traversal.
func AnalyzeVisualKeysWith(elements []Element, limits Limits) VisualKeys {
	limits = limits.withDefaults()
	radii := map[string]*radiusAcc{}
	shadows := map[string]*shadowAcc{}
	fonts := []string{}
	seenFont := map[string]struct{}{}
	out := VisualKeys{
		DominantBorderRadius: []RadiusStat{},
		TopShadows:           []ShadowStat{},
		DecorativeShapes:     []DecorativeShape{},
		TypographyQuirks:     []TypographyQuirk{},
	}
	hasVertical := false

	Walk(elements, func(el *Element, _ int) bool {
		tag := tagOf(el)
		typo, lay, vis := el.Typo(), el.Lay(), el.Vis()

		if r := strings.TrimSpace(vis.BorderRadius); !isZeroLength(r) {
			acc, ok := radii[r]
			if !ok {
				acc = &radiusAcc{
					stat:  RadiusStat{Value: r, TailwindClass: BorderRadiusToTailwind(r), Tags: []string{}, Selectors: []string{}},
					order: len(radii),
				}
				radii[r] = acc
			}
			acc.stat.Count++
			acc.stat.Tags = appendExample(acc.stat.Tags, tag)
			if el.Selector != "" {
				acc.stat.Selectors = appendExample(acc.stat.Selectors, el.Selector)
			}
		}

		if sh := strings.TrimSpace(vis.BoxShadow); !isNone(sh) {
			acc, ok := shadows[sh]
			if !ok {
				acc = &shadowAcc{
					stat:  ShadowStat{Value: sh, TailwindClass: ShadowToTailwind(sh)},
					order: len(shadows),
				}
				shadows[sh] = acc
			}
			acc.stat.Count++
		}

		if fam := PrimaryFontFamily(typo.FontFamily); fam != "" {
			if _, ok := seenFont[fam]; !ok {
				seenFont[fam] = struct{}{}
				fonts = append(fonts, fam)
			}
		}

		if len(out.DecorativeShapes) < limits.DecorativeCap && isDecorativeShape(el, lay, vis) {
			out.DecorativeShapes = append(out.DecorativeShapes, DecorativeShape{
				Tag:             tag,
				Selector:        el.Selector,
				Width:           lay.Width,
				Height:          lay.Height,
				BorderRadius:    vis.BorderRadius,
				TailwindClass:   BorderRadiusToTailwind(vis.BorderRadius),
				BackgroundColor: vis.BackgroundColor,
				BoundingBox:     el.BoundingBox,
			})
		}

		vertical := isVerticalWriting(lay.WritingMode)
		if vertical {
			hasVertical = true
		}
		if len(out.TypographyQuirks) < limits.QuirkCap {
			if q, ok := quirkOf(el, tag, typo, lay, vertical); ok {
				out.TypographyQuirks = append(out.TypographyQuirks, q)
			}
		}
		return true
	})

	radiusList := make([]*radiusAcc, 0, len(radii))
	for _, acc := range radii {
		radiusList = append(radiusList, acc)
	}
	sort.SliceStable(radiusList, func(i, j int) bool {
		if radiusList[i].stat.Count != radiusList[j].stat.Count {
			return radiusList[i].stat.Count > radiusList[j].stat.Count
		}
		return radiusList[i].order < radiusList[j].order
	})
	for i, acc := range radiusList {
		if i >= limits.RadiusTopN {
			break
		}
		out.DominantBorderRadius = append(out.DominantBorderRadius, acc.stat)
	}

	shadowList := make([]*shadowAcc, 0, len(shadows))
	for _, acc := range shadows {
		shadowList = append(shadowList, acc)
	}
	sort.SliceStable(shadowList, func(i, j int) bool {
		if shadowList[i].stat.Count != shadowList[j].stat.Count {
			return shadowList[i].stat.Count > shadowList[j].stat.Count
		}
		return shadowList[i].order < shadowList[j].order
	})
	for i, acc := range shadowList {
		if i >= limits.ShadowTopN {
			break
		}
		out.TopShadows = append(out.TopShadows, acc.stat)
	}

	tokens := DesignTokens{
		BorderRadiusValues: make([]string, 0, len(out.DominantBorderRadius)),
		ShadowValues:       make([]string, 0, len(out.TopShadows)),
		FontFamilies:       fonts,
		HasVerticalWriting: hasVertical,
		HasMixedFonts:      len(fonts) > 1,
	}
	for _, r := range out.DominantBorderRadius {
		tokens.BorderRadiusValues = append(tokens.BorderRadiusValues, r.Value)
	}
	for _, sh := range out.TopShadows {
		tokens.ShadowValues = append(tokens.ShadowValues, sh.Value)
	}
	out.DesignTokens = tokens
	return out
}

// isDecorativeShape: layout width over 200px, radius over 40 and under 10
// characters of own text. A width string that does not parse (auto, empty)
// never qualifies.
func isDecorativeShape(el *Element, lay Layout, vis Visual) bool {
	width, ok := LeadingFloat(lay.Width)
	if !ok || width <= decorativeMinWidth {
		return false
	}
	radius, ok := LeadingFloat(vis.BorderRadius)
	if !ok || radius <= decorativeMinRadius {
		return false
	}
	return len([]rune(strings.TrimSpace(el.TextContent))) < decorativeMaxText
}

func quirkOf(el *Element, tag string, typo Typography, lay Layout, vertical bool) (TypographyQuirk, bool) {
	q := TypographyQuirk{
		Tag:        tag,
		Selector:   el.Selector,
		FontFamily: PrimaryFontFamily(typo.FontFamily),
		Text:       truncateRunes(strings.TrimSpace(el.TextContent), 40),
	}
	if ls, ok := LeadingFloat(typo.LetterSpacing); ok && (ls > quirkMinSpacing || ls < -quirkMinSpacing) {
		q.Kind = QuirkLetterSpacing
		q.LetterSpacing = typo.LetterSpacing
		return q, true
	}
	if vertical {
		q.Kind = QuirkVerticalWriting
		q.WritingMode = lay.WritingMode
		return q, true
	}
	return TypographyQuirk{}, false
}

func appendExample(list []string, v string) []string {
	if len(list) >= exampleCap {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
