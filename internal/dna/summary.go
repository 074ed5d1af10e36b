package dna

import (
	"fmt"
	"strings"
)

// ColorEntry is one distinct color. Name has the form OASIS/<role>/<tag>-<n>;
// the color-map engine reduces it to a semantic role later.
type ColorEntry struct {
	Name string `json:"name"`
	CSS  string `json:"css"`
}

// TypographyEntry is one distinct (family, size, weight) combination.
type TypographyEntry struct {
	Name          string `json:"name"`
	FontFamily    string `json:"fontFamily"`
	FontSize      string `json:"fontSize"`
	FontWeight    string `json:"fontWeight"`
	LineHeight    string `json:"lineHeight"`
	LetterSpacing string `json:"letterSpacing"`
}

// LayoutEntry records the flow facts of one element.
type LayoutEntry struct {
	Tag            string `json:"tag"`
	Display        string `json:"display"`
	Position       string `json:"position"`
	FlexDirection  string `json:"flexDirection"`
	JustifyContent string `json:"justifyContent"`
	AlignItems     string `json:"alignItems"`
	Gap            string `json:"gap"`
	Padding        string `json:"padding"`
	Margin         string `json:"margin"`
	Width          string `json:"width"`
	Height         string `json:"height"`
}

// VisualEntry records the decorative facts of one element.
type VisualEntry struct {
	Tag             string `json:"tag"`
	BackgroundColor string `json:"backgroundColor"`
	BorderRadius    string `json:"borderRadius"`
	Border          string `json:"border"`
	BoxShadow       string `json:"boxShadow"`
	Opacity         string `json:"opacity"`
}

// Summary is the normalized extraction of an element tree. Lists follow
// first-seen pre-order; Normalize sorts them for hashing.
type Summary struct {
	Colors              []ColorEntry        `json:"colors"`
	Typography          []TypographyEntry   `json:"typography"`
	Layout              []LayoutEntry       `json:"layout"`
	Visual              []VisualEntry       `json:"visual"`
	VisualKeys          VisualKeys          `json:"visualKeys"`
	StructuralHierarchy StructuralHierarchy `json:"structuralHierarchy"`
}

// Summarize extracts the style summary with default limits.
func Summarize(elements []Element) Summary {
	return SummarizeWith(elements, DefaultLimits())
}

// SummarizeWith extracts the style summary using the given limits for the
// derived visual keys and structure.
func SummarizeWith(elements []Element, limits Limits) Summary {
	s := Summary{
		Colors:     []ColorEntry{},
		Typography: []TypographyEntry{},
		Layout:     []LayoutEntry{},
		Visual:     []VisualEntry{},
	}
	seenColors := map[string]struct{}{}
	seenFonts := map[string]struct{}{}

	addColor := func(role, tag, css string) {
		if _, ok := seenColors[css]; ok {
			return
		}
		seenColors[css] = struct{}{}
		s.Colors = append(s.Colors, ColorEntry{
			Name: fmt.Sprintf("OASIS/%s/%s-%d", role, tag, len(s.Colors)),
			CSS:  css,
		})
	}

	Walk(elements, func(el *Element, _ int) bool {
		tag := tagOf(el)
		typo, lay, vis := el.Typo(), el.Lay(), el.Vis()

		if c := strings.TrimSpace(typo.Color); IsColor(c) {
			addColor("text", tag, c)
		}
		if c := strings.TrimSpace(vis.BackgroundColor); IsColor(c) && !IsTransparent(c) {
			addColor("bg", tag, c)
		}

		if typo.FontFamily != "" || typo.FontSize != "" || typo.FontWeight != "" {
			key := typo.FontFamily + "|" + typo.FontSize + "|" + typo.FontWeight
			if _, ok := seenFonts[key]; !ok {
				seenFonts[key] = struct{}{}
				s.Typography = append(s.Typography, TypographyEntry{
					Name:          fmt.Sprintf("OASIS/font/%s-%d", tag, len(s.Typography)),
					FontFamily:    typo.FontFamily,
					FontSize:      typo.FontSize,
					FontWeight:    typo.FontWeight,
					LineHeight:    typo.LineHeight,
					LetterSpacing: typo.LetterSpacing,
				})
			}
		}

		if hasLayoutFacts(lay) {
			s.Layout = append(s.Layout, LayoutEntry{
				Tag:            tag,
				Display:        lay.Display,
				Position:       lay.Position,
				FlexDirection:  lay.FlexDirection,
				JustifyContent: lay.JustifyContent,
				AlignItems:     lay.AlignItems,
				Gap:            lay.Gap,
				Padding:        lay.Padding,
				Margin:         lay.Margin,
				Width:          lay.Width,
				Height:         lay.Height,
			})
		}

		if hasVisualFacts(vis) {
			s.Visual = append(s.Visual, VisualEntry{
				Tag:             tag,
				BackgroundColor: vis.BackgroundColor,
				BorderRadius:    vis.BorderRadius,
				Border:          vis.Border,
				BoxShadow:       vis.BoxShadow,
				Opacity:         vis.Opacity,
			})
		}
		return true
	})

	s.VisualKeys = AnalyzeVisualKeysWith(elements, limits)
	s.StructuralHierarchy = AnalyzeStructureWith(elements, limits)
	return s
}

// hasLayoutFacts is true for flex/grid containers and out-of-flow elements.
func hasLayoutFacts(l Layout) bool {
	switch strings.ToLower(strings.TrimSpace(l.Display)) {
	case "flex", "inline-flex", "grid", "inline-grid":
		return true
	}
	switch strings.ToLower(strings.TrimSpace(l.Position)) {
	case "absolute", "fixed", "sticky":
		return true
	}
	return false
}

// hasVisualFacts is true when the element carries a radius, shadow, border
// or reduced opacity.
func hasVisualFacts(v Visual) bool {
	if !isZeroLength(v.BorderRadius) {
		return true
	}
	if !isNone(v.BoxShadow) {
		return true
	}
	if b := strings.TrimSpace(v.Border); b != "" && !isNone(b) && !strings.HasPrefix(b, "0px") && !strings.Contains(b, " none") {
		return true
	}
	if o, ok := LeadingFloat(v.Opacity); ok && o < 1 {
		return true
	}
	return false
}

func tagOf(el *Element) string {
	t := strings.ToLower(strings.TrimSpace(el.TagName))
	if t == "" {
		return "node"
	}
	return t
}
