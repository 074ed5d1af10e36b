// Package dna models the styled element tree captured from a page or design
// file and derives the deterministic "design DNA" from it: a de-duplicated
// style summary, visual-identity tokens, a structural zone map and the
// content-addressable hash used as the generation cache key.
//
// Everything in this package is a pure function of its input. Missing style
// data is never an error; it simply contributes nothing.
package dna

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BoundingBox is an element's box in page pixels, top-left origin.
type BoundingBox struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Typography holds computed text styles. Empty strings mean "absent".
type Typography struct {
	FontFamily    string `json:"fontFamily,omitempty"`
	FontSize      string `json:"fontSize,omitempty"`
	FontWeight    string `json:"fontWeight,omitempty"`
	LineHeight    string `json:"lineHeight,omitempty"`
	LetterSpacing string `json:"letterSpacing,omitempty"`
	TextAlign     string `json:"textAlign,omitempty"`
	Color         string `json:"color,omitempty"`
}

// Layout holds computed box/flow styles.
type Layout struct {
	Display        string `json:"display,omitempty"`
	Position       string `json:"position,omitempty"`
	Width          string `json:"width,omitempty"`
	Height         string `json:"height,omitempty"`
	Margin         string `json:"margin,omitempty"`
	Padding        string `json:"padding,omitempty"`
	FlexDirection  string `json:"flexDirection,omitempty"`
	JustifyContent string `json:"justifyContent,omitempty"`
	AlignItems     string `json:"alignItems,omitempty"`
	Gap            string `json:"gap,omitempty"`
	WritingMode    string `json:"writingMode,omitempty"`
}

// Visual holds decorative styles.
type Visual struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BorderRadius    string `json:"borderRadius,omitempty"`
	Border          string `json:"border,omitempty"`
	BoxShadow       string `json:"boxShadow,omitempty"`
	Opacity         string `json:"opacity,omitempty"`
	Overflow        string `json:"overflow,omitempty"`
}

// Styles groups the three style facets. Any facet may be nil.
type Styles struct {
	Typography *Typography `json:"typography,omitempty"`
	Layout     *Layout     `json:"layout,omitempty"`
	Visual     *Visual     `json:"visual,omitempty"`
}

// Element is one node of the input tree. Children are owned by their parent.
type Element struct {
	TagName     string      `json:"tagName"`
	Selector    string      `json:"selector,omitempty"`
	TextContent string      `json:"textContent,omitempty"`
	BoundingBox BoundingBox `json:"boundingBox"`
	Styles      *Styles     `json:"styles,omitempty"`
	Children    []Element   `json:"children,omitempty"`
}

// Typo returns the typography facet or a zero value.
func (e *Element) Typo() Typography {
	if e == nil || e.Styles == nil || e.Styles.Typography == nil {
		return Typography{}
	}
	return *e.Styles.Typography
}

// Lay returns the layout facet or a zero value.
func (e *Element) Lay() Layout {
	if e == nil || e.Styles == nil || e.Styles.Layout == nil {
		return Layout{}
	}
	return *e.Styles.Layout
}

// Vis returns the visual facet or a zero value.
func (e *Element) Vis() Visual {
	if e == nil || e.Styles == nil || e.Styles.Visual == nil {
		return Visual{}
	}
	return *e.Styles.Visual
}

// Walk visits every element in pre-order. Returning false from fn skips the
// element's children.
func Walk(elements []Element, fn func(el *Element, depth int) bool) {
	var visit func(list []Element, depth int)
	visit = func(list []Element, depth int) {
		for i := range list {
			el := &list[i]
			if !fn(el, depth) {
				continue
			}
			if len(el.Children) > 0 {
				visit(el.Children, depth+1)
			}
		}
	}
	visit(elements, 0)
}

// Count returns the number of elements in the tree.
func Count(elements []Element) int {
	n := 0
	Walk(elements, func(*Element, int) bool {
		n++
		return true
	})
	return n
}

// DecodeTree reads an element tree given either as a bare JSON array or as
// an object with an "elements" field.
func DecodeTree(raw []byte) ([]Element, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("dna: empty input")
	}
	if raw[0] == '[' {
		var els []Element
		if err := json.Unmarshal(raw, &els); err != nil {
			return nil, fmt.Errorf("dna: decode tree: %w", err)
		}
		return els, nil
	}
	var doc struct {
		Elements []Element `json:"elements"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("dna: decode tree: %w", err)
	}
	return doc.Elements, nil
}
