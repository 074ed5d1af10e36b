package dnaimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"oasis/internal/dna"
)

// FigmaNode is the subset of a Figma REST API document node the importer
// reads.
type FigmaNode struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Type                string        `json:"type"`
	Visible             *bool         `json:"visible,omitempty"`
	Children            []FigmaNode   `json:"children,omitempty"`
	Characters          string        `json:"characters,omitempty"`
	Fills               []FigmaPaint  `json:"fills,omitempty"`
	Strokes             []FigmaPaint  `json:"strokes,omitempty"`
	StrokeWeight        float64       `json:"strokeWeight,omitempty"`
	CornerRadius        float64       `json:"cornerRadius,omitempty"`
	Effects             []FigmaEffect `json:"effects,omitempty"`
	Opacity             *float64      `json:"opacity,omitempty"`
	Style               *FigmaText    `json:"style,omitempty"`
	AbsoluteBoundingBox *FigmaRect    `json:"absoluteBoundingBox,omitempty"`
	LayoutMode          string        `json:"layoutMode,omitempty"`
	PrimaryAxisAlign    string        `json:"primaryAxisAlignItems,omitempty"`
	CounterAxisAlign    string        `json:"counterAxisAlignItems,omitempty"`
	ItemSpacing         float64       `json:"itemSpacing,omitempty"`
	PaddingLeft         float64       `json:"paddingLeft,omitempty"`
	PaddingRight        float64       `json:"paddingRight,omitempty"`
	PaddingTop          float64       `json:"paddingTop,omitempty"`
	PaddingBottom       float64       `json:"paddingBottom,omitempty"`
	ClipsContent        bool          `json:"clipsContent,omitempty"`
}

// FigmaColor uses Figma's 0..1 channel range.
type FigmaColor struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
	A float64 `json:"a"`
}

type FigmaPaint struct {
	Type    string      `json:"type"`
	Visible *bool       `json:"visible,omitempty"`
	Opacity *float64    `json:"opacity,omitempty"`
	Color   *FigmaColor `json:"color,omitempty"`
}

type FigmaEffect struct {
	Type    string      `json:"type"`
	Visible *bool       `json:"visible,omitempty"`
	Radius  float64     `json:"radius,omitempty"`
	Spread  float64     `json:"spread,omitempty"`
	Color   *FigmaColor `json:"color,omitempty"`
	Offset  *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"offset,omitempty"`
}

type FigmaText struct {
	FontFamily          string  `json:"fontFamily"`
	FontWeight          float64 `json:"fontWeight"`
	FontSize            float64 `json:"fontSize"`
	LineHeightPx        float64 `json:"lineHeightPx"`
	LetterSpacing       float64 `json:"letterSpacing"`
	TextAlignHorizontal string  `json:"textAlignHorizontal"`
}

type FigmaRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DecodeFigma accepts a file response ({"document": ...}), a nodes response
// ({"nodes": {id: {"document": ...}}}), a single node, or an array of
// nodes, and converts it.
func DecodeFigma(r io.Reader) ([]dna.Element, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("dnaimport: empty figma document")
	}
	if raw[0] == '[' {
		var nodes []FigmaNode
		if err := json.Unmarshal(raw, &nodes); err != nil {
			return nil, fmt.Errorf("dnaimport: decode figma nodes: %w", err)
		}
		return FromFigma(nodes), nil
	}
	var env struct {
		Document *FigmaNode `json:"document"`
		Nodes    map[string]struct {
			Document FigmaNode `json:"document"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("dnaimport: decode figma: %w", err)
	}
	switch {
	case env.Document != nil:
		return FromFigma(env.Document.Children), nil
	case len(env.Nodes) > 0:
		ids := make([]string, 0, len(env.Nodes))
		for id := range env.Nodes {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		nodes := make([]FigmaNode, 0, len(ids))
		for _, id := range ids {
			nodes = append(nodes, env.Nodes[id].Document)
		}
		return FromFigma(nodes), nil
	}
	var node FigmaNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("dnaimport: decode figma node: %w", err)
	}
	return FromFigma([]FigmaNode{node}), nil
}

// FromFigma converts Figma nodes to elements. Hidden nodes are dropped;
// DOCUMENT and CANVAS wrappers are flattened.
func FromFigma(nodes []FigmaNode) []dna.Element {
	return convertFigma(nodes, 0)
}

func convertFigma(nodes []FigmaNode, depth int) []dna.Element {
	if depth >= MaxDepth {
		return nil
	}
	var out []dna.Element
	for i := range nodes {
		n := &nodes[i]
		if !visible(n.Visible) {
			continue
		}
		if n.Type == "DOCUMENT" || n.Type == "CANVAS" {
			out = append(out, convertFigma(n.Children, depth)...)
			continue
		}
		if len(out) >= MaxChildren {
			break
		}
		out = append(out, figmaElement(n, depth))
	}
	return out
}

func figmaElement(n *FigmaNode, depth int) dna.Element {
	el := dna.Element{
		TagName:  figmaTag(n),
		Selector: n.Type + ":" + n.Name,
		Children: convertFigma(n.Children, depth+1),
	}
	if n.Type == "TEXT" {
		el.TextContent = CleanText(n.Characters)
	}
	if b := n.AbsoluteBoundingBox; b != nil {
		el.BoundingBox = dna.BoundingBox{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
	}

	st := &dna.Styles{}
	fill := firstSolid(n.Fills)
	if n.Type == "TEXT" {
		typo := dna.Typography{}
		if s := n.Style; s != nil {
			typo.FontFamily = s.FontFamily
			typo.FontSize = px(s.FontSize)
			if s.FontWeight > 0 {
				typo.FontWeight = num(s.FontWeight)
			}
			typo.LineHeight = px(s.LineHeightPx)
			if s.LetterSpacing != 0 {
				typo.LetterSpacing = px(s.LetterSpacing)
			}
			typo.TextAlign = strings.ToLower(s.TextAlignHorizontal)
			if typo.TextAlign == "justified" {
				typo.TextAlign = "justify"
			}
		}
		typo.Color = fill
		st.Typography = &typo
	} else {
		vis := dna.Visual{BackgroundColor: fill}
		if n.Type == "ELLIPSE" {
			vis.BorderRadius = "9999px"
		} else if n.CornerRadius > 0 {
			vis.BorderRadius = px(n.CornerRadius)
		}
		if stroke := firstSolid(n.Strokes); stroke != "" && n.StrokeWeight > 0 {
			vis.Border = px(n.StrokeWeight) + " solid " + stroke
		}
		vis.BoxShadow = shadowOf(n.Effects)
		if n.Opacity != nil && *n.Opacity < 1 {
			vis.Opacity = num(*n.Opacity)
		}
		if n.ClipsContent {
			vis.Overflow = "hidden"
		}
		if vis != (dna.Visual{}) {
			st.Visual = &vis
		}
	}
	if lay := figmaLayout(n); lay != (dna.Layout{}) {
		st.Layout = &lay
	}
	if st.Typography != nil || st.Layout != nil || st.Visual != nil {
		el.Styles = st
	}
	return el
}

// figmaTag guesses an HTML tag from the node type and layer name.
func figmaTag(n *FigmaNode) string {
	name := strings.ToLower(n.Name)
	switch n.Type {
	case "TEXT":
		if n.Style != nil && n.Style.FontSize >= 32 {
			return "h1"
		}
		if n.Style != nil && n.Style.FontSize >= 24 {
			return "h2"
		}
		return "p"
	case "VECTOR", "BOOLEAN_OPERATION", "STAR", "LINE", "REGULAR_POLYGON":
		return "svg"
	}
	for _, kw := range []string{"header", "nav", "footer", "main", "section", "button"} {
		if strings.Contains(name, kw) {
			return kw
		}
	}
	return "div"
}

func figmaLayout(n *FigmaNode) dna.Layout {
	var l dna.Layout
	switch n.LayoutMode {
	case "HORIZONTAL":
		l.Display, l.FlexDirection = "flex", "row"
	case "VERTICAL":
		l.Display, l.FlexDirection = "flex", "column"
	default:
		return l
	}
	l.JustifyContent = axisAlign(n.PrimaryAxisAlign)
	l.AlignItems = axisAlign(n.CounterAxisAlign)
	if n.ItemSpacing > 0 {
		l.Gap = px(n.ItemSpacing)
	}
	if n.PaddingTop+n.PaddingRight+n.PaddingBottom+n.PaddingLeft > 0 {
		l.Padding = strings.Join([]string{px0(n.PaddingTop), px0(n.PaddingRight), px0(n.PaddingBottom), px0(n.PaddingLeft)}, " ")
	}
	if b := n.AbsoluteBoundingBox; b != nil {
		l.Width, l.Height = px(b.Width), px(b.Height)
	}
	return l
}

func axisAlign(v string) string {
	switch v {
	case "MIN":
		return "flex-start"
	case "CENTER":
		return "center"
	case "MAX":
		return "flex-end"
	case "SPACE_BETWEEN":
		return "space-between"
	case "BASELINE":
		return "baseline"
	}
	return ""
}

func shadowOf(effects []FigmaEffect) string {
	var layers []string
	for _, e := range effects {
		if !visible(e.Visible) || (e.Type != "DROP_SHADOW" && e.Type != "INNER_SHADOW") {
			continue
		}
		var x, y float64
		if e.Offset != nil {
			x, y = e.Offset.X, e.Offset.Y
		}
		layer := fmt.Sprintf("%s %s %s %s %s", px0(x), px0(y), px0(e.Radius), px0(e.Spread), rgba(e.Color, 1))
		if e.Type == "INNER_SHADOW" {
			layer = "inset " + layer
		}
		layers = append(layers, layer)
	}
	return strings.Join(layers, ", ")
}

func firstSolid(paints []FigmaPaint) string {
	for _, p := range paints {
		if p.Type != "SOLID" || !visible(p.Visible) || p.Color == nil {
			continue
		}
		op := 1.0
		if p.Opacity != nil {
			op = *p.Opacity
		}
		return rgba(p.Color, op)
	}
	return ""
}

// rgba renders a Figma color as rgb()/rgba(), the same form computed styles
// use.
func rgba(c *FigmaColor, opacity float64) string {
	if c == nil {
		return "rgb(0, 0, 0)"
	}
	r := int(math.Round(c.R * 255))
	g := int(math.Round(c.G * 255))
	b := int(math.Round(c.B * 255))
	a := c.A * opacity
	if a >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, num(math.Round(a*100)/100))
}

func visible(v *bool) bool { return v == nil || *v }

func px(v float64) string {
	if v == 0 {
		return ""
	}
	return num(v) + "px"
}

func px0(v float64) string { return num(v) + "px" }

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
