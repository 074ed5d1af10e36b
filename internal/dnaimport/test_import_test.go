package dnaimport

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasis/internal/colormap"
	"oasis/internal/dna"
)

const landingHTML = `<!doctype html>
<html><head><title>x</title><style>body{color:red}</style></head>
<body>
  <header id="top" class="site-header wp-block" style="background-color: rgb(10,10,10)">Brand</header>
  <section style="background: rgb(255,255,255); color: rgb(0,0,0); border-radius: 12px; width: 640px; height: 320px">
    Hello &amp; <b>welcome</b>
    <script>gtag('config')</script>
  </section>
  <footer style="background-color:rgb(10,10,10) !important">(c)</footer>
</body></html>`

func TestFromHTML_Landing(t *testing.T) {
	els, err := FromHTML(strings.NewReader(landingHTML))
	require.NoError(t, err)
	require.Len(t, els, 3)

	assert.Equal(t, "header", els[0].TagName)
	assert.Equal(t, "header#top.site-header.wp-block", els[0].Selector)
	assert.Equal(t, "Brand", els[0].TextContent)
	assert.Equal(t, "rgb(10,10,10)", els[0].Vis().BackgroundColor)

	sec := els[1]
	assert.Equal(t, "Hello &", sec.TextContent)
	assert.Equal(t, "12px", sec.Vis().BorderRadius)
	assert.Equal(t, "rgb(0,0,0)", sec.Typo().Color)
	assert.Equal(t, 640.0, sec.BoundingBox.Width)
	require.Len(t, sec.Children, 1, "script is skipped")
	assert.Equal(t, "b", sec.Children[0].TagName)

	assert.Equal(t, "rgb(10,10,10)", els[2].Vis().BackgroundColor, "!important is dropped")

	h := dna.AnalyzeStructure(els)
	require.NotNil(t, h.Header)
	require.NotNil(t, h.Footer)
	assert.True(t, h.Header.Shell)

	cm := colormap.Extract(els)
	assert.Equal(t, colormap.RoleMap{"dna-main": "#0A0A0A", "dna-surface": "#FFFFFF", "dna-primary": "#000000"}, cm)
}

func TestFromHTML_CapsDepthAndChildren(t *testing.T) {
	var b strings.Builder
	b.WriteString("<body><ul>")
	for i := 0; i < MaxChildren+10; i++ {
		fmt.Fprintf(&b, "<li>%d</li>", i)
	}
	b.WriteString("</ul>")
	for i := 0; i < MaxDepth+5; i++ {
		b.WriteString("<div>")
	}
	b.WriteString("</body>")

	els, err := FromHTML(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Len(t, els[0].Children, MaxChildren)

	depth := 0
	dna.Walk(els[1:], func(_ *dna.Element, d int) bool {
		if d > depth {
			depth = d
		}
		return true
	})
	assert.Equal(t, MaxDepth-1, depth)
}

func TestParseStyle(t *testing.T) {
	got := ParseStyle(`Color: red; background: url("data:image/png;base64,AAA"); ; padding:4px 2px;margin`)
	assert.Equal(t, map[string]string{
		"color":      "red",
		"background": `url("data:image/png;base64,AAA")`,
		"padding":    "4px 2px",
	}, got)

	st := StylesFromDecls(got)
	assert.Nil(t, st.Visual, "image background contributes no color")
	require.NotNil(t, st.Layout)
	assert.Equal(t, "4px 2px", st.Layout.Padding)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a & b c", CleanText("  a &amp; <i>b</i>\n\t c "))
	assert.Equal(t, "", CleanText(""))
	long := strings.Repeat("é", MaxTextRunes+20)
	assert.Equal(t, MaxTextRunes, len([]rune(CleanText(long))))
}

const figmaFile = `{
  "document": {
    "type": "DOCUMENT",
    "children": [{
      "type": "CANVAS", "name": "Page 1",
      "children": [
        {"type": "FRAME", "name": "Header", "fills": [{"type": "SOLID", "color": {"r": 0.0392, "g": 0.0392, "b": 0.0392, "a": 1}}],
         "layoutMode": "HORIZONTAL", "primaryAxisAlignItems": "SPACE_BETWEEN", "itemSpacing": 16, "paddingLeft": 24, "paddingRight": 24,
         "absoluteBoundingBox": {"x": 0, "y": 0, "width": 1440, "height": 80},
         "children": [{"type": "TEXT", "name": "Title", "characters": "Oasis", "style": {"fontFamily": "Inter", "fontSize": 40, "fontWeight": 700, "letterSpacing": 3},
                       "fills": [{"type": "SOLID", "color": {"r": 1, "g": 1, "b": 1, "a": 1}}]}]},
        {"type": "RECTANGLE", "name": "Card", "cornerRadius": 12, "fills": [{"type": "SOLID", "opacity": 0.5, "color": {"r": 1, "g": 0, "b": 0, "a": 1}}],
         "effects": [{"type": "DROP_SHADOW", "radius": 6, "offset": {"x": 0, "y": 4}, "color": {"r": 0, "g": 0, "b": 0, "a": 0.25}}]},
        {"type": "ELLIPSE", "name": "Blob", "visible": false}
      ]
    }]
  }
}`

func TestDecodeFigma_File(t *testing.T) {
	els, err := DecodeFigma(strings.NewReader(figmaFile))
	require.NoError(t, err)
	require.Len(t, els, 2, "document/canvas flattened, hidden node dropped")

	header := els[0]
	assert.Equal(t, "header", header.TagName)
	assert.Equal(t, "rgb(10, 10, 10)", header.Vis().BackgroundColor)
	assert.Equal(t, "flex", header.Lay().Display)
	assert.Equal(t, "space-between", header.Lay().JustifyContent)
	assert.Equal(t, "16px", header.Lay().Gap)
	assert.Equal(t, "0px 24px 0px 24px", header.Lay().Padding)
	assert.Equal(t, 1440.0, header.BoundingBox.Width)

	title := header.Children[0]
	assert.Equal(t, "h1", title.TagName)
	assert.Equal(t, "Oasis", title.TextContent)
	assert.Equal(t, "40px", title.Typo().FontSize)
	assert.Equal(t, "700", title.Typo().FontWeight)
	assert.Equal(t, "rgb(255, 255, 255)", title.Typo().Color)

	card := els[1]
	assert.Equal(t, "div", card.TagName)
	assert.Equal(t, "12px", card.Vis().BorderRadius)
	assert.Equal(t, "rgba(255, 0, 0, 0.5)", card.Vis().BackgroundColor)
	assert.Equal(t, "0px 4px 6px 0px rgba(0, 0, 0, 0.25)", card.Vis().BoxShadow)
	assert.Equal(t, "rounded-xl", dna.BorderRadiusToTailwind(card.Vis().BorderRadius))

	vk := dna.AnalyzeVisualKeys(els)
	require.Len(t, vk.TypographyQuirks, 1, "letter spacing above 2px is a quirk")
}

func TestDecodeFigma_Shapes(t *testing.T) {
	els, err := DecodeFigma(strings.NewReader(`[{"type":"TEXT","characters":"x"},{"type":"VECTOR","name":"icon"}]`))
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Equal(t, "p", els[0].TagName)
	assert.Equal(t, "svg", els[1].TagName)

	els, err = DecodeFigma(strings.NewReader(`{"nodes":{"2:1":{"document":{"type":"FRAME","name":"Footer"}},"1:1":{"document":{"type":"FRAME","name":"Nav bar"}}}}`))
	require.NoError(t, err)
	require.Len(t, els, 2)
	assert.Equal(t, "nav", els[0].TagName)
	assert.Equal(t, "footer", els[1].TagName)

	_, err = DecodeFigma(strings.NewReader("  "))
	assert.Error(t, err)
}
