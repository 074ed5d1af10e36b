package sanitize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_AbsoluteDowngrade(t *testing.T) {
	code, html := Sanitize(`<div class="card absolute top-[10px]">x</div>`, `<div class="card absolute top-[10px]">x</div>`)
	assert.Equal(t, `<div class="card relative">x</div>`, code)
	assert.Equal(t, `<div class="card relative">x</div>`, html)
}

func TestSanitize_DecorativeKeepsPosition(t *testing.T) {
	in := `<div className="decorative_blob absolute top-[10px]" />`
	code, _ := Sanitize(in, "")
	assert.Equal(t, in, code)
}

func TestSanitize_VariantsAndCoordinates(t *testing.T) {
	got := CleanClassList("md:absolute -left-4 inset-0 lg:top-2 right-[3rem] z-10 text-left")
	assert.Equal(t, "md:relative z-10 text-left", got)
}

func TestSanitize_DedupesAndDropsEmptyClass(t *testing.T) {
	code, _ := Sanitize(`<span class="wp-block wp-image-1 elementor-x"></span><p class="a a b"></p>`, "")
	assert.Equal(t, `<span></span><p class="a b"></p>`, code)
}

func TestSanitize_StripsIDs(t *testing.T) {
	code, html := Sanitize(`<section id={"hero"} className="x"><h1 id='t'>Hi</h1></section>`, `<div id="main"><a id=link href="#">x</a></div>`)
	assert.NotContains(t, code, "id=")
	assert.NotContains(t, html, " id=")
	assert.Equal(t, `<div><a href="#">x</a></div>`, html)
	assert.Contains(t, code, `className="x"`)

	cases := map[string]string{
		`<div ID="hero">x</div>`:            `<div>x</div>`,
		`<div id = "hero">x</div>`:          `<div>x</div>`,
		`<div class="a"id="hero">x</div>`:   `<div class="a">x</div>`,
		`<div Id = {"hero"} role="main"/>`:  `<div role="main"/>`,
		`<p data-testid="t" id=t>x</p>`:     `<p data-testid="t">x</p>`,
		`<a onClick={() => go(id)} id='k'>`: `<a onClick={() => go(id)}>`,
	}
	for in, want := range cases {
		code, html := Sanitize(in, in)
		assert.Equal(t, want, code, in)
		assert.Equal(t, want, html, in)
	}
}

func TestSanitize_LeavesCodeIdentifiersAlone(t *testing.T) {
	in := "const id = items[0].id;\nlet ID = 'x';\nreturn <li key={id}>{id}</li>;"
	code, _ := Sanitize(in, "")
	assert.Equal(t, in, code)
}

func TestSanitize_RemovesTracking(t *testing.T) {
	html := strings.Join([]string{
		`<head>`,
		`<script async src="https://www.googletagmanager.com/gtag/js?id=G-1"></script>`,
		`<script>window.dataLayer = window.dataLayer || []; gtag('js', new Date());</script>`,
		`<script src="https://cdn.tailwindcss.com"></script>`,
		`</head>`,
		`<noscript><iframe src="https://www.googletagmanager.com/ns.html?id=GTM-X"></iframe></noscript>`,
		`<img height="1" width="1" style="display:none" src="https://www.facebook.com/tr?id=1&ev=PageView"/>`,
		`<img src="/hero.png" alt="hero">`,
	}, "\n")
	_, out := Sanitize("", html)
	assert.NotContains(t, out, "googletagmanager")
	assert.NotContains(t, out, "dataLayer")
	assert.NotContains(t, out, "facebook.com/tr")
	assert.NotContains(t, out, "<noscript")
	assert.Contains(t, out, "cdn.tailwindcss.com")
	assert.Contains(t, out, `<img src="/hero.png" alt="hero">`)
}

func TestSanitize_TrackingLinesInCode(t *testing.T) {
	in := "useEffect(() => {\n  gtag('event', 'view');\n  fbq('track', 'PageView');\n  setReady(true);\n}, []);"
	code, _ := Sanitize(in, "")
	assert.Equal(t, "useEffect(() => {\n  setReady(true);\n}, []);", code)
}

func TestSanitize_CollapsesWhitespace(t *testing.T) {
	code, html := Sanitize("a\n\n\n\nb", "<div\n   class=\"x\"   >\n\n\n\n</div>")
	assert.Equal(t, "a\n\nb", code)
	assert.Equal(t, "<div class=\"x\">\n\n</div>", html)
}

func TestSanitize_Total(t *testing.T) {
	code, html := Sanitize("", "")
	assert.Empty(t, code)
	assert.Empty(t, html)
	code, _ = Sanitize("plain text <<< >>>", "")
	assert.Equal(t, "plain text <<< >>>", code)
}

func TestParseOutput_JSON(t *testing.T) {
	o, err := ParseOutput(`{"componentCode":"<div/>","previewHtml":"<p>x</p>"}`)
	require.NoError(t, err)
	assert.Equal(t, Output{ComponentCode: "<div/>", PreviewHTML: "<p>x</p>"}, o)
}

func TestParseOutput_FencedJSONWithProse(t *testing.T) {
	raw := "Sure! Here it is:\n```json\n{\"code\": \"export default () => null\", \"html\": \"<main></main>\"}\n```\nEnjoy."
	o, err := ParseOutput(raw)
	require.NoError(t, err)
	assert.Equal(t, "export default () => null", o.ComponentCode)
	assert.Equal(t, "<main></main>", o.PreviewHTML)
}

func TestParseOutput_CodeFences(t *testing.T) {
	raw := "```tsx\nexport const A = () => <div/>;\n```\n\n```html\n<div></div>\n```"
	o, err := ParseOutput(raw)
	require.NoError(t, err)
	assert.Equal(t, "export const A = () => <div/>;", o.ComponentCode)
	assert.Equal(t, "<div></div>", o.PreviewHTML)
}

func TestParseOutput_TruncatedJSON(t *testing.T) {
	raw := `{"componentCode": "const a = \"q\";\nexport default a", "previewHtml": "<div>cut off`
	o, err := ParseOutput(raw)
	require.NoError(t, err)
	assert.Equal(t, "const a = \"q\";\nexport default a", o.ComponentCode)
	assert.Empty(t, o.PreviewHTML)
}

func TestParseOutput_NoCode(t *testing.T) {
	_, err := ParseOutput("I cannot help with that.")
	assert.True(t, errors.Is(err, ErrNoCode))
	_, err = ParseOutput("   ")
	assert.ErrorIs(t, err, ErrNoCode)
}
