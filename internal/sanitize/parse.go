package sanitize

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"oasis/internal/util/jsonutil"
)

// ErrNoCode is returned when generation output holds neither component code
// nor preview markup.
var ErrNoCode = errors.New("sanitize: no component code in generation output")

// Output is the two-part generation result.
type Output struct {
	ComponentCode string `json:"componentCode"`
	PreviewHTML   string `json:"previewHtml"`
}

type rawOutput struct {
	ComponentCode string `json:"componentCode"`
	PreviewHTML   string `json:"previewHtml"`
	Code          string `json:"code"`
	HTML          string `json:"html"`
}

func (r rawOutput) output() Output {
	o := Output{ComponentCode: r.ComponentCode, PreviewHTML: r.PreviewHTML}
	if o.ComponentCode == "" {
		o.ComponentCode = r.Code
	}
	if o.PreviewHTML == "" {
		o.PreviewHTML = r.HTML
	}
	return o
}

func (o Output) empty() bool {
	return strings.TrimSpace(o.ComponentCode) == "" && strings.TrimSpace(o.PreviewHTML) == ""
}

var (
	reJSONFence = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")
	reCodeFence = regexp.MustCompile("(?s)```(?:jsx|tsx|javascript|js|typescript|ts|react)[ \\t]*\\r?\\n(.*?)```")
	reHTMLFence = regexp.MustCompile("(?s)```html[ \\t]*\\r?\\n(.*?)```")
	reCodeField = regexp.MustCompile(`"(?:componentCode|code)"\s*:\s*("(?:[^"\\]|\\.)*")`)
	reHTMLField = regexp.MustCompile(`"(?:previewHtml|html)"\s*:\s*("(?:[^"\\]|\\.)*")`)
)

// ParseOutput extracts code and markup from raw model text. It tries, in
// order: the text as JSON, a fenced JSON block, the outermost {...} span,
// fenced jsx/tsx and html blocks, and finally field-level regex recovery
// from truncated JSON.
func ParseOutput(raw string) (Output, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Output{}, ErrNoCode
	}

	candidates := []string{text}
	if m := reJSONFence.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if obj := jsonutil.ExtractObject(text); obj != "" {
		candidates = append(candidates, obj)
	}
	for _, c := range candidates {
		var r rawOutput
		if err := jsonutil.UnmarshalFlex([]byte(c), &r); err == nil {
			if o := r.output(); !o.empty() {
				return o, nil
			}
		}
	}

	var o Output
	if m := reCodeFence.FindStringSubmatch(text); m != nil {
		o.ComponentCode = strings.TrimSpace(m[1])
	}
	if m := reHTMLFence.FindStringSubmatch(text); m != nil {
		o.PreviewHTML = strings.TrimSpace(m[1])
	}
	if !o.empty() {
		return o, nil
	}

	o.ComponentCode = unquoteField(reCodeField, text)
	o.PreviewHTML = unquoteField(reHTMLField, text)
	if !o.empty() {
		return o, nil
	}

	if strings.HasPrefix(text, "<") {
		return Output{PreviewHTML: text}, nil
	}
	return Output{}, ErrNoCode
}

func unquoteField(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal([]byte(m[1]), &s); err != nil {
		return ""
	}
	return s
}
