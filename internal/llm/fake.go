package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
)

// FakeClient returns a deterministic component built from the "colorMap"
// object of the input payload, for offline runs and tests.
type FakeClient struct {
	calls atomic.Int64
	// Raw, when set, is returned verbatim instead of the generated component.
	Raw string
	// Err, when set, is returned on every call.
	Err error
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// Calls reports how many GenerateJSON calls reached the client.
func (f *FakeClient) Calls() int { return int(f.calls.Load()) }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Raw != "" {
		return json.RawMessage(f.Raw), nil
	}

	var payload struct {
		ColorMap map[string]string `json:"colorMap"`
	}
	if b, err := json.Marshal(input); err == nil {
		_ = json.Unmarshal(b, &payload)
	}
	roles := make([]string, 0, len(payload.ColorMap))
	for r := range payload.ColorMap {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	var classes []string
	for _, r := range roles {
		prefix := "text"
		if isBackgroundRole(r) {
			prefix = "bg"
		}
		classes = append(classes, fmt.Sprintf("%s-[%s]", prefix, payload.ColorMap[r]))
	}
	cls := strings.Join(classes, " ")
	out := map[string]string{
		"componentCode": fmt.Sprintf("export default function Generated() {\n  return <section className=%q>Generated</section>;\n}\n", cls),
		"previewHtml":   fmt.Sprintf("<section class=%q>Generated</section>", cls),
	}
	b, _ := json.Marshal(out)
	return json.RawMessage(b), nil
}

func isBackgroundRole(role string) bool {
	switch role {
	case "dna-main", "dna-surface", "dna-card", "dna-overlay", "dna-bg-accent":
		return true
	}
	return strings.HasPrefix(role, "dna-bg-")
}
