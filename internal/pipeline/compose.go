package pipeline

import (
	"context"
	"fmt"

	"oasis/internal/colormap"
	"oasis/internal/dna"
	"oasis/internal/llm"
	"oasis/internal/sanitize"
)

const promptCompose = `You are rebuilding a web page section as a React component styled with Tailwind CSS.

Input JSON provides:
- summary: deduplicated design facts of the source page (colors, typography, layout, visual, visualKeys, structuralHierarchy)
- colorMap: semantic color roles mapped to hex values (dna-main, dna-surface, dna-primary, ...)
- shellElements: structural nodes (header, nav, footer, icons, decorations) that must be reproduced as-is

Task:
Return STRICT JSON:
{
  "componentCode": "string",  // a default-exported React function component using className
  "previewHtml":   "string"   // the same markup as static HTML using class
}

Rules:
- Use the colorMap hex values as arbitrary Tailwind values (bg-[#RRGGBB], text-[#RRGGBB]); do not invent other colors.
- Use visualKeys.designTokens tailwind classes for border radius and shadows.
- Reproduce shellElements verbatim in position and shape; only regenerate content zones.
- Prefix classes of purely decorative absolutely-positioned shapes with "decorative_".
- No tracking scripts, analytics snippets or external fonts.
- JSON only; no comments or trailing commas.
`

// ComposeIn is the payload sent to the generation collaborator.
type ComposeIn struct {
	Summary       dna.Summary      `json:"summary"`
	ColorMap      colormap.RoleMap `json:"colorMap"`
	ShellElements []dna.Zone       `json:"shellElements"`
}

// Compose asks the model for a component and parses whatever text comes
// back into code and markup.
type Compose struct{ LLM llm.LLMClient }

func (p *Compose) Run(ctx context.Context, in ComposeIn) (sanitize.Output, error) {
	raw, err := p.LLM.GenerateJSON(llm.WithPhase(ctx, "compose"), promptCompose, in)
	if err != nil {
		return sanitize.Output{}, err
	}
	out, err := sanitize.ParseOutput(string(raw))
	if err != nil {
		return sanitize.Output{}, fmt.Errorf("compose output unusable: %w\nraw: %s", err, truncate(string(raw), 512))
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
