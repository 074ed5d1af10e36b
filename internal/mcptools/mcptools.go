// Package mcptools exposes the design-DNA operations as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"oasis/internal/colormap"
	"oasis/internal/dna"
	"oasis/internal/pipeline"
	"oasis/internal/sanitize"
)

// Tools holds the optional collaborators. A nil Pipeline leaves
// dna_generate unregistered.
type Tools struct {
	Pipeline *pipeline.Service
	Limits   dna.Limits
}

// NewServer returns an MCP server with every tool registered.
func (t *Tools) NewServer(name, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	t.Register(srv)
	return srv
}

// Register adds the tools to srv.
func (t *Tools) Register(srv *mcp.Server) {
	t.registerHash(srv)
	t.registerSummary(srv)
	t.registerColorMap(srv)
	t.registerRemap(srv)
	t.registerSanitize(srv)
	if t.Pipeline != nil {
		t.registerGenerate(srv)
	}
}

func (t *Tools) limits() dna.Limits {
	if t.Limits == (dna.Limits{}) {
		return dna.DefaultLimits()
	}
	return t.Limits
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var elementsProp = map[string]any{
	"type":        "array",
	"description": "Element tree: objects with tagName, selector, textContent, boundingBox, styles{typography,layout,visual}, children",
	"items":       map[string]any{"type": "object"},
}

// addTool decodes arguments into Req, runs fn and returns its result as
// JSON text. Failures become tool errors, not protocol errors.
func addTool[Req any](srv *mcp.Server, tool *mcp.Tool, fn func(ctx context.Context, req *Req) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, call *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var req Req
		if len(call.Params.Arguments) > 0 {
			if err := json.Unmarshal(call.Params.Arguments, &req); err != nil {
				var res mcp.CallToolResult
				res.SetError(fmt.Errorf("invalid arguments: %w", err))
				return &res, nil
			}
		}
		resp, err := fn(ctx, &req)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(errors.New(err.Error()))
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

type treeReq struct {
	Elements []dna.Element `json:"elements"`
}

func (t *Tools) registerHash(srv *mcp.Server) {
	addTool(srv, &mcp.Tool{
		Name:        "dna_hash",
		Description: "Compute the content-addressable digest of an element tree's normalized style summary.",
		InputSchema: inputSchema(map[string]any{"elements": elementsProp}, []string{"elements"}),
	}, func(_ context.Context, r *treeReq) (any, error) {
		return map[string]any{"hash": dna.Hash(r.Elements)}, nil
	})
}

func (t *Tools) registerSummary(srv *mcp.Server) {
	addTool(srv, &mcp.Tool{
		Name:        "dna_summary",
		Description: "Extract colors, typography, layout, visual keys and structural hierarchy from an element tree.",
		InputSchema: inputSchema(map[string]any{"elements": elementsProp}, []string{"elements"}),
	}, func(_ context.Context, r *treeReq) (any, error) {
		return dna.SummarizeWith(r.Elements, t.limits()), nil
	})
}

func (t *Tools) registerColorMap(srv *mcp.Server) {
	addTool(srv, &mcp.Tool{
		Name:        "dna_colormap",
		Description: "Assign semantic color roles (dna-main, dna-primary, ...) to the distinct colors of an element tree.",
		InputSchema: inputSchema(map[string]any{"elements": elementsProp}, []string{"elements"}),
	}, func(_ context.Context, r *treeReq) (any, error) {
		return map[string]any{"colorMap": colormap.Extract(r.Elements)}, nil
	})
}

type remapReq struct {
	Code   string           `json:"code"`
	Source colormap.RoleMap `json:"source"`
	Target colormap.RoleMap `json:"target"`
}

func (t *Tools) registerRemap(srv *mcp.Server) {
	roleMap := map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}}
	addTool(srv, &mcp.Tool{
		Name:        "code_remap",
		Description: "Replace the source role colors in code with the target role colors.",
		InputSchema: inputSchema(map[string]any{
			"code":   map[string]any{"type": "string"},
			"source": roleMap,
			"target": roleMap,
		}, []string{"code", "source", "target"}),
	}, func(_ context.Context, r *remapReq) (any, error) {
		return map[string]any{"code": colormap.Remap(r.Code, r.Source, r.Target)}, nil
	})
}

type sanitizeReq struct {
	ComponentCode string `json:"componentCode"`
	PreviewHTML   string `json:"previewHtml"`
	// Raw is unparsed generation output; when set it is parsed first.
	Raw string `json:"raw"`
}

func (t *Tools) registerSanitize(srv *mcp.Server) {
	addTool(srv, &mcp.Tool{
		Name:        "output_sanitize",
		Description: "Clean generated component code and preview markup (tracking, ids, CMS classes, absolute positioning). Pass raw to parse unstructured model output first.",
		InputSchema: inputSchema(map[string]any{
			"componentCode": map[string]any{"type": "string"},
			"previewHtml":   map[string]any{"type": "string"},
			"raw":           map[string]any{"type": "string"},
		}, nil),
	}, func(_ context.Context, r *sanitizeReq) (any, error) {
		in := sanitize.Output{ComponentCode: r.ComponentCode, PreviewHTML: r.PreviewHTML}
		if r.Raw != "" {
			parsed, err := sanitize.ParseOutput(r.Raw)
			if err != nil {
				return nil, err
			}
			in = parsed
		}
		code, html := sanitize.Sanitize(in.ComponentCode, in.PreviewHTML)
		return sanitize.Output{ComponentCode: code, PreviewHTML: html}, nil
	})
}

func (t *Tools) registerGenerate(srv *mcp.Server) {
	addTool(srv, &mcp.Tool{
		Name:        "dna_generate",
		Description: "Generate (or fetch from cache) a React component for an element tree.",
		InputSchema: inputSchema(map[string]any{
			"elements":  elementsProp,
			"dnaId":     map[string]any{"type": "string"},
			"createdBy": map[string]any{"type": "string"},
			"force":     map[string]any{"type": "boolean"},
		}, []string{"elements"}),
	}, func(ctx context.Context, r *pipeline.Request) (any, error) {
		return t.Pipeline.Generate(ctx, *r, nil)
	})
}
