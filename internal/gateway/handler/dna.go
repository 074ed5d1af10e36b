package handler

import (
	"io"
	"net/http"

	"oasis/internal/colormap"
	"oasis/internal/dna"
	"oasis/internal/dnaimport"
	"oasis/internal/sanitize"
)

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	els, err := decodeTree(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dna.SummarizeWith(els, h.limits))
}

func (h *Handler) Hash(w http.ResponseWriter, r *http.Request) {
	els, err := decodeTree(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"hash": dna.HashSummary(dna.SummarizeWith(els, h.limits))})
}

func (h *Handler) ColorMap(w http.ResponseWriter, r *http.Request) {
	els, err := decodeTree(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"colorMap": colormap.Extract(els)})
}

type remapRequest struct {
	Code   string           `json:"code"`
	Source colormap.RoleMap `json:"source"`
	Target colormap.RoleMap `json:"target"`
}

func (h *Handler) Remap(w http.ResponseWriter, r *http.Request) {
	var req remapRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": colormap.Remap(req.Code, req.Source, req.Target)})
}

type sanitizeRequest struct {
	ComponentCode string `json:"componentCode"`
	PreviewHTML   string `json:"previewHtml"`
	Raw           string `json:"raw,omitempty"`
}

func (h *Handler) Sanitize(w http.ResponseWriter, r *http.Request) {
	var req sanitizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in := sanitize.Output{ComponentCode: req.ComponentCode, PreviewHTML: req.PreviewHTML}
	if req.Raw != "" {
		parsed, err := sanitize.ParseOutput(req.Raw)
		if err != nil {
			h.fail(w, r, badRequest("%v", err))
			return
		}
		in = parsed
	}
	code, html := sanitize.Sanitize(in.ComponentCode, in.PreviewHTML)
	writeJSON(w, http.StatusOK, sanitize.Output{ComponentCode: code, PreviewHTML: html})
}

// ImportHTML converts an HTML document with inline styles into a tree.
func (h *Handler) ImportHTML(w http.ResponseWriter, r *http.Request) {
	els, err := dnaimport.FromHTML(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, r, badRequest("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"elements": els})
}

// ImportFigma converts Figma node JSON into a tree.
func (h *Handler) ImportFigma(w http.ResponseWriter, r *http.Request) {
	els, err := dnaimport.DecodeFigma(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, r, badRequest("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"elements": els})
}
