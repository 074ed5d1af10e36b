package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"oasis/internal/gateway/handler"
	"oasis/internal/gateway/middleware"
)

// NewRouter mounts the REST API, the generation websocket and, when
// mcpServer is non-nil, the streamable MCP endpoint at /mcp.
func NewRouter(h *handler.Handler, mcpServer *mcp.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/dna/summary", h.Summary)
		r.Post("/dna/hash", h.Hash)
		r.Post("/dna/colormap", h.ColorMap)
		r.Post("/remap", h.Remap)
		r.Post("/sanitize", h.Sanitize)
		r.Post("/import/html", h.ImportHTML)
		r.Post("/import/figma", h.ImportFigma)
		r.Post("/generate", h.Generate)
		r.Get("/metrics", h.Metrics)

		r.Route("/artifacts", func(r chi.Router) {
			r.Get("/", h.ListArtifacts)
			r.Get("/{id}", h.GetArtifact)
			r.Patch("/{id}", h.Rename)
			r.Get("/{id}/preview", h.Preview)
			r.Post("/{id}/template", h.Promote)
			r.Delete("/{id}/template", h.Demote)
			r.Post("/{id}/reskin", h.Reskin)
		})
	})

	r.Get("/ws/generate", h.GenerateWS)

	if mcpServer != nil {
		mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpServer }, nil)
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	}
	return r
}
