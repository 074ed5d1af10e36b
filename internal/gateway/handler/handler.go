// Package handler serves the design-DNA HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"oasis/internal/dna"
	"oasis/internal/gencache"
	"oasis/internal/pipeline"
)

const maxBodyBytes = 8 << 20

type Handler struct {
	svc    *pipeline.Service
	cache  *gencache.Cache
	limits dna.Limits
	logger *slog.Logger
}

func New(svc *pipeline.Service, cache *gencache.Cache, limits dna.Limits, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if limits == (dna.Limits{}) {
		limits = dna.DefaultLimits()
	}
	return &Handler{svc: svc, cache: cache, limits: limits, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics reports read-through cache counters when the backend is cached.
func (h *Handler) Metrics(w http.ResponseWriter, _ *http.Request) {
	cs, ok := h.cache.Backend().(*gencache.CachedStore)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, cs.Metrics())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// fail maps domain errors onto HTTP status codes.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("handler: request failed", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
	}
	writeError(w, code, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, pipeline.ErrEmptyTree):
		return http.StatusBadRequest
	case errors.Is(err, gencache.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return badRequest("read body: %v", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest("invalid json: %v", err)
	}
	return nil
}

// decodeTree accepts a bare element array or {"elements": [...]}.
func decodeTree(w http.ResponseWriter, r *http.Request) ([]dna.Element, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, badRequest("read body: %v", err)
	}
	els, err := dna.DecodeTree(body)
	if err != nil {
		return nil, badRequest("%v", err)
	}
	return els, nil
}
