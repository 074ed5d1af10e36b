package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/minio/highwayhash"

	"oasis/internal/gencache"
)

// ListArtifacts returns every artifact in insertion order. ?hash= narrows
// to the first match for a digest, ?templates=true to templates.
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if digest := strings.TrimSpace(q.Get("hash")); digest != "" {
		a, ok, err := h.cache.FindByHash(r.Context(), digest)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !ok {
			writeJSON(w, http.StatusOK, []gencache.Artifact{})
			return
		}
		writeJSON(w, http.StatusOK, []gencache.Artifact{a})
		return
	}

	var (
		list []gencache.Artifact
		err  error
	)
	if templates, _ := strconv.ParseBool(q.Get("templates")); templates {
		list, err = h.cache.Templates(r.Context())
	} else {
		list, err = h.cache.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []gencache.Artifact{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	a, err := h.cache.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

var etagKey = []byte("oasis-preview-etag-key-32-bytes!")

func previewETag(html string) (string, error) {
	hash, err := highwayhash.New64(etagKey)
	if err != nil {
		return "", err
	}
	if _, err := hash.Write([]byte(html)); err != nil {
		return "", err
	}
	return fmt.Sprintf(`"%016x"`, hash.Sum64()), nil
}

// previewCSP renders generated markup in an opaque origin: its scripts run
// but cannot reach the gateway's cookies, storage or same-origin API.
const previewCSP = "sandbox allow-scripts"

// Preview serves the stored preview markup as a standalone page.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	a, err := h.cache.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	etag, err := previewETag(a.PreviewHTML)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", previewCSP)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(a.PreviewHTML))
}

func (h *Handler) Promote(w http.ResponseWriter, r *http.Request) {
	var meta gencache.TemplateMeta
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &meta); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	a, err := h.cache.Promote(r.Context(), chi.URLParam(r, "id"), meta)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) Demote(w http.ResponseWriter, r *http.Request) {
	a, err := h.cache.Demote(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.fail(w, r, badRequest("name is required"))
		return
	}
	a, err := h.cache.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Reskin returns the artifact's code recolored for the posted tree.
func (h *Handler) Reskin(w http.ResponseWriter, r *http.Request) {
	els, err := decodeTree(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.svc.Reskin(r.Context(), chi.URLParam(r, "id"), els)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
