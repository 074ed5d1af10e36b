package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasis/internal/dna"
	"oasis/internal/gateway/handler"
	"oasis/internal/gencache"
	"oasis/internal/llm"
	"oasis/internal/pipeline"
)

func bg(tag, c string) dna.Element {
	return dna.Element{TagName: tag, Styles: &dna.Styles{Visual: &dna.Visual{BackgroundColor: c}}}
}

func landing() []dna.Element {
	return []dna.Element{bg("header", "rgb(10,10,10)"), bg("section", "rgb(255,255,255)"), bg("footer", "rgb(10,10,10)")}
}

func newRouter(t *testing.T, client llm.LLMClient) http.Handler {
	t.Helper()
	cache := gencache.New(gencache.NewCachedStore(gencache.NewMemoryStore(), gencache.DefaultCacheConfig()))
	svc := pipeline.New(cache, client, pipeline.Config{})
	return NewRouter(handler.New(svc, cache, dna.Limits{}, nil), nil)
}

func do(t *testing.T, h http.Handler, method, path string, body any, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func tree(els []dna.Element) map[string]any { return map[string]any{"elements": els} }

func TestHealthz(t *testing.T) {
	rec := do(t, newRouter(t, llm.NewFakeClient()), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestDNAEndpoints(t *testing.T) {
	h := newRouter(t, llm.NewFakeClient())

	rec := do(t, h, http.MethodPost, "/api/dna/hash", tree(landing()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dna.Hash(landing()), decode[map[string]string](t, rec)["hash"])

	// bare arrays are accepted too
	rec = do(t, h, http.MethodPost, "/api/dna/hash", landing())
	assert.Equal(t, dna.Hash(landing()), decode[map[string]string](t, rec)["hash"])

	rec = do(t, h, http.MethodPost, "/api/dna/colormap", tree(landing()))
	cm := decode[map[string]map[string]string](t, rec)["colorMap"]
	assert.Equal(t, map[string]string{"dna-main": "#0A0A0A", "dna-surface": "#FFFFFF"}, cm)

	rec = do(t, h, http.MethodPost, "/api/dna/summary", tree(landing()))
	sum := decode[dna.Summary](t, rec)
	require.NotNil(t, sum.StructuralHierarchy.Header)
	require.NotNil(t, sum.StructuralHierarchy.Footer)

	rec = do(t, h, http.MethodPost, "/api/remap", map[string]any{
		"code":   `<div className="bg-[#0A0A0A]">`,
		"source": map[string]string{"dna-main": "#0A0A0A"},
		"target": map[string]string{"dna-main": "#123456"},
	})
	assert.Equal(t, `<div className="bg-[#123456]">`, decode[map[string]string](t, rec)["code"])

	rec = do(t, h, http.MethodPost, "/api/sanitize", map[string]string{
		"componentCode": `<div className="absolute top-[4px] card">`,
	})
	assert.Equal(t, `<div className="relative card">`, decode[map[string]string](t, rec)["componentCode"])

	rec = do(t, h, http.MethodPost, "/api/dna/hash", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "bad request")
}

func TestImportHTML(t *testing.T) {
	h := newRouter(t, llm.NewFakeClient())
	req := httptest.NewRequest(http.MethodPost, "/api/import/html",
		strings.NewReader(`<html><body><header style="background-color:#0a0a0a">Hi</header></body></html>`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	els, err := dna.DecodeTree(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, els, 1)
	assert.Equal(t, "header", els[0].TagName)
	assert.Equal(t, "#0a0a0a", els[0].Vis().BackgroundColor)
}

func TestGenerateAndArtifactLifecycle(t *testing.T) {
	fake := llm.NewFakeClient()
	h := newRouter(t, fake)

	rec := do(t, h, http.MethodPost, "/api/generate", tree(landing()), "X-User-ID", "alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[pipeline.Result](t, rec)
	assert.False(t, first.CacheHit)
	assert.Equal(t, "alice", first.Artifact.CreatedBy)
	assert.Contains(t, first.Artifact.ComponentCode, "bg-[#0A0A0A]")
	id := first.Artifact.ID

	rec = do(t, h, http.MethodPost, "/api/generate", tree(landing()))
	second := decode[pipeline.Result](t, rec)
	assert.True(t, second.CacheHit)
	assert.Equal(t, id, second.Artifact.ID)
	assert.Equal(t, 1, fake.Calls())

	list := decode[[]gencache.Artifact](t, do(t, h, http.MethodGet, "/api/artifacts", nil))
	assert.Len(t, list, 1)
	list = decode[[]gencache.Artifact](t, do(t, h, http.MethodGet, "/api/artifacts?hash="+first.Hash, nil))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	list = decode[[]gencache.Artifact](t, do(t, h, http.MethodGet, "/api/artifacts?hash=nope", nil))
	assert.Empty(t, list)

	got := decode[gencache.Artifact](t, do(t, h, http.MethodGet, "/api/artifacts/"+id, nil))
	assert.Equal(t, first.Artifact.PreviewHTML, got.PreviewHTML)

	rec = do(t, h, http.MethodGet, "/api/artifacts/"+id+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, got.PreviewHTML, rec.Body.String())
	assert.Equal(t, "sandbox allow-scripts", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	rec = do(t, h, http.MethodGet, "/api/artifacts/"+id+"/preview", nil, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	promoted := decode[gencache.Artifact](t, do(t, h, http.MethodPost, "/api/artifacts/"+id+"/template",
		gencache.TemplateMeta{Name: "Landing", Category: "marketing"}))
	assert.True(t, promoted.IsTemplate)
	require.NotNil(t, promoted.TemplateMeta)
	assert.Equal(t, "Landing", promoted.TemplateMeta.Name)
	assert.Len(t, decode[[]gencache.Artifact](t, do(t, h, http.MethodGet, "/api/artifacts?templates=true", nil)), 1)

	renamed := decode[gencache.Artifact](t, do(t, h, http.MethodPatch, "/api/artifacts/"+id, map[string]string{"name": "Hero"}))
	assert.Equal(t, "Hero", renamed.TemplateMeta.Name)
	assert.True(t, renamed.IsTemplate)
	rec = do(t, h, http.MethodPatch, "/api/artifacts/"+id, map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	demoted := decode[gencache.Artifact](t, do(t, h, http.MethodDelete, "/api/artifacts/"+id+"/template", nil))
	assert.False(t, demoted.IsTemplate)
	assert.Empty(t, decode[[]gencache.Artifact](t, do(t, h, http.MethodGet, "/api/artifacts?templates=true", nil)))

	other := []dna.Element{bg("header", "rgb(1,2,3)"), bg("section", "rgb(4,5,6)")}
	reskinned := decode[pipeline.Result](t, do(t, h, http.MethodPost, "/api/artifacts/"+id+"/reskin", tree(other)))
	assert.True(t, reskinned.Remapped)
	assert.Contains(t, reskinned.Artifact.ComponentCode, "bg-[#010203]")
	assert.Contains(t, reskinned.Artifact.ComponentCode, "bg-[#040506]")

	stored := decode[gencache.Artifact](t, do(t, h, http.MethodGet, "/api/artifacts/"+id, nil))
	assert.Equal(t, first.Artifact.ComponentCode, stored.ComponentCode)
}

func TestErrorStatuses(t *testing.T) {
	h := newRouter(t, llm.NewFakeClient())

	rec := do(t, h, http.MethodGet, "/api/artifacts/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec)["error"], "not found")

	rec = do(t, h, http.MethodPost, "/api/generate", tree(nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/artifacts/missing/reskin", tree(landing()))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	failing := newRouter(t, &llm.FakeClient{Err: errors.New("upstream down")})
	rec = do(t, failing, http.MethodPost, "/api/generate", tree(landing()))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, decode[[]gencache.Artifact](t, do(t, failing, http.MethodGet, "/api/artifacts", nil)))
}

func TestMetrics(t *testing.T) {
	h := newRouter(t, llm.NewFakeClient())
	for i := 0; i < 3; i++ {
		do(t, h, http.MethodPost, "/api/generate", tree(landing()))
	}
	m := decode[gencache.MetricsSnapshot](t, do(t, h, http.MethodGet, "/api/metrics", nil))
	assert.GreaterOrEqual(t, m.HashMisses, uint64(1))
	assert.GreaterOrEqual(t, m.HashHits, uint64(1))
}

func TestGenerateWebSocket(t *testing.T) {
	srv := httptest.NewServer(newRouter(t, llm.NewFakeClient()))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/generate"
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"X-User-ID": []string{"bob"}})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	type frame struct {
		Type   string           `json:"type"`
		Stage  string           `json:"stage"`
		Result *pipeline.Result `json:"result"`
	}
	collect := func() ([]string, frame) {
		var stages []string
		for {
			var f frame
			require.NoError(t, conn.ReadJSON(&f))
			switch f.Type {
			case "progress":
				stages = append(stages, f.Stage)
			case "result", "error":
				return stages, f
			}
		}
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "generate", "elements": landing()}))
	stages, last := collect()
	assert.Equal(t, []string{"hashed", "generating", "stored"}, stages)
	require.Equal(t, "result", last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, "bob", last.Result.Artifact.CreatedBy)

	require.NoError(t, conn.WriteJSON(map[string]any{"elements": landing()}))
	stages, last = collect()
	assert.Equal(t, []string{"hashed", "cache_hit"}, stages)
	assert.True(t, last.Result.CacheHit)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	var pong frame
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "pong", pong.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "generate", "elements": []dna.Element{}}))
	stages, last = collect()
	assert.Empty(t, stages)
	assert.Equal(t, "error", last.Type)
}
