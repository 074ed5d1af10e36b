package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oasis/internal/dna"
	"oasis/internal/gencache"
	"oasis/internal/llm"
)

func box(tag, bg, fg string) dna.Element {
	el := dna.Element{TagName: tag, Styles: &dna.Styles{Visual: &dna.Visual{BackgroundColor: bg}}}
	if fg != "" {
		el.Styles.Typography = &dna.Typography{Color: fg}
	}
	return el
}

func landing() []dna.Element {
	return []dna.Element{
		box("header", "rgb(10,10,10)", ""),
		box("section", "rgb(255,255,255)", "rgb(0,0,0)"),
		box("footer", "rgb(10,10,10)", ""),
	}
}

func newService(t *testing.T, client llm.LLMClient) (*Service, *gencache.Cache) {
	t.Helper()
	c := gencache.New(gencache.NewMemoryStore())
	return New(c, client, Config{}), c
}

func recorder() (*[]Stage, func(Event)) {
	var mu sync.Mutex
	var stages []Stage
	return &stages, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		stages = append(stages, e.Stage)
	}
}

func TestGenerate_MissThenHit(t *testing.T) {
	fake := llm.NewFakeClient()
	svc, cache := newService(t, fake)
	ctx := context.Background()

	stages, progress := recorder()
	first, err := svc.Generate(ctx, Request{Elements: landing(), CreatedBy: "u1"}, progress)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.False(t, first.Remapped)
	assert.Equal(t, dna.Hash(landing()), first.Hash)
	assert.Equal(t, []Stage{StageHashed, StageGenerating, StageStored}, *stages)
	assert.Equal(t, map[string]string{"dna-main": "#0A0A0A", "dna-surface": "#FFFFFF", "dna-primary": "#000000"}, first.Artifact.ColorMap)
	assert.Contains(t, first.Artifact.PreviewHTML, "bg-[#0A0A0A]")
	assert.Equal(t, "u1", first.Artifact.CreatedBy)

	stages, progress = recorder()
	second, err := svc.Generate(ctx, Request{Elements: landing()}, progress)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Artifact.ID, second.Artifact.ID)
	assert.Equal(t, []Stage{StageHashed, StageCacheHit}, *stages)
	assert.Equal(t, 1, fake.Calls())

	all, err := cache.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGenerate_HitWithDifferentPaletteIsRemapped(t *testing.T) {
	svc, cache := newService(t, llm.NewFakeClient())
	ctx := context.Background()
	a := []dna.Element{box("section", "rgb(17, 17, 17)", ""), box("section", "rgb(34, 34, 34)", "")}
	b := []dna.Element{a[1], a[0]}
	require.Equal(t, dna.Hash(a), dna.Hash(b), "sibling order does not change the digest")

	first, err := svc.Generate(ctx, Request{Elements: a}, nil)
	require.NoError(t, err)
	assert.Contains(t, first.Artifact.PreviewHTML, "bg-[#111111] bg-[#222222]")

	hit, err := svc.Generate(ctx, Request{Elements: b}, nil)
	require.NoError(t, err)
	assert.True(t, hit.CacheHit)
	assert.True(t, hit.Remapped)
	assert.Contains(t, hit.Artifact.PreviewHTML, "bg-[#222222] bg-[#111111]")
	assert.Equal(t, "#222222", hit.Artifact.ColorMap["dna-main"])

	stored, err := cache.Get(ctx, first.Artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Artifact.PreviewHTML, stored.PreviewHTML, "stored artifact is untouched")
}

func TestGenerate_FailureStoresNothing(t *testing.T) {
	boom := errors.New("provider down")
	for name, client := range map[string]*llm.FakeClient{
		"error":    {Err: boom},
		"unusable": {Raw: "I cannot help with that."},
	} {
		t.Run(name, func(t *testing.T) {
			svc, cache := newService(t, client)
			stages, progress := recorder()
			_, err := svc.Generate(context.Background(), Request{Elements: landing()}, progress)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrGenerationFailed)
			if client.Err != nil {
				assert.ErrorIs(t, err, boom)
			}
			assert.Equal(t, StageError, (*stages)[len(*stages)-1])

			all, err := cache.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestGenerate_OutputIsSanitized(t *testing.T) {
	raw, _ := json.Marshal(map[string]string{
		"componentCode": `<div id="hero" className="card absolute top-[10px]">x</div>`,
		"previewHtml":   `<div class="decorative_blob absolute top-[10px]"></div><script>gtag('config')</script>`,
	})
	svc, _ := newService(t, &llm.FakeClient{Raw: string(raw)})
	res, err := svc.Generate(context.Background(), Request{Elements: landing()}, nil)
	require.NoError(t, err)
	assert.Equal(t, `<div className="card relative">x</div>`, res.Artifact.ComponentCode)
	assert.Contains(t, res.Artifact.PreviewHTML, "decorative_blob absolute top-[10px]")
	assert.NotContains(t, res.Artifact.PreviewHTML, "gtag")
}

func TestGenerate_ForceAppendsButFirstWins(t *testing.T) {
	fake := llm.NewFakeClient()
	svc, cache := newService(t, fake)
	ctx := context.Background()
	first, err := svc.Generate(ctx, Request{Elements: landing()}, nil)
	require.NoError(t, err)
	forced, err := svc.Generate(ctx, Request{Elements: landing(), Force: true}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.Artifact.ID, forced.Artifact.ID)
	assert.Equal(t, 2, fake.Calls())

	got, ok, err := cache.FindByHash(ctx, first.Hash)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Artifact.ID, got.ID)
}

// gateClient blocks every call until release is closed.
type gateClient struct {
	calls   atomic.Int32
	started chan struct{}
	once    sync.Once
	release chan struct{}
	inner   *llm.FakeClient
}

func (g *gateClient) Name() string { return "gate" }
func (g *gateClient) Close() error { return nil }
func (g *gateClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	g.calls.Add(1)
	g.once.Do(func() { close(g.started) })
	<-g.release
	return g.inner.GenerateJSON(ctx, prompt, input)
}

func TestGenerate_ConcurrentSameDigestGeneratesOnce(t *testing.T) {
	gate := &gateClient{started: make(chan struct{}), release: make(chan struct{}), inner: llm.NewFakeClient()}
	svc, cache := newService(t, gate)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	ids := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Generate(ctx, Request{Elements: landing()}, nil)
			ids[i], errs[i] = res.Artifact.ID, err
		}(i)
	}
	<-gate.started
	close(gate.release)
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, int32(1), gate.calls.Load())
	all, _ := cache.List(ctx)
	assert.Len(t, all, 1)
}

func TestGenerate_CanceledCallerDoesNotFailSharedFlight(t *testing.T) {
	gate := &gateClient{started: make(chan struct{}), release: make(chan struct{}), inner: llm.NewFakeClient()}
	svc, cache := newService(t, gate)

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Generate(leaderCtx, Request{Elements: landing()}, nil)
		leaderErr <- err
	}()
	<-gate.started
	cancel()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	follower := make(chan Result, 1)
	followerErr := make(chan error, 1)
	go func() {
		res, err := svc.Generate(context.Background(), Request{Elements: landing()}, nil)
		follower <- res
		followerErr <- err
	}()
	close(gate.release)

	require.NoError(t, <-followerErr)
	res := <-follower
	assert.NotEmpty(t, res.Artifact.ID)
	assert.Equal(t, int32(1), gate.calls.Load())
	all, err := cache.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReskin(t *testing.T) {
	svc, _ := newService(t, llm.NewFakeClient())
	ctx := context.Background()
	src, err := svc.Generate(ctx, Request{Elements: landing()}, nil)
	require.NoError(t, err)

	other := []dna.Element{
		box("header", "#112233", ""),
		box("section", "#FAFAFA", "#333333"),
	}
	res, err := svc.Reskin(ctx, src.Artifact.ID, other)
	require.NoError(t, err)
	assert.True(t, res.Remapped)
	assert.False(t, res.CacheHit)
	assert.True(t, strings.Contains(res.Artifact.PreviewHTML, "bg-[#112233]"))
	assert.True(t, strings.Contains(res.Artifact.PreviewHTML, "text-[#333333]"))
	assert.NotContains(t, res.Artifact.PreviewHTML, "#0A0A0A")

	_, err = svc.Reskin(ctx, "missing", other)
	assert.ErrorIs(t, err, gencache.ErrNotFound)
}

func TestGenerate_EmptyTree(t *testing.T) {
	svc, _ := newService(t, llm.NewFakeClient())
	_, err := svc.Generate(context.Background(), Request{}, nil)
	assert.ErrorIs(t, err, ErrEmptyTree)
}
