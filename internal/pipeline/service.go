// Package pipeline runs the generation flow for an element tree:
// hash, cache lookup, generate on miss, sanitize, extract the palette, store.
// Cache hits whose palette differs from the request are re-skinned on the
// way out; stored artifacts are never modified.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"oasis/internal/colormap"
	"oasis/internal/dna"
	"oasis/internal/gencache"
	"oasis/internal/llm"
	"oasis/internal/sanitize"
)

var (
	ErrGenerationFailed = errors.New("pipeline: generation failed")
	ErrEmptyTree        = errors.New("pipeline: element tree is empty")
)

type Stage string

const (
	StageHashed     Stage = "hashed"
	StageCacheHit   Stage = "cache_hit"
	StageGenerating Stage = "generating"
	StageStored     Stage = "stored"
	StageError      Stage = "error"
)

// Event reports progress of a Generate call.
type Event struct {
	Stage      Stage  `json:"stage"`
	Hash       string `json:"hash,omitempty"`
	ArtifactID string `json:"artifactId,omitempty"`
	Error      string `json:"error,omitempty"`
}

type Request struct {
	Elements  []dna.Element `json:"elements"`
	DNAID     string        `json:"dnaId,omitempty"`
	CreatedBy string        `json:"createdBy,omitempty"`
	// Force skips the cache lookup and always generates a new artifact.
	Force bool `json:"force,omitempty"`
}

type Result struct {
	Artifact gencache.Artifact `json:"artifact"`
	Hash     string            `json:"hash"`
	CacheHit bool              `json:"cacheHit"`
	Remapped bool              `json:"remapped"`
}

type Config struct {
	Limits dna.Limits
	Logger *slog.Logger
}

type Service struct {
	cache   *gencache.Cache
	compose *Compose
	limits  dna.Limits
	logger  *slog.Logger
	group   singleflight.Group
}

func New(cache *gencache.Cache, client llm.LLMClient, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Limits == (dna.Limits{}) {
		cfg.Limits = dna.DefaultLimits()
	}
	return &Service{
		cache:   cache,
		compose: &Compose{LLM: client},
		limits:  cfg.Limits,
		logger:  cfg.Logger,
	}
}

// Generate returns the component for req.Elements, generating and storing
// it on a cache miss. Concurrent calls for the same digest share one
// generation. progress may be nil.
func (s *Service) Generate(ctx context.Context, req Request, progress func(Event)) (Result, error) {
	emit := func(e Event) {
		if progress != nil {
			progress(e)
		}
	}
	if len(req.Elements) == 0 {
		return Result{}, ErrEmptyTree
	}

	summary := dna.SummarizeWith(req.Elements, s.limits)
	digest := dna.HashSummary(summary)
	current := colormap.Extract(req.Elements)
	emit(Event{Stage: StageHashed, Hash: digest})

	if !req.Force {
		a, ok, err := s.cache.FindByHash(ctx, digest)
		if err != nil {
			emit(Event{Stage: StageError, Hash: digest, Error: err.Error()})
			return Result{}, err
		}
		if ok {
			s.logger.Info("pipeline: cache hit", "hash", digest, "id", a.ID)
			emit(Event{Stage: StageCacheHit, Hash: digest, ArtifactID: a.ID})
			return s.adapt(a, current, digest, true), nil
		}
	}

	emit(Event{Stage: StageGenerating, Hash: digest})
	key := digest
	if req.Force {
		key = "force:" + digest
	}
	// The flight is detached from the leader's cancellation; each caller
	// stops waiting on its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		if !req.Force {
			// A caller that finished just before this flight started may
			// already have stored the digest.
			if a, ok, err := s.cache.FindByHash(fctx, digest); err != nil {
				return gencache.Artifact{}, err
			} else if ok {
				return a, nil
			}
		}
		return s.generate(fctx, req, summary, digest, current)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		emit(Event{Stage: StageError, Hash: digest, Error: ctx.Err().Error()})
		return Result{}, ctx.Err()
	}
	if res.Err != nil {
		emit(Event{Stage: StageError, Hash: digest, Error: res.Err.Error()})
		return Result{}, res.Err
	}
	a := res.Val.(gencache.Artifact)
	if res.Shared {
		s.logger.Debug("pipeline: shared generation", "hash", digest, "id", a.ID)
	}
	emit(Event{Stage: StageStored, Hash: digest, ArtifactID: a.ID})
	return s.adapt(a, current, digest, false), nil
}

func (s *Service) generate(ctx context.Context, req Request, summary dna.Summary, digest string, current colormap.RoleMap) (gencache.Artifact, error) {
	in := ComposeIn{
		Summary:       summary,
		ColorMap:      current,
		ShellElements: summary.StructuralHierarchy.ShellElements,
	}
	out, err := s.compose.Run(ctx, in)
	if err != nil {
		s.logger.Warn("pipeline: generation failed", "hash", digest, "error", err)
		return gencache.Artifact{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	code, html := sanitize.Sanitize(out.ComponentCode, out.PreviewHTML)
	if strings.TrimSpace(code) == "" && strings.TrimSpace(html) == "" {
		return gencache.Artifact{}, fmt.Errorf("%w: empty output after sanitizing", ErrGenerationFailed)
	}
	return s.cache.Store(ctx, gencache.Entry{
		Digest:        digest,
		DNAID:         req.DNAID,
		ComponentCode: code,
		PreviewHTML:   html,
		ColorMap:      current,
		CreatedBy:     req.CreatedBy,
	})
}

// Reskin applies the palette of elements to a stored artifact, typically a
// template, without generating anything.
func (s *Service) Reskin(ctx context.Context, id string, elements []dna.Element) (Result, error) {
	if len(elements) == 0 {
		return Result{}, ErrEmptyTree
	}
	a, err := s.cache.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	digest := dna.HashSummary(dna.SummarizeWith(elements, s.limits))
	return s.adapt(a, colormap.Extract(elements), digest, false), nil
}

// adapt returns a copy of a whose code and markup use the target palette.
func (s *Service) adapt(a gencache.Artifact, target colormap.RoleMap, digest string, hit bool) Result {
	res := Result{Artifact: a, Hash: digest, CacheHit: hit}
	if len(a.ColorMap) == 0 || len(target) == 0 || colormap.Equal(a.ColorMap, target) {
		return res
	}
	res.Artifact.ComponentCode = colormap.Remap(a.ComponentCode, a.ColorMap, target)
	res.Artifact.PreviewHTML = colormap.Remap(a.PreviewHTML, a.ColorMap, target)
	res.Artifact.ColorMap = target
	res.Remapped = true
	return res
}
