package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"oasis/internal/gateway/config"
	"oasis/internal/gateway/handler"
	"oasis/internal/gateway/server"
	"oasis/internal/gencache"
	"oasis/internal/llm"
	"oasis/internal/mcptools"
	"oasis/internal/pipeline"
)

const Version = "0.1.0"

type App struct {
	server   *server.Server
	pipeline *Pipeline
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(context.Background(), cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := slog.Default()

	// Dependencies
	p, err := NewPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	tools := &mcptools.Tools{Pipeline: p.Service, Limits: cfg.Limits}
	h := handler.New(p.Service, p.Cache, cfg.Limits, logger)

	// Routing & Server
	router := server.NewRouter(h, tools.NewServer("oasis", Version))
	srv := server.New(cfg.Port, router)

	return &App{
		server:   srv,
		pipeline: p,
	}, nil
}

// Pipeline is the generation stack shared by the gateway and the CLI.
type Pipeline struct {
	Service *pipeline.Service
	Cache   *gencache.Cache
	LLM     llm.LLMClient

	closeStore func() error
}

// NewPipeline opens the configured store and llm client.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	store, closeStore, err := chooseStore(cfg)
	if err != nil {
		return nil, err
	}
	client, err := NewLLMClient(ctx, cfg.LLM, logger)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	cache := gencache.New(store, gencache.WithLogger(logger))
	return &Pipeline{
		Service:    pipeline.New(cache, client, pipeline.Config{Limits: cfg.Limits, Logger: logger}),
		Cache:      cache,
		LLM:        client,
		closeStore: closeStore,
	}, nil
}

func (p *Pipeline) Close() error {
	return errors.Join(p.LLM.Close(), p.closeStore())
}

// NewLLMClient builds the configured provider wrapped with logging, retry
// and optional rate limiting.
func NewLLMClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (llm.LLMClient, error) {
	var base llm.LLMClient
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
		}
		base = c
	case config.ProviderGroq:
		c, err := llm.NewGroqClient(cfg.GroqAPIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize groq client: %w", err)
		}
		base = c
	case config.ProviderFake, "":
		base = llm.NewFakeClient()
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	log.Printf("llm: provider=%s", base.Name())

	mws := []llm.Middleware{llm.WithLogging(logger)}
	if cfg.Retry > 0 {
		mws = append(mws, llm.Retry(cfg.Retry, 500*time.Millisecond))
	}
	if cfg.RPS > 0 {
		mws = append(mws, llm.RateLimit(cfg.RPS, 1))
	}
	return llm.Wrap(base, mws...), nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	return errors.Join(err, a.pipeline.Close())
}
