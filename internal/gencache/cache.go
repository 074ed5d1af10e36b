package gencache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is the input to Cache.Store.
type Entry struct {
	Digest        string
	DNAID         string
	ComponentCode string
	PreviewHTML   string
	ColorMap      map[string]string
	CreatedBy     string
}

// Cache is the generation cache service over a Store.
type Cache struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Cache)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.logger = l } }

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Backend exposes the underlying store, mainly for metrics.
func (c *Cache) Backend() Store { return c.store }

// FindByHash returns the first artifact stored for digest. A miss is
// (Artifact{}, false, nil).
func (c *Cache) FindByHash(ctx context.Context, digest string) (Artifact, bool, error) {
	digest = strings.TrimSpace(digest)
	if digest == "" {
		return Artifact{}, false, fmt.Errorf("hash is required")
	}
	a, ok, err := c.store.FirstByHash(ctx, digest)
	if err != nil {
		return Artifact{}, false, fmt.Errorf("gencache: find %s: %w", digest, err)
	}
	return a, ok, nil
}

// Store appends a new artifact with a fresh id. It never overwrites, even
// when the digest is already present.
func (c *Cache) Store(ctx context.Context, e Entry) (Artifact, error) {
	digest := strings.TrimSpace(e.Digest)
	if digest == "" {
		return Artifact{}, fmt.Errorf("hash is required")
	}
	colorMap := make(map[string]string, len(e.ColorMap))
	for k, v := range e.ColorMap {
		colorMap[k] = v
	}
	a := Artifact{
		ID:            c.newID(),
		DNAHash:       digest,
		DNAID:         strings.TrimSpace(e.DNAID),
		ComponentCode: e.ComponentCode,
		PreviewHTML:   e.PreviewHTML,
		ColorMap:      colorMap,
		CreatedBy:     strings.TrimSpace(e.CreatedBy),
		CreatedAt:     c.now().UTC(),
	}
	if err := c.store.Append(ctx, a); err != nil {
		return Artifact{}, fmt.Errorf("gencache: store %s: %w", digest, err)
	}
	c.logger.Info("gencache: stored", "id", a.ID, "hash", digest, "created_by", a.CreatedBy)
	return a, nil
}

func (c *Cache) Get(ctx context.Context, id string) (Artifact, error) {
	if strings.TrimSpace(id) == "" {
		return Artifact{}, fmt.Errorf("id is required")
	}
	return c.store.Get(ctx, id)
}

func (c *Cache) List(ctx context.Context) ([]Artifact, error) {
	return c.store.List(ctx)
}

// Templates lists promoted artifacts in insertion order.
func (c *Cache) Templates(ctx context.Context) ([]Artifact, error) {
	all, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Artifact, 0, len(all))
	for _, a := range all {
		if a.IsTemplate {
			out = append(out, a)
		}
	}
	return out, nil
}

// Promote marks id as a reusable template. An empty meta name falls back to
// the existing name, then to the id.
func (c *Cache) Promote(ctx context.Context, id string, meta TemplateMeta) (Artifact, error) {
	cur, err := c.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	if strings.TrimSpace(meta.Name) == "" {
		meta.Name = cur.ID
		if cur.TemplateMeta != nil && cur.TemplateMeta.Name != "" {
			meta.Name = cur.TemplateMeta.Name
		}
	}
	a, err := c.store.UpdateMeta(ctx, cur.ID, true, &meta)
	if err != nil {
		return Artifact{}, err
	}
	c.logger.Info("gencache: promoted", "id", a.ID, "name", meta.Name)
	return a, nil
}

// Demote clears the template flag. Metadata is kept so a later promotion
// restores the name.
func (c *Cache) Demote(ctx context.Context, id string) (Artifact, error) {
	cur, err := c.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	return c.store.UpdateMeta(ctx, cur.ID, false, cur.TemplateMeta)
}

// Rename sets the display name without changing the template flag.
func (c *Cache) Rename(ctx context.Context, id, name string) (Artifact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Artifact{}, fmt.Errorf("name is required")
	}
	cur, err := c.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	meta := TemplateMeta{}
	if cur.TemplateMeta != nil {
		meta = *cur.TemplateMeta
	}
	meta.Name = name
	return c.store.UpdateMeta(ctx, cur.ID, cur.IsTemplate, &meta)
}
