package gencache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:        5 * time.Minute,
		MaxEntries: 1024,
	}
}

type MetricsSnapshot struct {
	IDHits         uint64 `json:"idHits"`
	IDMisses       uint64 `json:"idMisses"`
	HashHits       uint64 `json:"hashHits"`
	HashMisses     uint64 `json:"hashMisses"`
	OriginReads    uint64 `json:"originReads"`
	OriginWrites   uint64 `json:"originWrites"`
	OriginReadErr  uint64 `json:"originReadErr"`
	OriginWriteErr uint64 `json:"originWriteErr"`
}

type Metrics struct {
	idHits         atomic.Uint64
	idMisses       atomic.Uint64
	hashHits       atomic.Uint64
	hashMisses     atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

func (m *Metrics) snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		IDHits:         m.idHits.Load(),
		IDMisses:       m.idMisses.Load(),
		HashHits:       m.hashHits.Load(),
		HashMisses:     m.hashMisses.Load(),
		OriginReads:    m.originReads.Load(),
		OriginWrites:   m.originWrites.Load(),
		OriginReadErr:  m.originReadErr.Load(),
		OriginWriteErr: m.originWriteErr.Load(),
	}
}

// CachedStore is a read-through cache in front of a slower Store. Only
// positive hash lookups are cached: a miss must reach the origin so a record
// written by another process becomes visible. The first record for a digest
// never changes, so hash entries only map to ids; UpdateMeta refreshes the id
// entry.
type CachedStore struct {
	origin Store

	byID    *expirable.LRU[string, Artifact]
	byHash  *expirable.LRU[string, string]
	metrics Metrics
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	return &CachedStore{
		origin: origin,
		byID:   expirable.NewLRU[string, Artifact](cfg.MaxEntries, nil, cfg.TTL),
		byHash: expirable.NewLRU[string, string](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Append(ctx context.Context, a Artifact) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Append(ctx, a); err != nil {
		s.metrics.originWriteErr.Add(1)
		return err
	}
	s.byID.Add(a.ID, a.clone())
	return nil
}

func (s *CachedStore) FirstByHash(ctx context.Context, hash string) (Artifact, bool, error) {
	hash = strings.TrimSpace(hash)
	if id, ok := s.byHash.Get(hash); ok {
		if a, ok := s.byID.Get(id); ok {
			s.metrics.hashHits.Add(1)
			return a.clone(), true, nil
		}
	}
	s.metrics.hashMisses.Add(1)
	s.metrics.originReads.Add(1)

	a, ok, err := s.origin.FirstByHash(ctx, hash)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return Artifact{}, false, err
	}
	if !ok {
		return Artifact{}, false, nil
	}
	s.byID.Add(a.ID, a.clone())
	s.byHash.Add(hash, a.ID)
	return a, true, nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Artifact, error) {
	id = strings.TrimSpace(id)
	if a, ok := s.byID.Get(id); ok {
		s.metrics.idHits.Add(1)
		return a.clone(), nil
	}
	s.metrics.idMisses.Add(1)
	s.metrics.originReads.Add(1)

	a, err := s.origin.Get(ctx, id)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return Artifact{}, err
	}
	s.byID.Add(id, a.clone())
	return a, nil
}

// List always reads the origin; listings are rare and must reflect writes
// from other processes.
func (s *CachedStore) List(ctx context.Context) ([]Artifact, error) {
	s.metrics.originReads.Add(1)
	list, err := s.origin.List(ctx)
	if err != nil {
		s.metrics.originReadErr.Add(1)
		return nil, err
	}
	return list, nil
}

func (s *CachedStore) UpdateMeta(ctx context.Context, id string, isTemplate bool, meta *TemplateMeta) (Artifact, error) {
	id = strings.TrimSpace(id)
	s.metrics.originWrites.Add(1)
	a, err := s.origin.UpdateMeta(ctx, id, isTemplate, meta)
	if err != nil {
		s.metrics.originWriteErr.Add(1)
		s.byID.Remove(id)
		return Artifact{}, err
	}
	s.byID.Add(id, a.clone())
	return a, nil
}

func (s *CachedStore) Metrics() MetricsSnapshot {
	if s == nil {
		return MetricsSnapshot{}
	}
	return s.metrics.snapshot()
}
