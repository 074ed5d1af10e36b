package gencache

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu     sync.RWMutex
	items  []Artifact
	byID   map[string]int
	byHash map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]int),
		byHash: make(map[string]int),
	}
}

func (s *MemoryStore) Append(_ context.Context, a Artifact) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.DNAHash) == "" {
		return fmt.Errorf("hash is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[a.ID]; ok {
		return fmt.Errorf("artifact %s already exists", a.ID)
	}
	s.items = append(s.items, a.clone())
	idx := len(s.items) - 1
	s.byID[a.ID] = idx
	if _, ok := s.byHash[a.DNAHash]; !ok {
		s.byHash[a.DNAHash] = idx
	}
	return nil
}

func (s *MemoryStore) FirstByHash(_ context.Context, hash string) (Artifact, bool, error) {
	if s == nil {
		return Artifact{}, false, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byHash[strings.TrimSpace(hash)]
	if !ok {
		return Artifact{}, false, nil
	}
	return s.items[idx].clone(), true, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Artifact, error) {
	if s == nil {
		return Artifact{}, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return s.items[idx].clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]Artifact, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Artifact, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a.clone())
	}
	return out, nil
}

func (s *MemoryStore) UpdateMeta(_ context.Context, id string, isTemplate bool, meta *TemplateMeta) (Artifact, error) {
	if s == nil {
		return Artifact{}, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	a := &s.items[idx]
	a.IsTemplate = isTemplate
	a.TemplateMeta = nil
	if meta != nil {
		m := *meta
		a.TemplateMeta = &m
	}
	return a.clone(), nil
}
