package gencache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/viant/afs"
	_ "github.com/viant/afs/mem"
)

// FileStore keeps all artifacts as one JSON array document at an afs URL
// (file://, mem://, or any registered scheme). Every write rewrites the
// document.
type FileStore struct {
	fs  afs.Service
	url string
	mu  sync.Mutex
}

func NewFileStore(url string) (*FileStore, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("store url is required")
	}
	return &FileStore{fs: afs.New(), url: url}, nil
}

func (s *FileStore) load(ctx context.Context) ([]Artifact, error) {
	ok, err := s.fs.Exists(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.url, err)
	}
	if !ok {
		return []Artifact{}, nil
	}
	raw, err := s.fs.DownloadWithURL(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.url, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []Artifact{}, nil
	}
	var items []Artifact
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.url, err)
	}
	return items, nil
}

func (s *FileStore) save(ctx context.Context, items []Artifact) error {
	raw, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := s.fs.Upload(ctx, s.url, 0o644, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("write %s: %w", s.url, err)
	}
	return nil
}

func (s *FileStore) Append(ctx context.Context, a Artifact) error {
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
	items, err := s.load(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ID == a.ID {
			return fmt.Errorf("artifact %s already exists", a.ID)
		}
	}
	return s.save(ctx, append(items, a))
}

func (s *FileStore) FirstByHash(ctx context.Context, hash string) (Artifact, bool, error) {
	if s == nil {
		return Artifact{}, false, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(ctx)
	if err != nil {
		return Artifact{}, false, err
	}
	hash = strings.TrimSpace(hash)
	for _, it := range items {
		if it.DNAHash == hash {
			return it, true, nil
		}
	}
	return Artifact{}, false, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (Artifact, error) {
	if s == nil {
		return Artifact{}, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(ctx)
	if err != nil {
		return Artifact{}, err
	}
	id = strings.TrimSpace(id)
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return Artifact{}, ErrNotFound
}

func (s *FileStore) List(ctx context.Context) ([]Artifact, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *FileStore) UpdateMeta(ctx context.Context, id string, isTemplate bool, meta *TemplateMeta) (Artifact, error) {
	if s == nil {
		return Artifact{}, fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(ctx)
	if err != nil {
		return Artifact{}, err
	}
	id = strings.TrimSpace(id)
	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i].IsTemplate = isTemplate
		items[i].TemplateMeta = nil
		if meta != nil {
			m := *meta
			items[i].TemplateMeta = &m
		}
		if err := s.save(ctx, items); err != nil {
			return Artifact{}, err
		}
		return items[i], nil
	}
	return Artifact{}, ErrNotFound
}
