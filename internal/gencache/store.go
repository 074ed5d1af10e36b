// Package gencache persists generated components keyed by design digest.
//
// Population is append-only: Store never overwrites and FindByHash returns
// the earliest record for a digest. Several records may share a digest when
// concurrent callers both miss; callers that need exactly one generation per
// digest serialize above this package (see pipeline).
package gencache

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("artifact not found")

// TemplateMeta is display metadata for a promoted artifact.
type TemplateMeta struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Artifact is one stored generation result.
type Artifact struct {
	ID            string            `json:"id"`
	DNAHash       string            `json:"dnaHash"`
	DNAID         string            `json:"dnaId,omitempty"`
	ComponentCode string            `json:"componentCode"`
	PreviewHTML   string            `json:"previewHtml"`
	ColorMap      map[string]string `json:"colorMap"`
	IsTemplate    bool              `json:"isTemplate"`
	TemplateMeta  *TemplateMeta     `json:"templateMeta,omitempty"`
	CreatedBy     string            `json:"createdBy"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func (a Artifact) clone() Artifact {
	if a.ColorMap != nil {
		m := make(map[string]string, len(a.ColorMap))
		for k, v := range a.ColorMap {
			m[k] = v
		}
		a.ColorMap = m
	}
	if a.TemplateMeta != nil {
		meta := *a.TemplateMeta
		a.TemplateMeta = &meta
	}
	return a
}

// Store is the persistence contract. Implementations must keep insertion
// order for List and FirstByHash, and must never modify code, markup or
// color map after Append.
type Store interface {
	Append(ctx context.Context, a Artifact) error
	// FirstByHash reports false with a nil error on a miss.
	FirstByHash(ctx context.Context, hash string) (Artifact, bool, error)
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (Artifact, error)
	List(ctx context.Context) ([]Artifact, error)
	// UpdateMeta sets the template flag and metadata only.
	UpdateMeta(ctx context.Context, id string, isTemplate bool, meta *TemplateMeta) (Artifact, error)
}
