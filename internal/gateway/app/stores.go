package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"oasis/internal/gateway/config"
	"oasis/internal/gencache"
)

// chooseStore opens the configured origin and wraps it in the read-through
// cache. The returned close func releases database handles.
func chooseStore(cfg *config.Config) (gencache.Store, func() error, error) {
	origin, closeFn, err := openOrigin(cfg)
	if err != nil {
		return nil, nil, err
	}
	if origin == nil {
		return nil, nil, fmt.Errorf("artifact origin store is nil")
	}
	return gencache.NewCachedStore(origin, cfg.Cache), closeFn, nil
}

func openOrigin(cfg *config.Config) (gencache.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		if dir := filepath.Dir(cfg.Store.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("failed to create sqlite dir: %w", err)
			}
		}
		db, err := gencache.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		log.Printf("artifact store: sqlite path=%s", cfg.Store.SQLitePath)
		return gencache.NewSQLStore(db, gencache.DialectSQLite), db.Close, nil
	case config.BackendPostgres:
		db, err := gencache.OpenPostgres(cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db: %w", err)
		}
		log.Printf("artifact store: postgres")
		return gencache.NewSQLStore(db, gencache.DialectPostgres), db.Close, nil
	case config.BackendS3:
		s3Store, err := gencache.NewS3Store(cfg.Store.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.Store.S3.Bucket, cfg.Store.S3.Endpoint)
		return s3Store, noop, nil
	case config.BackendFile:
		fs, err := gencache.NewFileStore(cfg.Store.FileURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize artifact file store: %w", err)
		}
		log.Printf("artifact store: file url=%s", cfg.Store.FileURL)
		return fs, noop, nil
	default:
		log.Printf("artifact store: using in-memory store")
		return gencache.NewMemoryStore(), noop, nil
	}
}
