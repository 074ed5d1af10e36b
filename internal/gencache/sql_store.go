package gencache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and DDL.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps artifacts in a generated_components table. The seq column
// is the insertion order that FirstByHash and List rely on.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// OpenSQLite opens path with WAL, a 10s busy timeout and synchronous=NORMAL.
// A single connection is used so ":memory:" databases are shared.
func OpenSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("gencache: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, p := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("gencache: %s: %w", p, err)
		}
	}
	return db, nil
}

// OpenPostgres opens dsn through the pgx stdlib driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("gencache: open postgres: %w", err)
	}
	return db, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	seq := "seq INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DialectPostgres {
		seq = "seq BIGSERIAL PRIMARY KEY"
	}
	if _, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS generated_components (
    `+seq+`,
    id TEXT NOT NULL UNIQUE,
    dna_hash TEXT NOT NULL,
    dna_id TEXT NOT NULL DEFAULT '',
    component_code TEXT NOT NULL,
    preview_html TEXT NOT NULL,
    color_map TEXT NOT NULL DEFAULT '{}',
    is_template BOOLEAN NOT NULL DEFAULT FALSE,
    template_meta TEXT NOT NULL DEFAULT '',
    created_by TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
)`); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_generated_components_hash ON generated_components(dna_hash, seq)`); err != nil {
		return err
	}
	s.schemaReady = true
	return nil
}

// q rewrites ? placeholders to $n for postgres.
func (s *SQLStore) q(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const selectColumns = `id, dna_hash, dna_id, component_code, preview_html, color_map, is_template, template_meta, created_by, created_at`

func (s *SQLStore) Append(ctx context.Context, a Artifact) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.DNAHash) == "" {
		return fmt.Errorf("hash is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	colorMap, meta, err := encodeColumns(a)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.q(`
INSERT INTO generated_components (id, dna_hash, dna_id, component_code, preview_html, color_map, is_template, template_meta, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ID, a.DNAHash, a.DNAID, a.ComponentCode, a.PreviewHTML, colorMap, a.IsTemplate, meta, a.CreatedBy, a.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLStore) FirstByHash(ctx context.Context, hash string) (Artifact, bool, error) {
	if s == nil {
		return Artifact{}, false, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Artifact{}, false, err
	}
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+selectColumns+` FROM generated_components WHERE dna_hash=? ORDER BY seq LIMIT 1`), strings.TrimSpace(hash))
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, err
	}
	return a, true, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Artifact, error) {
	if s == nil {
		return Artifact{}, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Artifact{}, err
	}
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+selectColumns+` FROM generated_components WHERE id=?`), strings.TrimSpace(id))
	a, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, ErrNotFound
	}
	return a, err
}

func (s *SQLStore) List(ctx context.Context) ([]Artifact, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM generated_components ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Artifact, 0, 16)
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) UpdateMeta(ctx context.Context, id string, isTemplate bool, meta *TemplateMeta) (Artifact, error) {
	if s == nil {
		return Artifact{}, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Artifact{}, err
	}
	metaCol := ""
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return Artifact{}, err
		}
		metaCol = string(b)
	}
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE generated_components SET is_template=?, template_meta=? WHERE id=?`), isTemplate, metaCol, strings.TrimSpace(id))
	if err != nil {
		return Artifact{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Artifact{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row rowScanner) (Artifact, error) {
	var (
		a         Artifact
		colorMap  string
		meta      string
		createdAt string
	)
	if err := row.Scan(&a.ID, &a.DNAHash, &a.DNAID, &a.ComponentCode, &a.PreviewHTML, &colorMap, &a.IsTemplate, &meta, &a.CreatedBy, &createdAt); err != nil {
		return Artifact{}, err
	}
	if colorMap != "" {
		if err := json.Unmarshal([]byte(colorMap), &a.ColorMap); err != nil {
			return Artifact{}, fmt.Errorf("decode color_map: %w", err)
		}
	}
	if meta != "" {
		a.TemplateMeta = &TemplateMeta{}
		if err := json.Unmarshal([]byte(meta), a.TemplateMeta); err != nil {
			return Artifact{}, fmt.Errorf("decode template_meta: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		a.CreatedAt = t
	}
	return a, nil
}

func encodeColumns(a Artifact) (string, string, error) {
	colorMap := "{}"
	if a.ColorMap != nil {
		b, err := json.Marshal(a.ColorMap)
		if err != nil {
			return "", "", err
		}
		colorMap = string(b)
	}
	meta := ""
	if a.TemplateMeta != nil {
		b, err := json.Marshal(a.TemplateMeta)
		if err != nil {
			return "", "", err
		}
		meta = string(b)
	}
	return colorMap, meta, nil
}
