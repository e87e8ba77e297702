package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/memory"
	"memoria/internal/observability"
)

// PostgresStore persists pages and abstracts in Postgres, using pgvector for
// the embedding columns' ANN indexes and a generated tsvector column as the
// native full-text fallback the keyword retriever's backend chain probes.
type PostgresStore struct {
	pool       *pgxpool.Pool
	dimensions int
}

// OpenPool opens a connection pool with the conservative defaults this
// system's persistence layer uses across the board, verified with a ping.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 0
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// NewPostgresStore constructs a PostgresStore and bootstraps its schema.
// dimensions is the configured embedding width D for this owner's
// installation; a zero value leaves the vector columns untyped.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool, dimensions int) (*PostgresStore, error) {
	s := &PostgresStore{pool: pool, dimensions: dimensions}
	if err := s.init(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) init(ctx context.Context) error {
	log := observability.LoggerWithTrace(ctx)

	// Extensions are best-effort: a non-superuser connection may not be
	// able to create them if another session already has.
	_, _ = s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`)
	_, _ = s.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS pg_trgm`)

	vecType := "vector"
	if s.dimensions > 0 {
		vecType = fmt.Sprintf("vector(%d)", s.dimensions)
	}

	_, err := s.pool.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS pages (
  id UUID PRIMARY KEY,
  owner TEXT NOT NULL,
  content TEXT NOT NULL,
  token_count INT NOT NULL DEFAULT 0,
  embedding %s,
  metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  content_tsv tsvector GENERATED ALWAYS AS (to_tsvector('simple', coalesce(content, ''))) STORED
);

CREATE INDEX IF NOT EXISTS pages_owner_idx ON pages(owner);
CREATE INDEX IF NOT EXISTS pages_created_at_idx ON pages(created_at DESC);
CREATE INDEX IF NOT EXISTS pages_content_tsv_idx ON pages USING GIN (content_tsv);

CREATE TABLE IF NOT EXISTS abstracts (
  page_id UUID PRIMARY KEY REFERENCES pages(id) ON DELETE CASCADE,
  owner TEXT NOT NULL,
  summary TEXT NOT NULL DEFAULT '',
  headers TEXT[] NOT NULL DEFAULT '{}',
  summary_embedding %s,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS abstracts_headers_idx ON abstracts USING GIN (headers);
`, vecType, vecType))
	if err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}

	// ANN indexes require the vector extension and a fixed dimension;
	// failure here (e.g. extension unavailable) is logged and tolerated —
	// the store still functions via sequential scan.
	if s.dimensions > 0 {
		if _, err := s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS pages_embedding_ann_idx ON pages USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`); err != nil {
			log.Warn().Err(err).Msg("store: page embedding ANN index unavailable, falling back to sequential scan")
		}
		if _, err := s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS abstracts_embedding_ann_idx ON abstracts USING ivfflat (summary_embedding vector_cosine_ops) WITH (lists = 100)`); err != nil {
			log.Warn().Err(err).Msg("store: abstract embedding ANN index unavailable, falling back to sequential scan")
		}
	}
	return nil
}

// Pool exposes the underlying connection pool so the keyword retriever can
// probe and query the pages table's lexical backends directly.
func (s *PostgresStore) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresStore) GetPage(ctx context.Context, id string) (memory.Page, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id, owner, content, token_count, embedding::text, metadata, created_at
FROM pages WHERE id = $1`, id)
	p, err := scanPage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return memory.Page{}, memory.ErrNotFound
	}
	return p, err
}

func (s *PostgresStore) GetPages(ctx context.Context, ids []string) ([]memory.Page, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, owner, content, token_count, embedding::text, metadata, created_at
FROM pages WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]memory.Page, 0, len(ids))
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetAbstract(ctx context.Context, pageID string) (memory.Abstract, error) {
	row := s.pool.QueryRow(ctx, `
SELECT page_id, owner, summary, headers, summary_embedding::text, created_at
FROM abstracts WHERE page_id = $1`, pageID)
	a, err := scanAbstract(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return memory.Abstract{}, memory.ErrNotFound
	}
	return a, err
}

func (s *PostgresStore) StorePage(ctx context.Context, page memory.Page) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO pages (id, owner, content, token_count, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, $5::vector, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  content = EXCLUDED.content,
  token_count = EXCLUDED.token_count,
  embedding = EXCLUDED.embedding,
  metadata = EXCLUDED.metadata
`, page.ID, page.Owner, page.Content, page.TokenCount, vectorLiteral(page.Embedding), metadataJSON(page.Metadata), createdAtOrNow(page.CreatedAt))
	return err
}

func (s *PostgresStore) StoreAbstract(ctx context.Context, abstract memory.Abstract) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO abstracts (page_id, owner, summary, headers, summary_embedding, created_at)
VALUES ($1, $2, $3, $4, $5::vector, $6)
ON CONFLICT (page_id) DO UPDATE SET
  summary = EXCLUDED.summary,
  headers = EXCLUDED.headers,
  summary_embedding = EXCLUDED.summary_embedding
`, abstract.PageID, abstract.Owner, abstract.Summary, abstract.Headers, vectorLiteral(abstract.SummaryEmbedding), createdAtOrNow(abstract.CreatedAt))
	return err
}

func (s *PostgresStore) StorePageAndAbstract(ctx context.Context, page memory.Page, abstract memory.Abstract) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
INSERT INTO pages (id, owner, content, token_count, embedding, metadata, created_at)
VALUES ($1, $2, $3, $4, $5::vector, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  content = EXCLUDED.content,
  token_count = EXCLUDED.token_count,
  embedding = EXCLUDED.embedding,
  metadata = EXCLUDED.metadata
`, page.ID, page.Owner, page.Content, page.TokenCount, vectorLiteral(page.Embedding), metadataJSON(page.Metadata), createdAtOrNow(page.CreatedAt)); err != nil {
		return fmt.Errorf("store: write page: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO abstracts (page_id, owner, summary, headers, summary_embedding, created_at)
VALUES ($1, $2, $3, $4, $5::vector, $6)
ON CONFLICT (page_id) DO UPDATE SET
  summary = EXCLUDED.summary,
  headers = EXCLUDED.headers,
  summary_embedding = EXCLUDED.summary_embedding
`, abstract.PageID, abstract.Owner, abstract.Summary, abstract.Headers, vectorLiteral(abstract.SummaryEmbedding), createdAtOrNow(abstract.CreatedAt)); err != nil {
		return fmt.Errorf("store: write abstract: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) DeletePage(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM pages WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) DeleteByOwner(ctx context.Context, owner string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM pages WHERE owner = $1`, owner)
	return err
}

func (s *PostgresStore) CleanupExpired(ctx context.Context, maxAge time.Duration, owner string) (int, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	return s.deleteOlderThan(ctx, cutoff, owner)
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time, owner string) (int, error) {
	return s.deleteOlderThan(ctx, cutoff, owner)
}

func (s *PostgresStore) deleteOlderThan(ctx context.Context, cutoff time.Time, owner string) (int, error) {
	var (
		tag pgx.CommandTag
		err error
	)
	if owner == "" {
		tag, err = s.pool.Exec(ctx, `DELETE FROM pages WHERE created_at < $1`, cutoff)
	} else {
		tag, err = s.pool.Exec(ctx, `DELETE FROM pages WHERE created_at < $1 AND owner = $2`, cutoff, owner)
	}
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Stats(ctx context.Context, owner string) (memory.StoreStats, error) {
	row := s.pool.QueryRow(ctx, `
SELECT count(*), coalesce(sum(token_count), 0), min(created_at), max(created_at)
FROM pages WHERE owner = $1`, owner)

	var (
		stats    memory.StoreStats
		minCreated, maxCreated *time.Time
	)
	if err := row.Scan(&stats.TotalPages, &stats.TotalTokens, &minCreated, &maxCreated); err != nil {
		return memory.StoreStats{}, err
	}
	if minCreated != nil {
		stats.MinCreatedAt = *minCreated
	}
	if maxCreated != nil {
		stats.MaxCreatedAt = *maxCreated
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (memory.Page, error) {
	var (
		p         memory.Page
		embedding *string
		metadata  map[string]string
	)
	if err := row.Scan(&p.ID, &p.Owner, &p.Content, &p.TokenCount, &embedding, &metadata, &p.CreatedAt); err != nil {
		return memory.Page{}, err
	}
	p.Embedding = parseVectorLiteral(embedding)
	p.Metadata = metadata
	return p, nil
}

func scanAbstract(row rowScanner) (memory.Abstract, error) {
	var (
		a                memory.Abstract
		headers          []string
		summaryEmbedding *string
	)
	if err := row.Scan(&a.PageID, &a.Owner, &a.Summary, &headers, &summaryEmbedding, &a.CreatedAt); err != nil {
		return memory.Abstract{}, err
	}
	a.Headers = headers
	a.SummaryEmbedding = parseVectorLiteral(summaryEmbedding)
	return a, nil
}

// parseVectorLiteral parses pgvector's "[v1,v2,...]" textual form back into
// a float32 slice, or nil when the column is absent (see the nullable
// embedding fields design note).
func parseVectorLiteral(s *string) []float32 {
	if s == nil {
		return nil
	}
	trimmed := strings.Trim(*s, "[]")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	out := make([]float32, 0, len(parts))
	for _, p := range parts {
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &f); err != nil {
			continue
		}
		out = append(out, float32(f))
	}
	return out
}

func createdAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func metadataJSON(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// vectorLiteral renders a float32 slice as the textual literal pgvector's
// input parser accepts, or nil for an absent embedding.
func vectorLiteral(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	b := strings.Builder{}
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", x)
	}
	b.WriteByte(']')
	return b.String()
}
