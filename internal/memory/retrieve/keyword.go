package retrieve

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/memory"
	"memoria/internal/observability"
)

// backend identifies one of the four lexical scoring implementations the
// keyword retriever may land on.
type backend int

const (
	backendUnknown backend = iota
	backendVectorchordBM25
	backendParadeDB
	backendTokenVectorBM25
	backendNativeFTS
)

func (b backend) tag() string {
	switch b {
	case backendVectorchordBM25:
		return "_vchord_bm25"
	case backendParadeDB:
		return "_paradedb"
	case backendTokenVectorBM25:
		return "_token_bm25"
	default:
		return "_native_fts"
	}
}

// KeywordRetriever ranks pages by lexical relevance, probing the store for
// the best available scoring backend on first use and caching the choice
// for the lifetime of the instance (module-local, not shared across
// processes — the detection is intentionally sticky within a process).
type KeywordRetriever struct {
	pool *pgxpool.Pool

	detectOnce sync.Once
	detected   backend
}

// NewKeywordRetriever constructs the keyword_bm25 retriever.
func NewKeywordRetriever(pool *pgxpool.Pool) *KeywordRetriever {
	return &KeywordRetriever{pool: pool}
}

func (r *KeywordRetriever) Name() string { return "keyword_bm25" }

func (r *KeywordRetriever) Retrieve(ctx context.Context, q memory.RetrievalQuery) ([]memory.RetrievalResult, error) {
	b := r.backendChoice(ctx)
	limit := effectiveLimit(q.MaxResults)
	excluded := excludeList(q.ExcludePageIDs)

	results, err := r.query(ctx, b, q.Owner, q.Text, excluded, limit)
	if err != nil {
		// Backend degraded: the cached choice is not invalidated — one bad
		// query does not trigger re-detection. The loop still has a
		// chance to make progress via other retrievers.
		observability.LoggerWithTrace(ctx).Warn().Err(err).Str("backend", b.tag()).Msg("keyword retriever: backend query failed, returning empty result")
		return nil, nil
	}

	for i := range results {
		results[i].RetrieverName = r.Name() + b.tag()
	}
	return applyMinScore(results, q.MinScore), nil
}

// backendChoice probes available scoring implementations in priority order
// on first use only.
func (r *KeywordRetriever) backendChoice(ctx context.Context) backend {
	r.detectOnce.Do(func() {
		r.detected = r.detect(ctx)
	})
	return r.detected
}

func (r *KeywordRetriever) detect(ctx context.Context) backend {
	log := observability.LoggerWithTrace(ctx)

	if r.extensionPresent(ctx, "vchord_bm25") {
		log.Info().Msg("keyword retriever: detected vchord_bm25 backend")
		return backendVectorchordBM25
	}
	if r.extensionPresent(ctx, "pg_search") {
		log.Info().Msg("keyword retriever: detected pg_search (ParadeDB) backend")
		return backendParadeDB
	}
	if r.columnPresent(ctx, "pages", "content_bm25_tokens") {
		log.Info().Msg("keyword retriever: detected token-vector bm25 backend")
		return backendTokenVectorBM25
	}
	log.Info().Msg("keyword retriever: falling back to native full-text ranker")
	return backendNativeFTS
}

func (r *KeywordRetriever) extensionPresent(ctx context.Context, name string) bool {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = $1)`, name).Scan(&exists)
	return err == nil && exists
}

func (r *KeywordRetriever) columnPresent(ctx context.Context, table, column string) bool {
	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM information_schema.columns
  WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2
)`, table, column).Scan(&exists)
	return err == nil && exists
}

func (r *KeywordRetriever) query(ctx context.Context, b backend, owner, text string, excluded []string, limit int) ([]memory.RetrievalResult, error) {
	switch b {
	case backendVectorchordBM25:
		return r.queryNegatedOperator(ctx, `content_bm25 <@> to_bm25query('pages_bm25_idx', $1)`, owner, text, excluded, limit)
	case backendParadeDB:
		return r.queryParadeDB(ctx, owner, text, excluded, limit)
	case backendTokenVectorBM25:
		return r.queryNegatedOperator(ctx, `content_bm25_tokens <@> to_bm25query('pages_bm25_idx', $1)`, owner, text, excluded, limit)
	default:
		return r.queryNativeFTS(ctx, owner, text, excluded, limit)
	}
}

// queryNegatedOperator covers backends 1 and 3: the raw operator score is
// negative (lower is better match) and must be negated so the sign matches
// the "higher is better" convention shared by every retriever.
func (r *KeywordRetriever) queryNegatedOperator(ctx context.Context, scoreExpr, owner, text string, excluded []string, limit int) ([]memory.RetrievalResult, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, -(`+scoreExpr+`) AS score
FROM pages
WHERE owner = $2
  AND NOT (id = ANY($3))
ORDER BY score DESC
LIMIT $4`, text, owner, excluded, limit)
	if err != nil {
		return nil, err
	}
	return scanKeywordRows(rows)
}

// queryParadeDB covers backend 2: Tantivy-backed BM25 with the @@@ operator
// and a score(id) function returning a non-negative relevance already
// ordered descending.
func (r *KeywordRetriever) queryParadeDB(ctx context.Context, owner, text string, excluded []string, limit int) ([]memory.RetrievalResult, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, paradedb.score(id) AS score
FROM pages
WHERE content @@@ $1
  AND owner = $2
  AND NOT (id = ANY($3))
ORDER BY score DESC
LIMIT $4`, text, owner, excluded, limit)
	if err != nil {
		return nil, err
	}
	return scanKeywordRows(rows)
}

// queryNativeFTS covers backend 4: the store's native full-text ranker
// (a tf-idf variant, not true BM25), always available since the pages
// table's content_tsv column is created by the store's schema bootstrap.
func (r *KeywordRetriever) queryNativeFTS(ctx context.Context, owner, text string, excluded []string, limit int) ([]memory.RetrievalResult, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, ts_rank(content_tsv, plainto_tsquery('simple', $1)) AS score
FROM pages
WHERE owner = $2
  AND NOT (id = ANY($3))
  AND content_tsv @@ plainto_tsquery('simple', $1)
ORDER BY score DESC
LIMIT $4`, text, owner, excluded, limit)
	if err != nil {
		return nil, err
	}
	return scanKeywordRows(rows)
}

func scanKeywordRows(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
	Close()
}) ([]memory.RetrievalResult, error) {
	defer rows.Close()
	var out []memory.RetrievalResult
	for rows.Next() {
		var res memory.RetrievalResult
		if err := rows.Scan(&res.PageID, &res.Score); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}
