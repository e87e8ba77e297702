package retrieve

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/memory"
)

// HeaderIndexRetriever scans abstracts' headers array for a case-insensitive
// substring match against the query text. Matches are deterministic, not a
// similarity, so every result carries a fixed score of 1.0.
type HeaderIndexRetriever struct {
	pool *pgxpool.Pool
}

// NewHeaderIndexRetriever constructs the page_index retriever.
func NewHeaderIndexRetriever(pool *pgxpool.Pool) *HeaderIndexRetriever {
	return &HeaderIndexRetriever{pool: pool}
}

func (r *HeaderIndexRetriever) Name() string { return "page_index" }

func (r *HeaderIndexRetriever) Retrieve(ctx context.Context, q memory.RetrievalQuery) ([]memory.RetrievalResult, error) {
	limit := effectiveLimit(q.MaxResults)
	excluded := excludeList(q.ExcludePageIDs)

	rows, err := r.pool.Query(ctx, `
SELECT page_id, headers
FROM abstracts
WHERE owner = $1
  AND NOT (page_id = ANY($2))
  AND EXISTS (SELECT 1 FROM unnest(headers) h WHERE h ILIKE '%' || $3 || '%')
LIMIT $4`, q.Owner, excluded, q.Text, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	needle := strings.ToLower(q.Text)
	out := make([]memory.RetrievalResult, 0, limit)
	for rows.Next() {
		var (
			pageID  string
			headers []string
		)
		if err := rows.Scan(&pageID, &headers); err != nil {
			return nil, err
		}
		matched, ok := firstMatchingHeader(headers, needle)
		if !ok {
			continue
		}
		out = append(out, memory.RetrievalResult{
			PageID:        pageID,
			Score:         1.0,
			RetrieverName: r.Name(),
			MatchedHeader: matched,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return applyMinScore(out, q.MinScore), nil
}

func firstMatchingHeader(headers []string, lowerNeedle string) (string, bool) {
	if lowerNeedle == "" {
		return "", false
	}
	for _, h := range headers {
		if strings.Contains(strings.ToLower(h), lowerNeedle) {
			return h, true
		}
	}
	return "", false
}
