package retrieve

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"memoria/internal/memory"
)

// VectorRetriever ranks pages by cosine similarity between the query
// embedding and each page's embedding. Pages without an embedding are
// ignored rather than rejected (see the nullable-embedding design note).
type VectorRetriever struct {
	pool *pgxpool.Pool
}

// NewVectorRetriever constructs the vector_semantic retriever.
func NewVectorRetriever(pool *pgxpool.Pool) *VectorRetriever {
	return &VectorRetriever{pool: pool}
}

func (r *VectorRetriever) Name() string { return "vector_semantic" }

func (r *VectorRetriever) Retrieve(ctx context.Context, q memory.RetrievalQuery) ([]memory.RetrievalResult, error) {
	if len(q.Embedding) == 0 {
		return nil, memory.ErrInvalidArgument
	}

	limit := effectiveLimit(q.MaxResults)
	vecLit := vectorLiteral(q.Embedding)
	excluded := excludeList(q.ExcludePageIDs)

	rows, err := r.pool.Query(ctx, `
SELECT id, 1 - (embedding <=> $1::vector) AS score
FROM pages
WHERE owner = $2
  AND embedding IS NOT NULL
  AND NOT (id = ANY($3))
ORDER BY embedding <=> $1::vector
LIMIT $4`, vecLit, q.Owner, excluded, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]memory.RetrievalResult, 0, limit)
	for rows.Next() {
		var res memory.RetrievalResult
		if err := rows.Scan(&res.PageID, &res.Score); err != nil {
			return nil, err
		}
		res.RetrieverName = r.Name()
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return applyMinScore(out, q.MinScore), nil
}
