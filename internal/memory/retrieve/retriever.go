// Package retrieve implements the three retrievers the research loop fans
// out to: the keyword retriever (C2), the vector retriever (C3), and the
// header-index retriever (C4). Each is polymorphic over the small
// {Name, Retrieve} capability set rather than a deep inheritance hierarchy.
package retrieve

import (
	"context"
	"fmt"
	"strings"

	"memoria/internal/memory"
)

// Retriever maps (owner, query [, embedding], exclusion set) to ranked
// page-id results.
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, q memory.RetrievalQuery) ([]memory.RetrievalResult, error)
}

// applyMinScore drops results strictly below the floor, matching the
// MinScore contract shared by all three retrievers.
func applyMinScore(results []memory.RetrievalResult, minScore float64) []memory.RetrievalResult {
	if minScore <= 0 {
		return results
	}
	out := results[:0]
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

func effectiveLimit(maxResults int) int {
	if maxResults <= 0 {
		return 10
	}
	return maxResults
}

func excludeList(exclude map[string]struct{}) []string {
	if len(exclude) == 0 {
		return nil
	}
	out := make([]string, 0, len(exclude))
	for id := range exclude {
		out = append(out, id)
	}
	return out
}

// vectorLiteral renders a float32 slice as pgvector's textual input form.
func vectorLiteral(v []float32) string {
	if len(v) == 0 {
		return "[]"
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
