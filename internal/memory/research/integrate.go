package research

import (
	"context"

	"memoria/internal/memory"
)

// PageHydrator is the subset of store.Store the Integrate phase needs.
type PageHydrator interface {
	GetPages(ctx context.Context, ids []string) ([]memory.Page, error)
}

// integrate filters already-retrieved ids, hydrates the remainder, and
// greedily admits pages head-first in merged-relevance order until the
// token budget would overflow. It never backtracks or repacks.
func integrate(ctx context.Context, hydrator PageHydrator, merged []memory.RetrievalResult, rc *researchContext) (int, error) {
	var toHydrate []string
	order := make(map[string]memory.RetrievalResult, len(merged))
	for _, r := range merged {
		if _, already := rc.retrieved[r.PageID]; already {
			continue
		}
		if _, queued := order[r.PageID]; queued {
			continue
		}
		order[r.PageID] = r
		toHydrate = append(toHydrate, r.PageID)
	}
	if len(toHydrate) == 0 {
		return 0, nil
	}

	pages, err := hydrator.GetPages(ctx, toHydrate)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]memory.Page, len(pages))
	for _, pg := range pages {
		byID[pg.ID] = pg
	}

	admitted := 0
	for _, id := range toHydrate {
		pg, ok := byID[id]
		if !ok {
			// Deleted mid-request: silently dropped per the error taxonomy.
			continue
		}
		if rc.totalTokens+pg.TokenCount > *rc.options.MaxContextTokens {
			break
		}

		res := order[id]
		rc.pages = append(rc.pages, memory.RetrievedPage{
			PageID:        pg.ID,
			Score:         res.Score,
			Content:       pg.Content,
			TokenCount:    pg.TokenCount,
			RetrieverName: res.RetrieverName,
			CreatedAt:     pg.CreatedAt,
		})
		rc.retrieved[pg.ID] = struct{}{}
		rc.totalTokens += pg.TokenCount
		admitted++
	}

	return admitted, nil
}
