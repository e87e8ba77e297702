package research

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"memoria/internal/memory"
)

// Retriever is the capability the Search phase fans out to; satisfied by
// internal/memory/retrieve's three implementations.
type Retriever interface {
	Name() string
	Retrieve(ctx context.Context, q memory.RetrievalQuery) ([]memory.RetrievalResult, error)
}

// Retrievers bundles the three retriever slots the Search phase may invoke.
// Index is invoked once per target header, so it stays separate from the
// fixed keyword/vector pair.
type Retrievers struct {
	Keyword Retriever
	Vector  Retriever
	Index   Retriever
}

type searchOutcome struct {
	merged      []memory.RetrievalResult
	diagnostics []RetrieverDiagnostic
}

// search embeds the plan's search query once, fans out to the selected
// retrievers concurrently, and merges by first-occurrence-wins, sorted by
// score descending. If none of the toggles were set, it defaults to
// keyword+vector as a safety net.
func search(ctx context.Context, retrievers Retrievers, embedQuery func(context.Context, string) ([]float32, error), p plan, owner string, exclude map[string]struct{}, maxResults int, minScore float64) (searchOutcome, error) {
	embedding, err := embedQuery(ctx, p.SearchQuery)
	if err != nil {
		return searchOutcome{}, err
	}

	useKeyword, useVector, useIndex := p.UseKeyword, p.UseVector, p.UseIndex
	if !useKeyword && !useVector && !useIndex {
		useKeyword, useVector = true, true
	}

	base := memory.RetrievalQuery{
		Owner:          owner,
		Text:           p.SearchQuery,
		Embedding:      embedding,
		MaxResults:     maxResults,
		MinScore:       minScore,
		ExcludePageIDs: exclude,
	}

	type invocation struct {
		name  string
		query memory.RetrievalQuery
		r     Retriever
	}
	var invocations []invocation
	if useKeyword && retrievers.Keyword != nil {
		invocations = append(invocations, invocation{retrievers.Keyword.Name(), base, retrievers.Keyword})
	}
	if useVector && retrievers.Vector != nil {
		invocations = append(invocations, invocation{retrievers.Vector.Name(), base, retrievers.Vector})
	}
	if useIndex && len(p.TargetHeaders) > 0 && retrievers.Index != nil {
		for _, header := range p.TargetHeaders {
			q := base
			q.Text = header
			invocations = append(invocations, invocation{retrievers.Index.Name(), q, retrievers.Index})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	type outcome struct {
		results []memory.RetrievalResult
		diag    RetrieverDiagnostic
	}
	resultsCh := make(chan outcome, len(invocations))

	for _, inv := range invocations {
		inv := inv
		g.Go(func() error {
			start := time.Now()
			res, err := inv.r.Retrieve(gctx, inv.query)
			if err != nil {
				return err
			}
			resultsCh <- outcome{
				results: res,
				diag: RetrieverDiagnostic{
					RetrieverName: inv.name,
					ResultCount:   len(res),
					Duration:      time.Since(start),
				},
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return searchOutcome{}, err
	}
	close(resultsCh)

	var merged []memory.RetrievalResult
	var diagnostics []RetrieverDiagnostic
	seen := make(map[string]struct{})
	for o := range resultsCh {
		diagnostics = append(diagnostics, o.diag)
		for _, r := range o.results {
			if _, ok := seen[r.PageID]; ok {
				continue
			}
			seen[r.PageID] = struct{}{}
			merged = append(merged, r)
		}
	}

	sortResultsByScoreDescending(merged)
	return searchOutcome{merged: merged, diagnostics: diagnostics}, nil
}

func sortResultsByScoreDescending(results []memory.RetrievalResult) {
	for i := 1; i < len(results); i++ {
		for j := i; j > 0 && results[j].Score > results[j-1].Score; j-- {
			results[j], results[j-1] = results[j-1], results[j]
		}
	}
}
