package research

import (
	"time"

	"memoria/internal/memory"
)

// Query is the research agent's input.
type Query struct {
	Owner   string
	Text    string
	Options Options
}

// researchContext is the per-request accumulator threaded through all four
// phases of an iteration. It is not exported: callers only ever see the
// final memory.MemoryContext or a stream of Step records.
type researchContext struct {
	query       Query
	options     Options
	retrieved   map[string]struct{}
	pages       []memory.RetrievedPage
	totalTokens int
	started     time.Time
}

func newResearchContext(q Query) *researchContext {
	return &researchContext{
		query:     q,
		options:   ResolveOptions(q.Options),
		retrieved: make(map[string]struct{}),
		started:   time.Now(),
	}
}

func (rc *researchContext) excludeSet() map[string]struct{} {
	return rc.retrieved
}

// finalize re-sorts by score descending and returns the immutable output.
func (rc *researchContext) finalize(iterations int) memory.MemoryContext {
	pages := make([]memory.RetrievedPage, len(rc.pages))
	copy(pages, rc.pages)
	sortPagesByScoreDescending(pages)

	return memory.MemoryContext{
		Pages:               pages,
		TotalTokens:         rc.totalTokens,
		IterationsPerformed: iterations,
		Duration:            time.Since(rc.started),
	}
}

func sortPagesByScoreDescending(pages []memory.RetrievedPage) {
	for i := 1; i < len(pages); i++ {
		for j := i; j > 0 && pages[j].Score > pages[j-1].Score; j-- {
			pages[j], pages[j-1] = pages[j-1], pages[j]
		}
	}
}
