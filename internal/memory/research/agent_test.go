package research

import (
	"context"
	"testing"

	"memoria/internal/llm"
	"memoria/internal/memory"
)

type stubRetriever struct {
	name    string
	results []memory.RetrievalResult
}

func (s *stubRetriever) Name() string { return s.name }

func (s *stubRetriever) Retrieve(ctx context.Context, q memory.RetrievalQuery) ([]memory.RetrievalResult, error) {
	var out []memory.RetrievalResult
	for _, r := range s.results {
		if _, excluded := q.ExcludePageIDs[r.PageID]; excluded {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type stubHydrator struct {
	pages map[string]memory.Page
}

func (s *stubHydrator) GetPages(ctx context.Context, ids []string) ([]memory.Page, error) {
	var out []memory.Page
	for _, id := range ids {
		if pg, ok := s.pages[id]; ok {
			out = append(out, pg)
		}
	}
	return out, nil
}

type scriptedLLM struct {
	responses []string
	calls     int
}

func (s *scriptedLLM) Complete(ctx context.Context, msgs []llm.Message, opts llm.CompletionOptions) (llm.CompletionResult, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return llm.CompletionResult{Content: s.responses[idx]}, nil
}

func (s *scriptedLLM) CompleteStream(ctx context.Context, msgs []llm.Message, opts llm.CompletionOptions, h llm.StreamHandler) error {
	return nil
}

type stubEmbedder struct{ dims int }

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, s.dims), nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dims)
	}
	return out, nil
}

func (s *stubEmbedder) Dimensions() int { return s.dims }

func TestAgent_Run_CompletesImmediatelyWhenPlanSaysComplete(t *testing.T) {
	a := New(
		&scriptedLLM{responses: []string{"COMPLETE: true\n"}},
		&stubEmbedder{dims: 2},
		Retrievers{},
		&stubHydrator{pages: map[string]memory.Page{}},
	)

	ctx, err := a.Run(context.Background(), Query{Owner: "u1", Text: "hello"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(ctx.Pages) != 0 || ctx.IterationsPerformed != 1 {
		t.Fatalf("expected an immediate, empty completion after exactly 1 iteration, got %+v", ctx)
	}
}

func TestAgent_Run_IntegratesAndStopsOnReflectDecision(t *testing.T) {
	pages := map[string]memory.Page{
		"p1": {ID: "p1", Owner: "u1", Content: "refund policy is 5 days", TokenCount: 10},
		"p2": {ID: "p2", Owner: "u1", Content: "billing cycles are monthly", TokenCount: 10},
	}
	kw := &stubRetriever{name: "keyword_bm25", results: []memory.RetrievalResult{
		{PageID: "p1", Score: 0.9, RetrieverName: "keyword_bm25"},
		{PageID: "p2", Score: 0.5, RetrieverName: "keyword_bm25"},
	}}

	a := New(
		&scriptedLLM{responses: []string{
			"STRATEGY: look for refund info\nSEARCH_QUERY: refund\nUSE_KEYWORD: true\nCOMPLETE: false\n",
			"STOP",
		}},
		&stubEmbedder{dims: 2},
		Retrievers{Keyword: kw},
		&stubHydrator{pages: pages},
	)

	mc, err := a.Run(context.Background(), Query{Owner: "u1", Text: "what is the refund policy"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(mc.Pages) != 2 {
		t.Fatalf("expected both pages admitted, got %d", len(mc.Pages))
	}
	if mc.Pages[0].PageID != "p1" {
		t.Fatalf("expected highest-scored page first, got %s", mc.Pages[0].PageID)
	}
	if mc.TotalTokens != 20 {
		t.Fatalf("expected 20 total tokens, got %d", mc.TotalTokens)
	}
	if mc.IterationsPerformed != 1 {
		t.Fatalf("expected exactly 1 iteration, got %d", mc.IterationsPerformed)
	}
}

func TestAgent_Run_TerminatesAtMaxIterations(t *testing.T) {
	a := New(
		&scriptedLLM{responses: []string{
			"SEARCH_QUERY: x\nUSE_KEYWORD: true\nCOMPLETE: false\n",
			"CONTINUE",
		}},
		&stubEmbedder{dims: 2},
		Retrievers{Keyword: &stubRetriever{name: "keyword_bm25"}},
		&stubHydrator{pages: map[string]memory.Page{}},
	)

	mc, err := a.Run(context.Background(), Query{
		Owner: "u1",
		Text:  "anything",
		Options: Options{MaxIterations: 3},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if mc.IterationsPerformed != 3 {
		t.Fatalf("expected the loop to stop at MaxIterations=3, got %d", mc.IterationsPerformed)
	}
}

func TestAgent_Run_HardTokenGateStopsTheLoop(t *testing.T) {
	pages := map[string]memory.Page{
		"p1": {ID: "p1", Owner: "u1", Content: "big page", TokenCount: 95},
	}
	a := New(
		&scriptedLLM{responses: []string{"SEARCH_QUERY: x\nUSE_KEYWORD: true\nCOMPLETE: false\n"}},
		&stubEmbedder{dims: 2},
		Retrievers{Keyword: &stubRetriever{name: "keyword_bm25", results: []memory.RetrievalResult{
			{PageID: "p1", Score: 0.9, RetrieverName: "keyword_bm25"},
		}}},
		&stubHydrator{pages: pages},
	)

	budget := 100
	mc, err := a.Run(context.Background(), Query{
		Owner: "u1",
		Text:  "x",
		Options: Options{MaxIterations: 5, MaxContextTokens: &budget},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if mc.IterationsPerformed != 1 {
		t.Fatalf("expected the hard token gate to stop after 1 iteration, got %d", mc.IterationsPerformed)
	}
	if mc.TotalTokens != 95 {
		t.Fatalf("expected 95 total tokens admitted, got %d", mc.TotalTokens)
	}
}

func TestAgent_Run_ZeroMaxContextTokensAdmitsNothing(t *testing.T) {
	pages := map[string]memory.Page{
		"p1": {ID: "p1", Owner: "u1", Content: "anything", TokenCount: 1},
	}
	a := New(
		&scriptedLLM{responses: []string{"SEARCH_QUERY: x\nUSE_KEYWORD: true\nCOMPLETE: false\n"}},
		&stubEmbedder{dims: 2},
		Retrievers{Keyword: &stubRetriever{name: "keyword_bm25", results: []memory.RetrievalResult{
			{PageID: "p1", Score: 0.9, RetrieverName: "keyword_bm25"},
		}}},
		&stubHydrator{pages: pages},
	)

	zero := 0
	mc, err := a.Run(context.Background(), Query{
		Owner:   "u1",
		Text:    "x",
		Options: Options{MaxContextTokens: &zero},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(mc.Pages) != 0 {
		t.Fatalf("expected an explicit zero token budget to admit nothing, got %d pages", len(mc.Pages))
	}
	if mc.IterationsPerformed != 1 {
		t.Fatalf("expected exactly 1 iteration, got %d", mc.IterationsPerformed)
	}
}
