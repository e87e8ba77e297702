package service

import (
	"context"
	"testing"
	"time"

	"memoria/internal/llm"
	"memoria/internal/memory"
	"memoria/internal/memory/ingest"
	"memoria/internal/memory/research"
	"memoria/internal/memory/store"
)

type stubLLM struct{ content string }

func (s *stubLLM) Complete(ctx context.Context, msgs []llm.Message, opts llm.CompletionOptions) (llm.CompletionResult, error) {
	return llm.CompletionResult{Content: s.content}, nil
}

func (s *stubLLM) CompleteStream(ctx context.Context, msgs []llm.Message, opts llm.CompletionOptions, h llm.StreamHandler) error {
	h.OnDelta(s.content)
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

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()

	ingestAgent := ingest.New(
		&stubLLM{content: "SUMMARY: a test turn\nHEADERS:\n- testing\n"},
		&stubEmbedder{dims: 3},
		ingest.DefaultConfig(),
	)
	researchAgent := research.New(
		&stubLLM{content: "COMPLETE: true\n"},
		&stubEmbedder{dims: 3},
		research.Retrievers{},
		st,
	)

	return New(st, ingestAgent, researchAgent, WithMetrics(NewMockMetrics())), st
}

// recordingStore captures the page/abstract pair handed to the atomic write.
type recordingStore struct {
	store.Store
	page     memory.Page
	abstract memory.Abstract
}

func (r *recordingStore) StorePageAndAbstract(ctx context.Context, p memory.Page, a memory.Abstract) error {
	r.page, r.abstract = p, a
	return r.Store.StorePageAndAbstract(ctx, p, a)
}

func TestService_Memorize_WritesPageAndAbstractWithMatchingIDs(t *testing.T) {
	svc, st := newTestService(t)
	rec := &recordingStore{Store: st}
	svc.store = rec

	err := svc.Memorize(context.Background(), MemorizeRequest{Turn: memory.ConversationTurn{
		Owner:              "u1",
		UserUtterance:      "hi",
		AssistantUtterance: "hello",
		Timestamp:          time.Now(),
		TurnNumber:         1,
	}})
	if err != nil {
		t.Fatalf("Memorize failed: %v", err)
	}

	stats, err := st.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalPages != 1 {
		t.Fatalf("expected 1 page stored, got %d", stats.TotalPages)
	}

	if rec.page.ID == "" || rec.abstract.PageID != rec.page.ID {
		t.Fatalf("expected abstract.PageID %q to match page.ID %q", rec.abstract.PageID, rec.page.ID)
	}
	gotAbstract, err := st.GetAbstract(context.Background(), rec.page.ID)
	if err != nil {
		t.Fatalf("GetAbstract failed: %v", err)
	}
	if gotAbstract.PageID != rec.page.ID || gotAbstract.Owner != "u1" {
		t.Fatalf("unexpected stored abstract: %+v", gotAbstract)
	}
}

func TestService_Research_DelegatesAndReturnsEmptyOnImmediateComplete(t *testing.T) {
	svc, _ := newTestService(t)

	mc, err := svc.Research(context.Background(), ResearchRequest{Owner: "u1", Text: "anything"})
	if err != nil {
		t.Fatalf("Research failed: %v", err)
	}
	if len(mc.Pages) != 0 {
		t.Fatalf("expected no pages from an immediately-complete plan, got %d", len(mc.Pages))
	}
}

func TestService_Forget_RequiresASelector(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Forget(context.Background(), ForgetRequest{Owner: "u1"})
	if err != ErrForgetRequestEmpty {
		t.Fatalf("expected ErrForgetRequestEmpty, got %v", err)
	}
}

func TestService_Forget_All(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	if err := svc.Memorize(ctx, MemorizeRequest{Turn: memory.ConversationTurn{
		Owner: "u1", UserUtterance: "a", AssistantUtterance: "b", Timestamp: time.Now(),
	}}); err != nil {
		t.Fatalf("Memorize failed: %v", err)
	}

	if err := svc.Forget(ctx, ForgetRequest{Owner: "u1", All: true}); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}

	stats, err := st.Stats(ctx, "u1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalPages != 0 {
		t.Fatalf("expected 0 pages after forgetting all, got %d", stats.TotalPages)
	}
}
