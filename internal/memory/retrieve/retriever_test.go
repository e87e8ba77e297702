package retrieve

import (
	"context"
	"errors"
	"testing"

	"memoria/internal/memory"
)

func TestApplyMinScore(t *testing.T) {
	in := []memory.RetrievalResult{
		{PageID: "a", Score: 0.9},
		{PageID: "b", Score: 0.2},
		{PageID: "c", Score: 0.3},
	}
	out := applyMinScore(in, 0.3)
	if len(out) != 2 {
		t.Fatalf("expected 2 results at or above the floor, got %d", len(out))
	}
	for _, r := range out {
		if r.Score < 0.3 {
			t.Fatalf("result %s scored below the floor: %v", r.PageID, r.Score)
		}
	}
}

func TestApplyMinScore_ZeroFloorIsNoOp(t *testing.T) {
	in := []memory.RetrievalResult{{PageID: "a", Score: 0}}
	out := applyMinScore(in, 0)
	if len(out) != 1 {
		t.Fatalf("expected zero floor to pass everything through, got %d", len(out))
	}
}

func TestEffectiveLimit(t *testing.T) {
	if got := effectiveLimit(0); got != 10 {
		t.Fatalf("expected default limit 10, got %d", got)
	}
	if got := effectiveLimit(-5); got != 10 {
		t.Fatalf("expected default limit 10 for negative input, got %d", got)
	}
	if got := effectiveLimit(25); got != 25 {
		t.Fatalf("expected explicit limit to pass through, got %d", got)
	}
}

func TestExcludeList(t *testing.T) {
	if got := excludeList(nil); got != nil {
		t.Fatalf("expected nil exclude set to produce nil, got %v", got)
	}
	set := map[string]struct{}{"p1": {}, "p2": {}}
	got := excludeList(set)
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
}

func TestVectorLiteral(t *testing.T) {
	if got := vectorLiteral(nil); got != "[]" {
		t.Fatalf("expected empty literal for nil vector, got %q", got)
	}
	got := vectorLiteral([]float32{1, 0.5, -2})
	want := "[1,0.5,-2]"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestVectorRetriever_RequiresEmbedding(t *testing.T) {
	r := NewVectorRetriever(nil)
	_, err := r.Retrieve(context.Background(), memory.RetrievalQuery{Owner: "u1", Text: "anything"})
	if !errors.Is(err, memory.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for a missing query embedding, got %v", err)
	}
}

func TestFirstMatchingHeader(t *testing.T) {
	headers := []string{"Billing", "Onboarding Flow", "API Keys"}
	matched, ok := firstMatchingHeader(headers, "flow")
	if !ok || matched != "Onboarding Flow" {
		t.Fatalf("expected a case-insensitive substring match, got %q ok=%v", matched, ok)
	}
	if _, ok := firstMatchingHeader(headers, ""); ok {
		t.Fatal("expected an empty needle to never match")
	}
	if _, ok := firstMatchingHeader(headers, "refunds"); ok {
		t.Fatal("expected no match for an absent header")
	}
}

func TestBackendTag(t *testing.T) {
	cases := map[backend]string{
		backendVectorchordBM25: "_vchord_bm25",
		backendParadeDB:        "_paradedb",
		backendTokenVectorBM25: "_token_bm25",
		backendNativeFTS:       "_native_fts",
		backendUnknown:         "_native_fts",
	}
	for b, want := range cases {
		if got := b.tag(); got != want {
			t.Fatalf("backend %d: got tag %q, want %q", b, got, want)
		}
	}
}
