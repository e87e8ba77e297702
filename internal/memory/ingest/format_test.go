package ingest

import (
	"testing"
	"time"

	"memoria/internal/memory"
)

func sampleTurn() memory.ConversationTurn {
	return memory.ConversationTurn{
		Owner:              "u1",
		UserUtterance:      "What's the refund policy?",
		AssistantUtterance: "Refunds are processed within 5 business days.",
		Timestamp:          time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		ConversationID:     "conv-1",
		TurnNumber:         3,
	}
}

func TestFormatTurn_Deterministic(t *testing.T) {
	turn := sampleTurn()
	a := formatTurn(turn)
	b := formatTurn(turn)
	if a != b {
		t.Fatal("expected formatTurn to be idempotent for the same turn")
	}
}

func TestFormatTurn_ContainsLabelledBlocks(t *testing.T) {
	content := formatTurn(sampleTurn())
	for _, want := range []string{"USER:", "ASSISTANT:", "refund policy", "business days", "conv-1"} {
		if !contains(content, want) {
			t.Fatalf("expected formatted content to contain %q, got:\n%s", want, content)
		}
	}
}

func TestFormatTurn_ToolCallsAppended(t *testing.T) {
	turn := sampleTurn()
	turn.ToolCalls = []memory.ToolCall{{Tool: "lookup_order", Arguments: `{"id":"42"}`, Result: "shipped"}}
	content := formatTurn(turn)
	if !contains(content, "TOOL CALLS:") || !contains(content, "lookup_order") {
		t.Fatalf("expected a tool-calls block, got:\n%s", content)
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Fatalf("expected 0 tokens for empty content, got %d", got)
	}
	if got := estimateTokens("ab"); got != 1 {
		t.Fatalf("expected at least 1 token for nonempty content, got %d", got)
	}
	content := make([]byte, 400)
	for i := range content {
		content[i] = 'x'
	}
	if got := estimateTokens(string(content)); got != 100 {
		t.Fatalf("expected 400/4=100 tokens, got %d", got)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
