// Package memory holds the data model shared by the memory store, the
// retrievers, the ingest agent, and the research agent.
package memory

import "time"

// Page is the primary record of a memorized turn. Content is the verbatim
// formatted text produced by the ingest agent; it is immutable once written
// except through a full replace via Store.
type Page struct {
	ID         string
	Owner      string
	Content    string
	TokenCount int
	Embedding  []float32
	Metadata   map[string]string
	CreatedAt  time.Time
}

// Abstract is the index-side record paired 1:1 with a page. Headers may be
// empty when the ingest LLM's response failed to parse; the abstract is
// still written (see the error taxonomy in errors.go).
type Abstract struct {
	PageID           string
	Owner            string
	Summary          string
	Headers          []string
	SummaryEmbedding []float32
	CreatedAt        time.Time
}

// ToolCall records one tool invocation embedded in a conversation turn.
type ToolCall struct {
	Tool      string
	Arguments string
	Result    string
}

// ConversationTurn is the ingest agent's input: one user/assistant exchange.
type ConversationTurn struct {
	Owner              string
	UserUtterance      string
	AssistantUtterance string
	Timestamp          time.Time
	ConversationID     string
	TurnNumber         int
	ToolCalls          []ToolCall
	Metadata           map[string]string
}

// RetrievalQuery is the uniform input contract every retriever accepts.
type RetrievalQuery struct {
	Owner          string
	Text           string
	Embedding      []float32
	MaxResults     int
	MinScore       float64
	ExcludePageIDs map[string]struct{}
}

// RetrievalResult is the uniform output of a retriever invocation. Score is
// normalized so that higher is better, regardless of backend.
type RetrievalResult struct {
	PageID        string
	Score         float64
	RetrieverName string
	MatchedHeader string
	Snippet       string
}

// RetrievedPage is a hydrated, admitted result held by the running research
// context.
type RetrievedPage struct {
	PageID        string
	Score         float64
	Content       string
	TokenCount    int
	RetrieverName string
	CreatedAt     time.Time
}

// MemoryContext is the immutable bundle a research call returns. Pages is
// sorted by Score descending with no duplicate page ids.
type MemoryContext struct {
	Pages               []RetrievedPage
	TotalTokens         int
	IterationsPerformed int
	Duration            time.Duration
}

// Empty is the zero-value MemoryContext returned when a streaming research
// call emits no steps.
var Empty = MemoryContext{}

// StoreStats summarizes an owner's pages. MinCreatedAt/MaxCreatedAt are the
// zero time when the owner has no pages.
type StoreStats struct {
	TotalPages   int
	TotalTokens  int
	MinCreatedAt time.Time
	MaxCreatedAt time.Time
}
