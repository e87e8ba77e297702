// Command memoriad is a minimal wiring example for the memory system: it
// constructs a Postgres-backed store, an HTTP embedding provider, and the
// service facade, then memorizes one turn and researches it back. As
// shipped, the LLM slot holds envLLMProvider, which fails every call, so the
// memorize step exits with an error until a concrete llm.Provider is wired
// in. It is
// not an API server — wiring an HTTP/gRPC surface around the service
// facade is an application concern, not this module's.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"memoria/internal/embedding"
	"memoria/internal/llm"
	"memoria/internal/memory"
	"memoria/internal/memory/ingest"
	"memoria/internal/memory/research"
	"memoria/internal/memory/retrieve"
	"memoria/internal/memory/service"
	"memoria/internal/memory/store"
	"memoria/internal/observability"
)

func main() {
	log.SetFlags(0)

	var (
		dsn        = flag.String("dsn", os.Getenv("MEMORIA_DSN"), "Postgres connection string")
		owner      = flag.String("owner", "demo-user", "owner id to memorize and research under")
		utterance  = flag.String("text", "what is our refund policy?", "text to research after memorizing a seed turn")
		dimensions = 1536
	)
	flag.Parse()

	observability.Configure(observability.LogConfig{Level: "info"})

	if *dsn == "" {
		log.Fatal("memoriad: -dsn or MEMORIA_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := store.OpenPool(ctx, *dsn)
	if err != nil {
		log.Fatalf("memoriad: open pool: %v", err)
	}
	defer pool.Close()

	memStore, err := store.NewPostgresStore(ctx, pool, dimensions)
	if err != nil {
		log.Fatalf("memoriad: bootstrap store: %v", err)
	}

	embedder := embedding.NewHTTPProvider(embedding.Config{
		BaseURL: os.Getenv("MEMORIA_EMBED_BASE_URL"),
		Path:    os.Getenv("MEMORIA_EMBED_PATH"),
		Model:   os.Getenv("MEMORIA_EMBED_MODEL"),
		APIKey:  os.Getenv("MEMORIA_EMBED_API_KEY"),
		Dims:    dimensions,
	})

	llmProvider := &envLLMProvider{}

	ingestAgent := ingest.New(llmProvider, embedder, ingest.DefaultConfig())
	researchAgent := research.New(llmProvider, embedder, research.Retrievers{
		Keyword: retrieve.NewKeywordRetriever(pool),
		Vector:  retrieve.NewVectorRetriever(pool),
		Index:   retrieve.NewHeaderIndexRetriever(pool),
	}, memStore)

	svc := service.New(memStore, ingestAgent, researchAgent, service.WithMetrics(service.NewOtelMetrics()))

	if err := svc.Memorize(ctx, service.MemorizeRequest{Turn: memory.ConversationTurn{
		Owner:              *owner,
		UserUtterance:      *utterance,
		AssistantUtterance: "Refunds are processed within 5 business days of the return being received.",
		Timestamp:          time.Now().UTC(),
		TurnNumber:         1,
	}}); err != nil {
		log.Fatalf("memoriad: memorize: %v", err)
	}

	mc, err := svc.Research(ctx, service.ResearchRequest{Owner: *owner, Text: *utterance})
	if err != nil {
		log.Fatalf("memoriad: research: %v", err)
	}

	log.Printf("memoriad: research returned %d pages across %d iterations (%d tokens, %s)",
		len(mc.Pages), mc.IterationsPerformed, mc.TotalTokens, mc.Duration)
	for _, p := range mc.Pages {
		log.Printf("  - [%s score=%.3f] %s", p.RetrieverName, p.Score, truncate(p.Content, 120))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// envLLMProvider is a placeholder provider wired to no actual endpoint; a
// real deployment supplies a concrete llm.Provider (OpenAI/Anthropic/local
// server) here. It exists so this file demonstrates complete wiring
// without this module taking a hard dependency on any one LLM SDK.
type envLLMProvider struct{}

func (envLLMProvider) Complete(ctx context.Context, msgs []llm.Message, opts llm.CompletionOptions) (llm.CompletionResult, error) {
	return llm.CompletionResult{}, errUnconfiguredLLM
}

func (envLLMProvider) CompleteStream(ctx context.Context, msgs []llm.Message, opts llm.CompletionOptions, h llm.StreamHandler) error {
	return errUnconfiguredLLM
}

var errUnconfiguredLLM = &unconfiguredError{"memoriad: no LLM provider configured; wire a concrete llm.Provider in main.go"}

type unconfiguredError struct{ msg string }

func (e *unconfiguredError) Error() string { return e.msg }
