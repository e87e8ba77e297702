// Package ingest implements the Memory Agent (C5): it converts a single
// conversation turn into a durable (page, abstract) pair. It runs off the
// user-critical path and never writes to the store itself — the service
// facade owns id reconciliation and the atomic write.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"memoria/internal/embedding"
	"memoria/internal/llm"
	"memoria/internal/memory"
	"memoria/internal/observability"
)

// Config tunes the abstract completion call.
type Config struct {
	Temperature     float64 `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"max_output_tokens"`
	Model           string  `yaml:"model" json:"model"`
}

// DefaultConfig matches the spec's nominal abstract-completion tuning.
func DefaultConfig() Config {
	return Config{Temperature: 0.3, MaxOutputTokens: 1000}
}

// Agent formats turns, requests abstracts, and embeds both. It holds no
// store reference: Memorize (C1 write) is the service facade's job.
type Agent struct {
	llm      llm.Provider
	embedder embedding.Provider
	cfg      Config
}

// New constructs the ingest agent.
func New(llmProvider llm.Provider, embedder embedding.Provider, cfg Config) *Agent {
	return &Agent{llm: llmProvider, embedder: embedder, cfg: cfg}
}

// Ingest runs the full turn → (page, abstract) pipeline. The returned
// abstract's PageID is already set to the freshly generated page ID; the
// service facade's Memorize still reassigns it from the page before the
// atomic write, so the page's ID stays authoritative.
func (a *Agent) Ingest(ctx context.Context, turn memory.ConversationTurn) (memory.Page, memory.Abstract, error) {
	log := observability.LoggerWithTrace(ctx)

	content := formatTurn(turn)
	tokenCount := estimateTokens(content)

	pageEmbedding, err := a.embedder.Embed(ctx, content)
	if err != nil {
		return memory.Page{}, memory.Abstract{}, fmt.Errorf("ingest: embed page content: %w", err)
	}

	abstract, err := a.buildAbstract(ctx, turn, content)
	if err != nil {
		return memory.Page{}, memory.Abstract{}, err
	}

	summaryEmbedding, err := a.embedder.Embed(ctx, abstract.Summary)
	if err != nil {
		// An unparsed or empty summary still embeds; an empty string embeds
		// to whatever vector the provider returns for empty input. This is
		// a transient-I/O failure only when the provider call itself fails.
		return memory.Page{}, memory.Abstract{}, fmt.Errorf("ingest: embed abstract summary: %w", err)
	}
	abstract.SummaryEmbedding = summaryEmbedding

	pageID := uuid.New().String()
	page := memory.Page{
		ID:         pageID,
		Owner:      turn.Owner,
		Content:    content,
		TokenCount: tokenCount,
		Embedding:  pageEmbedding,
		Metadata:   turn.Metadata,
		CreatedAt:  turn.Timestamp,
	}
	abstract.PageID = pageID
	abstract.Owner = turn.Owner
	abstract.CreatedAt = turn.Timestamp

	log.Debug().Str("owner", turn.Owner).Int("tokens", tokenCount).Int("headers", len(abstract.Headers)).Msg("ingest: turn formatted")

	return page, abstract, nil
}

// buildAbstract issues the two-message abstract prompt and parses the
// response. A grammar violation is recovered locally: the abstract is
// still returned, with whatever fields parsed successfully.
func (a *Agent) buildAbstract(ctx context.Context, turn memory.ConversationTurn, formattedTurn string) (memory.Abstract, error) {
	msgs := []llm.Message{
		{Role: llm.System, Content: abstractSystemPrompt()},
		{Role: llm.User, Content: formattedTurn},
	}

	result, err := a.llm.Complete(ctx, msgs, llm.CompletionOptions{
		Temperature:     a.cfg.Temperature,
		MaxOutputTokens: a.cfg.MaxOutputTokens,
		Model:           a.cfg.Model,
	})
	if err != nil {
		return memory.Abstract{}, fmt.Errorf("ingest: abstract completion: %w", err)
	}

	parsed := parseAbstractResponse(result.Content)
	return memory.Abstract{
		Summary: parsed.Summary,
		Headers: parsed.Headers,
	}, nil
}
