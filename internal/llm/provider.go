// Package llm defines the structural contract memoria expects from a
// language-model completion provider. Providers are external collaborators;
// this package carries no provider-specific wire format, no tool-calling
// surface, and no compaction state — those concerns belong to the caller
// that wires a concrete provider in.
package llm

import "context"

// Role enumerates the message roles memoria's prompts use. Providers that
// speak a richer role set collapse onto these three at the provider
// boundary.
type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
)

// Message is one turn of a completion request.
type Message struct {
	Role    Role
	Content string
}

// CompletionOptions tunes a single completion call. Model, when empty,
// defers to the provider's configured default.
type CompletionOptions struct {
	Temperature     float64
	MaxOutputTokens int
	Model           string
}

// CompletionResult is the outcome of a non-streaming completion.
type CompletionResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	Model            string
}

// StreamHandler receives content chunks as a streaming completion produces
// them.
type StreamHandler interface {
	OnDelta(content string)
}

// Provider is the capability the ingest and research agents depend on.
// Implementations may fail any call with a provider-transport error; callers
// do not retry internally (see the transient-I/O error taxonomy).
type Provider interface {
	Complete(ctx context.Context, msgs []Message, opts CompletionOptions) (CompletionResult, error)
	CompleteStream(ctx context.Context, msgs []Message, opts CompletionOptions, h StreamHandler) error
}
