package research

// Options tunes the bounds of a single research call. Zero values of
// MaxIterations, MaxPagesPerIteration, and MinRelevanceScore are replaced
// by the package defaults in ResolveOptions. MaxContextTokens is a pointer
// because zero is itself a meaningful, literal budget (spec.md's boundary
// scenario: a zero-token budget must admit nothing and stop after one
// iteration) — a plain int can't distinguish "caller wants the default"
// from "caller wants zero" the way it can for the other fields.
type Options struct {
	MaxIterations        int     `yaml:"max_iterations" json:"max_iterations"`
	MaxPagesPerIteration int     `yaml:"max_pages_per_iteration" json:"max_pages_per_iteration"`
	MaxContextTokens     *int    `yaml:"max_context_tokens,omitempty" json:"max_context_tokens,omitempty"`
	MinRelevanceScore    float64 `yaml:"min_relevance_score" json:"min_relevance_score"`
}

// DefaultMaxContextTokens is the budget ResolveOptions fills in when a
// caller leaves MaxContextTokens unset (nil).
const DefaultMaxContextTokens = 8000

// DefaultOptions are the spec's nominal bounds.
func DefaultOptions() Options {
	tokens := DefaultMaxContextTokens
	return Options{
		MaxIterations:        5,
		MaxPagesPerIteration: 10,
		MaxContextTokens:     &tokens,
		MinRelevanceScore:    0.3,
	}
}

// ResolveOptions fills unset fields with defaults, leaving explicit values
// (including a pointed-to zero MaxContextTokens) alone.
// MinRelevanceScore treats 0 as "unset" and replaces it with the 0.3
// default; a negative value passes through unchanged, and the retrievers'
// "<=0 means no floor" convention then applies no floor at all.
func ResolveOptions(o Options) Options {
	d := DefaultOptions()
	if o.MaxIterations <= 0 {
		o.MaxIterations = d.MaxIterations
	}
	if o.MaxPagesPerIteration <= 0 {
		o.MaxPagesPerIteration = d.MaxPagesPerIteration
	}
	if o.MaxContextTokens == nil {
		o.MaxContextTokens = d.MaxContextTokens
	}
	if o.MinRelevanceScore == 0 {
		o.MinRelevanceScore = d.MinRelevanceScore
	}
	return o
}
