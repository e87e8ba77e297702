// Package research implements the Research Agent (C6): a bounded
// Plan → Search → Integrate → Reflect loop that fans out to the keyword,
// vector, and header-index retrievers and assembles a token-bounded
// memory context.
package research

import (
	"context"
	"fmt"
	"time"

	"memoria/internal/embedding"
	"memoria/internal/llm"
	"memoria/internal/memory"
	"memoria/internal/observability"
)

// Agent runs the research loop.
type Agent struct {
	llm        llm.Provider
	embedder   embedding.Provider
	retrievers Retrievers
	hydrator   PageHydrator
	callbacks  Callbacks
}

// AgentOption configures optional Agent behavior.
type AgentOption func(*Agent)

// WithCallbacks attaches per-phase observer hooks, invoked synchronously
// in RunStream right after a phase's Step is constructed and before it is
// sent on the stream channel.
func WithCallbacks(cb Callbacks) AgentOption {
	return func(a *Agent) { a.callbacks = cb }
}

// New constructs the research agent.
func New(llmProvider llm.Provider, embedder embedding.Provider, retrievers Retrievers, hydrator PageHydrator, opts ...AgentOption) *Agent {
	a := &Agent{llm: llmProvider, embedder: embedder, retrievers: retrievers, hydrator: hydrator}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run drains the streaming variant and returns the CurrentContext attached
// to the last emitted step, or memory.Empty if the stream produced none.
func (a *Agent) Run(ctx context.Context, q Query) (memory.MemoryContext, error) {
	steps, errCh := a.RunStream(ctx, q)

	var last memory.MemoryContext
	seen := false
	for step := range steps {
		last = step.CurrentContext
		seen = true
	}
	if err := <-errCh; err != nil {
		return memory.Empty, err
	}
	if !seen {
		return memory.Empty, nil
	}
	return last, nil
}

// RunStream executes the loop, emitting one Step per phase as it
// completes. The returned error channel carries at most one value; it is
// closed before the step channel, so once the step channel is drained the
// error channel can be read without blocking.
func (a *Agent) RunStream(ctx context.Context, q Query) (<-chan Step, <-chan error) {
	steps := make(chan Step)
	errCh := make(chan error, 1)

	go func() {
		defer close(steps)
		defer close(errCh)

		rc := newResearchContext(q)
		log := observability.LoggerWithTrace(ctx)
		cancelled := func() {
			errCh <- fmt.Errorf("research: %w: %v", memory.ErrCancelled, ctx.Err())
		}

		for iteration := 1; iteration <= rc.options.MaxIterations; iteration++ {
			if err := ctx.Err(); err != nil {
				errCh <- fmt.Errorf("research: %w: %v", memory.ErrCancelled, err)
				return
			}

			p, planStep, err := a.runPlan(ctx, rc, iteration)
			if err != nil {
				errCh <- err
				return
			}
			if !emit(ctx, steps, a.callbacks, planStep) {
				cancelled()
				return
			}
			if p.Complete {
				return
			}

			merged, searchStep, err := a.runSearch(ctx, rc, p, iteration)
			if err != nil {
				errCh <- err
				return
			}
			if !emit(ctx, steps, a.callbacks, searchStep) {
				cancelled()
				return
			}

			admitted, integrateStep, err := a.runIntegrate(ctx, rc, merged, iteration)
			if err != nil {
				errCh <- err
				return
			}
			if !emit(ctx, steps, a.callbacks, integrateStep) {
				cancelled()
				return
			}

			shouldContinue, reflectStep, err := a.runReflect(ctx, rc, q, admitted, iteration)
			if err != nil {
				errCh <- err
				return
			}
			if !emit(ctx, steps, a.callbacks, reflectStep) {
				cancelled()
				return
			}

			log.Debug().Int("iteration", iteration).Int("total_tokens", rc.totalTokens).Bool("continue", shouldContinue).Msg("research: iteration complete")

			if !shouldContinue {
				return
			}
		}
	}()

	return steps, errCh
}

func emit(ctx context.Context, steps chan<- Step, cb Callbacks, s Step) bool {
	cb.dispatch(s)
	select {
	case steps <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

func (a *Agent) runPlan(ctx context.Context, rc *researchContext, iteration int) (plan, Step, error) {
	start := time.Now()
	p, err := requestPlan(ctx, a.llm, planUserPrompt(rc))
	if err != nil {
		return plan{}, Step{}, fmt.Errorf("research: plan phase: %w", err)
	}

	return p, Step{
		Iteration:      iteration,
		Phase:          PhasePlan,
		Summary:        p.Strategy,
		Duration:       time.Since(start),
		PlanDetail:     p.Strategy,
		CurrentContext: rc.finalize(iteration),
	}, nil
}

func (a *Agent) runSearch(ctx context.Context, rc *researchContext, p plan, iteration int) ([]memory.RetrievalResult, Step, error) {
	start := time.Now()
	outcome, err := search(ctx, a.retrievers, a.embedder.Embed, p, rc.query.Owner, rc.excludeSet(), rc.options.MaxPagesPerIteration, rc.options.MinRelevanceScore)
	if err != nil {
		return nil, Step{}, fmt.Errorf("research: search phase: %w", err)
	}

	return outcome.merged, Step{
		Iteration:         iteration,
		Phase:             PhaseSearch,
		Summary:           fmt.Sprintf("found %d candidate pages", len(outcome.merged)),
		Duration:          time.Since(start),
		SearchResults:     outcome.merged,
		SearchDiagnostics: outcome.diagnostics,
		CurrentContext:    rc.finalize(iteration),
	}, nil
}

func (a *Agent) runIntegrate(ctx context.Context, rc *researchContext, merged []memory.RetrievalResult, iteration int) (int, Step, error) {
	start := time.Now()
	admitted, err := integrate(ctx, a.hydrator, merged, rc)
	if err != nil {
		return 0, Step{}, fmt.Errorf("research: integrate phase: %w", err)
	}

	return admitted, Step{
		Iteration:       iteration,
		Phase:           PhaseIntegrate,
		Summary:         fmt.Sprintf("admitted %d pages (%d total tokens)", admitted, rc.totalTokens),
		Duration:        time.Since(start),
		IntegratedCount: admitted,
		CurrentContext:  rc.finalize(iteration),
	}, nil
}

func (a *Agent) runReflect(ctx context.Context, rc *researchContext, q Query, admitted, iteration int) (bool, Step, error) {
	start := time.Now()

	if rc.totalTokens >= int(0.9*float64(*rc.options.MaxContextTokens)) {
		return false, Step{
			Iteration:      iteration,
			Phase:          PhaseReflect,
			Summary:        "token budget exhausted",
			Duration:       time.Since(start),
			ShouldContinue: false,
			CurrentContext: rc.finalize(iteration),
		}, nil
	}

	if len(rc.pages) == 0 {
		return true, Step{
			Iteration:      iteration,
			Phase:          PhaseReflect,
			Summary:        "no pages retrieved yet, forcing another attempt",
			Duration:       time.Since(start),
			ShouldContinue: true,
			CurrentContext: rc.finalize(iteration),
		}, nil
	}

	shouldContinue, err := reflect(ctx, a.llm, reflectUserPrompt(q, rc))
	if err != nil {
		return false, Step{}, fmt.Errorf("research: reflect phase: %w", err)
	}

	return shouldContinue, Step{
		Iteration:      iteration,
		Phase:          PhaseReflect,
		Summary:        fmt.Sprintf("llm decision: continue=%v", shouldContinue),
		Duration:       time.Since(start),
		ShouldContinue: shouldContinue,
		CurrentContext: rc.finalize(iteration),
	}, nil
}
