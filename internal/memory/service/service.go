// Package service implements the Service Facade (C7): the three verbs —
// Memorize, Research, Forget — that compose the ingest agent, the research
// agent, and the memory store. It is the only caller of either agent.
package service

import (
	"context"
	"fmt"

	"memoria/internal/memory"
	"memoria/internal/memory/ingest"
	"memoria/internal/memory/research"
	"memoria/internal/memory/store"
	"memoria/internal/observability"
)

// Service is the facade applications depend on.
type Service struct {
	store    store.Store
	ingest   *ingest.Agent
	research *research.Agent

	log     Logger
	metrics Metrics
	clock   Clock
}

// Logger is a minimal structured-logging interface callers may supply in
// place of the default drop logger. The facade's own request logging goes
// through observability.LoggerWithTrace directly so every log line carries
// trace context; this interface exists for callers that want to observe
// facade-level events without depending on zerolog.
type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// defaultLogger drops every call; the facade logs through
// observability.LoggerWithTrace regardless of this field's value.
type defaultLogger struct{}

func (defaultLogger) Info(string, map[string]any)  {}
func (defaultLogger) Error(string, map[string]any) {}
func (defaultLogger) Debug(string, map[string]any) {}

// New constructs the Service Facade.
func New(s store.Store, ingestAgent *ingest.Agent, researchAgent *research.Agent, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		ingest:   ingestAgent,
		research: researchAgent,
		log:      defaultLogger{},
		metrics:  NoopMetrics{},
		clock:    SystemClock{},
	}
	for _, o := range opts {
		o(svc)
	}
	return svc
}

// Option configures the Service during construction.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l Logger) Option { return func(s *Service) { s.log = l } }

// WithMetrics sets a custom metrics collector.
func WithMetrics(m Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithClock sets a custom clock implementation.
func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

// Memorize formats the turn into a page and abstract, reconciles their ids,
// and writes both atomically.
func (s *Service) Memorize(ctx context.Context, req MemorizeRequest) error {
	start := s.clock.Now()
	s.metrics.IncCounter("memoria_memorize_total", map[string]string{"owner": req.Turn.Owner})

	page, abstract, err := s.ingest.Ingest(ctx, req.Turn)
	if err != nil {
		s.metrics.IncCounter("memoria_memorize_errors_total", map[string]string{"owner": req.Turn.Owner})
		return fmt.Errorf("service: memorize: %w", err)
	}

	abstract.PageID = page.ID

	if err := s.store.StorePageAndAbstract(ctx, page, abstract); err != nil {
		s.metrics.IncCounter("memoria_memorize_errors_total", map[string]string{"owner": req.Turn.Owner})
		return fmt.Errorf("service: memorize: store write: %w", err)
	}

	s.metrics.ObserveHistogram("memoria_memorize_duration_ms", float64(s.clock.Now().Sub(start).Milliseconds()), map[string]string{"owner": req.Turn.Owner})
	observability.LoggerWithTrace(ctx).Info().Str("owner", req.Turn.Owner).Str("page_id", page.ID).Msg("service: memorized turn")
	return nil
}

// Research delegates to the research agent and returns the assembled
// memory context.
func (s *Service) Research(ctx context.Context, req ResearchRequest) (memory.MemoryContext, error) {
	start := s.clock.Now()
	s.metrics.IncCounter("memoria_research_total", map[string]string{"owner": req.Owner})

	mc, err := s.research.Run(ctx, research.Query{
		Owner:   req.Owner,
		Text:    req.Text,
		Options: req.Options,
	})
	if err != nil {
		s.metrics.IncCounter("memoria_research_errors_total", map[string]string{"owner": req.Owner})
		return memory.Empty, fmt.Errorf("service: research: %w", err)
	}

	s.metrics.ObserveHistogram("memoria_research_duration_ms", float64(s.clock.Now().Sub(start).Milliseconds()), map[string]string{"owner": req.Owner})
	s.metrics.ObserveHistogram("memoria_research_iterations", float64(mc.IterationsPerformed), map[string]string{"owner": req.Owner})
	observability.LoggerWithTrace(ctx).Info().Str("owner", req.Owner).Int("pages", len(mc.Pages)).Int("iterations", mc.IterationsPerformed).Msg("service: research complete")
	return mc, nil
}

// Forget removes pages per the request's selector, in priority order:
// all pages for the owner, else an explicit id list (each deleted
// independently, no transaction), else everything before a cutoff.
func (s *Service) Forget(ctx context.Context, req ForgetRequest) error {
	switch {
	case req.All:
		if err := s.store.DeleteByOwner(ctx, req.Owner); err != nil {
			return fmt.Errorf("service: forget: delete by owner: %w", err)
		}
	case len(req.PageIDs) > 0:
		for _, id := range req.PageIDs {
			if err := s.store.DeletePage(ctx, id); err != nil {
				return fmt.Errorf("service: forget: delete page %s: %w", id, err)
			}
		}
	case !req.Before.IsZero():
		if _, err := s.store.DeleteBefore(ctx, req.Before, req.Owner); err != nil {
			return fmt.Errorf("service: forget: delete before cutoff: %w", err)
		}
	default:
		return ErrForgetRequestEmpty
	}

	s.metrics.IncCounter("memoria_forget_total", map[string]string{"owner": req.Owner})
	observability.LoggerWithTrace(ctx).Info().Str("owner", req.Owner).Msg("service: forget complete")
	return nil
}
