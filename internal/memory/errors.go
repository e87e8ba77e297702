package memory

import "errors"

// Sentinel errors surfaced across the store, retrievers, ingest agent, and
// research agent. Parse failures and backend-degraded conditions are never
// returned through this taxonomy — they are logged and absorbed at the
// point they occur.
var (
	// ErrNotFound indicates a requested page or abstract does not exist.
	// Hydration callers (the research loop's Integrate phase) drop missing
	// ids silently rather than surfacing this.
	ErrNotFound = errors.New("memory: not found")

	// ErrInvalidArgument indicates a required field was missing or a
	// contract precondition was violated, e.g. the vector retriever called
	// without a query embedding.
	ErrInvalidArgument = errors.New("memory: invalid argument")

	// ErrTransient names the transport-failure kind (LLM, embedding, or
	// store backends). The ingest agent, research agent, and stores do not
	// wrap their errors with it: they return the provider's or driver's
	// error wrapped with context via fmt.Errorf, so errors.Is(err,
	// ErrTransient) does not match those errors. Callers do not retry
	// internally.
	ErrTransient = errors.New("memory: transient I/O error")

	// ErrCancelled indicates the operation was aborted by cooperative
	// cancellation; any partially accumulated state is discarded.
	ErrCancelled = errors.New("memory: cancelled")
)
