// Package store implements the Memory Store (C1): durable, owner-scoped,
// transactional persistence of pages and abstracts.
package store

import (
	"context"
	"time"

	"memoria/internal/memory"
)

// Store is the capability the ingest agent, the research agent, and the
// service facade share for durable page/abstract persistence. Errors are
// transport/storage errors surfaced unmodified to the caller; the store
// never retries.
type Store interface {
	// GetPage returns at most one page by id. Returns memory.ErrNotFound
	// when absent.
	GetPage(ctx context.Context, id string) (memory.Page, error)

	// GetPages returns zero or more pages for the given id set. Order is
	// not guaranteed; callers re-order.
	GetPages(ctx context.Context, ids []string) ([]memory.Page, error)

	// GetAbstract returns the abstract paired with the given page id.
	// Returns memory.ErrNotFound when absent.
	GetAbstract(ctx context.Context, pageID string) (memory.Abstract, error)

	// StorePage upserts by id. On conflict, content/token-count/embedding/
	// metadata are replaced; owner and creation timestamp are preserved.
	StorePage(ctx context.Context, page memory.Page) error

	// StoreAbstract upserts by page id, replacing summary, headers, and
	// summary embedding.
	StoreAbstract(ctx context.Context, abstract memory.Abstract) error

	// StorePageAndAbstract writes both inside one transaction, rolling
	// back on any failure. This is the ingest write path.
	StorePageAndAbstract(ctx context.Context, page memory.Page, abstract memory.Abstract) error

	// DeletePage removes a page by id; the abstract cascades.
	DeletePage(ctx context.Context, id string) error

	// DeleteByOwner removes all records for the given owner.
	DeleteByOwner(ctx context.Context, owner string) error

	// CleanupExpired removes pages strictly older than now-maxAge,
	// optionally scoped to owner (empty owner means all owners), and
	// returns the count deleted.
	CleanupExpired(ctx context.Context, maxAge time.Duration, owner string) (int, error)

	// DeleteBefore removes pages with creation timestamp strictly before
	// cutoff, optionally scoped to owner, and returns the count deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time, owner string) (int, error)

	// Stats returns aggregate counts for the given owner. MinCreatedAt and
	// MaxCreatedAt are the zero time when the owner has no pages.
	Stats(ctx context.Context, owner string) (memory.StoreStats, error)
}
