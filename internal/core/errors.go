package core

import "errors"

// Error taxonomy shared across the indexing and query paths. Callers match
// with errors.Is; lower layers wrap these with additional context.
var (
	// ErrSourceUnavailable means the product source (spreadsheet or
	// e-commerce API) is unreachable or misconfigured. Indexing aborts and
	// leaves the existing snapshot untouched.
	ErrSourceUnavailable = errors.New("product source unavailable")

	// ErrEmbeddingUnavailable means the embedding provider rejected the text
	// or is unreachable. The retrieval engine falls back to keyword scoring;
	// the indexer skips the affected item.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrCatalogEmpty means no snapshot is present in the store. The
	// retrieval engine signals degraded mode rather than failing hard.
	ErrCatalogEmpty = errors.New("catalog snapshot not available")

	// ErrStoreUnavailable means the cache backend is unreachable. Both
	// indexing and retrieval degrade to "no results".
	ErrStoreUnavailable = errors.New("catalog store unavailable")
)
