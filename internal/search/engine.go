// Package search implements the catalog retrieval engine: cosine-similarity
// ranking over an in-memory snapshot of embedded products, with a
// deterministic keyword/synonym fallback when embeddings cannot serve.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
)

const (
	// DefaultSnapshotKey is the store key holding the current catalog snapshot.
	DefaultSnapshotKey = "shopibot:smart_catalog_v1"
	// DefaultThreshold is the minimum cosine similarity for a smart-path hit.
	DefaultThreshold = 0.3
	// DefaultLimit caps the result count when the caller does not specify one.
	DefaultLimit = 5
)

// Engine serves catalog searches from a process-local snapshot copy. The
// copy is a cache, not the source of truth: it loads lazily from the store on
// first use and can be reloaded at any time after a sync.
type Engine struct {
	store       core.CatalogStore
	embed       core.EmbedService
	lex         *Lexicon
	snapshotKey string
	threshold   float64

	mu       sync.RWMutex
	snapshot core.CatalogSnapshot
}

// NewEngine creates an engine in the unloaded state. A zero threshold selects
// DefaultThreshold; an empty key selects DefaultSnapshotKey; a nil lexicon
// selects the built-in one.
func NewEngine(store core.CatalogStore, embedSvc core.EmbedService, lex *Lexicon, snapshotKey string, threshold float64) *Engine {
	if snapshotKey == "" {
		snapshotKey = DefaultSnapshotKey
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Engine{
		store:       store,
		embed:       embedSvc,
		lex:         lex,
		snapshotKey: snapshotKey,
		threshold:   threshold,
	}
}

// Reload replaces the in-memory snapshot from the store. The new snapshot is
// fully built before the reference swap, so concurrent readers observe either
// the old or the new catalog, never a mix.
func (e *Engine) Reload(ctx context.Context) error {
	data, err := e.store.Get(ctx, e.snapshotKey)
	if err != nil {
		return err
	}

	var snapshot core.CatalogSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("%w: malformed snapshot blob: %v", core.ErrCatalogEmpty, err)
	}
	if len(snapshot) == 0 {
		return core.ErrCatalogEmpty
	}

	e.mu.Lock()
	e.snapshot = snapshot
	e.mu.Unlock()

	logger.SearchInfo("Catalog snapshot loaded: %d items", len(snapshot))
	return nil
}

// Invalidate drops the in-memory snapshot, forcing a store load on next use.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.snapshot = nil
	e.mu.Unlock()
}

// Loaded reports whether a snapshot is resident in memory.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.snapshot) > 0
}

// ItemCount returns the number of products in the resident snapshot.
func (e *Engine) ItemCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.snapshot)
}

// Search ranks catalog products against a free-text query. The smart path
// embeds the query and ranks by cosine similarity above the engine threshold;
// when embeddings are unavailable or return nothing, the keyword fallback
// serves instead. Repeated calls with an unchanged catalog return identical
// ordering and scores.
func (e *Engine) Search(ctx context.Context, query string, limit int, filters core.SearchFilters) (core.QueryResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	snapshot, err := e.currentSnapshot(ctx)
	if err != nil {
		logger.SearchWarn("Catalog unavailable, serving empty result: %v", err)
		return core.QueryResult{Mode: core.SearchModeDegraded}, err
	}

	candidates := applyFilters(snapshot, filters)
	if len(candidates) == 0 {
		return core.QueryResult{Mode: core.SearchModeSmart}, nil
	}

	metas := make([]core.ProductRecord, len(candidates))
	for i, rec := range candidates {
		metas[i] = rec.Meta
	}

	// Identifier queries resolve to their exact product before any similarity
	// ranking, so a matching SKU wins even when embeddings are live.
	if items, ok := skuLookup(query, metas); ok {
		return core.QueryResult{Items: items, Mode: core.SearchModeFallback}, nil
	}

	items, smartErr := e.smartSearch(ctx, query, candidates, limit)
	if smartErr == nil && len(items) > 0 {
		return core.QueryResult{Items: items, Mode: core.SearchModeSmart}, nil
	}
	if smartErr != nil {
		logger.SearchWarn("Smart search failed (%v), falling back to keyword scoring", smartErr)
	} else {
		logger.SearchDebug("Smart search found 0 results, falling back to keyword scoring")
	}

	items = fallbackSearch(query, metas, e.lex, limit)
	return core.QueryResult{Items: items, Mode: core.SearchModeFallback}, nil
}

// currentSnapshot returns the resident snapshot, loading it from the store
// first when the engine is in the unloaded state.
func (e *Engine) currentSnapshot(ctx context.Context) (core.CatalogSnapshot, error) {
	e.mu.RLock()
	snapshot := e.snapshot
	e.mu.RUnlock()
	if len(snapshot) > 0 {
		return snapshot, nil
	}

	if err := e.Reload(ctx); err != nil {
		return nil, err
	}

	e.mu.RLock()
	snapshot = e.snapshot
	e.mu.RUnlock()
	return snapshot, nil
}

// smartSearch embeds the query once and ranks every candidate by cosine
// similarity. Records whose similarity does not exceed the threshold are
// dropped; ties keep their snapshot order.
func (e *Engine) smartSearch(ctx context.Context, query string, candidates []core.EmbeddingRecord, limit int) ([]core.ScoredProduct, error) {
	qvec, err := e.embed.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]core.ScoredProduct, 0, limit)
	for _, rec := range candidates {
		sim := cosineSimilarity(qvec, rec.Vector)
		if sim <= e.threshold {
			continue
		}
		results = append(results, core.ScoredProduct{Product: rec.Meta, Score: sim})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// applyFilters narrows the candidate set before any scoring. Category and
// brand match case-insensitively by substring, tolerating free-text labels.
// Price bounds drop records whose effective price cannot be parsed, since
// those cannot participate in a numeric comparison.
func applyFilters(snapshot core.CatalogSnapshot, filters core.SearchFilters) []core.EmbeddingRecord {
	if filters.Category == "" && filters.Brand == "" && filters.MinPrice <= 0 && filters.MaxPrice <= 0 {
		return snapshot
	}

	category := strings.ToLower(filters.Category)
	brand := strings.ToLower(filters.Brand)

	out := make([]core.EmbeddingRecord, 0, len(snapshot))
	for _, rec := range snapshot {
		if category != "" && !strings.Contains(strings.ToLower(rec.Meta.Category), category) {
			continue
		}
		if brand != "" && !strings.Contains(strings.ToLower(rec.Meta.Brand), brand) {
			continue
		}
		if filters.MinPrice > 0 || filters.MaxPrice > 0 {
			price, ok := core.ParsePrice(rec.Meta.EffectivePrice())
			if !ok {
				continue
			}
			if filters.MinPrice > 0 && price < filters.MinPrice {
				continue
			}
			if filters.MaxPrice > 0 && price > filters.MaxPrice {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// IsCatalogUnavailable reports whether an error from Search means the catalog
// could not be served at all, as opposed to a degraded-but-answered query.
func IsCatalogUnavailable(err error) bool {
	return errors.Is(err, core.ErrCatalogEmpty) || errors.Is(err, core.ErrStoreUnavailable)
}
