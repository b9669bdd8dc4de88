package assistant

import (
	"context"

	"github.com/shopipet/chatkit/internal/catalog"
	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
	"github.com/shopipet/chatkit/internal/search"
)

// ChatResult is the full outcome of one chat turn.
type ChatResult struct {
	Reply string               `json:"reply"`
	Items []core.ScoredProduct `json:"items"`
	Mode  string               `json:"mode"`
}

// Assistant wires retrieval and reply composition into one conversational
// service. Chat never returns an error: retrieval failures degrade to an
// empty product list and an apologetic reply.
type Assistant struct {
	engine   *search.Engine
	indexer  *catalog.Indexer
	composer *Composer
	limit    int
}

// NewAssistant creates the assistant. limit <= 0 uses the engine default.
func NewAssistant(engine *search.Engine, indexer *catalog.Indexer, composer *Composer, limit int) *Assistant {
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	return &Assistant{
		engine:   engine,
		indexer:  indexer,
		composer: composer,
		limit:    limit,
	}
}

// Chat answers one user message: retrieve matching products, then compose a
// reply grounded on them.
func (a *Assistant) Chat(ctx context.Context, message string) ChatResult {
	return a.ChatWithFilters(ctx, message, core.SearchFilters{})
}

// ChatWithFilters is Chat with a pre-score candidate filter, for callers that
// already know the category, brand or price range the user wants.
func (a *Assistant) ChatWithFilters(ctx context.Context, message string, filters core.SearchFilters) ChatResult {
	result, err := a.engine.Search(ctx, message, a.limit, filters)
	if err != nil {
		if search.IsCatalogUnavailable(err) {
			logger.SearchWarn("Catalog unavailable for query %q: %v", message, err)
		} else {
			logger.SearchWarn("Search failed for query %q: %v", message, err)
		}
	}

	reply := a.composer.Compose(ctx, message, result.Items)
	return ChatResult{
		Reply: reply,
		Items: result.Items,
		Mode:  result.Mode,
	}
}

// Sync rebuilds the catalog snapshot and refreshes the in-memory index. When
// the indexer reports the catalog unchanged, the loaded snapshot is kept.
func (a *Assistant) Sync(ctx context.Context) core.SyncResult {
	res := a.indexer.Sync(ctx)
	if res.Status == core.SyncStatusSuccess {
		a.engine.Invalidate()
		if err := a.engine.Reload(ctx); err != nil {
			logger.SyncWarn("Snapshot stored but reload failed: %v", err)
		}
	}
	return res
}

// ClearCatalog removes the stored snapshot and drops the loaded index.
func (a *Assistant) ClearCatalog(ctx context.Context) error {
	if err := a.indexer.Clear(ctx); err != nil {
		return err
	}
	a.engine.Invalidate()
	return nil
}

// CatalogSize reports how many products are currently loaded in memory.
func (a *Assistant) CatalogSize() int {
	return a.engine.ItemCount()
}
