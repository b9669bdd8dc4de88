package catalog

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
)

const (
	// minEmbedTextLen is the minimum synthesized text length worth embedding;
	// shorter records carry too little signal.
	minEmbedTextLen = 10
	// shortDescriptionLimit bounds the persisted short description.
	shortDescriptionLimit = 200
	// defaultEmbedBackoff is the pause after a per-item embedding failure,
	// absorbing upstream rate limits.
	defaultEmbedBackoff = time.Second
)

// Indexer builds catalog snapshots: it reads product rows from a source,
// embeds each retained record and writes the whole snapshot to the store in
// a single set. It runs as a batch job, never on the query path.
type Indexer struct {
	source  core.ProductSource
	embed   core.EmbedService
	store   core.CatalogStore
	key     string
	hashKey string
	backoff time.Duration
}

// NewIndexer creates an indexer writing snapshots under snapshotKey. The
// catalog content hash is kept under a sibling key for change detection.
func NewIndexer(source core.ProductSource, embedSvc core.EmbedService, store core.CatalogStore, snapshotKey string) *Indexer {
	return &Indexer{
		source:  source,
		embed:   embedSvc,
		store:   store,
		key:     snapshotKey,
		hashKey: snapshotKey + ":hash",
		backoff: defaultEmbedBackoff,
	}
}

// Sync runs one full catalog synchronization. All failures are captured in
// the returned SyncResult; the job never panics or raises to the caller. A
// source or store failure leaves the existing snapshot untouched, and partial
// embedding progress is discarded when the final write fails.
func (ix *Indexer) Sync(ctx context.Context) core.SyncResult {
	logger.SyncInfo("Starting catalog sync job")

	products, err := ix.source.FetchProducts(ctx)
	if err != nil {
		logger.SyncError("Failed to fetch products: %v", err)
		return core.SyncResult{
			Status:  core.SyncStatusError,
			Message: fmt.Sprintf("failed to fetch products: %v", err),
		}
	}

	// Retain only records worth indexing before any embedding work.
	type pending struct {
		rec  core.ProductRecord
		text string
	}
	retained := make([]pending, 0, len(products))
	for _, p := range products {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		text := BuildEmbeddingText(p)
		if len([]rune(text)) < minEmbedTextLen {
			logger.SyncWarn("Skipping item with insufficient text: %q", p.Name)
			continue
		}
		retained = append(retained, pending{rec: p, text: text})
	}

	if len(retained) == 0 {
		return core.SyncResult{
			Status:  core.SyncStatusWarning,
			Message: "no indexable products found; store not updated",
		}
	}

	// Change detection: an identical catalog means an identical snapshot, so
	// skip the embedding run entirely. The fingerprint covers the persisted
	// metadata and not just the embedding text: a price, sale or stock change
	// alters ranking and display and must produce a fresh snapshot.
	fingerprints := make([]string, len(retained))
	for i, p := range retained {
		fingerprints[i] = catalogFingerprint(p.rec, p.text)
	}
	hash := catalogHash(fingerprints)
	if prev, err := ix.store.Get(ctx, ix.hashKey); err == nil && string(prev) == hash {
		logger.SyncInfo("Catalog unchanged (hash %s), skipping sync", hash)
		return core.SyncResult{
			Status:     core.SyncStatusSkipped,
			Message:    "catalog unchanged since last sync",
			ItemsCount: len(retained),
			Hash:       hash,
			Skipped:    true,
		}
	}

	snapshot := make(core.CatalogSnapshot, 0, len(retained))
	dimension := 0
	for i, p := range retained {
		vector, err := ix.embed.EmbedQuery(ctx, p.text)
		if err != nil {
			// One bad record must not abort the rest of the catalog.
			logger.SyncWarn("Failed to embed item %q: %v", p.rec.Name, err)
			if ctx.Err() != nil {
				return core.SyncResult{
					Status:  core.SyncStatusError,
					Message: fmt.Sprintf("sync canceled: %v", ctx.Err()),
				}
			}
			time.Sleep(ix.backoff)
			continue
		}
		if dimension == 0 {
			dimension = len(vector)
		} else if len(vector) != dimension {
			// Mixing dimensionalities within one snapshot is an invariant
			// violation; the offending vector never enters the snapshot.
			logger.SyncWarn("Skipping item %q: vector dimension %d does not match snapshot dimension %d",
				p.rec.Name, len(vector), dimension)
			continue
		}
		snapshot = append(snapshot, core.EmbeddingRecord{
			Meta:   minimalMeta(p.rec),
			Vector: vector,
		})

		if (i+1)%50 == 0 {
			logger.SyncInfo("... generated %d embeddings ...", i+1)
		}
	}

	if len(snapshot) == 0 {
		return core.SyncResult{
			Status:  core.SyncStatusWarning,
			Message: "no embeddings were generated; store not updated",
		}
	}

	blob, err := json.Marshal(snapshot)
	if err != nil {
		logger.SyncError("Failed to serialize snapshot: %v", err)
		return core.SyncResult{
			Status:  core.SyncStatusError,
			Message: fmt.Sprintf("failed to serialize snapshot: %v", err),
		}
	}
	sizeMB := float64(len(blob)) / (1024 * 1024)
	logger.SyncInfo("Snapshot size: %.2f MB", sizeMB)

	if err := ix.store.Set(ctx, ix.key, blob); err != nil {
		logger.SyncError("Failed to write snapshot: %v", err)
		return core.SyncResult{
			Status:  core.SyncStatusError,
			Message: fmt.Sprintf("failed to write snapshot: %v", err),
		}
	}
	if err := ix.store.Set(ctx, ix.hashKey, []byte(hash)); err != nil {
		// The snapshot itself landed; a stale hash only costs one redundant
		// embedding run on the next sync.
		logger.SyncWarn("Failed to update catalog hash: %v", err)
	}

	logger.SyncInfo("Sync complete: %d items stored (%.2f MB)", len(snapshot), sizeMB)
	return core.SyncResult{
		Status:     core.SyncStatusSuccess,
		Message:    fmt.Sprintf("catalog updated: %d items stored", len(snapshot)),
		ItemsCount: len(snapshot),
		SizeMB:     sizeMB,
		Hash:       hash,
	}
}

// Clear removes the current snapshot and its hash from the store.
func (ix *Indexer) Clear(ctx context.Context) error {
	if err := ix.store.Delete(ctx, ix.key); err != nil && !errors.Is(err, core.ErrCatalogEmpty) {
		return err
	}
	return ix.store.Delete(ctx, ix.hashKey)
}

// minimalMeta keeps only the fields needed for display and ranking, bounding
// snapshot size. The raw source row never reaches the store.
func minimalMeta(rec core.ProductRecord) core.ProductRecord {
	return core.ProductRecord{
		ID:               rec.ID,
		Name:             rec.Name,
		Category:         rec.Category,
		Brand:            rec.Brand,
		SKU:              rec.SKU,
		RegularPrice:     rec.RegularPrice,
		SalePrice:        rec.SalePrice,
		ShortDescription: TruncateDescription(rec.ShortDescription, shortDescriptionLimit),
		ImageURL:         rec.ImageURL,
		URL:              rec.URL,
		StockStatus:      rec.StockStatus,
	}
}

// catalogFingerprint renders everything the stored snapshot depends on for
// one record: the embedding text plus the display and ranking metadata that
// minimalMeta persists alongside it.
func catalogFingerprint(rec core.ProductRecord, text string) string {
	return strings.Join([]string{
		text,
		rec.RegularPrice,
		rec.SalePrice,
		rec.StockStatus,
		rec.URL,
		rec.ImageURL,
	}, "|")
}

// catalogHash fingerprints the whole normalized catalog.
func catalogHash(fingerprints []string) string {
	sum := md5.Sum([]byte(strings.Join(fingerprints, "\n")))
	return hex.EncodeToString(sum[:])
}
