package core

import (
	"strconv"
	"strings"
)

// MaxAttributes is the maximum number of free-text attributes kept per product.
const MaxAttributes = 5

// ProductRecord is one catalog entry as persisted in a snapshot.
// Name is required; records without a name never enter the index.
type ProductRecord struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	Brand            string   `json:"brand,omitempty"`
	SKU              string   `json:"sku,omitempty"`
	RegularPrice     string   `json:"regular_price,omitempty"`
	SalePrice        string   `json:"sale_price,omitempty"`
	ShortDescription string   `json:"short_description,omitempty"`
	Description      string   `json:"description,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	URL              string   `json:"url,omitempty"`
	Attributes       []string `json:"attributes,omitempty"`
	StockStatus      string   `json:"stock_status,omitempty"`
}

// EffectivePrice returns the sale price when present, otherwise the regular price.
func (p ProductRecord) EffectivePrice() string {
	if p.SalePrice != "" {
		return p.SalePrice
	}
	return p.RegularPrice
}

// InStock reports whether the product is purchasable. An empty stock status
// means the source does not manage stock, which counts as in stock.
func (p ProductRecord) InStock() bool {
	return p.StockStatus == "" || p.StockStatus == "instock"
}

// ParsePrice converts a price-like string ("89.90", "100 ₪") to a number.
// Returns false for empty or non-numeric values instead of failing.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// EmbeddingRecord pairs a product's persisted metadata with the vector that
// was produced for it at index time. The JSON field names match the snapshot
// format written by the indexer.
type EmbeddingRecord struct {
	Meta   ProductRecord `json:"meta"`
	Vector []float32     `json:"embedding"`
}

// CatalogSnapshot is the full ordered collection of embedding records for one
// indexed catalog version, persisted wholesale as a single JSON blob.
type CatalogSnapshot []EmbeddingRecord

// ScoredProduct is a single ranked search hit.
type ScoredProduct struct {
	Product ProductRecord `json:"product"`
	Score   float64       `json:"score"`
}

// Search modes reported in a QueryResult.
const (
	SearchModeSmart    = "smart"
	SearchModeFallback = "fallback"
	SearchModeDegraded = "degraded"
)

// QueryResult is the per-request outcome of a catalog search: hits sorted by
// descending score, truncated to the caller's limit, plus which path served it.
type QueryResult struct {
	Items []ScoredProduct `json:"items"`
	Mode  string          `json:"mode"`
}

// SearchFilters narrows the candidate set before scoring. Category and Brand
// match by case-insensitive substring containment. A zero price bound is
// treated as unset.
type SearchFilters struct {
	Category string
	Brand    string
	MinPrice float64
	MaxPrice float64
}

// Sync statuses reported by the indexer.
const (
	SyncStatusSuccess = "success"
	SyncStatusSkipped = "skipped"
	SyncStatusWarning = "warning"
	SyncStatusError   = "error"
)

// SyncResult is the structured outcome of a catalog sync job. Indexing never
// propagates a raw error to its caller; failures are reported here.
type SyncResult struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	ItemsCount int     `json:"items_count,omitempty"`
	SizeMB     float64 `json:"size_mb,omitempty"`
	Hash       string  `json:"hash,omitempty"`
	Skipped    bool    `json:"skipped,omitempty"`
}
