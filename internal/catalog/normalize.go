// Package catalog reads product rows from an external source, normalizes
// them onto the canonical product schema, and indexes them into an embedded
// catalog snapshot.
package catalog

import (
	"regexp"
	"strings"

	"github.com/shopipet/chatkit/internal/core"
)

// columnMapping maps source spreadsheet headers, including the localized
// Hebrew ones, onto canonical field names. Unknown headers pass through
// trimmed and are ignored during record mapping.
var columnMapping = map[string]string{
	"מזהה":        "id",
	"מזהה ייחודי": "id",
	"מוצר":        "name",
	"שם מוצר":     "name",
	"שם":          "name",
	"מק\"ט":       "sku",
	"קטגוריה":     "category",
	"קטגוריות":    "category",
	"מותג":        "brand",
	"תיאור":       "description",
	"תיאור קצר":   "short_description",
	"מחיר רגיל":   "regular_price",
	"מחיר מבצע":   "sale_price",
	"קישור":       "url",
	"כתובת תמונה": "image_url",
	"תמונה":       "image_url",
	"URL":         "url",
	"IMAGE URL":   "image_url",
	"סטטוס":       "status",
	"מלאי":        "stock",
	"תכונה 1":     "attr1",
	"תכונה 2":     "attr2",
	"תכונה 3":     "attr3",
	"תכונה 4":     "attr4",
	"תכונה 5":     "attr5",
}

// NormalizeHeaders converts source column names to canonical field names.
func NormalizeHeaders(headers []string) []string {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		clean := strings.TrimSpace(h)
		if mapped, ok := columnMapping[clean]; ok {
			normalized[i] = mapped
		} else {
			normalized[i] = clean
		}
	}
	return normalized
}

// RecordFromRow maps one positional spreadsheet row onto a ProductRecord
// using the normalized headers. The row is padded or truncated to the header
// width first. Returns false for rows without a product name.
func RecordFromRow(headers []string, row []string) (core.ProductRecord, bool) {
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		val := ""
		if i < len(row) {
			val = strings.TrimSpace(row[i])
		}
		if h != "" && val != "" {
			fields[h] = val
		}
	}

	if fields["name"] == "" {
		return core.ProductRecord{}, false
	}

	rec := core.ProductRecord{
		ID:               fields["id"],
		Name:             fields["name"],
		Category:         fields["category"],
		Brand:            fields["brand"],
		SKU:              fields["sku"],
		RegularPrice:     fields["regular_price"],
		SalePrice:        fields["sale_price"],
		ShortDescription: fields["short_description"],
		Description:      fields["description"],
		ImageURL:         fields["image_url"],
		URL:              fields["url"],
		StockStatus:      normalizeStockStatus(fields["status"], fields["stock"]),
	}

	for _, key := range []string{"attr1", "attr2", "attr3", "attr4", "attr5"} {
		if v := fields[key]; v != "" {
			rec.Attributes = append(rec.Attributes, v)
		}
	}

	return rec, true
}

// normalizeStockStatus reconciles a spreadsheet's status and stock columns
// into the canonical instock/outofstock tags. Unmanaged stock counts as in
// stock.
func normalizeStockStatus(status, stock string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "instock", "במלאי":
		return "instock"
	case "outofstock", "אזל", "אזל מהמלאי":
		return "outofstock"
	}
	if qty, ok := core.ParsePrice(stock); ok {
		if qty <= 0 {
			return "outofstock"
		}
		return "instock"
	}
	return ""
}

// BuildEmbeddingText synthesizes the single string embedded for a product:
// name, brand, category, description and short description in that priority,
// with newlines flattened.
func BuildEmbeddingText(rec core.ProductRecord) string {
	parts := []string{rec.Name, rec.Brand, rec.Category, rec.Description, rec.ShortDescription}
	text := strings.Join(parts, " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.Join(strings.Fields(text), " ")
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// StripHTML removes markup and entity noise from source descriptions and
// collapses the remaining whitespace.
func StripHTML(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = htmlTagRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// TruncateDescription bounds a persisted description to keep snapshots small.
func TruncateDescription(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
