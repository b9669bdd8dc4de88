package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/shopipet/chatkit/internal/core"
)

// Scoring weights for the keyword fallback path. Additive; tuned against the
// mixed Hebrew/English catalog the assistant serves.
const (
	scoreExactName       = 50.0
	scoreNamePerTerm     = 12.0
	scoreNameCap         = 35.0
	scoreCategoryPerTerm = 9.0
	scoreCategoryCap     = 25.0
	scoreBrandMatch      = 15.0
	scoreDescPerTerm     = 4.0
	scoreDescCap         = 10.0
	scoreInStock         = 25.0
	scoreOutOfStock      = 5.0
	scoreOnSale          = 15.0
	scoreSKUExact        = 1000.0
)

// fallbackSearch ranks candidates with deterministic keyword/synonym scoring.
// It serves queries when the embedding provider is unavailable or the smart
// path found nothing.
func fallbackSearch(query string, candidates []core.ProductRecord, lex *Lexicon, limit int) []core.ScoredProduct {
	query = strings.TrimSpace(query)
	if query == "" || len(candidates) == 0 {
		return nil
	}

	if items, ok := skuLookup(query, candidates); ok {
		return items
	}

	lowered := strings.ToLower(query)
	terms := lex.ExpandTerms(query)
	petClass := lex.DetectPetClass(query)

	results := make([]core.ScoredProduct, 0, limit)
	for _, p := range candidates {
		if lex.ExcludedByPetClass(petClass, p.Name, p.Category) {
			continue
		}
		score := scoreProduct(lowered, terms, p)
		if score <= 0 {
			continue
		}
		results = append(results, core.ScoredProduct{Product: p, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// skuLookup resolves a SKU/barcode query to its exact product. Identifier
// lookups bypass ranking entirely.
func skuLookup(query string, candidates []core.ProductRecord) ([]core.ScoredProduct, bool) {
	sku, ok := normalizeSKUQuery(strings.TrimSpace(query))
	if !ok {
		return nil, false
	}
	for _, p := range candidates {
		if normalizeSKU(p.SKU) == sku {
			return []core.ScoredProduct{{Product: p, Score: scoreSKUExact}}, true
		}
	}
	return nil, false
}

// scoreProduct computes the additive relevance of one candidate. A product
// with no textual overlap scores 0 regardless of its stock or sale bonuses.
func scoreProduct(loweredQuery string, terms []string, p core.ProductRecord) float64 {
	name := strings.ToLower(p.Name)
	category := strings.ToLower(p.Category)
	brand := strings.ToLower(p.Brand)
	desc := strings.ToLower(p.ShortDescription + " " + p.Description)

	var text float64

	if strings.Contains(name, loweredQuery) {
		text += scoreExactName
	}
	text += cappedTermScore(name, terms, scoreNamePerTerm, scoreNameCap)
	text += cappedTermScore(category, terms, scoreCategoryPerTerm, scoreCategoryCap)
	if brand != "" {
		for _, t := range terms {
			if strings.Contains(brand, t) {
				text += scoreBrandMatch
				break
			}
		}
	}
	text += cappedTermScore(desc, terms, scoreDescPerTerm, scoreDescCap)

	if text == 0 {
		return 0
	}

	score := text
	if p.InStock() {
		score += scoreInStock
	} else {
		score += scoreOutOfStock
	}

	// Active sale: base bonus plus a proportional slice of the discount.
	if reg, okReg := core.ParsePrice(p.RegularPrice); okReg {
		if sale, okSale := core.ParsePrice(p.SalePrice); okSale && sale < reg && reg > 0 {
			discountPct := (reg - sale) / reg * 100
			score += scoreOnSale + discountPct/5
		}
	}

	return score
}

// cappedTermScore counts term matches in a field, weighting each match and
// capping the field's contribution.
func cappedTermScore(field string, terms []string, perTerm, ceiling float64) float64 {
	if field == "" {
		return 0
	}
	var total float64
	for _, t := range terms {
		if strings.Contains(field, t) {
			total += perTerm
			if total >= ceiling {
				return ceiling
			}
		}
	}
	return total
}

// normalizeSKUQuery decides whether a query is a SKU/barcode lookup: after
// stripping whitespace and a leading "SKU"/"מק"ט" label, the remainder must
// be longer than 5 characters and mostly digits.
func normalizeSKUQuery(query string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(query))
	for _, label := range []string{"sku", "מק\"ט", "מקט", "ברקוד", "barcode"} {
		s = strings.TrimPrefix(s, label)
	}
	s = normalizeSKU(s)
	if len(s) <= 5 {
		return "", false
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if float64(digits) < 0.8*float64(len([]rune(s))) {
		return "", false
	}
	return s, true
}

// normalizeSKU strips whitespace, separators and a "SKU" label so stored and
// queried identifiers compare on their significant characters only.
func normalizeSKU(sku string) string {
	s := strings.ToLower(strings.TrimSpace(sku))
	s = strings.TrimPrefix(s, "sku")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) || r == '-' || r == ':' || r == '#' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
