package search

import (
	"testing"

	"github.com/shopipet/chatkit/internal/core"
)

func testCandidates() []core.ProductRecord {
	return []core.ProductRecord{
		{
			ID:           "1",
			Name:         "מזון יבש לכלבים בוגרים",
			Category:     "מזון לכלבים",
			Brand:        "Royal Canin",
			SKU:          "7290001234567",
			RegularPrice: "199.90",
			StockStatus:  "instock",
		},
		{
			ID:           "2",
			Name:         "מזון לחתולים מעורב",
			Category:     "מזון לחתולים",
			Brand:        "Whiskas",
			SKU:          "7290007654321",
			RegularPrice: "89.90",
			StockStatus:  "instock",
		},
		{
			ID:           "3",
			Name:         "רצועה לכלב גדול",
			Category:     "אביזרים לכלבים",
			RegularPrice: "59.90",
			StockStatus:  "outofstock",
		},
		{
			ID:           "4",
			Name:         "קערת מים",
			Category:     "אביזרים",
			RegularPrice: "25.00",
			StockStatus:  "instock",
		},
	}
}

func TestFallbackSearchExcludesOtherSpecies(t *testing.T) {
	lex := DefaultLexicon()
	results := fallbackSearch("מזון לכלבים", testCandidates(), lex, 10)

	if len(results) == 0 {
		t.Fatal("expected results for dog food query")
	}
	for _, r := range results {
		if r.Product.ID == "2" {
			t.Errorf("cat product %q must be excluded from a dog query", r.Product.Name)
		}
	}
	if results[0].Product.ID != "1" {
		t.Errorf("expected dog food first, got %q", results[0].Product.Name)
	}
}

func TestFallbackSearchSKUShortCircuit(t *testing.T) {
	lex := DefaultLexicon()

	for _, query := range []string{
		"7290001234567",
		"מק\"ט 7290001234567",
		"SKU 7290-0012-34567",
	} {
		results := fallbackSearch(query, testCandidates(), lex, 10)
		if len(results) != 1 {
			t.Fatalf("fallbackSearch(%q) returned %d results, want exactly 1", query, len(results))
		}
		if results[0].Product.ID != "1" {
			t.Errorf("fallbackSearch(%q) matched %q, want SKU owner", query, results[0].Product.Name)
		}
		if results[0].Score != scoreSKUExact {
			t.Errorf("SKU match score = %v, want %v", results[0].Score, scoreSKUExact)
		}
	}
}

func TestFallbackSearchNoTextMatchScoresZero(t *testing.T) {
	lex := DefaultLexicon()
	results := fallbackSearch("מכונת כביסה", testCandidates(), lex, 10)
	if len(results) != 0 {
		t.Errorf("unrelated query returned %d results, want 0", len(results))
	}
}

func TestFallbackSearchStockAffectsRanking(t *testing.T) {
	lex := DefaultLexicon()
	candidates := []core.ProductRecord{
		{ID: "out", Name: "רצועה לכלב", Category: "אביזרים לכלבים", StockStatus: "outofstock"},
		{ID: "in", Name: "רצועה לכלב", Category: "אביזרים לכלבים", StockStatus: "instock"},
	}

	results := fallbackSearch("רצועה לכלב", candidates, lex, 10)
	if len(results) != 2 {
		t.Fatalf("expected both products, got %d", len(results))
	}
	if results[0].Product.ID != "in" {
		t.Error("in-stock product should rank above its out-of-stock twin")
	}
	if results[0].Score-results[1].Score != scoreInStock-scoreOutOfStock {
		t.Errorf("stock score delta = %v, want %v", results[0].Score-results[1].Score, scoreInStock-scoreOutOfStock)
	}
}

func TestFallbackSearchSaleBonus(t *testing.T) {
	lex := DefaultLexicon()
	candidates := []core.ProductRecord{
		{ID: "full", Name: "שמפו לכלב", RegularPrice: "100", StockStatus: "instock"},
		{ID: "sale", Name: "שמפו לכלב", RegularPrice: "100", SalePrice: "80", StockStatus: "instock"},
	}

	results := fallbackSearch("שמפו לכלב", candidates, lex, 10)
	if len(results) != 2 {
		t.Fatalf("expected both products, got %d", len(results))
	}
	if results[0].Product.ID != "sale" {
		t.Error("discounted product should rank above full-price twin")
	}
	// 20% discount: base sale bonus plus 20/5.
	wantDelta := scoreOnSale + 4
	if got := results[0].Score - results[1].Score; got != float64(wantDelta) {
		t.Errorf("sale score delta = %v, want %v", got, wantDelta)
	}
}

func TestFallbackSearchLimit(t *testing.T) {
	lex := DefaultLexicon()
	var candidates []core.ProductRecord
	for i := 0; i < 10; i++ {
		candidates = append(candidates, core.ProductRecord{
			ID:          string(rune('a' + i)),
			Name:        "רצועה לכלב",
			StockStatus: "instock",
		})
	}

	results := fallbackSearch("רצועה", candidates, lex, 3)
	if len(results) != 3 {
		t.Errorf("got %d results, want limit 3", len(results))
	}
}

func TestFallbackSearchDeterministic(t *testing.T) {
	lex := DefaultLexicon()
	first := fallbackSearch("מזון לכלבים", testCandidates(), lex, 5)
	second := fallbackSearch("מזון לכלבים", testCandidates(), lex, 5)

	if len(first) != len(second) {
		t.Fatalf("result counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Product.ID != second[i].Product.ID || first[i].Score != second[i].Score {
			t.Errorf("result %d differs between identical calls", i)
		}
	}
}

func TestFallbackSearchEmptyQuery(t *testing.T) {
	lex := DefaultLexicon()
	if results := fallbackSearch("   ", testCandidates(), lex, 5); len(results) != 0 {
		t.Errorf("blank query returned %d results, want 0", len(results))
	}
}

func TestNormalizeSKUQuery(t *testing.T) {
	tests := []struct {
		query  string
		want   string
		wantOK bool
	}{
		{"7290001234567", "7290001234567", true},
		{"SKU 7290-001", "7290001", true},
		{"מקט 123456", "123456", true},
		{"12345", "", false},          // too short
		{"מזון לכלבים", "", false},    // words, not an identifier
		{"abc123def456ghi", "", false}, // mostly letters
	}

	for _, tt := range tests {
		got, ok := normalizeSKUQuery(tt.query)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("normalizeSKUQuery(%q) = (%q, %v), want (%q, %v)", tt.query, got, ok, tt.want, tt.wantOK)
		}
	}
}
