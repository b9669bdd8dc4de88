package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopipet/chatkit/internal/core"
)

// fakeGenerator records the prompts it was given and returns a canned reply.
type fakeGenerator struct {
	reply        string
	err          error
	systemPrompt string
	userPrompt   string
	calls        int
}

func (f *fakeGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.systemPrompt = systemPrompt
	f.userPrompt = userPrompt
	return f.reply, f.err
}

func scoredItems() []core.ScoredProduct {
	return []core.ScoredProduct{
		{Product: core.ProductRecord{Name: "מזון יבש לכלבים", Brand: "Royal Canin", RegularPrice: "199.90"}, Score: 0.9},
		{Product: core.ProductRecord{Name: "חטיף אילוף", RegularPrice: "29.90", SalePrice: "19.90"}, Score: 0.7},
	}
}

func TestComposeUsesGenerator(t *testing.T) {
	gen := &fakeGenerator{reply: "מצאתי מזון מעולה לכלב שלך! 🐶"}
	c := NewComposer(gen)

	got := c.Compose(context.Background(), "מזון לכלבים", scoredItems())
	if got != gen.reply {
		t.Errorf("Compose() = %q, want generator reply", got)
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	// The model sees only the retrieved products, name and price included.
	if !strings.Contains(gen.userPrompt, "מזון יבש לכלבים") {
		t.Error("user prompt missing product name")
	}
	if !strings.Contains(gen.userPrompt, "Royal Canin") {
		t.Error("user prompt missing brand")
	}
	if !strings.Contains(gen.userPrompt, "19.90") {
		t.Error("user prompt should carry the sale price for discounted items")
	}
	if !strings.Contains(gen.systemPrompt, "שופיבוט") {
		t.Error("system prompt missing assistant identity")
	}
	// Prices and links are rendered to the customer separately, so the model
	// must be told not to repeat them.
	if !strings.Contains(gen.systemPrompt, "אל תחזור על מחירים או קישורים") {
		t.Error("system prompt missing the no-prices-or-links rule")
	}
}

func TestComposeEmptyResults(t *testing.T) {
	gen := &fakeGenerator{reply: "לא מצאתי, נסו חיפוש אחר"}
	c := NewComposer(gen)

	got := c.Compose(context.Background(), "מזון לדינוזאורים", nil)
	if got != gen.reply {
		t.Errorf("Compose() = %q", got)
	}
	if !strings.Contains(gen.userPrompt, "לא נמצאו מוצרים") {
		t.Error("user prompt should state that nothing was found")
	}
}

func TestComposeGeneratorFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	c := NewComposer(gen)

	got := c.Compose(context.Background(), "מזון", scoredItems())
	if !strings.Contains(got, "2") {
		t.Errorf("fallback reply should mention the product count, got %q", got)
	}
}

func TestComposeGeneratorFailureNoItems(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	c := NewComposer(gen)

	got := c.Compose(context.Background(), "מזון", nil)
	if got == "" {
		t.Error("fallback reply must not be empty")
	}
}

func TestComposeNilGenerator(t *testing.T) {
	c := NewComposer(nil)
	got := c.Compose(context.Background(), "מזון", scoredItems())
	if got == "" {
		t.Error("nil generator must still produce a reply")
	}
}

func TestComposeBlankGeneratorReply(t *testing.T) {
	gen := &fakeGenerator{reply: "   "}
	c := NewComposer(gen)

	got := c.Compose(context.Background(), "מזון", scoredItems())
	if strings.TrimSpace(got) == "" {
		t.Error("blank generator output must fall back to a deterministic reply")
	}
}

func TestProductsContextTruncation(t *testing.T) {
	var items []core.ScoredProduct
	for i := 0; i < 8; i++ {
		items = append(items, core.ScoredProduct{
			Product: core.ProductRecord{Name: "מוצר", RegularPrice: "10"},
		})
	}
	got := productsContext(items)
	var n int
	for _, line := range strings.Split(got, "\n") {
		if strings.HasPrefix(line, "- ") {
			n++
		}
	}
	if n != maxSummaryItems {
		t.Errorf("context lists %d products, want %d", n, maxSummaryItems)
	}
}
