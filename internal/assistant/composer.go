package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
)

// maxSummaryItems bounds how many products are described to the model.
const maxSummaryItems = 5

const composerSystemPrompt = `אתה שופיבוט - עוזר וירטואלי של חנות שופיפט למוצרי חיות מחמד.

כללים חשובים:
1. ענה רק על שאלות הקשורות לחיות מחמד, מוצרי חיות מחמד, או שירות החנות
2. אל תציע לעולם מוצרים שלא מופיעים ברשימת המוצרים שקיבלת
3. אם שאלו שאלה לא קשורה לחיות מחמד - הסבר שאתה מתמחה רק במוצרים לחיות מחמד
4. תן תשובות קצרות (1-2 משפטים), ידידותיות ומועילות
5. השתמש באימוג'י רלוונטי (🐶🐱🐹🐦🐠) בצורה מתונה
6. אם יש מוצרים - תאר אותם בקצרה ובצורה מזמינה
7. אל תחזור על מחירים או קישורים - הם מוצגים ללקוח בנפרד מתחת לתשובה שלך
8. אם אין מוצרים - הצע לנסות חיפוש אחר או לפנות לשירות לקוחות

אל תכתוב משפטים כמו "לפי הנתונים שקיבלתי" או "במאגר שלי" - דבר בצורה טבעית.`

// Composer turns retrieval results into a customer-facing reply. The model
// only ever sees products from the result set; when generation fails the
// composer degrades to a deterministic reply rather than failing the chat.
type Composer struct {
	generator core.TextGenerator
}

// NewComposer creates a composer backed by the given text generator. A nil
// generator is allowed and always yields the deterministic fallback replies.
func NewComposer(generator core.TextGenerator) *Composer {
	return &Composer{generator: generator}
}

// Compose produces a reply for the user's message given the retrieved
// products. It never returns an error.
func (c *Composer) Compose(ctx context.Context, message string, items []core.ScoredProduct) string {
	if c.generator == nil {
		return fallbackReply(len(items))
	}

	userPrompt := fmt.Sprintf("שאלת הלקוח: %q\n\n%s\n\nתן תשובה קצרה וידידותית (עד 2 משפטים) שמתאימה לשאלה ולמוצרים שנמצאו.",
		message, productsContext(items))

	reply, err := c.generator.Generate(ctx, composerSystemPrompt, userPrompt)
	if err != nil {
		logger.LLMWarn("Reply generation failed, using fallback: %v", err)
		return fallbackReply(len(items))
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return fallbackReply(len(items))
	}
	return reply
}

// productsContext renders the retrieved products as a short list the model
// can describe, one line per product.
func productsContext(items []core.ScoredProduct) string {
	if len(items) == 0 {
		return "לא נמצאו מוצרים מתאימים בחנות."
	}
	if len(items) > maxSummaryItems {
		items = items[:maxSummaryItems]
	}
	var b strings.Builder
	b.WriteString("מצאתי את המוצרים הבאים:\n")
	for _, it := range items {
		brand := it.Product.Brand
		if brand == "" {
			brand = "ללא מותג"
		}
		price := "N/A"
		if v := it.Product.EffectivePrice(); v != "" {
			price = v
		}
		fmt.Fprintf(&b, "- %s (%s) - ₪%s\n", it.Product.Name, brand, price)
	}
	return strings.TrimRight(b.String(), "\n")
}

// fallbackReply is used when the generator is missing or errors.
func fallbackReply(count int) string {
	if count > 0 {
		return fmt.Sprintf("מצאתי %d מוצרים עבורך! 🐾", count)
	}
	return "לא מצאתי מוצרים מתאימים. אשמח לעזור בחיפוש אחר!"
}
