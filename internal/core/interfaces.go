package core

import "context"

// EmbedService converts free text into a fixed-length embedding vector.
// Implementations are stateless: the output is a pure function of the input.
type EmbedService interface {
	// EmbedQuery embeds a single piece of text. Fails with
	// ErrEmbeddingUnavailable when the text is empty or the provider errors.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// CatalogStore is a durable key-value cache holding one serialized snapshot
// blob per key. No transactions, no partial writes.
type CatalogStore interface {
	// Get returns the blob at key, or ErrCatalogEmpty if the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the blob at key in a single write.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the blob at key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// ProductSource produces normalized product records from an external catalog,
// either a spreadsheet with a fixed header mapping or a paginated
// e-commerce listing API.
type ProductSource interface {
	FetchProducts(ctx context.Context) ([]ProductRecord, error)
}

// TextGenerator produces a natural-language completion. Used only by the
// response composer; it never decides which products are shown.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
