package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = "text-embedding-3-small"

// OpenAIEmbedder implements core.EmbedService against an OpenAI-compatible
// embeddings endpoint.
type OpenAIEmbedder struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
	dimension  atomic.Int64
}

// Config configures the embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewOpenAIEmbedder creates a new embeddings client.
func NewOpenAIEmbedder(cfg Config) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing embeddings API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	return &OpenAIEmbedder{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: t},
		maxRetries: 5,
	}, nil
}

// Dimension returns the dimensionality observed on the first successful embed,
// or 0 before any call has completed. Safe for concurrent use.
func (c *OpenAIEmbedder) Dimension() int { return int(c.dimension.Load()) }

// EmbedQuery embeds a single piece of text. Newlines are flattened to spaces
// before the call; empty or whitespace-only text fails with
// core.ErrEmbeddingUnavailable rather than hitting the provider.
func (c *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	text = strings.ReplaceAll(text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty input text", core.ErrEmbeddingUnavailable)
	}

	type reqBody struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	url := c.baseURL + "/embeddings"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, ctx.Err())
			case <-time.After(retryDelay(attempt - 1)):
			}
		}

		data, err := json.Marshal(reqBody{Input: []string{text}, Model: c.model})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal embeddings request: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			// Respect Retry-After if provided
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, convErr := strconv.Atoi(ra); convErr == nil {
					logger.Debug("Embeddings endpoint asked to retry after %ds", secs)
					select {
					case <-ctx.Done():
						_ = resp.Body.Close()
						return nil, fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, ctx.Err())
					case <-time.After(time.Duration(secs) * time.Second):
					}
				}
			}
			lastErr = fmt.Errorf("embeddings request failed: %s", resp.Status)
			_ = resp.Body.Close()
			continue
		}

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("%w: %s: %s", core.ErrEmbeddingUnavailable, resp.Status, truncate(string(body), 200))
		}

		payload, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		var out struct {
			Data []struct {
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}
		if err := json.Unmarshal(payload, &out); err != nil {
			lastErr = fmt.Errorf("failed to decode embeddings response: %w", err)
			continue
		}
		if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
			lastErr = fmt.Errorf("embeddings response contained no vector")
			continue
		}

		v := out.Data[0].Embedding
		c.dimension.CompareAndSwap(0, int64(len(v)))
		return v, nil
	}

	return nil, fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, lastErr)
}

// retryDelay computes an exponential backoff capped at 5s.
func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
