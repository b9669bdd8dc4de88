package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopipet/chatkit/internal/core"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) (*OpenAIEmbedder, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewOpenAIEmbedder(Config{BaseURL: srv.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestEmbedQuery(t *testing.T) {
	var gotAuth string
	var gotBody struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	c, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	})

	vec, err := c.EmbedQuery(context.Background(), "מזון\nלכלבים")
	if err != nil {
		t.Fatalf("EmbedQuery() error: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("vector length = %d, want 3", len(vec))
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if len(gotBody.Input) != 1 || gotBody.Input[0] != "מזון לכלבים" {
		t.Errorf("input = %v, want newline flattened", gotBody.Input)
	}
	if gotBody.Model != DefaultModel {
		t.Errorf("model = %q, want %q", gotBody.Model, DefaultModel)
	}
	if c.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", c.Dimension())
	}
}

func TestEmbedQueryEmptyText(t *testing.T) {
	c, err := NewOpenAIEmbedder(Config{APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.EmbedQuery(context.Background(), "   \n  "); !errors.Is(err, core.ErrEmbeddingUnavailable) {
		t.Errorf("empty text error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedQueryRetriesServerErrors(t *testing.T) {
	attempts := 0
	c, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{1}}},
		})
	})

	if _, err := c.EmbedQuery(context.Background(), "מזון לכלבים"); err != nil {
		t.Fatalf("EmbedQuery() error after retries: %v", err)
	}
	if attempts != 3 {
		t.Errorf("server saw %d attempts, want 3", attempts)
	}
}

func TestEmbedQueryClientErrorNoRetry(t *testing.T) {
	attempts := 0
	c, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.EmbedQuery(context.Background(), "מזון לכלבים")
	if !errors.Is(err, core.ErrEmbeddingUnavailable) {
		t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
	}
	if attempts != 1 {
		t.Errorf("4xx was retried %d times", attempts)
	}
}

func TestEmbedQueryExhaustedRetries(t *testing.T) {
	c, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	c.maxRetries = 1

	if _, err := c.EmbedQuery(context.Background(), "מזון לכלבים"); !errors.Is(err, core.ErrEmbeddingUnavailable) {
		t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedQueryConcurrent(t *testing.T) {
	c, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1, 0.2, 0.3}}},
		})
	})

	// Chat handlers embed concurrently; the first-call dimension capture must
	// hold up under the race detector.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.EmbedQuery(context.Background(), "מזון לכלבים"); err != nil {
				t.Errorf("EmbedQuery() error: %v", err)
			}
		}()
	}
	wg.Wait()

	if c.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", c.Dimension())
	}
}

func TestEmbedQueryRetryAfterHonorsContext(t *testing.T) {
	c, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.EmbedQuery(ctx, "מזון לכלבים")
	if !errors.Is(err, core.ErrEmbeddingUnavailable) {
		t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("canceled request still waited %v on Retry-After", elapsed)
	}
}

func TestNewOpenAIEmbedderRequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(Config{}); err == nil {
		t.Error("missing API key accepted")
	}
}
