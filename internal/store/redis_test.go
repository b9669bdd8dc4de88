package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopipet/chatkit/internal/core"
)

// fakeRedis backs the RedisClient interface with a plain map.
type fakeRedis struct {
	data map[string][]byte
	err  error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	val, ok := f.data[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(val))
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	s := NewRedisStore(client, "shopibot:")

	if err := s.Set(ctx, "catalog", []byte("blob")); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if _, ok := client.data["shopibot:catalog"]; !ok {
		t.Error("key prefix was not applied")
	}

	got, err := s.Get(ctx, "catalog")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != "blob" {
		t.Errorf("Get() = %q, want blob", got)
	}
}

func TestRedisStoreMissingKey(t *testing.T) {
	s := NewRedisStore(newFakeRedis(), "")
	if _, err := s.Get(context.Background(), "absent"); !errors.Is(err, core.ErrCatalogEmpty) {
		t.Errorf("Get(absent) error = %v, want ErrCatalogEmpty", err)
	}
}

func TestRedisStoreBackendFailure(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	client.err = errors.New("connection refused")
	s := NewRedisStore(client, "")

	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Get error = %v, want ErrStoreUnavailable", err)
	}
	if err := s.Set(ctx, "k", []byte("v")); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Set error = %v, want ErrStoreUnavailable", err)
	}
	if err := s.Delete(ctx, "k"); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Delete error = %v, want ErrStoreUnavailable", err)
	}
	if err := s.Ping(ctx); !errors.Is(err, core.ErrStoreUnavailable) {
		t.Errorf("Ping error = %v, want ErrStoreUnavailable", err)
	}
}

func TestRedisStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(newFakeRedis(), "")

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrCatalogEmpty) {
		t.Errorf("Get after Delete error = %v, want ErrCatalogEmpty", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(absent) error = %v", err)
	}
}

func TestNewRedisStoreFromURL(t *testing.T) {
	if _, err := NewRedisStoreFromURL("redis://localhost:6379/0", ""); err != nil {
		t.Errorf("valid URL rejected: %v", err)
	}
	if _, err := NewRedisStoreFromURL("://not-a-url", ""); err == nil {
		t.Error("invalid URL accepted")
	}
}
