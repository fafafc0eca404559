package preview

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/abhisek/readgate/internal/source"
)

type countingFetcher struct {
	calls atomic.Int32
	p     *source.Preview
}

func (c *countingFetcher) FetchPreview(context.Context, string) (*source.Preview, error) {
	c.calls.Add(1)
	return c.p, nil
}

func TestRedisCache_FallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	inner := &countingFetcher{p: &source.Preview{Title: "t"}}
	c := NewRedisCache(client, inner, time.Minute, zaptest.NewLogger(t))

	p, err := c.FetchPreview(context.Background(), "https://news.example/a")
	if err != nil {
		t.Fatalf("FetchPreview: %v", err)
	}
	if p == nil || p.Title != "t" {
		t.Fatalf("preview = %+v", p)
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
}

func TestRedisCache_HitSkipsInner(t *testing.T) {
	addr := os.Getenv("READGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("READGATE_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	url := "https://news.example/cached-" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { client.Del(context.Background(), cacheKey(url)) })

	inner := &countingFetcher{p: &source.Preview{Title: "cached", Content: "body"}}
	c := NewRedisCache(client, inner, time.Minute, zaptest.NewLogger(t))

	for i := 0; i < 3; i++ {
		p, err := c.FetchPreview(context.Background(), url)
		if err != nil {
			t.Fatalf("FetchPreview: %v", err)
		}
		if p.Title != "cached" || p.Content != "body" {
			t.Fatalf("preview = %+v", p)
		}
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls.Load())
	}
}

func TestRedisCache_NilPreviewNotCached(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()

	inner := &countingFetcher{}
	c := NewRedisCache(client, inner, time.Minute, nil)
	p, err := c.FetchPreview(context.Background(), "https://news.example/none")
	if err != nil || p != nil {
		t.Fatalf("FetchPreview = %+v, %v; want nil, nil", p, err)
	}
}
