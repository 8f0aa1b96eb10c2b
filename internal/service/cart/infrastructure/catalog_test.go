package infrastructure

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"sky-takeout/internal/service/cart/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

type countingCatalog struct {
	calls atomic.Int32
}

func (c *countingCatalog) Dish(_ context.Context, id int64) (*domain.CatalogItem, error) {
	c.calls.Add(1)
	if id == 404 {
		return nil, domain.ErrCatalogItemNotFound
	}
	return &domain.CatalogItem{ID: id, Name: "鱼香肉丝", Price: decimal.RequireFromString("22.5")}, nil
}

func (c *countingCatalog) Setmeal(_ context.Context, id int64) (*domain.CatalogItem, error) {
	c.calls.Add(1)
	return &domain.CatalogItem{ID: id, Name: "双人餐", Price: decimal.NewFromInt(68)}, nil
}

func TestCachedCatalog_HitsCacheOnSecondLoad(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	next := &countingCatalog{}
	cache := NewCachedCatalog(next, client, time.Minute)
	client.Del(ctx, catalogCachePrefix+"dish:11")

	first, err := cache.Dish(ctx, 11)
	if err != nil {
		t.Fatalf("Dish returned error: %v", err)
	}
	second, err := cache.Dish(ctx, 11)
	if err != nil {
		t.Fatalf("Dish returned error: %v", err)
	}
	if next.calls.Load() != 1 {
		t.Errorf("expected 1 backend call, got %d", next.calls.Load())
	}
	if second.Name != first.Name || !second.Price.Equal(first.Price) {
		t.Errorf("cached item differs: %+v vs %+v", second, first)
	}
	client.Del(ctx, catalogCachePrefix+"dish:11")
}

func TestCachedCatalog_NotFoundIsNotCached(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	next := &countingCatalog{}
	cache := NewCachedCatalog(next, client, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.Dish(ctx, 404); err != domain.ErrCatalogItemNotFound {
			t.Fatalf("expected ErrCatalogItemNotFound, got %v", err)
		}
	}
	if next.calls.Load() != 2 {
		t.Errorf("expected misses to reach the backend, got %d calls", next.calls.Load())
	}
}
