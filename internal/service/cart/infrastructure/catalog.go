package infrastructure

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/service/cart/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// GormCatalog 从 dish / setmeal 表读取商品信息
type GormCatalog struct {
	db *gorm.DB
}

func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) Dish(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	var model DishModel
	if err := c.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCatalogItemNotFound
		}
		return nil, errors.Wrapf(err, "find dish %d", id)
	}
	return &domain.CatalogItem{ID: model.ID, Name: model.Name, Image: model.Image, Price: model.Price}, nil
}

func (c *GormCatalog) Setmeal(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	var model SetmealModel
	if err := c.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCatalogItemNotFound
		}
		return nil, errors.Wrapf(err, "find setmeal %d", id)
	}
	return &domain.CatalogItem{ID: model.ID, Name: model.Name, Image: model.Image, Price: model.Price}, nil
}

const catalogCachePrefix = "sky:catalog:"

// CachedCatalog 在 Redis 中缓存商品信息，Redis 出错时直接回源
type CachedCatalog struct {
	next   domain.Catalog
	client *redis.Client
	ttl    time.Duration
}

func NewCachedCatalog(next domain.Catalog, client *redis.Client, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, client: client, ttl: ttl}
}

func (c *CachedCatalog) Dish(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	return c.load(ctx, "dish:"+strconv.FormatInt(id, 10), func() (*domain.CatalogItem, error) {
		return c.next.Dish(ctx, id)
	})
}

func (c *CachedCatalog) Setmeal(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	return c.load(ctx, "setmeal:"+strconv.FormatInt(id, 10), func() (*domain.CatalogItem, error) {
		return c.next.Setmeal(ctx, id)
	})
}

func (c *CachedCatalog) load(ctx context.Context, key string, fetch func() (*domain.CatalogItem, error)) (*domain.CatalogItem, error) {
	key = catalogCachePrefix + key
	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var item domain.CatalogItem
		if err := json.Unmarshal(data, &item); err == nil {
			return &item, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	item, err := fetch()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(item); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
		}
	}
	return item, nil
}
