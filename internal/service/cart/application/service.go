// internal/service/cart/application/service.go
package application

import (
	"context"
	"time"

	"sky-takeout/internal/pkg/logger"
	"sky-takeout/internal/service/cart/domain"

	"github.com/pkg/errors"
)

// CartService 实现购物车的增减查清，用户 id 由调用方显式传入
type CartService struct {
	repo    domain.CartRepository
	catalog domain.Catalog
	now     func() time.Time
}

func NewCartService(repo domain.CartRepository, catalog domain.Catalog) *CartService {
	return &CartService{repo: repo, catalog: catalog, now: time.Now}
}

// Add 已存在则数量加一，否则从菜品或套餐复制名称、图片和单价插入一行
func (s *CartService) Add(ctx context.Context, userID int64, key domain.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	existing, err := s.repo.FindOne(ctx, userID, key)
	switch {
	case err == nil:
		return s.repo.AddNumber(ctx, existing.ID, 1)
	case !errors.Is(err, domain.ErrCartItemNotFound):
		return err
	}

	var product *domain.CatalogItem
	if key.DishID != nil {
		product, err = s.catalog.Dish(ctx, *key.DishID)
	} else {
		product, err = s.catalog.Setmeal(ctx, *key.SetmealID)
	}
	if err != nil {
		return err
	}

	item := &domain.Item{
		UserID:     userID,
		Name:       product.Name,
		Image:      product.Image,
		DishID:     key.DishID,
		SetmealID:  key.SetmealID,
		DishFlavor: key.DishFlavor,
		Number:     1,
		Amount:     product.Price,
		CreateTime: s.now(),
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return err
	}
	logger.Ctx(ctx).Debug().Int64("user_id", userID).Str("name", item.Name).Msg("cart item added")
	return nil
}

// Sub 数量减一，减到 0 时删除该行
func (s *CartService) Sub(ctx context.Context, userID int64, key domain.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.FindOne(ctx, userID, key)
	if err != nil {
		return err
	}
	if existing.Number <= 1 {
		return s.repo.Delete(ctx, existing.ID)
	}
	return s.repo.AddNumber(ctx, existing.ID, -1)
}

func (s *CartService) List(ctx context.Context, userID int64) ([]*domain.Item, error) {
	return s.repo.List(ctx, userID)
}

func (s *CartService) Clean(ctx context.Context, userID int64) error {
	return s.repo.DeleteByUser(ctx, userID)
}
