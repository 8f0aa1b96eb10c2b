package infrastructure

import (
	"context"

	"sky-takeout/internal/service/cart/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormCartRepository 是 CartRepository 的 GORM 实现
type GormCartRepository struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) FindOne(ctx context.Context, userID int64, key domain.Key) (*domain.Item, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if key.DishID != nil {
		q = q.Where("dish_id = ?", *key.DishID)
	} else {
		q = q.Where("setmeal_id = ?", *key.SetmealID)
	}
	if key.DishFlavor != "" {
		q = q.Where("dish_flavor = ?", key.DishFlavor)
	} else {
		q = q.Where("(dish_flavor IS NULL OR dish_flavor = '')")
	}

	var model ShoppingCartModel
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, errors.Wrap(err, "find shopping cart item")
	}
	return ToDomainItem(&model), nil
}

func (r *GormCartRepository) List(ctx context.Context, userID int64) ([]*domain.Item, error) {
	var models []*ShoppingCartModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("create_time").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list shopping cart")
	}
	items := make([]*domain.Item, len(models))
	for i, m := range models {
		items[i] = ToDomainItem(m)
	}
	return items, nil
}

func (r *GormCartRepository) Insert(ctx context.Context, item *domain.Item) error {
	model := FromDomainItem(item)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(err, "insert shopping cart item")
	}
	item.ID = model.ID
	return nil
}

// AddNumber 在数据库中做增量更新，避免并发加购丢失数量
func (r *GormCartRepository) AddNumber(ctx context.Context, id int64, delta int) error {
	tx := r.db.WithContext(ctx).Model(&ShoppingCartModel{}).
		Where("id = ?", id).
		Update("number", gorm.Expr("number + ?", delta))
	if tx.Error != nil {
		return errors.Wrapf(tx.Error, "update shopping cart item %d", id)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *GormCartRepository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&ShoppingCartModel{}, id).Error; err != nil {
		return errors.Wrapf(err, "delete shopping cart item %d", id)
	}
	return nil
}

func (r *GormCartRepository) DeleteByUser(ctx context.Context, userID int64) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&ShoppingCartModel{}).Error; err != nil {
		return errors.Wrapf(err, "clean shopping cart of user %d", userID)
	}
	return nil
}
