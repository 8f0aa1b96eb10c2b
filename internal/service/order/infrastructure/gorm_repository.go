package infrastructure

import (
	"context"
	"time"

	"sky-takeout/internal/service/order/domain"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 仓储实例
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByStatusOlderThan 使用 (status, order_time) 索引查找停滞的订单
func (r *GormOrderRepository) FindByStatusOlderThan(ctx context.Context, status domain.Status, cutoff time.Time) ([]*domain.Order, error) {
	var models []*OrderModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND order_time < ?", int(status), cutoff).
		Order("order_time").
		Find(&models).Error
	if err != nil {
		return nil, errors.Wrapf(err, "query orders by status %d", status)
	}

	orders := make([]*domain.Order, len(models))
	for i, m := range models {
		orders[i] = ToDomainOrder(m)
	}
	return orders, nil
}

// Update 以加载时的状态作为条件做部分更新，没有命中行说明订单已被并发修改
func (r *GormOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	tx := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND status = ?", order.ID, int(order.PreviousStatus())).
		Updates(ToUpdateColumns(order))
	if tx.Error != nil {
		return errors.Wrapf(tx.Error, "update order %d", order.ID)
	}
	if tx.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrOrderConflict, "order %d", order.ID)
	}
	return nil
}
