// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// FindByStatusOlderThan 返回状态为 status 且下单时间早于 cutoff 的订单
	FindByStatusOlderThan(ctx context.Context, status Status, cutoff time.Time) ([]*Order, error)

	// Update 持久化状态及取消字段，条件是订单仍处于 PreviousStatus，否则返回 ErrOrderConflict
	Update(ctx context.Context, order *Order) error
}

// Guard 是巡检规则上可选的附加过滤条件
type Guard interface {
	Allow(order *Order) (bool, error)
}

// Notifier 接收订单状态变更事件
type Notifier interface {
	Notify(ctx context.Context, event *OrderStatusChanged) error
}
