// internal/service/order/domain/order.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order 是订单聚合的根实体，只包含巡检用到的字段
type Order struct {
	ID           int64
	Number       string
	UserID       int64
	Amount       decimal.Decimal
	Status       Status
	OrderTime    time.Time
	CheckoutTime *time.Time
	CancelReason string
	CancelTime   *time.Time

	// 加载时的状态，持久化时作为乐观锁条件
	loadedStatus Status
}

// Rehydrate 从存储恢复订单时调用，记录加载时的状态
func (o *Order) Rehydrate() *Order {
	o.loadedStatus = o.Status
	return o
}

// PreviousStatus 返回订单被加载时的状态
func (o *Order) PreviousStatus() Status {
	if o.loadedStatus == 0 {
		return o.Status
	}
	return o.loadedStatus
}

// Cancel 取消订单，同时记录原因和时间
func (o *Order) Cancel(reason string, at time.Time) error {
	if !CanTransition(o.Status, StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusCancelled)
	}
	o.Status = StatusCancelled
	o.CancelReason = reason
	o.CancelTime = &at
	return nil
}

// Complete 完成派送中的订单，不修改其他字段
func (o *Order) Complete() error {
	if !CanTransition(o.Status, StatusCompleted) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, StatusCompleted)
	}
	o.Status = StatusCompleted
	return nil
}

// TransitionTo 是巡检规则使用的通用入口
func (o *Order) TransitionTo(to Status, reason string, at time.Time) error {
	switch to {
	case StatusCancelled:
		return o.Cancel(reason, at)
	case StatusCompleted:
		return o.Complete()
	default:
		if !CanTransition(o.Status, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
		}
		o.Status = to
		return nil
	}
}
