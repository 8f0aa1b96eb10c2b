package domain

import "errors"

var (
	// ErrInvalidTransition 订单当前状态不允许目标流转
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrOrderConflict 条件更新没有命中，订单已被并发修改（例如刚好完成支付）
	ErrOrderConflict = errors.New("order status changed concurrently")
)
