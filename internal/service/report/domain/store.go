// internal/service/report/domain/store.go
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// GoodsSales 是某个菜品或套餐在区间内的销量
type GoodsSales struct {
	Name   string
	Number int
}

// Store 提供统计所需的聚合查询，所有区间均为 [begin, end)
type Store interface {
	// Turnover 已完成订单的金额合计，没有订单时为 0
	Turnover(ctx context.Context, begin, end time.Time) (decimal.Decimal, error)
	// CountOrders 统计下单数，validOnly 时只统计已完成订单
	CountOrders(ctx context.Context, begin, end time.Time, validOnly bool) (int, error)
	// CountUsers 统计注册时间在 [since, until) 的用户，since 为零值时不设下限
	CountUsers(ctx context.Context, since, until time.Time) (int, error)
	// SalesTop 已完成订单中销量最高的商品
	SalesTop(ctx context.Context, begin, end time.Time, limit int) ([]GoodsSales, error)
}

// BusinessData 是一段时间内的运营概览
type BusinessData struct {
	Turnover            decimal.Decimal `json:"turnover"`
	ValidOrderCount     int             `json:"validOrderCount"`
	OrderCompletionRate float64         `json:"orderCompletionRate"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	NewUsers            int             `json:"newUsers"`
}

// CompletionRate 有效订单占比，没有订单时为 0
func CompletionRate(valid, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(valid) / float64(total)
}

// UnitPrice 平均客单价，保留两位小数，没有有效订单时为 0
func UnitPrice(turnover decimal.Decimal, valid int) decimal.Decimal {
	if valid == 0 {
		return decimal.Zero
	}
	return turnover.DivRound(decimal.NewFromInt(int64(valid)), 2)
}
