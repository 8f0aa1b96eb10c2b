package infrastructure

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	orderdomain "sky-takeout/internal/service/order/domain"
	"sky-takeout/internal/service/report/domain"
)

// GormStore 用 SQL 聚合实现报表查询
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Turnover(ctx context.Context, begin, end time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := s.db.WithContext(ctx).
		Model(&orderRow{}).
		Select("SUM(amount)").
		Where("status = ? AND order_time >= ? AND order_time < ?", int(orderdomain.StatusCompleted), begin, end).
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sum turnover")
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (s *GormStore) CountOrders(ctx context.Context, begin, end time.Time, validOnly bool) (int, error) {
	q := s.db.WithContext(ctx).
		Model(&orderRow{}).
		Where("order_time >= ? AND order_time < ?", begin, end)
	if validOnly {
		q = q.Where("status = ?", int(orderdomain.StatusCompleted))
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count orders")
	}
	return int(n), nil
}

func (s *GormStore) CountUsers(ctx context.Context, since, until time.Time) (int, error) {
	q := s.db.WithContext(ctx).Model(&UserModel{}).Where("create_time < ?", until)
	if !since.IsZero() {
		q = q.Where("create_time >= ?", since)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "count users")
	}
	return int(n), nil
}

func (s *GormStore) SalesTop(ctx context.Context, begin, end time.Time, limit int) ([]domain.GoodsSales, error) {
	var rows []struct {
		Name   string
		Number int
	}
	err := s.db.WithContext(ctx).
		Table("order_detail AS od").
		Select("od.name AS name, SUM(od.number) AS number").
		Joins("JOIN orders AS o ON od.order_id = o.id").
		Where("o.status = ? AND o.order_time >= ? AND o.order_time < ?", int(orderdomain.StatusCompleted), begin, end).
		Group("od.name").
		Order("number DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "query sales top")
	}

	sales := make([]domain.GoodsSales, len(rows))
	for i, r := range rows {
		sales[i] = domain.GoodsSales{Name: r.Name, Number: r.Number}
	}
	return sales, nil
}
