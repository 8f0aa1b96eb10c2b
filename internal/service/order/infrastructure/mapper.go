package infrastructure

import (
	"database/sql"
	"time"

	"sky-takeout/internal/service/order/domain"
)

// ToDomainOrder 将数据库模型转换为领域模型，并记录加载时的状态
func ToDomainOrder(model *OrderModel) *domain.Order {
	if model == nil {
		return nil
	}
	order := &domain.Order{
		ID:           model.ID,
		Number:       model.Number,
		UserID:       model.UserID,
		Amount:       model.Amount,
		Status:       domain.Status(model.Status),
		OrderTime:    model.OrderTime,
		CheckoutTime: nullTimePtr(model.CheckoutTime),
		CancelReason: model.CancelReason.String,
		CancelTime:   nullTimePtr(model.CancelTime),
	}
	return order.Rehydrate()
}

// ToUpdateColumns 返回状态流转需要写回的列。
// 取消字段只在订单被取消时写入，其余状态不触碰它们。
func ToUpdateColumns(order *domain.Order) map[string]interface{} {
	columns := map[string]interface{}{
		"status": int(order.Status),
	}
	if order.Status == domain.StatusCancelled {
		columns["cancel_reason"] = sql.NullString{String: order.CancelReason, Valid: order.CancelReason != ""}
		columns["cancel_time"] = timePtrNull(order.CancelTime)
	}
	return columns
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func timePtrNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
