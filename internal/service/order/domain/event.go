// internal/service/order/domain/event.go
package domain

import "time"

// OrderStatusChanged 在巡检成功推进一个订单后发布
type OrderStatusChanged struct {
	EventID string    `json:"eventId"`
	OrderID int64     `json:"orderId"`
	Number  string    `json:"number"`
	UserID  int64     `json:"userId"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
	Reason  string    `json:"reason,omitempty"`
	Rule    string    `json:"rule"`
	At      time.Time `json:"at"`
}
