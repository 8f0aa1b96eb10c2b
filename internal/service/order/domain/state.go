// internal/service/order/domain/state.go
package domain

import "strconv"

// Status 是订单状态，取值与数据库中持久化的整数一致
type Status int

const (
	StatusPendingPayment     Status = 1 // 待付款
	StatusToBeConfirmed      Status = 2 // 待接单
	StatusConfirmed          Status = 3 // 已接单
	StatusDeliveryInProgress Status = 4 // 派送中
	StatusCompleted          Status = 5 // 已完成
	StatusCancelled          Status = 6 // 已取消
)

var statusNames = map[Status]string{
	StatusPendingPayment:     "PENDING_PAYMENT",
	StatusToBeConfirmed:      "TO_BE_CONFIRMED",
	StatusConfirmed:          "CONFIRMED",
	StatusDeliveryInProgress: "DELIVERY_IN_PROGRESS",
	StatusCompleted:          "COMPLETED",
	StatusCancelled:          "CANCELLED",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
}

// 订单只能向前流转
var transitions = map[Status][]Status{
	StatusPendingPayment:     {StatusToBeConfirmed, StatusCancelled},
	StatusToBeConfirmed:      {StatusConfirmed, StatusCancelled},
	StatusConfirmed:          {StatusDeliveryInProgress, StatusCancelled},
	StatusDeliveryInProgress: {StatusCompleted},
}

// CanTransition 判断 from -> to 是否是合法流转
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
