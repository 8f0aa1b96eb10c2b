package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"sky-takeout/internal/service/order/domain"

	"github.com/pkg/errors"
)

// PushTypeStatusChanged 与管理端约定的消息类型，1 来单提醒，2 客户催单，3 状态变更
const PushTypeStatusChanged = 3

// Broadcaster 由 websocket Hub 实现
type Broadcaster interface {
	Broadcast(message []byte) int
}

// PushMessage 是推送给管理端的消息体
type PushMessage struct {
	Type    int    `json:"type"`
	OrderID int64  `json:"orderId"`
	Content string `json:"content"`
	From    int    `json:"from"`
	To      int    `json:"to"`
}

// PushNotifier 直接推送给本实例上连接的管理端
type PushNotifier struct {
	hub Broadcaster
}

func NewPushNotifier(hub Broadcaster) *PushNotifier {
	return &PushNotifier{hub: hub}
}

func (n *PushNotifier) Notify(_ context.Context, event *domain.OrderStatusChanged) error {
	message, err := EncodePushMessage(event)
	if err != nil {
		return err
	}
	n.hub.Broadcast(message)
	return nil
}

// EncodePushMessage 把状态变更事件转换为管理端消息
func EncodePushMessage(event *domain.OrderStatusChanged) ([]byte, error) {
	content := fmt.Sprintf("订单号：%s 已由系统%s", event.Number, describe(event))
	data, err := json.Marshal(PushMessage{
		Type:    PushTypeStatusChanged,
		OrderID: event.OrderID,
		Content: content,
		From:    int(event.From),
		To:      int(event.To),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal push message")
	}
	return data, nil
}

func describe(event *domain.OrderStatusChanged) string {
	switch event.To {
	case domain.StatusCancelled:
		if event.Reason != "" {
			return "取消（" + event.Reason + "）"
		}
		return "取消"
	case domain.StatusCompleted:
		return "完成"
	default:
		return "更新为 " + event.To.String()
	}
}
